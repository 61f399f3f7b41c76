package infra

import (
	"fmt"

	"github.com/aws/aws-cdk-go/awscdk/v2"
	"github.com/aws/aws-cdk-go/awscdk/v2/awsbedrock"
	"github.com/aws/aws-cdk-go/awscdk/v2/awsdynamodb"
	"github.com/aws/aws-cdk-go/awscdk/v2/awsec2"
	"github.com/aws/aws-cdk-go/awscdk/v2/awsiam"
	"github.com/aws/constructs-go/constructs/v10"
	"github.com/aws/jsii-runtime-go"
)

const StackName = "TravelAppInfrastructure"

type TravelAppStackProps struct {
	awscdk.StackProps
	// CitiesTable is the existing DynamoDB table the app reads.
	CitiesTable string
	// Region selects the CodeDeploy agent bucket.
	Region string
}

// NewTravelAppStack builds a single-AZ VPC with one public web server that
// can read the cities table and call Bedrock.
func NewTravelAppStack(scope constructs.Construct, id string, props *TravelAppStackProps) awscdk.Stack {
	stack := awscdk.NewStack(scope, &id, &props.StackProps)

	vpc := awsec2.NewVpc(stack, jsii.String("MyVpc"), &awsec2.VpcProps{
		IpAddresses: awsec2.IpAddresses_Cidr(jsii.String("10.0.0.0/16")),
		MaxAzs:      jsii.Number(1),
		SubnetConfiguration: &[]*awsec2.SubnetConfiguration{{
			Name:       jsii.String("PublicSubnet"),
			SubnetType: awsec2.SubnetType_PUBLIC,
		}},
	})

	role := awsiam.NewRole(stack, jsii.String("InstanceRole"), &awsiam.RoleProps{
		AssumedBy: awsiam.NewServicePrincipal(jsii.String("ec2.amazonaws.com"), nil),
		RoleName:  jsii.String("app-role"),
		ManagedPolicies: &[]awsiam.IManagedPolicy{
			awsiam.ManagedPolicy_FromAwsManagedPolicyName(jsii.String("AmazonSSMManagedInstanceCore")),
		},
	})

	model := awsbedrock.FoundationModel_FromFoundationModelId(stack, jsii.String("Model"),
		awsbedrock.FoundationModelIdentifier_AMAZON_NOVA_LITE_V1_0())
	role.AddToPolicy(awsiam.NewPolicyStatement(&awsiam.PolicyStatementProps{
		Actions: jsii.Strings(
			"bedrock:InvokeModelWithResponseStream",
			"bedrock:InvokeModel",
			"bedrock:Retrieve",
			"bedrock:RetrieveAndGenerate",
			"bedrock:ListKnowledgeBases",
			"bedrock:ListFoundationModels",
		),
		Resources: &[]*string{jsii.String("arn:aws:bedrock:*:*:*"), model.ModelArn()},
	}))

	table := awsdynamodb.Table_FromTableName(stack, jsii.String("Cities table"), jsii.String(props.CitiesTable))
	role.AddToPolicy(awsiam.NewPolicyStatement(&awsiam.PolicyStatementProps{
		Actions:   jsii.Strings("dynamodb:GetItem", "dynamodb:Query", "dynamodb:Scan"),
		Resources: &[]*string{table.TableArn()},
	}))

	// CodeDeploy pulls revisions from the pipeline artifact buckets.
	role.AddToPolicy(awsiam.NewPolicyStatement(&awsiam.PolicyStatementProps{
		Actions:   jsii.Strings("s3:GetObject"),
		Resources: jsii.Strings("arn:aws:s3:::codepipeline-*"),
	}))

	instance := awsec2.NewInstance(stack, jsii.String("WebServer"), &awsec2.InstanceProps{
		InstanceType: awsec2.InstanceType_Of(awsec2.InstanceClass_BURSTABLE2, awsec2.InstanceSize_MICRO),
		MachineImage: awsec2.MachineImage_LatestAmazonLinux2023(nil),
		Vpc:          vpc,
		Role:         role,
	})
	awscdk.Tags_Of(instance).Add(jsii.String("Name"), jsii.String("travel-app"), nil)

	instance.AddUserData(
		jsii.String("yum install -y nginx ruby"),
		jsii.String("systemctl enable nginx --now"),
		jsii.String("cd ~"),
		jsii.String(codeDeployInstaller(props.Region)),
		jsii.String("chmod +x ./install"),
		jsii.String("sudo ./install auto"),
	)

	instance.Connections().AllowFromAnyIpv4(awsec2.Port_Tcp(jsii.Number(80)), jsii.String("HTTP from anywhere"))

	awscdk.NewCfnOutput(stack, jsii.String("InstanceHttpUrl"), &awscdk.CfnOutputProps{
		Value: jsii.String("http://" + *instance.InstancePublicIp()),
	})

	return stack
}

func codeDeployInstaller(region string) string {
	return fmt.Sprintf("wget https://aws-codedeploy-%[1]s.s3.%[1]s.amazonaws.com/latest/install", region)
}
