// Command infra synthesizes the CloudFormation stack that hosts the city guide.
package main

import (
	"log"
	"os"

	"github.com/aws/aws-cdk-go/awscdk/v2"
	"github.com/aws/jsii-runtime-go"

	"github.com/FACorreiaa/go-city-guide/config"
	"github.com/FACorreiaa/go-city-guide/internal/infra"
)

func main() {
	defer jsii.Close()

	cfg, err := config.InitConfig()
	if err != nil {
		log.Fatalf("FATAL: Error initializing config: %v", err)
	}

	app := awscdk.NewApp(nil)
	infra.NewTravelAppStack(app, infra.StackName, &infra.TravelAppStackProps{
		StackProps: awscdk.StackProps{
			Env: env(cfg.AWS.Region),
		},
		CitiesTable: cfg.CityStore.Table,
		Region:      cfg.AWS.Region,
	})
	app.Synth(nil)
}

// env pins the stack to the CLI's account and the configured region.
func env(region string) *awscdk.Environment {
	account := os.Getenv("CDK_DEFAULT_ACCOUNT")
	if account == "" {
		return &awscdk.Environment{Region: jsii.String(region)}
	}
	return &awscdk.Environment{
		Account: jsii.String(account),
		Region:  jsii.String(region),
	}
}
