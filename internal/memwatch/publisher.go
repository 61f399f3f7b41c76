package memwatch

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	cwtypes "github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
)

const metricName = "MemoryUsage"

// CloudWatchAPI is the part of *cloudwatch.Client used here.
type CloudWatchAPI interface {
	PutMetricData(ctx context.Context, params *cloudwatch.PutMetricDataInput, optFns ...func(*cloudwatch.Options)) (*cloudwatch.PutMetricDataOutput, error)
}

// CloudWatchPublisher posts per-process memory usage as custom metrics.
type CloudWatchPublisher struct {
	client    CloudWatchAPI
	namespace string
	hostname  string
}

func NewCloudWatchPublisher(client CloudWatchAPI, namespace, hostname string) *CloudWatchPublisher {
	return &CloudWatchPublisher{client: client, namespace: namespace, hostname: hostname}
}

// Publish sends one MemoryUsage datum for process, dimensioned by host and
// process name.
func (p *CloudWatchPublisher) Publish(ctx context.Context, processName string, bytes uint64) error {
	_, err := p.client.PutMetricData(ctx, &cloudwatch.PutMetricDataInput{
		Namespace: aws.String(p.namespace),
		MetricData: []cwtypes.MetricDatum{{
			MetricName: aws.String(metricName),
			Dimensions: []cwtypes.Dimension{
				{Name: aws.String("Hostname"), Value: aws.String(p.hostname)},
				{Name: aws.String("ProcessName"), Value: aws.String(processName)},
			},
			Value: aws.Float64(float64(bytes)),
			Unit:  cwtypes.StandardUnitBytes,
		}},
	})
	if err != nil {
		return fmt.Errorf("put metric data for %s: %w", processName, err)
	}
	return nil
}
