package memwatch

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	cwtypes "github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type staticLister struct {
	samples []ProcessSample
	err     error
}

func (s staticLister) Processes(context.Context) ([]ProcessSample, error) {
	return s.samples, s.err
}

type MockCloudWatch struct {
	mock.Mock
}

func (m *MockCloudWatch) PutMetricData(ctx context.Context, params *cloudwatch.PutMetricDataInput, _ ...func(*cloudwatch.Options)) (*cloudwatch.PutMetricDataOutput, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*cloudwatch.PutMetricDataOutput), args.Error(1)
}

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(ctx context.Context, processName string, bytes uint64) error {
	return m.Called(ctx, processName, bytes).Error(0)
}

var hostSamples = []ProcessSample{
	{Name: "nginx", RSS: 100},
	{Name: "nginx", RSS: 50},
	{Name: "amazon-ssm-agent", RSS: 700},
	{Name: "sshd", RSS: 999},
}

func TestCollector_Collect(t *testing.T) {
	ctx := context.Background()

	t.Run("sums per name", func(t *testing.T) {
		c := NewCollector(staticLister{samples: hostSamples}, []string{"nginx", "amazon-ssm-agent"})

		usage, err := c.Collect(ctx)

		require.NoError(t, err)
		assert.Equal(t, map[string]uint64{"nginx": 150, "amazon-ssm-agent": 700}, usage)
	})

	t.Run("absent processes are skipped", func(t *testing.T) {
		c := NewCollector(staticLister{samples: hostSamples}, []string{"postgres"})

		usage, err := c.Collect(ctx)

		require.NoError(t, err)
		assert.Empty(t, usage)
	})

	t.Run("lister error", func(t *testing.T) {
		c := NewCollector(staticLister{err: errors.New("permission denied")}, []string{"nginx"})

		_, err := c.Collect(ctx)

		assert.Error(t, err)
	})

	t.Run("no names", func(t *testing.T) {
		_, err := NewCollector(staticLister{}, nil).Collect(ctx)
		assert.Error(t, err)
	})
}

func TestCloudWatchPublisher_Publish(t *testing.T) {
	client := new(MockCloudWatch)
	publisher := NewCloudWatchPublisher(client, "HostResources", "web-1")
	client.On("PutMetricData", mock.Anything, mock.MatchedBy(func(in *cloudwatch.PutMetricDataInput) bool {
		if aws.ToString(in.Namespace) != "HostResources" || len(in.MetricData) != 1 {
			return false
		}
		d := in.MetricData[0]
		return aws.ToString(d.MetricName) == "MemoryUsage" &&
			d.Unit == cwtypes.StandardUnitBytes &&
			aws.ToFloat64(d.Value) == 150 &&
			len(d.Dimensions) == 2 &&
			aws.ToString(d.Dimensions[0].Name) == "Hostname" &&
			aws.ToString(d.Dimensions[0].Value) == "web-1" &&
			aws.ToString(d.Dimensions[1].Name) == "ProcessName" &&
			aws.ToString(d.Dimensions[1].Value) == "nginx"
	})).Return(&cloudwatch.PutMetricDataOutput{}, nil).Once()

	require.NoError(t, publisher.Publish(context.Background(), "nginx", 150))
	client.AssertExpectations(t)
}

func TestWatcher_Tick(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ctx := context.Background()
	collector := NewCollector(staticLister{samples: hostSamples}, []string{"nginx", "amazon-ssm-agent"})

	t.Run("publishes every process", func(t *testing.T) {
		publisher := new(MockPublisher)
		publisher.On("Publish", mock.Anything, "amazon-ssm-agent", uint64(700)).Return(nil).Once()
		publisher.On("Publish", mock.Anything, "nginx", uint64(150)).Return(nil).Once()

		require.NoError(t, NewWatcher(collector, publisher, time.Minute, logger).Tick(ctx))
		publisher.AssertExpectations(t)
	})

	t.Run("one failure does not stop the round", func(t *testing.T) {
		publisher := new(MockPublisher)
		publisher.On("Publish", mock.Anything, "amazon-ssm-agent", uint64(700)).Return(errors.New("throttled")).Once()
		publisher.On("Publish", mock.Anything, "nginx", uint64(150)).Return(nil).Once()

		err := NewWatcher(collector, publisher, time.Minute, logger).Tick(ctx)

		assert.ErrorContains(t, err, "throttled")
		publisher.AssertExpectations(t)
	})
}

func TestWatcher_RunStopsOnCancel(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	publisher := new(MockPublisher)
	publisher.On("Publish", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	collector := NewCollector(staticLister{samples: hostSamples}, []string{"nginx"})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := NewWatcher(collector, publisher, time.Hour, logger).Run(ctx)

	require.NoError(t, err)
	publisher.AssertNumberOfCalls(t, "Publish", 1)
}
