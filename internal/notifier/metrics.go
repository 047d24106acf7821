package notifier

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	cwtypes "github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"

	"bookbliss/internal/types"
)

// Metric and dimension names emitted by the scheduler.
const (
	MetricNotificationSend = "NotificationSend"
	MetricActiveSchedules  = "ActiveSchedules"
	DimStatus              = "Status"
	DimResult              = "Result"
)

// Metrics is the telemetry surface of the scheduler. Implementations must be
// non-blocking from the caller's perspective beyond the emit call itself;
// emission failures are logged, never surfaced.
type Metrics interface {
	// RecordSend counts one send attempt, dimensioned by order status and
	// success/failure.
	RecordSend(ctx context.Context, status types.OrderStatus, success bool)

	// RecordActiveSchedules gauges the number of live schedules after a
	// registry mutation.
	RecordActiveSchedules(ctx context.Context, count int)
}

// NoopMetrics discards all metrics. Used when telemetry is not configured.
type NoopMetrics struct{}

func (NoopMetrics) RecordSend(context.Context, types.OrderStatus, bool) {}
func (NoopMetrics) RecordActiveSchedules(context.Context, int)         {}

// CloudWatchClient abstracts the CloudWatch PutMetricData operation for
// testability.
type CloudWatchClient interface {
	PutMetricData(ctx context.Context, params *cloudwatch.PutMetricDataInput, optFns ...func(*cloudwatch.Options)) (*cloudwatch.PutMetricDataOutput, error)
}

// CloudWatchMetrics implements Metrics by emitting to AWS CloudWatch.
type CloudWatchMetrics struct {
	client    CloudWatchClient
	namespace string
	logger    types.Logger
}

// NewCloudWatchMetrics creates a CloudWatchMetrics publishing to the given
// namespace.
func NewCloudWatchMetrics(client CloudWatchClient, namespace string, logger types.Logger) *CloudWatchMetrics {
	return &CloudWatchMetrics{
		client:    client,
		namespace: namespace,
		logger:    logger,
	}
}

// RecordSend emits a NotificationSend count metric with Status and Result
// dimensions.
func (m *CloudWatchMetrics) RecordSend(ctx context.Context, status types.OrderStatus, success bool) {
	result := "success"
	if !success {
		result = "failure"
	}

	input := &cloudwatch.PutMetricDataInput{
		Namespace: aws.String(m.namespace),
		MetricData: []cwtypes.MetricDatum{
			{
				MetricName: aws.String(MetricNotificationSend),
				Value:      aws.Float64(1),
				Unit:       cwtypes.StandardUnitCount,
				Dimensions: []cwtypes.Dimension{
					{
						Name:  aws.String(DimStatus),
						Value: aws.String(string(status)),
					},
					{
						Name:  aws.String(DimResult),
						Value: aws.String(result),
					},
				},
			},
		},
	}

	if _, err := m.client.PutMetricData(ctx, input); err != nil {
		m.logger.Error("failed to record send metric",
			"status", string(status),
			"result", result,
			"error", err.Error(),
		)
	}
}

// RecordActiveSchedules emits the ActiveSchedules gauge.
func (m *CloudWatchMetrics) RecordActiveSchedules(ctx context.Context, count int) {
	input := &cloudwatch.PutMetricDataInput{
		Namespace: aws.String(m.namespace),
		MetricData: []cwtypes.MetricDatum{
			{
				MetricName: aws.String(MetricActiveSchedules),
				Value:      aws.Float64(float64(count)),
				Unit:       cwtypes.StandardUnitCount,
			},
		},
	}

	if _, err := m.client.PutMetricData(ctx, input); err != nil {
		m.logger.Error("failed to record schedule gauge",
			"count", count,
			"error", err.Error(),
		)
	}
}

// Compile-time assertion that CloudWatchMetrics implements Metrics.
var _ Metrics = (*CloudWatchMetrics)(nil)
