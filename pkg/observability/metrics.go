package observability

import (
	"context"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
	"go.uber.org/zap"
)

// CloudWatchAPI is the subset of the CloudWatch client the metric emitter
// needs.
type CloudWatchAPI interface {
	PutMetricData(ctx context.Context, params *cloudwatch.PutMetricDataInput, optFns ...func(*cloudwatch.Options)) (*cloudwatch.PutMetricDataOutput, error)
}

// Dimension is one metric dimension name/value pair
type Dimension struct {
	Name  string
	Value string
}

// DefaultNamespace is the metric namespace used when none is configured
const DefaultNamespace = "POC-Payment-System"

// DefaultEnvironment is the Environment dimension value used when none is
// configured
const DefaultEnvironment = "local-dev"

// Metrics publishes counters and timers to CloudWatch. Every datapoint is
// tagged with an Environment dimension ahead of any caller-supplied
// dimensions. Publishing is fire-and-forget: when reporting is disabled the
// calls are no-ops, and transport failures are logged locally and swallowed.
type Metrics struct {
	namespace   string
	environment string
	enabled     bool
	client      CloudWatchAPI
	internal    *zap.Logger
}

// NewMetrics creates a metric emitter. client may be nil when reporting is
// disabled.
func NewMetrics(client CloudWatchAPI, namespace, environment string, enabled bool, internal *zap.Logger) *Metrics {
	if namespace == "" {
		namespace = DefaultNamespace
	}
	if environment == "" {
		environment = DefaultEnvironment
	}
	if internal == nil {
		internal = zap.NewNop()
	}

	return &Metrics{
		namespace:   namespace,
		environment: environment,
		enabled:     enabled && client != nil,
		client:      client,
		internal:    internal,
	}
}

// PutMetric publishes one datapoint. Caller dimensions keep their order and
// must not duplicate names; the Environment dimension always comes first.
func (m *Metrics) PutMetric(ctx context.Context, name string, value float64, unit types.StandardUnit, dims ...Dimension) {
	if !m.enabled {
		return
	}
	if unit == "" {
		unit = types.StandardUnitCount
	}

	dimensions := make([]types.Dimension, 0, len(dims)+1)
	dimensions = append(dimensions, types.Dimension{
		Name:  aws.String("Environment"),
		Value: aws.String(m.environment),
	})
	for _, d := range dims {
		dimensions = append(dimensions, types.Dimension{
			Name:  aws.String(d.Name),
			Value: aws.String(d.Value),
		})
	}

	_, err := m.client.PutMetricData(ctx, &cloudwatch.PutMetricDataInput{
		Namespace: aws.String(m.namespace),
		MetricData: []types.MetricDatum{{
			MetricName: aws.String(name),
			Value:      aws.Float64(value),
			Unit:       unit,
			Timestamp:  aws.Time(time.Now().UTC()),
			Dimensions: dimensions,
		}},
	})
	if err != nil {
		m.internal.Warn("cloudwatch metric delivery failed",
			zap.String("metric", name),
			zap.String("namespace", m.namespace),
			zap.Error(err),
		)
	}
}

// Count publishes a single-unit counter increment
func (m *Metrics) Count(ctx context.Context, name string, dims ...Dimension) {
	m.PutMetric(ctx, name, 1, types.StandardUnitCount, dims...)
}

// Duration publishes a timer datapoint in milliseconds
func (m *Metrics) Duration(ctx context.Context, name string, d time.Duration, dims ...Dimension) {
	m.PutMetric(ctx, name, float64(d.Milliseconds()), types.StandardUnitMilliseconds, dims...)
}
