package di

import (
	"context"

	"payment-system/application/ports"
	"payment-system/application/services"
	"payment-system/infrastructure/config"
	"payment-system/infrastructure/messaging/eventbridge"
	"payment-system/infrastructure/persistence/dynamodb"
	"payment-system/pkg/auth"
	"payment-system/pkg/observability"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awscloudwatch "github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	awscloudwatchlogs "github.com/aws/aws-sdk-go-v2/service/cloudwatchlogs"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	awseventbridge "github.com/aws/aws-sdk-go-v2/service/eventbridge"
	"go.uber.org/zap"
)

// Container holds all application dependencies
type Container struct {
	Config         *config.Config
	ZapLogger      *zap.Logger
	Emitter        *observability.Emitter
	Logger         *observability.ServiceLogger
	Metrics        *observability.Metrics
	Tracer         *observability.Tracer
	PaymentRepo    ports.PaymentRepository
	EventPublisher ports.EventPublisher
	PaymentService *services.PaymentService
	JWTManager     *auth.JWTManager
}

// ProvideZapLogger creates the process-level logger used for bootstrap
// output and transport diagnostics
func ProvideZapLogger(cfg *config.Config) (*zap.Logger, error) {
	if cfg.IsProduction() {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}

// ProvideAWSConfig creates AWS configuration
func ProvideAWSConfig(ctx context.Context, cfg *config.Config) (aws.Config, error) {
	return awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.AWSRegion),
	)
}

// ProvideCloudWatchLogsClient creates a CloudWatch Logs client
func ProvideCloudWatchLogsClient(awsCfg aws.Config) *awscloudwatchlogs.Client {
	return awscloudwatchlogs.NewFromConfig(awsCfg)
}

// ProvideCloudWatchClient creates a CloudWatch client
func ProvideCloudWatchClient(awsCfg aws.Config) *awscloudwatch.Client {
	return awscloudwatch.NewFromConfig(awsCfg)
}

// ProvideDynamoDBClient creates a DynamoDB client
func ProvideDynamoDBClient(awsCfg aws.Config) *awsdynamodb.Client {
	return awsdynamodb.NewFromConfig(awsCfg)
}

// ProvideEventBridgeClient creates an EventBridge client
func ProvideEventBridgeClient(awsCfg aws.Config) *awseventbridge.Client {
	return awseventbridge.NewFromConfig(awsCfg)
}

// ProvideEmitter creates the log emitter shipping to CloudWatch Logs
func ProvideEmitter(client *awscloudwatchlogs.Client, cfg *config.Config, zapLogger *zap.Logger) *observability.Emitter {
	return observability.NewEmitter(client, observability.EmitterConfig{
		RemoteEnabled: cfg.CloudWatchEnabled,
		MinLevel:      observability.ParseLevel(cfg.LogLevel),
		LogGroup:      cfg.LogGroup,
		LogStream:     cfg.LogStream,
	}, zapLogger)
}

// ProvideServiceLogger creates the per-service logging facade
func ProvideServiceLogger(emitter *observability.Emitter, cfg *config.Config) *observability.ServiceLogger {
	return observability.NewServiceLogger(cfg.ServiceName, emitter)
}

// ProvideMetrics creates the CloudWatch metric emitter
func ProvideMetrics(client *awscloudwatch.Client, cfg *config.Config, zapLogger *zap.Logger) *observability.Metrics {
	return observability.NewMetrics(client, cfg.MetricNamespace, cfg.AWSEnvironment, cfg.CloudWatchEnabled, zapLogger)
}

// ProvideTracer creates the X-Ray tracer
func ProvideTracer(cfg *config.Config) *observability.Tracer {
	return observability.NewTracer(cfg.ServiceName, cfg.EnableTracing)
}

// ProvidePaymentRepository creates the DynamoDB payment repository
func ProvidePaymentRepository(client *awsdynamodb.Client, cfg *config.Config, zapLogger *zap.Logger) ports.PaymentRepository {
	return dynamodb.NewPaymentRepository(client, cfg.PaymentsTable, zapLogger)
}

// ProvideEventPublisher creates the EventBridge publisher
func ProvideEventPublisher(client *awseventbridge.Client, cfg *config.Config, zapLogger *zap.Logger) ports.EventPublisher {
	return eventbridge.NewPublisher(client, cfg.EventBusName, zapLogger)
}

// ProvidePaymentService creates the payment service
func ProvidePaymentService(
	repo ports.PaymentRepository,
	publisher ports.EventPublisher,
	logger *observability.ServiceLogger,
	metrics *observability.Metrics,
	tracer *observability.Tracer,
) *services.PaymentService {
	return services.NewPaymentService(repo, publisher, logger, metrics, tracer)
}

// ProvideJWTManager creates the token manager
func ProvideJWTManager(cfg *config.Config) (*auth.JWTManager, error) {
	secret := cfg.JWTSecret
	if secret == "" {
		secret = "development-secret-change-in-production"
	}
	return auth.NewJWTManager(auth.JWTConfig{
		SecretKey: secret,
		Issuer:    cfg.JWTIssuer,
		Audience:  "poc-payment-api",
	})
}
