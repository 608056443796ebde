//go:build !wireinject
// +build !wireinject

package di

import (
	"context"

	"payment-system/infrastructure/config"
)

// InitializeContainer creates a fully wired container
func InitializeContainer(ctx context.Context, cfg *config.Config) (*Container, error) {
	zapLogger, err := ProvideZapLogger(cfg)
	if err != nil {
		return nil, err
	}

	awsCfg, err := ProvideAWSConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}

	emitter := ProvideEmitter(ProvideCloudWatchLogsClient(awsCfg), cfg, zapLogger)
	logger := ProvideServiceLogger(emitter, cfg)
	metrics := ProvideMetrics(ProvideCloudWatchClient(awsCfg), cfg, zapLogger)
	tracer := ProvideTracer(cfg)

	paymentRepo := ProvidePaymentRepository(ProvideDynamoDBClient(awsCfg), cfg, zapLogger)
	eventPublisher := ProvideEventPublisher(ProvideEventBridgeClient(awsCfg), cfg, zapLogger)
	paymentService := ProvidePaymentService(paymentRepo, eventPublisher, logger, metrics, tracer)

	jwtManager, err := ProvideJWTManager(cfg)
	if err != nil {
		return nil, err
	}

	return &Container{
		Config:         cfg,
		ZapLogger:      zapLogger,
		Emitter:        emitter,
		Logger:         logger,
		Metrics:        metrics,
		Tracer:         tracer,
		PaymentRepo:    paymentRepo,
		EventPublisher: eventPublisher,
		PaymentService: paymentService,
		JWTManager:     jwtManager,
	}, nil
}
