package main

import (
	"context"
	"log"
	"time"

	"payment-system/infrastructure/config"
	"payment-system/infrastructure/di"
	"payment-system/infrastructure/downstream"
	"payment-system/interfaces/http/rest"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	chiadapter "github.com/awslabs/aws-lambda-go-api-proxy/chi"
	"github.com/go-chi/chi/v5"
)

// Lambda lifecycle state, initialized once per cold start
var (
	chiLambda     *chiadapter.ChiLambdaV2
	coldStartTime time.Time
)

func init() {
	coldStartTime = time.Now()
	log.Println("Gateway cold start initiated")

	ctx := context.Background()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	cfg.ServiceName = "payment-gateway"

	container, err := di.InitializeContainer(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to initialize container: %v", err)
	}

	backend := downstream.NewClient("payment-backend", cfg.BackendURL, container.Logger, container.Tracer)

	router := rest.NewGatewayRouter(cfg, backend, container.Logger, container.Metrics)
	handler := router.Setup()

	chiRouter, ok := handler.(*chi.Mux)
	if !ok {
		log.Fatal("Failed to cast handler to chi.Mux")
	}
	chiLambda = chiadapter.NewV2(chiRouter)

	log.Printf("Gateway cold start completed in %v", time.Since(coldStartTime))
}

// Handler is the Lambda function handler
func Handler(ctx context.Context, req events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error) {
	return chiLambda.ProxyWithContextV2(ctx, req)
}

func main() {
	lambda.Start(Handler)
}
