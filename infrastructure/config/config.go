package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	ServerAddress string
	Environment   string
	ServiceName   string

	// AWS configuration
	AWSRegion      string
	AWSEnvironment string // value of the Environment metric dimension
	PaymentsTable  string
	EventBusName   string

	// CloudWatch shipment
	CloudWatchEnabled bool
	LogLevel          string // minimum severity shipped remotely; console output is unaffected
	LogGroup          string
	LogStream         string
	MetricNamespace   string

	// Downstream services
	BackendURL string
	TokenURL   string

	// Authentication
	JWTSecret string
	JWTIssuer string

	// Feature flags
	EnableTracing bool
	EnableCORS    bool
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	serviceName := getEnv("SERVICE_NAME", "payment-backend")

	cfg := &Config{
		ServerAddress: getEnv("SERVER_ADDRESS", ":8080"),
		Environment:   getEnv("ENVIRONMENT", "development"),
		ServiceName:   serviceName,

		AWSRegion:      getEnv("AWS_REGION", "us-east-1"),
		AWSEnvironment: getEnv("AWS_ENVIRONMENT", "local-dev"),
		PaymentsTable:  getEnv("TABLE_NAME", "poc-payments"),
		EventBusName:   getEnv("EVENT_BUS_NAME", "poc-payment-events"),

		CloudWatchEnabled: getEnvBool("CLOUDWATCH_ENABLED", false),
		LogLevel:          getEnv("LOG_LEVEL", "INFO"),
		LogGroup:          getEnv("CLOUDWATCH_LOG_GROUP", "/poc-payment/application"),
		LogStream:         getEnv("CLOUDWATCH_LOG_STREAM", defaultLogStream(serviceName)),
		MetricNamespace:   getEnv("METRIC_NAMESPACE", "POC-Payment-System"),

		BackendURL: getEnv("BACKEND_URL", "http://localhost:8080"),
		TokenURL:   getEnv("TOKEN_URL", "http://localhost:8081"),

		JWTSecret: getEnv("JWT_SECRET", ""),
		JWTIssuer: getEnv("JWT_ISSUER", "poc-payment-token"),

		EnableTracing: getEnvBool("ENABLE_TRACING", false),
		EnableCORS:    getEnvBool("ENABLE_CORS", true),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// defaultLogStream derives a per-process-run stream name
func defaultLogStream(serviceName string) string {
	return fmt.Sprintf("%s-%d", serviceName, time.Now().UnixMilli())
}

// Validate checks if all required configuration is present
func (c *Config) Validate() error {
	if c.Environment == "production" {
		if c.JWTSecret == "" {
			return fmt.Errorf("JWT_SECRET is required in production")
		}
		if c.PaymentsTable == "" {
			return fmt.Errorf("TABLE_NAME is required")
		}
	}

	return nil
}

// IsDevelopment checks if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction checks if running in production mode
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// getEnv gets an environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool gets a boolean environment variable with a default value
func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value == "true" || value == "1" || value == "yes"
}

// getEnvInt gets an integer environment variable with a default value
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}
