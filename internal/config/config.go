package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application configuration
type Config struct {
	Port          string
	Env           string
	PublicBaseURL string
	LogLevel      string
	DatabaseURL   string

	// Settlement
	StripeAPIKey            string
	StripeBaseURL           string
	CheckOutMaxDistanceM    float64
	EnforceCheckOutLocation bool

	// Background checks
	BackgroundCheckProvider string
	CheckrAPIKey            string
	CheckrBaseURL           string
	CheckrWebhookSecret     string
	TruoraAPIKey            string
	TruoraBaseURL           string
	TruoraWebhookSecret     string

	// Auth
	AuthJWTSecret string

	// Notifications
	UseMemoryQueue     bool
	NotifyQueueURL     string
	NotifyWorkerCount  int
	NotifyReceiveWait  time.Duration
	PushGatewayURL     string
	SendGridAPIKey     string
	SendGridFromEmail  string
	SendGridFromName   string
	EmailProvider      string

	// Rate limiting on public endpoints
	WebhookRateLimit float64
	WebhookRateBurst int

	// AWS (SQS queue, SES email)
	AWSRegion           string
	AWSAccessKeyID      string
	AWSSecretAccessKey  string
	AWSEndpointOverride string

	// Redis (push device tokens)
	RedisAddr     string
	RedisPassword string
	RedisTLS      bool
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Port:          getEnv("PORT", "8080"),
		Env:           getEnv("ENV", "development"),
		PublicBaseURL: getEnv("PUBLIC_BASE_URL", ""),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		DatabaseURL:   getEnv("DATABASE_URL", ""),

		StripeAPIKey:            getEnv("STRIPE_API_KEY", ""),
		StripeBaseURL:           getEnv("STRIPE_BASE_URL", ""),
		CheckOutMaxDistanceM:    getEnvAsFloat("CHECKOUT_MAX_DISTANCE_METERS", 150),
		EnforceCheckOutLocation: getEnvAsBool("CHECKOUT_ENFORCE_LOCATION", false),

		BackgroundCheckProvider: strings.ToLower(strings.TrimSpace(getEnv("BACKGROUND_CHECK_PROVIDER", "checkr"))),
		CheckrAPIKey:            getEnv("CHECKR_API_KEY", ""),
		CheckrBaseURL:           getEnv("CHECKR_BASE_URL", ""),
		CheckrWebhookSecret:     getEnv("CHECKR_WEBHOOK_SECRET", ""),
		TruoraAPIKey:            getEnv("TRUORA_API_KEY", ""),
		TruoraBaseURL:           getEnv("TRUORA_BASE_URL", ""),
		TruoraWebhookSecret:     getEnv("TRUORA_WEBHOOK_SECRET", ""),

		AuthJWTSecret: getEnv("AUTH_JWT_SECRET", ""),

		UseMemoryQueue:    getEnvAsBool("USE_MEMORY_QUEUE", false),
		NotifyQueueURL:    getEnv("NOTIFY_QUEUE_URL", ""),
		NotifyWorkerCount: getEnvAsInt("NOTIFY_WORKER_COUNT", 2),
		NotifyReceiveWait: getEnvAsDuration("NOTIFY_RECEIVE_WAIT", 2*time.Second),
		PushGatewayURL:    getEnv("PUSH_GATEWAY_URL", ""),
		SendGridAPIKey:    getEnv("SENDGRID_API_KEY", ""),
		SendGridFromEmail: getEnv("SENDGRID_FROM_EMAIL", ""),
		SendGridFromName:  getEnv("SENDGRID_FROM_NAME", "HandyHub"),
		EmailProvider:     strings.ToLower(strings.TrimSpace(getEnv("EMAIL_PROVIDER", "sendgrid"))),

		WebhookRateLimit: getEnvAsFloat("WEBHOOK_RATE_LIMIT", 20),
		WebhookRateBurst: getEnvAsInt("WEBHOOK_RATE_BURST", 40),

		AWSRegion:           getEnv("AWS_REGION", "us-east-1"),
		AWSAccessKeyID:      getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretAccessKey:  getEnv("AWS_SECRET_ACCESS_KEY", ""),
		AWSEndpointOverride: getEnv("AWS_ENDPOINT_OVERRIDE", ""),

		RedisAddr:     getEnv("REDIS_ADDR", "redis:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisTLS:      getEnvAsBool("REDIS_TLS", false),
	}
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsBool retrieves an environment variable as a boolean or returns a default value
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}
