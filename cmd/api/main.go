package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/handyhub/platform/cmd/mainconfig"
	"github.com/handyhub/platform/internal/api/router"
	"github.com/handyhub/platform/internal/backgroundcheck"
	"github.com/handyhub/platform/internal/bookings"
	appconfig "github.com/handyhub/platform/internal/config"
	"github.com/handyhub/platform/internal/events"
	"github.com/handyhub/platform/internal/notify"
	"github.com/handyhub/platform/internal/observability/metrics"
	"github.com/handyhub/platform/internal/payments"
	"github.com/handyhub/platform/internal/professionals"
	"github.com/handyhub/platform/pkg/logging"
)

func main() {
	cfg := appconfig.Load()
	logger := logging.New(cfg.LogLevel)
	logger.Info("starting handyhub API server",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.DatabaseURL == "" {
		logger.Error("DATABASE_URL is required")
		os.Exit(1)
	}

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to connect postgres", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	// Metrics
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	settlementMetrics := metrics.NewSettlementMetrics(reg)
	webhookMetrics := metrics.NewWebhookMetrics(reg)

	// Notification fan-out
	var publisher *notify.Publisher
	if cfg.UseMemoryQueue || cfg.NotifyQueueURL == "" {
		logger.Info("using in-memory notification queue")
		queue := notify.NewMemoryQueue(0)
		publisher = notify.NewPublisher(queue, logger)

		// Dev mode: no separate worker binary, drain the in-memory queue
		// with log-only senders.
		worker := notify.NewWorker(queue,
			notify.NewStubEmailSender(logger),
			notify.NewStubPushSender(logger),
			logger,
		)
		worker.Start(ctx)
		defer worker.Wait()
	} else {
		awsCfg, err := mainconfig.LoadAWSConfig(ctx, cfg)
		if err != nil {
			logger.Error("failed to load AWS config", "error", err)
			os.Exit(1)
		}
		publisher = notify.NewPublisher(notify.NewSQSQueue(sqs.NewFromConfig(awsCfg), cfg.NotifyQueueURL), logger)
	}
	notifySvc := notify.NewService(publisher, notify.NewPGContactResolver(pool), logger)

	// Payments
	var gateway payments.Gateway
	if cfg.StripeAPIKey != "" {
		stripe := payments.NewStripeGateway(cfg.StripeAPIKey, logger)
		if cfg.StripeBaseURL != "" {
			stripe = stripe.WithBaseURL(cfg.StripeBaseURL)
		}
		gateway = stripe
	} else {
		logger.Warn("STRIPE_API_KEY not set, using stub payment gateway")
		gateway = payments.NewStubGateway(logger)
	}

	// Booking settlement
	bookingsRepo := bookings.NewRepository(pool)
	bookingsSvc := bookings.NewService(bookingsRepo, gateway, notifySvc, settlementMetrics, bookings.ServiceConfig{
		MaxDistanceMeters: cfg.CheckOutMaxDistanceM,
		EnforceLocation:   cfg.EnforceCheckOutLocation,
	}, logger)
	bookingsHandler := bookings.NewHandler(bookingsSvc, logger)

	// Background check webhook ingestion
	providers := buildProviders(cfg, logger)
	if len(providers) == 0 {
		logger.Warn("no background check provider configured, webhooks will be rejected")
	}
	processor := backgroundcheck.NewProcessor(
		providers,
		events.NewWebhookLedger(pool),
		backgroundcheck.NewRepository(pool),
		professionals.NewRepository(pool),
		notifySvc,
		webhookMetrics,
		logger,
	)
	webhookHandler := backgroundcheck.NewHandler(processor, logger)

	r := router.New(&router.Config{
		Logger:                logger,
		BookingsHandler:       bookingsHandler,
		WebhookHandler:        webhookHandler,
		MetricsHandler:        promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
		ProfessionalJWTSecret: cfg.AuthJWTSecret,
		CORSAllowedOrigins:    corsOrigins(cfg),
		WebhookRateLimit:      cfg.WebhookRateLimit,
		WebhookRateBurst:      cfg.WebhookRateBurst,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}

// buildProviders registers the active provider plus any other provider that
// still has credentials, so in-flight webhooks keep draining during a
// provider migration.
func buildProviders(cfg *appconfig.Config, logger *logging.Logger) []backgroundcheck.Provider {
	var providers []backgroundcheck.Provider
	if cfg.BackgroundCheckProvider == "checkr" || cfg.CheckrWebhookSecret != "" || cfg.CheckrAPIKey != "" {
		checkr := backgroundcheck.NewCheckrClient(cfg.CheckrAPIKey, cfg.CheckrWebhookSecret, logger)
		if cfg.CheckrBaseURL != "" {
			checkr = checkr.WithBaseURL(cfg.CheckrBaseURL)
		}
		providers = append(providers, checkr)
	}
	if cfg.BackgroundCheckProvider == "truora" || cfg.TruoraWebhookSecret != "" || cfg.TruoraAPIKey != "" {
		truora := backgroundcheck.NewTruoraClient(cfg.TruoraAPIKey, cfg.TruoraWebhookSecret, logger)
		if cfg.TruoraBaseURL != "" {
			truora = truora.WithBaseURL(cfg.TruoraBaseURL)
		}
		providers = append(providers, truora)
	}
	return providers
}

func corsOrigins(cfg *appconfig.Config) []string {
	if cfg.PublicBaseURL == "" {
		return nil
	}
	return []string{cfg.PublicBaseURL}
}
