package main

import (
	"context"
	"crypto/tls"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/redis/go-redis/v9"

	"github.com/handyhub/platform/cmd/mainconfig"
	appconfig "github.com/handyhub/platform/internal/config"
	"github.com/handyhub/platform/internal/notify"
	"github.com/handyhub/platform/pkg/logging"
)

func main() {
	cfg := appconfig.Load()
	logger := logging.New(cfg.LogLevel)

	if cfg.NotifyQueueURL == "" {
		logger.Error("notify worker requires NOTIFY_QUEUE_URL")
		os.Exit(1)
	}

	awsConfig, err := mainconfig.LoadAWSConfig(context.Background(), cfg)
	if err != nil {
		logger.Error("failed to load AWS config", "error", err)
		os.Exit(1)
	}

	queue := notify.NewSQSQueue(sqs.NewFromConfig(awsConfig), cfg.NotifyQueueURL)
	email := buildEmailSender(cfg, awsConfig, logger)
	push := buildPushSender(cfg, logger)

	worker := notify.NewWorker(
		queue,
		email,
		push,
		logger,
		notify.WithWorkerCount(cfg.NotifyWorkerCount),
		notify.WithReceiveWaitSeconds(int(cfg.NotifyReceiveWait/time.Second)),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	worker.Start(ctx)

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.Info("shutting down notify worker...")
	cancel()

	doneCtx, doneCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer doneCancel()

	waitCh := make(chan struct{})
	go func() {
		worker.Wait()
		close(waitCh)
	}()

	select {
	case <-waitCh:
		logger.Info("notify worker stopped")
	case <-doneCtx.Done():
		logger.Error("notify worker shutdown timed out", "error", doneCtx.Err())
	}
}

func buildEmailSender(cfg *appconfig.Config, awsConfig aws.Config, logger *logging.Logger) notify.EmailSender {
	switch cfg.EmailProvider {
	case "ses":
		sender := notify.NewSESSender(sesv2.NewFromConfig(awsConfig), notify.SESConfig{
			FromEmail: cfg.SendGridFromEmail,
			FromName:  cfg.SendGridFromName,
		}, logger)
		if sender != nil {
			return sender
		}
	case "sendgrid":
		sender := notify.NewSendGridSender(notify.SendGridConfig{
			APIKey:    cfg.SendGridAPIKey,
			FromEmail: cfg.SendGridFromEmail,
			FromName:  cfg.SendGridFromName,
		}, logger)
		if sender != nil {
			return sender
		}
	}
	logger.Warn("no email provider configured, using stub sender", "provider", cfg.EmailProvider)
	return notify.NewStubEmailSender(logger)
}

func buildPushSender(cfg *appconfig.Config, logger *logging.Logger) notify.PushSender {
	if cfg.PushGatewayURL == "" {
		logger.Warn("PUSH_GATEWAY_URL not set, using stub push sender")
		return notify.NewStubPushSender(logger)
	}
	devices := notify.NewDeviceTokenStore(newRedisClient(cfg), nil)
	return notify.NewHTTPPushSender(cfg.PushGatewayURL, devices, logger)
}

func newRedisClient(cfg *appconfig.Config) *redis.Client {
	opts := &redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	}
	if cfg.RedisTLS {
		opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	return redis.NewClient(opts)
}
