package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("ENV", "")
	t.Setenv("LOG_LEVEL", "")
	t.Setenv("BACKGROUND_CHECK_PROVIDER", "")
	cfg := Load()
	if cfg.Port != "8080" {
		t.Fatalf("expected default port, got %s", cfg.Port)
	}
	if cfg.Env != "development" {
		t.Fatalf("expected default env, got %s", cfg.Env)
	}
	if cfg.BackgroundCheckProvider != "checkr" {
		t.Fatalf("expected default background check provider, got %s", cfg.BackgroundCheckProvider)
	}
	if cfg.CheckOutMaxDistanceM != 150 {
		t.Fatalf("expected default check-out distance, got %f", cfg.CheckOutMaxDistanceM)
	}
	if cfg.EnforceCheckOutLocation {
		t.Fatalf("expected location enforcement disabled by default")
	}
	if cfg.NotifyWorkerCount != 2 {
		t.Fatalf("expected default worker count, got %d", cfg.NotifyWorkerCount)
	}
	if cfg.NotifyReceiveWait != 2*time.Second {
		t.Fatalf("expected default receive wait, got %s", cfg.NotifyReceiveWait)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("ENV", "production")
	t.Setenv("DATABASE_URL", "postgres://user@host/db")
	t.Setenv("BACKGROUND_CHECK_PROVIDER", "Truora")
	t.Setenv("CHECKOUT_MAX_DISTANCE_METERS", "250.5")
	t.Setenv("CHECKOUT_ENFORCE_LOCATION", "true")
	t.Setenv("NOTIFY_RECEIVE_WAIT", "5s")
	t.Setenv("WEBHOOK_RATE_BURST", "10")
	cfg := Load()
	if cfg.Port != "9090" {
		t.Fatalf("expected override port, got %s", cfg.Port)
	}
	if cfg.DatabaseURL != "postgres://user@host/db" {
		t.Fatalf("expected db override, got %s", cfg.DatabaseURL)
	}
	if cfg.BackgroundCheckProvider != "truora" {
		t.Fatalf("expected lowercased provider override, got %s", cfg.BackgroundCheckProvider)
	}
	if cfg.CheckOutMaxDistanceM != 250.5 {
		t.Fatalf("expected distance override, got %f", cfg.CheckOutMaxDistanceM)
	}
	if !cfg.EnforceCheckOutLocation {
		t.Fatalf("expected location enforcement enabled")
	}
	if cfg.NotifyReceiveWait != 5*time.Second {
		t.Fatalf("expected receive wait override, got %s", cfg.NotifyReceiveWait)
	}
	if cfg.WebhookRateBurst != 10 {
		t.Fatalf("expected rate burst override, got %d", cfg.WebhookRateBurst)
	}
}
