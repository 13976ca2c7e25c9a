package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

// Tokens for devices that have not re-registered in this window are dropped.
const deviceTokenTTL = 90 * 24 * time.Hour

// DeviceTokenStore keeps the push device tokens registered per user in
// Redis. A user can have several active devices.
type DeviceTokenStore struct {
	redis  *redis.Client
	tracer trace.Tracer
}

func NewDeviceTokenStore(client *redis.Client, tracer trace.Tracer) *DeviceTokenStore {
	if client == nil {
		panic("notify: redis client cannot be nil")
	}
	if tracer == nil {
		tracer = otel.Tracer("handyhub.internal.notify.devices")
	}
	return &DeviceTokenStore{
		redis:  client,
		tracer: tracer,
	}
}

// Register adds a device token for a user and refreshes the expiry window.
func (s *DeviceTokenStore) Register(ctx context.Context, userID, token string) error {
	ctx, span := s.tracer.Start(ctx, "notify.register_device")
	defer span.End()

	key := deviceKey(userID)
	if err := s.redis.SAdd(ctx, key, token).Err(); err != nil {
		span.RecordError(err)
		return fmt.Errorf("notify: failed to register device token: %w", err)
	}
	if err := s.redis.Expire(ctx, key, deviceTokenTTL).Err(); err != nil {
		span.RecordError(err)
		return fmt.Errorf("notify: failed to refresh device token ttl: %w", err)
	}
	return nil
}

// Tokens returns all device tokens registered for a user.
func (s *DeviceTokenStore) Tokens(ctx context.Context, userID string) ([]string, error) {
	ctx, span := s.tracer.Start(ctx, "notify.load_devices")
	defer span.End()

	tokens, err := s.redis.SMembers(ctx, deviceKey(userID)).Result()
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("notify: failed to load device tokens: %w", err)
	}
	return tokens, nil
}

// Remove drops a device token, typically after the push gateway reports it
// as no longer registered.
func (s *DeviceTokenStore) Remove(ctx context.Context, userID, token string) error {
	ctx, span := s.tracer.Start(ctx, "notify.remove_device")
	defer span.End()

	if err := s.redis.SRem(ctx, deviceKey(userID), token).Err(); err != nil {
		span.RecordError(err)
		return fmt.Errorf("notify: failed to remove device token: %w", err)
	}
	return nil
}

func deviceKey(userID string) string {
	return fmt.Sprintf("device_tokens:%s", userID)
}
