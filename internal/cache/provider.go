package cache

// Package cache provides short-lived key storage for payment webhook
// idempotency. Providers are interchangeable: memory for single-instance
// deployments, redis when replicas share dedup state.

import (
	"context"
	"fmt"
	"time"
)

// Provider stores seen webhook event IDs with a TTL.
type Provider interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value string, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}

type Config struct {
	Provider              string
	RedisConnectionString string
}

func NewProvider(cfg Config) (Provider, error) {
	switch cfg.Provider {
	case "memory", "":
		return NewMemoryProvider()
	case "redis":
		return NewRedisProvider(cfg.RedisConnectionString)
	default:
		return nil, fmt.Errorf("unsupported cache provider: %s", cfg.Provider)
	}
}

// WebhookKey namespaces an event ID by its payment provider so IDs from
// different gateways can never collide.
func WebhookKey(provider, eventID string) string {
	return fmt.Sprintf("webhook:%s:%s", provider, eventID)
}
