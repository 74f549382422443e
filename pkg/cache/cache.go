package cache

import (
	"context"
	"time"
)

// Service defines the capped-list operations backing the recent-alerts
// and recent-events feeds.
type Service interface {
	PushCapped(ctx context.Context, key string, value interface{}, limit int64, expiration time.Duration) error
	Range(ctx context.Context, key string, start, stop int64) ([]string, error)
	Health(ctx context.Context) error
	Close() error
}
