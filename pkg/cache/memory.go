package cache

import (
	"context"
	"encoding/json"
	"sync"
	"time"
)

type memoryList struct {
	entries  []string
	expireAt time.Time
}

// MemoryCache implements Service using in-memory storage. It backs the
// recent feeds when Redis is disabled.
type MemoryCache struct {
	lists         map[string]*memoryList
	mutex         sync.RWMutex
	cleanupTicker *time.Ticker
	done          chan struct{}
}

// NewMemoryCache creates an in-memory cache.
func NewMemoryCache(opts ...MemoryOption) *MemoryCache {
	cfg := &MemoryConfig{
		CleanupInterval: 5 * time.Minute,
	}

	for _, opt := range opts {
		opt(cfg)
	}

	mc := &MemoryCache{
		lists:         make(map[string]*memoryList),
		cleanupTicker: time.NewTicker(cfg.CleanupInterval),
		done:          make(chan struct{}),
	}

	go mc.cleanupExpired()
	return mc
}

// PushCapped prepends value to the list at key, trimming to limit entries.
func (mc *MemoryCache) PushCapped(_ context.Context, key string, value interface{}, limit int64, expiration time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}

	if expiration <= 0 {
		expiration = 7 * 24 * time.Hour
	}

	mc.mutex.Lock()
	defer mc.mutex.Unlock()

	l, ok := mc.lists[key]
	if !ok || time.Now().After(l.expireAt) {
		l = &memoryList{}
		mc.lists[key] = l
	}
	l.entries = append([]string{string(data)}, l.entries...)
	if int64(len(l.entries)) > limit {
		l.entries = l.entries[:limit]
	}
	l.expireAt = time.Now().Add(expiration)
	return nil
}

// Range returns list entries newest first, using Redis LRANGE semantics
// for start/stop (stop of -1 means the end of the list).
func (mc *MemoryCache) Range(_ context.Context, key string, start, stop int64) ([]string, error) {
	mc.mutex.RLock()
	defer mc.mutex.RUnlock()

	l, ok := mc.lists[key]
	if !ok || time.Now().After(l.expireAt) {
		return nil, nil
	}

	n := int64(len(l.entries))
	if start < 0 {
		start += n
	}
	if stop < 0 {
		stop += n
	}
	if start < 0 {
		start = 0
	}
	if stop >= n {
		stop = n - 1
	}
	if start > stop || start >= n {
		return nil, nil
	}

	out := make([]string, 0, stop-start+1)
	out = append(out, l.entries[start:stop+1]...)
	return out, nil
}

// Health always succeeds for the in-memory backend.
func (mc *MemoryCache) Health(_ context.Context) error {
	return nil
}

func (mc *MemoryCache) cleanupExpired() {
	for {
		select {
		case <-mc.done:
			return
		case <-mc.cleanupTicker.C:
		}

		mc.mutex.Lock()
		now := time.Now()
		for key, l := range mc.lists {
			if now.After(l.expireAt) {
				delete(mc.lists, key)
			}
		}
		mc.mutex.Unlock()
	}
}

// Close stops the cleanup ticker.
func (mc *MemoryCache) Close() error {
	mc.cleanupTicker.Stop()
	close(mc.done)
	return nil
}
