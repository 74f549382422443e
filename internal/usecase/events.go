package usecase

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"SignalPulse/internal/domain/models"
	"SignalPulse/pkg/cache"
	"SignalPulse/pkg/logger"
)

const (
	recentAlertsKey = "alerts:recent"
	recentEventsKey = "events:recent"
)

// EventRecorder consumes terminal delivery events from the dispatcher. It
// keeps a bounded in-memory ring for the events API and mirrors delivered
// alerts into the cache-backed recent feed.
type EventRecorder struct {
	mu    sync.RWMutex
	ring  []models.DeliveryEvent
	next  int
	count int

	cache       cache.Service
	recentLimit int64
	ttl         time.Duration
	log         *logger.Logger

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewEventRecorder creates a recorder holding up to capacity events.
// cache may be nil; the recent alert feed is skipped then.
func NewEventRecorder(capacity int, c cache.Service, recentLimit int, ttl time.Duration, log *logger.Logger) *EventRecorder {
	if capacity <= 0 {
		capacity = 256
	}
	if recentLimit <= 0 {
		recentLimit = 100
	}
	return &EventRecorder{
		ring:        make([]models.DeliveryEvent, capacity),
		cache:       c,
		recentLimit: int64(recentLimit),
		ttl:         ttl,
		log:         log,
	}
}

// Start consumes events until ctx is done.
func (r *EventRecorder) Start(ctx context.Context, events <-chan models.DeliveryEvent) {
	ctx, r.cancel = context.WithCancel(ctx)
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		for {
			select {
			case <-ctx.Done():
				return
			case ev := <-events:
				r.record(ctx, ev)
			}
		}
	}()
}

// Stop terminates the consumer.
func (r *EventRecorder) Stop() {
	if r.cancel != nil {
		r.cancel()
	}
	r.wg.Wait()
}

func (r *EventRecorder) record(ctx context.Context, ev models.DeliveryEvent) {
	r.mu.Lock()
	r.ring[r.next] = ev
	r.next = (r.next + 1) % len(r.ring)
	if r.count < len(r.ring) {
		r.count++
	}
	r.mu.Unlock()

	if r.cache == nil {
		return
	}

	cctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := r.cache.PushCapped(cctx, recentEventsKey, ev, r.recentLimit, r.ttl); err != nil && r.log != nil {
		r.log.Warn("recent events cache push failed", logger.Error(err))
	}
	if ev.Outcome == models.OutcomeDelivered {
		if err := r.cache.PushCapped(cctx, recentAlertsKey, ev.Alert, r.recentLimit, r.ttl); err != nil && r.log != nil {
			r.log.Warn("recent alerts cache push failed", logger.Error(err))
		}
	}
}

// Recent returns up to limit events, newest first.
func (r *EventRecorder) Recent(limit int) []models.DeliveryEvent {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if limit <= 0 || limit > r.count {
		limit = r.count
	}

	out := make([]models.DeliveryEvent, 0, limit)
	for i := 0; i < limit; i++ {
		idx := (r.next - 1 - i + len(r.ring)) % len(r.ring)
		out = append(out, r.ring[idx])
	}
	return out
}

// RecentAlerts returns cached delivered alerts raw, newest first.
func (r *EventRecorder) RecentAlerts(ctx context.Context, limit int) ([]string, error) {
	if r.cache == nil {
		return nil, nil
	}
	if limit <= 0 || int64(limit) > r.recentLimit {
		limit = int(r.recentLimit)
	}
	return r.cache.Range(ctx, recentAlertsKey, 0, int64(limit)-1)
}

// RecentDeliveredAlerts returns delivered alerts, newest first. The cache
// backs it when configured, otherwise the in-memory ring does.
func (r *EventRecorder) RecentDeliveredAlerts(ctx context.Context, limit int) ([]models.Alert, error) {
	if limit <= 0 {
		limit = int(r.recentLimit)
	}

	if r.cache != nil {
		raw, err := r.RecentAlerts(ctx, limit)
		if err != nil {
			return nil, err
		}
		alerts := make([]models.Alert, 0, len(raw))
		for _, entry := range raw {
			var a models.Alert
			if err := json.Unmarshal([]byte(entry), &a); err != nil {
				continue
			}
			alerts = append(alerts, a)
		}
		return alerts, nil
	}

	alerts := make([]models.Alert, 0, limit)
	for _, ev := range r.Recent(0) {
		if ev.Outcome != models.OutcomeDelivered {
			continue
		}
		alerts = append(alerts, ev.Alert)
		if len(alerts) >= limit {
			break
		}
	}
	return alerts, nil
}
