package repository

import (
	"context"
	"time"

	"SignalPulse/internal/domain/models"
)

// MarketStream delivers ticks in timestamp order per symbol. The core
// consumes one tick at a time; connectivity details stay behind this
// boundary.
type MarketStream interface {
	Connect(ctx context.Context) error
	Subscribe(ctx context.Context) error
	Read(ctx context.Context) (<-chan *models.Tick, <-chan error)
	Reconnect(ctx context.Context) error
	Close() error
	IsConnected() bool
}

// AlertTransport performs one delivery attempt for an alert. Failures are
// classified by the implementation (see dispatch.TransportError); the
// dispatcher's retry logic consumes only that classification.
type AlertTransport interface {
	Send(ctx context.Context, alert *models.Alert) error
}

// AlertPublisher fans a delivered alert out to a secondary sink
// (e.g. a Kafka topic). Best-effort: publish errors never feed back into
// the dispatcher's retry path.
type AlertPublisher interface {
	Publish(ctx context.Context, alert *models.Alert) error
	Close() error
}

// AlertHistory is the optional durable journal of delivered alerts.
type AlertHistory interface {
	Store(ctx context.Context, alert *models.Alert) error
	Query(ctx context.Context, symbol string, from, to time.Time, limit int) ([]*models.Alert, error)
	Health(ctx context.Context) error
	Close() error
}

// Metrics abstracts the process metrics recorder.
type Metrics interface {
	RecordTick(symbol string)
	RecordTickRejected(symbol string)
	RecordSignal(symbol, side string)
	RecordAlertDelivered(symbol string)
	RecordAlertFailed(symbol, reason string)
	RecordError(kind string)
	RecordLastPrice(symbol string, price float64)
	RecordLatency(op string, seconds float64)
	RecordQueueDepth(depth int)
}
