package dispatch

import (
	"container/heap"
	"context"
	"sync"
	"time"

	"SignalPulse/internal/domain/models"
	"SignalPulse/internal/domain/repository"
	"SignalPulse/internal/service/ratelimit"
	"SignalPulse/pkg/logger"
)

// Option configures Dispatcher.
type Option func(*Config)

// Config holds dispatcher configuration.
type Config struct {
	QueueSize   int
	EventBuffer int
	RetryMax    int
	BackoffMin  time.Duration
	BackoffMax  time.Duration
	SendTimeout time.Duration
	RatePerSec  float64
	RateBurst   float64
}

func defaultConfig() Config {
	return Config{
		QueueSize:   256,
		EventBuffer: 256,
		RetryMax:    5,
		BackoffMin:  200 * time.Millisecond,
		BackoffMax:  30 * time.Second,
		SendTimeout: 10 * time.Second,
		RatePerSec:  1,
		RateBurst:   5,
	}
}

// WithQueueSize sets the bounded alert queue capacity.
func WithQueueSize(n int) Option {
	return func(c *Config) {
		if n > 0 {
			c.QueueSize = n
		}
	}
}

// WithRetry configures retry attempts and backoff range.
func WithRetry(max int, backoffMin, backoffMax time.Duration) Option {
	return func(c *Config) {
		c.RetryMax = max
		c.BackoffMin = backoffMin
		c.BackoffMax = backoffMax
	}
}

// WithRate sets the outbound token bucket refill rate and burst capacity.
func WithRate(perSec, burst float64) Option {
	return func(c *Config) {
		if perSec > 0 {
			c.RatePerSec = perSec
		}
		if burst > 0 {
			c.RateBurst = burst
		}
	}
}

// WithSendTimeout bounds a single delivery attempt.
func WithSendTimeout(d time.Duration) Option {
	return func(c *Config) {
		if d > 0 {
			c.SendTimeout = d
		}
	}
}

// pendingAlert is an alert waiting for its next delivery attempt.
type pendingAlert struct {
	alert    *models.Alert
	attempts int
	nextAt   time.Time
}

// retryHeap orders pending alerts by next attempt time.
type retryHeap []*pendingAlert

func (h retryHeap) Len() int            { return len(h) }
func (h retryHeap) Less(i, j int) bool  { return h[i].nextAt.Before(h[j].nextAt) }
func (h retryHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *retryHeap) Push(x interface{}) { *h = append(*h, x.(*pendingAlert)) }
func (h *retryHeap) Pop() interface{} {
	old := *h
	n := len(old)
	it := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return it
}

// Dispatcher is the single shared consumer of the alert pipeline. Producers
// enqueue without blocking; one goroutine drains the queue, rate-limits and
// retries deliveries, and emits a terminal DeliveryEvent per alert.
type Dispatcher struct {
	cfg       Config
	transport repository.AlertTransport
	publisher repository.AlertPublisher
	history   repository.AlertHistory
	limiter   *ratelimit.Bucket
	log       *logger.Logger
	metrics   repository.Metrics

	queue   chan *models.Alert
	events  chan models.DeliveryEvent
	pending retryHeap

	cancel  context.CancelFunc
	wg      sync.WaitGroup
	startMu sync.Mutex
	started bool
}

func NewDispatcher(transport repository.AlertTransport, log *logger.Logger, m repository.Metrics, opts ...Option) *Dispatcher {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if m == nil {
		m = nopMetrics{}
	}
	return &Dispatcher{
		cfg:       cfg,
		transport: transport,
		limiter:   ratelimit.NewBucket(cfg.RateBurst, cfg.RatePerSec),
		log:       log,
		metrics:   m,
		queue:     make(chan *models.Alert, cfg.QueueSize),
		events:    make(chan models.DeliveryEvent, cfg.EventBuffer),
	}
}

// SetPublisher attaches a best-effort fan-out sink for delivered alerts.
func (d *Dispatcher) SetPublisher(p repository.AlertPublisher) { d.publisher = p }

// SetHistory attaches a durable journal for delivered alerts.
func (d *Dispatcher) SetHistory(h repository.AlertHistory) { d.history = h }

// Events exposes terminal delivery events. The channel is buffered; events
// are dropped, never blocked on, when no one reads.
func (d *Dispatcher) Events() <-chan models.DeliveryEvent { return d.events }

// Enqueue offers an alert to the queue without blocking. Returns false and
// emits a queue_full event when the queue is at capacity.
func (d *Dispatcher) Enqueue(alert *models.Alert) bool {
	select {
	case d.queue <- alert:
		d.metrics.RecordQueueDepth(len(d.queue))
		return true
	default:
		d.metrics.RecordAlertFailed(alert.Symbol, string(models.OutcomeDropped))
		if d.log != nil {
			d.log.Warn("alert queue full, dropping alert",
				logger.String("symbol", alert.Symbol),
				logger.String("side", string(alert.Side)))
		}
		d.emit(models.DeliveryEvent{
			Alert:   *alert,
			Outcome: models.OutcomeDropped,
			At:      time.Now(),
		})
		return false
	}
}

// Start launches the consumer goroutine.
func (d *Dispatcher) Start(ctx context.Context) {
	d.startMu.Lock()
	defer d.startMu.Unlock()
	if d.started {
		return
	}
	d.started = true
	ctx, d.cancel = context.WithCancel(ctx)
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		d.run(ctx)
	}()
}

// Stop cancels the consumer and waits for in-flight work to finish.
func (d *Dispatcher) Stop() {
	d.startMu.Lock()
	defer d.startMu.Unlock()
	if !d.started {
		return
	}
	d.cancel()
	d.wg.Wait()
	d.started = false
}

func (d *Dispatcher) run(ctx context.Context) {
	for {
		var wakeup <-chan time.Time
		if len(d.pending) > 0 {
			wait := time.Until(d.pending[0].nextAt)
			if wait < 0 {
				wait = 0
			}
			wakeup = time.After(wait)
		}

		select {
		case <-ctx.Done():
			return
		case alert := <-d.queue:
			d.metrics.RecordQueueDepth(len(d.queue))
			d.attempt(ctx, &pendingAlert{alert: alert})
		case <-wakeup:
			it := heap.Pop(&d.pending).(*pendingAlert)
			d.attempt(ctx, it)
		}
	}
}

func (d *Dispatcher) attempt(ctx context.Context, it *pendingAlert) {
	if err := d.limiter.Wait(ctx); err != nil {
		return
	}
	it.attempts++

	sctx, cancel := context.WithTimeout(ctx, d.cfg.SendTimeout)
	err := d.transport.Send(sctx, it.alert)
	cancel()

	if err == nil {
		d.metrics.RecordAlertDelivered(it.alert.Symbol)
		d.emit(models.DeliveryEvent{
			Alert:    *it.alert,
			Outcome:  models.OutcomeDelivered,
			Attempts: it.attempts,
			At:       time.Now(),
		})
		d.fanOut(ctx, it.alert)
		return
	}

	class, retryAfter := classify(err)
	if class == Permanent {
		d.metrics.RecordAlertFailed(it.alert.Symbol, string(models.OutcomePermanent))
		if d.log != nil {
			d.log.Error("alert delivery failed permanently",
				logger.String("symbol", it.alert.Symbol),
				logger.Int("attempts", it.attempts),
				logger.Error(err))
		}
		d.emit(models.DeliveryEvent{
			Alert:    *it.alert,
			Outcome:  models.OutcomePermanent,
			Attempts: it.attempts,
			Err:      err.Error(),
			At:       time.Now(),
		})
		return
	}

	if it.attempts > d.cfg.RetryMax {
		d.metrics.RecordAlertFailed(it.alert.Symbol, string(models.OutcomeExhausted))
		if d.log != nil {
			d.log.Error("alert delivery retries exhausted",
				logger.String("symbol", it.alert.Symbol),
				logger.Int("attempts", it.attempts),
				logger.Error(err))
		}
		d.emit(models.DeliveryEvent{
			Alert:    *it.alert,
			Outcome:  models.OutcomeExhausted,
			Attempts: it.attempts,
			Err:      err.Error(),
			At:       time.Now(),
		})
		return
	}

	delay := backoffWithJitter(d.cfg.BackoffMin, d.cfg.BackoffMax, it.attempts)
	if class == RateLimited && retryAfter > delay {
		delay = retryAfter
	}
	it.nextAt = time.Now().Add(delay)
	heap.Push(&d.pending, it)
	if d.log != nil {
		d.log.Warn("alert delivery retry scheduled",
			logger.String("symbol", it.alert.Symbol),
			logger.Int("attempt", it.attempts),
			logger.Duration("delay", delay),
			logger.Error(err))
	}
}

// fanOut mirrors a delivered alert to the optional publisher and history
// sinks. Errors are logged, never retried.
func (d *Dispatcher) fanOut(ctx context.Context, alert *models.Alert) {
	if d.publisher == nil && d.history == nil {
		return
	}
	fctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if d.publisher != nil {
		if err := d.publisher.Publish(fctx, alert); err != nil {
			d.metrics.RecordError("alert_publish")
			if d.log != nil {
				d.log.Warn("alert publish failed", logger.String("symbol", alert.Symbol), logger.Error(err))
			}
		}
	}
	if d.history != nil {
		if err := d.history.Store(fctx, alert); err != nil {
			d.metrics.RecordError("alert_history")
			if d.log != nil {
				d.log.Warn("alert history store failed", logger.String("symbol", alert.Symbol), logger.Error(err))
			}
		}
	}
}

func (d *Dispatcher) emit(ev models.DeliveryEvent) {
	select {
	case d.events <- ev:
	default:
	}
}

type nopMetrics struct{}

func (nopMetrics) RecordTick(string)                {}
func (nopMetrics) RecordTickRejected(string)        {}
func (nopMetrics) RecordSignal(string, string)      {}
func (nopMetrics) RecordAlertDelivered(string)      {}
func (nopMetrics) RecordAlertFailed(string, string) {}
func (nopMetrics) RecordError(string)               {}
func (nopMetrics) RecordLastPrice(string, float64)  {}
func (nopMetrics) RecordLatency(string, float64)    {}
func (nopMetrics) RecordQueueDepth(int)             {}
