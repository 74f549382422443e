package usecase

import (
	"context"
	"hash/fnv"
	"sync"
	"time"

	"SignalPulse/internal/domain/models"
	"SignalPulse/internal/domain/repository"
	"SignalPulse/pkg/logger"
)

// CollectorOption configures Collector.
type CollectorOption func(*collectorConfig)

type collectorConfig struct {
	Workers        int
	BufferSize     int
	ReconnectDelay time.Duration
}

// WithWorkers sets the number of shard workers.
func WithWorkers(n int) CollectorOption {
	return func(c *collectorConfig) {
		if n > 0 {
			c.Workers = n
		}
	}
}

// WithBufferSize sets the per-worker tick buffer.
func WithBufferSize(n int) CollectorOption {
	return func(c *collectorConfig) {
		if n > 0 {
			c.BufferSize = n
		}
	}
}

// WithReconnectDelay sets the wait between stream reconnect attempts.
func WithReconnectDelay(d time.Duration) CollectorOption {
	return func(c *collectorConfig) {
		if d > 0 {
			c.ReconnectDelay = d
		}
	}
}

// Collector consumes the market stream and shards ticks across workers by
// symbol, so each symbol is always processed by the same goroutine in
// arrival order.
type Collector struct {
	stream     repository.MarketStream
	processors []*Processor
	cfg        collectorConfig
	log        *logger.Logger
	metrics    repository.Metrics

	shards []chan *models.Tick
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewCollector creates a collector. newProcessor is called once per worker
// so indicator and strategy state is never shared between goroutines.
func NewCollector(stream repository.MarketStream, newProcessor func() *Processor, log *logger.Logger, m repository.Metrics, opts ...CollectorOption) *Collector {
	cfg := collectorConfig{
		Workers:        4,
		BufferSize:     1024,
		ReconnectDelay: 5 * time.Second,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	procs := make([]*Processor, cfg.Workers)
	for i := range procs {
		procs[i] = newProcessor()
	}

	return &Collector{
		stream:     stream,
		processors: procs,
		cfg:        cfg,
		log:        log,
		metrics:    m,
	}
}

// Start connects the stream and launches the shard workers and read loop.
func (c *Collector) Start(ctx context.Context) error {
	if err := c.stream.Connect(ctx); err != nil {
		return err
	}
	if err := c.stream.Subscribe(ctx); err != nil {
		return err
	}

	ctx, c.cancel = context.WithCancel(ctx)

	c.shards = make([]chan *models.Tick, c.cfg.Workers)
	for i := range c.shards {
		c.shards[i] = make(chan *models.Tick, c.cfg.BufferSize)
		c.wg.Add(1)
		go c.worker(ctx, i)
	}

	c.wg.Add(1)
	go c.readLoop(ctx)
	return nil
}

// Stop terminates the read loop and workers and closes the stream.
func (c *Collector) Stop() {
	if c.cancel != nil {
		c.cancel()
	}
	_ = c.stream.Close()
	c.wg.Wait()
}

func (c *Collector) worker(ctx context.Context, idx int) {
	defer c.wg.Done()
	proc := c.processors[idx]
	for {
		select {
		case <-ctx.Done():
			return
		case t := <-c.shards[idx]:
			proc.Process(t)
		}
	}
}

func (c *Collector) readLoop(ctx context.Context) {
	defer c.wg.Done()
	for {
		ticks, errs := c.stream.Read(ctx)

	consume:
		for {
			select {
			case <-ctx.Done():
				return
			case t, ok := <-ticks:
				if !ok {
					break consume
				}
				c.route(t)
			case err, ok := <-errs:
				if !ok {
					break consume
				}
				if err != nil {
					if c.metrics != nil {
						c.metrics.RecordError("stream_read")
					}
					if c.log != nil {
						c.log.Warn("market stream error", logger.Error(err))
					}
				}
				break consume
			}
		}

		// stream broke, reconnect until it works or we are told to stop
		for {
			select {
			case <-ctx.Done():
				return
			case <-time.After(c.cfg.ReconnectDelay):
			}
			if err := c.stream.Reconnect(ctx); err != nil {
				if c.metrics != nil {
					c.metrics.RecordError("stream_reconnect")
				}
				if c.log != nil {
					c.log.Warn("market stream reconnect failed", logger.Error(err))
				}
				continue
			}
			if c.log != nil {
				c.log.Info("market stream reconnected")
			}
			break
		}
	}
}

func (c *Collector) route(t *models.Tick) {
	h := fnv.New32a()
	_, _ = h.Write([]byte(t.Symbol))
	idx := int(h.Sum32() % uint32(len(c.shards)))
	select {
	case c.shards[idx] <- t:
	default:
		// shard saturated, drop rather than stall the read loop
		if c.metrics != nil {
			c.metrics.RecordError("tick_dropped")
		}
	}
}
