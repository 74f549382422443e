package feed

import (
	"context"
	"math/rand"
	"sync/atomic"
	"time"

	"SignalPulse/internal/domain/models"
	drepo "SignalPulse/internal/domain/repository"
)

// SyntheticStream implements a MarketStream that emits a random walk per
// symbol. Used for local runs and demos without exchange connectivity.
type SyntheticStream struct {
	symbols   []string
	interval  time.Duration
	connected atomic.Bool
}

// NewSynthetic creates a synthetic MarketStream.
func NewSynthetic(symbols []string, interval time.Duration) drepo.MarketStream {
	if interval <= 0 {
		interval = 200 * time.Millisecond
	}
	return &SyntheticStream{
		symbols:  symbols,
		interval: interval,
	}
}

func (s *SyntheticStream) Connect(_ context.Context) error {
	s.connected.Store(true)
	return nil
}

func (s *SyntheticStream) Subscribe(_ context.Context) error { return nil }

func (s *SyntheticStream) Read(ctx context.Context) (<-chan *models.Tick, <-chan error) {
	ticks := make(chan *models.Tick, 1024)
	errs := make(chan error, 1)

	go func() {
		defer close(ticks)
		defer close(errs)

		prices := make(map[string]float64, len(s.symbols))
		for _, sym := range s.symbols {
			prices[sym] = 100 + rand.Float64()*10
		}

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				for _, sym := range s.symbols {
					// drift-free random walk with ~0.1% steps
					p := prices[sym] * (1 + (rand.Float64()-0.5)*0.002)
					prices[sym] = p
					tick := &models.Tick{Symbol: sym, Price: p, Timestamp: now}
					select {
					case ticks <- tick:
					default:
					}
				}
			}
		}
	}()

	return ticks, errs
}

func (s *SyntheticStream) Reconnect(ctx context.Context) error {
	return s.Connect(ctx)
}

func (s *SyntheticStream) Close() error {
	s.connected.Store(false)
	return nil
}

func (s *SyntheticStream) IsConnected() bool { return s.connected.Load() }
