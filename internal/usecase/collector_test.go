package usecase

import (
	"context"
	"testing"
	"time"

	"SignalPulse/internal/dispatch"
	"SignalPulse/internal/domain/models"
	"SignalPulse/internal/indicator"
	"SignalPulse/internal/risk"
	"SignalPulse/internal/strategy"
)

type scriptedStream struct {
	ticks     []*models.Tick
	connected bool
}

func (s *scriptedStream) Connect(context.Context) error   { s.connected = true; return nil }
func (s *scriptedStream) Subscribe(context.Context) error { return nil }
func (s *scriptedStream) Reconnect(context.Context) error { return nil }
func (s *scriptedStream) Close() error                    { s.connected = false; return nil }
func (s *scriptedStream) IsConnected() bool               { return s.connected }

func (s *scriptedStream) Read(ctx context.Context) (<-chan *models.Tick, <-chan error) {
	ticks := make(chan *models.Tick, len(s.ticks))
	errs := make(chan error, 1)
	for _, t := range s.ticks {
		ticks <- t
	}
	// keep both channels open so the collector stays on this stream
	return ticks, errs
}

func dipTicks(symbol string) []*models.Tick {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	prices := []float64{100, 99, 98, 97, 96, 97, 98}
	out := make([]*models.Tick, 0, len(prices))
	for i, p := range prices {
		out = append(out, &models.Tick{
			Symbol:    symbol,
			Price:     p,
			Timestamp: base.Add(time.Duration(i) * time.Second),
		})
	}
	return out
}

func TestCollectorPipelineDeliversAlert(t *testing.T) {
	tr := &captureTransport{}
	calc, err := risk.NewCalculator(0.004, 0.004, 0)
	if err != nil {
		t.Fatalf("calculator: %v", err)
	}
	d := dispatch.NewDispatcher(tr, nil, nil,
		dispatch.WithRetry(1, time.Millisecond, 5*time.Millisecond),
		dispatch.WithRate(10000, 100))
	d.Start(context.Background())
	defer d.Stop()

	newProc := func() *Processor {
		return NewProcessor(
			indicator.NewEngine(2, 2),
			strategy.NewMachine(strategy.DefaultConfig()),
			calc,
			d,
			nil,
			nil,
		)
	}

	stream := &scriptedStream{ticks: dipTicks("BTCUSDT")}
	c := NewCollector(stream, newProc, nil, nil, WithWorkers(2))
	if err := c.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer c.Stop()

	select {
	case ev := <-d.Events():
		if ev.Outcome != models.OutcomeDelivered {
			t.Fatalf("expected delivered, got %s", ev.Outcome)
		}
		if ev.Alert.Symbol != "BTCUSDT" || ev.Alert.EntryPrice != 97 {
			t.Fatalf("unexpected alert %+v", ev.Alert)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for alert")
	}
}

func TestCollectorKeepsSymbolOnOneWorker(t *testing.T) {
	// two symbols fed interleaved must each fire exactly once
	tr := &captureTransport{}
	calc, _ := risk.NewCalculator(0.004, 0.004, 0)
	d := dispatch.NewDispatcher(tr, nil, nil,
		dispatch.WithRetry(1, time.Millisecond, 5*time.Millisecond),
		dispatch.WithRate(10000, 100))
	d.Start(context.Background())
	defer d.Stop()

	newProc := func() *Processor {
		return NewProcessor(
			indicator.NewEngine(2, 2),
			strategy.NewMachine(strategy.DefaultConfig()),
			calc,
			d,
			nil,
			nil,
		)
	}

	a := dipTicks("BTCUSDT")
	b := dipTicks("ETHUSDT")
	interleaved := make([]*models.Tick, 0, len(a)+len(b))
	for i := range a {
		interleaved = append(interleaved, a[i], b[i])
	}

	stream := &scriptedStream{ticks: interleaved}
	c := NewCollector(stream, newProc, nil, nil, WithWorkers(4))
	if err := c.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer c.Stop()

	seen := map[string]int{}
	deadline := time.After(2 * time.Second)
	for len(seen) < 2 {
		select {
		case ev := <-d.Events():
			if ev.Outcome != models.OutcomeDelivered {
				t.Fatalf("expected delivered, got %s", ev.Outcome)
			}
			seen[ev.Alert.Symbol]++
		case <-deadline:
			t.Fatalf("timed out, saw %v", seen)
		}
	}
	if seen["BTCUSDT"] != 1 || seen["ETHUSDT"] != 1 {
		t.Fatalf("expected one alert per symbol, got %v", seen)
	}
}
