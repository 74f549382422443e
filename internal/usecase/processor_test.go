package usecase

import (
	"context"
	"math"
	"sync"
	"testing"
	"time"

	"SignalPulse/internal/dispatch"
	"SignalPulse/internal/domain/models"
	"SignalPulse/internal/indicator"
	"SignalPulse/internal/risk"
	"SignalPulse/internal/strategy"
)

type captureTransport struct {
	mu     sync.Mutex
	alerts []*models.Alert
}

func (c *captureTransport) Send(_ context.Context, a *models.Alert) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.alerts = append(c.alerts, a)
	return nil
}

func newTestProcessor(t *testing.T, tr *captureTransport) (*Processor, *dispatch.Dispatcher) {
	t.Helper()
	calc, err := risk.NewCalculator(0.004, 0.004, 0)
	if err != nil {
		t.Fatalf("calculator: %v", err)
	}
	d := dispatch.NewDispatcher(tr, nil, nil,
		dispatch.WithRetry(1, time.Millisecond, 5*time.Millisecond),
		dispatch.WithRate(10000, 100))
	p := NewProcessor(
		indicator.NewEngine(2, 2),
		strategy.NewMachine(strategy.DefaultConfig()),
		calc,
		d,
		nil,
		nil,
	)
	return p, d
}

func feed(p *Processor, symbol string, prices []float64) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	for i, price := range prices {
		p.Process(&models.Tick{
			Symbol:    symbol,
			Price:     price,
			Timestamp: base.Add(time.Duration(i) * time.Second),
		})
	}
}

func TestProcessorEmitsAlertOnDipAndReturn(t *testing.T) {
	tr := &captureTransport{}
	p, d := newTestProcessor(t, tr)
	d.Start(context.Background())
	defer d.Stop()

	feed(p, "BTCUSDT", []float64{100, 99, 98, 97, 96, 97, 98})

	select {
	case ev := <-d.Events():
		if ev.Outcome != models.OutcomeDelivered {
			t.Fatalf("expected delivered, got %s", ev.Outcome)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for alert delivery")
	}

	tr.mu.Lock()
	defer tr.mu.Unlock()
	if len(tr.alerts) != 1 {
		t.Fatalf("expected exactly one alert, got %d", len(tr.alerts))
	}
	a := tr.alerts[0]
	if a.Symbol != "BTCUSDT" || a.Side != models.Long {
		t.Fatalf("unexpected alert %+v", a)
	}
	if a.EntryPrice != 97 {
		t.Fatalf("expected entry at return crossing price 97, got %v", a.EntryPrice)
	}
	if math.Abs(a.TakeProfit-97*1.004) > 1e-9 || math.Abs(a.StopLoss-97*0.996) > 1e-9 {
		t.Fatalf("unexpected risk levels %+v", a)
	}
	if a.Timestamp.IsZero() {
		t.Fatal("alert timestamp should carry the tick time")
	}
}

func TestProcessorSkipsMalformedTicks(t *testing.T) {
	tr := &captureTransport{}
	p, d := newTestProcessor(t, tr)
	d.Start(context.Background())
	defer d.Stop()

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	p.Process(&models.Tick{Symbol: "BTCUSDT", Price: 100, Timestamp: base})
	// bad price and stale timestamp must not corrupt the stream
	p.Process(&models.Tick{Symbol: "BTCUSDT", Price: -1, Timestamp: base.Add(time.Second)})
	p.Process(&models.Tick{Symbol: "BTCUSDT", Price: 99, Timestamp: base})

	feed2 := []float64{99, 98, 97, 96, 97, 98}
	for i, price := range feed2 {
		p.Process(&models.Tick{
			Symbol:    "BTCUSDT",
			Price:     price,
			Timestamp: base.Add(time.Duration(i+1) * time.Second),
		})
	}

	select {
	case ev := <-d.Events():
		if ev.Outcome != models.OutcomeDelivered {
			t.Fatalf("expected delivered, got %s", ev.Outcome)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for alert delivery")
	}

	tr.mu.Lock()
	defer tr.mu.Unlock()
	if len(tr.alerts) != 1 {
		t.Fatalf("expected exactly one alert, got %d", len(tr.alerts))
	}
}
