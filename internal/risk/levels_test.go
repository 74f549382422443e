package risk

import (
	"math"
	"testing"

	"SignalPulse/internal/domain/models"
)

func TestLongLevelsBracketEntry(t *testing.T) {
	c, err := NewCalculator(0.004, 0.004, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	levels, err := c.Compute(&models.Signal{Symbol: "BTCUSDT", Side: models.Long, EntryPrice: 50000})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !(levels.TakeProfit > 50000 && 50000 > levels.StopLoss) {
		t.Fatalf("expected tp > entry > sl, got tp=%v sl=%v", levels.TakeProfit, levels.StopLoss)
	}
	if math.Abs(levels.TakeProfit-50200) > 1e-6 || math.Abs(levels.StopLoss-49800) > 1e-6 {
		t.Fatalf("unexpected levels %+v", levels)
	}
}

func TestShortLevelsBracketEntry(t *testing.T) {
	c, _ := NewCalculator(0.01, 0.02, 0)
	levels, err := c.Compute(&models.Signal{Symbol: "ETHUSDT", Side: models.Short, EntryPrice: 2000})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !(levels.TakeProfit < 2000 && 2000 < levels.StopLoss) {
		t.Fatalf("expected tp < entry < sl, got tp=%v sl=%v", levels.TakeProfit, levels.StopLoss)
	}
}

func TestTickSizeRounding(t *testing.T) {
	c, _ := NewCalculator(0.004, 0.004, 0.0001)
	levels, err := c.Compute(&models.Signal{Side: models.Long, EntryPrice: 0.12345})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, p := range []float64{levels.TakeProfit, levels.StopLoss} {
		steps := p / 0.0001
		if math.Abs(steps-math.Round(steps)) > 1e-6 {
			t.Fatalf("price %v not on 0.0001 grid", p)
		}
	}
}

func TestPercentageBoundsAreConfigErrors(t *testing.T) {
	cases := []struct{ profit, stop float64 }{
		{0, 0.004},
		{0.004, 0},
		{1, 0.004},
		{0.004, 1.5},
		{-0.1, 0.004},
	}
	for _, tc := range cases {
		if _, err := NewCalculator(tc.profit, tc.stop, 0); err == nil {
			t.Fatalf("expected config error for profit=%v stop=%v", tc.profit, tc.stop)
		}
	}
}

func TestInvalidEntryRejected(t *testing.T) {
	c, _ := NewCalculator(0.004, 0.004, 0)
	if _, err := c.Compute(&models.Signal{Side: models.Long, EntryPrice: 0}); err == nil {
		t.Fatal("expected error for non-positive entry")
	}
	if _, err := c.Compute(&models.Signal{Side: "SIDEWAYS", EntryPrice: 100}); err == nil {
		t.Fatal("expected error for unknown side")
	}
}
