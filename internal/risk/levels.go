// Package risk computes take-profit and stop-loss levels for signals.
package risk

import (
	"fmt"
	"math"

	"SignalPulse/internal/domain/models"
)

// Calculator maps entry signals to risk levels. Percentages are validated
// at construction; an out-of-range value is a configuration error.
type Calculator struct {
	profitPct float64
	stopPct   float64
	tickSize  float64
}

// NewCalculator builds a calculator. profitPct and stopPct must lie in
// (0,1); tickSize rounds the resulting levels to the exchange grid and
// may be zero to disable rounding.
func NewCalculator(profitPct, stopPct, tickSize float64) (*Calculator, error) {
	if profitPct <= 0 || profitPct >= 1 {
		return nil, fmt.Errorf("profit_pct must be in (0,1), got %v", profitPct)
	}
	if stopPct <= 0 || stopPct >= 1 {
		return nil, fmt.Errorf("stop_pct must be in (0,1), got %v", stopPct)
	}
	if tickSize < 0 {
		return nil, fmt.Errorf("tick_size must be >= 0, got %v", tickSize)
	}
	return &Calculator{profitPct: profitPct, stopPct: stopPct, tickSize: tickSize}, nil
}

// Compute returns the take-profit and stop-loss levels for a signal.
func (c *Calculator) Compute(sig *models.Signal) (models.RiskLevels, error) {
	if sig.EntryPrice <= 0 {
		return models.RiskLevels{}, fmt.Errorf("invalid entry price %v for %s", sig.EntryPrice, sig.Symbol)
	}

	var tp, sl float64
	switch sig.Side {
	case models.Long:
		tp = sig.EntryPrice * (1 + c.profitPct)
		sl = sig.EntryPrice * (1 - c.stopPct)
	case models.Short:
		tp = sig.EntryPrice * (1 - c.profitPct)
		sl = sig.EntryPrice * (1 + c.stopPct)
	default:
		return models.RiskLevels{}, fmt.Errorf("invalid side %q", sig.Side)
	}

	return models.RiskLevels{
		TakeProfit: c.roundToTick(tp),
		StopLoss:   c.roundToTick(sl),
	}, nil
}

func (c *Calculator) roundToTick(price float64) float64 {
	if c.tickSize <= 0 {
		return price
	}
	return math.Round(price/c.tickSize) * c.tickSize
}
