package models

import (
	"fmt"
	"time"
)

// Tick is a single trade print from the market data feed. Immutable,
// consumed once by the per-symbol processing worker.
type Tick struct {
	Symbol    string
	Price     float64
	Timestamp time.Time
}

// IndicatorSnapshot is emitted by the indicator engine once both EMA and
// RSI have warmed up. PrevRSI carries the previous tick's RSI for
// crossover detection downstream.
type IndicatorSnapshot struct {
	Symbol  string
	Price   float64
	EMA     float64
	RSI     float64
	PrevRSI float64
}

// DataError marks a tick rejected by data-quality checks. Rejections are
// per-symbol and never mutate indicator state.
type DataError struct {
	Symbol string
	Reason string
}

func (e *DataError) Error() string {
	return fmt.Sprintf("bad tick for %s: %s", e.Symbol, e.Reason)
}
