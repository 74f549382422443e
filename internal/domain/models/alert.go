package models

import "time"

// Side enumerates signal direction.
type Side string

const (
	Long  Side = "LONG"
	Short Side = "SHORT"
)

// Signal is an entry event produced by the crossover state machine on a
// qualifying RSI return crossing. Immutable once created.
type Signal struct {
	Symbol     string
	Side       Side
	EntryPrice float64
	Timestamp  time.Time
}

// RiskLevels are the take-profit and stop-loss prices computed for a
// signal. Immutable once computed.
type RiskLevels struct {
	TakeProfit float64
	StopLoss   float64
}

// Alert is a risk-annotated signal, the unit the dispatcher delivers.
type Alert struct {
	Symbol     string    `json:"symbol"`
	Side       Side      `json:"side"`
	EntryPrice float64   `json:"entry_price"`
	TakeProfit float64   `json:"take_profit"`
	StopLoss   float64   `json:"stop_loss"`
	Timestamp  time.Time `json:"timestamp"`
}

// DeliveryOutcome classifies how an alert left the dispatcher.
type DeliveryOutcome string

const (
	OutcomeDelivered DeliveryOutcome = "delivered"
	OutcomeExhausted DeliveryOutcome = "retries_exhausted"
	OutcomePermanent DeliveryOutcome = "permanent_failure"
	OutcomeDropped   DeliveryOutcome = "queue_full"
)

// DeliveryEvent records the terminal outcome of one alert's delivery.
type DeliveryEvent struct {
	Alert    Alert           `json:"alert"`
	Outcome  DeliveryOutcome `json:"outcome"`
	Attempts int             `json:"attempts"`
	Err      string          `json:"error,omitempty"`
	At       time.Time       `json:"at"`
}
