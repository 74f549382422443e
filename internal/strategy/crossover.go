// Package strategy implements the RSI-extreme crossover state machine.
package strategy

import (
	"SignalPulse/internal/domain/models"
)

// Phase is the per-symbol crossover phase.
type Phase int

const (
	// Neutral: no RSI extreme observed since the last reset.
	Neutral Phase = iota
	// ArmedLong: RSI dipped below the long threshold, awaiting the
	// return crossing.
	ArmedLong
	// ArmedShort: RSI rose above the short threshold, awaiting the
	// return crossing.
	ArmedShort
)

func (p Phase) String() string {
	switch p {
	case ArmedLong:
		return "armed_long"
	case ArmedShort:
		return "armed_short"
	default:
		return "neutral"
	}
}

// Bias is the directional filter from price position relative to EMA.
type Bias int

const (
	BiasNone Bias = iota
	BiasLong
	BiasShort
)

// State is one symbol's phase plus the last defined bias. Owned by the
// symbol's worker, never shared.
type State struct {
	Phase Phase
	Bias  Bias
}

// Config fixes the RSI thresholds. Defaults are 10/90.
type Config struct {
	LongThreshold  float64
	ShortThreshold float64
}

// DefaultConfig returns the standard 10/90 thresholds.
func DefaultConfig() Config {
	return Config{LongThreshold: 10, ShortThreshold: 90}
}

// Machine evaluates crossover transitions for all symbols.
type Machine struct {
	cfg    Config
	states map[string]*State
}

// NewMachine creates a crossover machine with the given thresholds.
func NewMachine(cfg Config) *Machine {
	return &Machine{cfg: cfg, states: make(map[string]*State)}
}

// Step consumes an indicator snapshot and returns the entry signal for a
// qualifying return crossing, or nil. It is a pure reducer over the
// symbol's state: no timers, no I/O.
func (m *Machine) Step(snap models.IndicatorSnapshot) *models.Signal {
	st := m.states[snap.Symbol]
	if st == nil {
		st = &State{}
		m.states[snap.Symbol] = st
	}
	return Step(st, m.cfg, snap)
}

// StateOf exposes the current phase/bias for a symbol (diagnostics).
func (m *Machine) StateOf(symbol string) State {
	if st := m.states[symbol]; st != nil {
		return *st
	}
	return State{}
}

// Step applies one snapshot to a symbol state. Exact price/EMA equality
// leaves bias unchanged; an undefined bias never fires a signal.
func Step(st *State, cfg Config, snap models.IndicatorSnapshot) *models.Signal {
	switch {
	case snap.Price > snap.EMA:
		st.Bias = BiasLong
	case snap.Price < snap.EMA:
		st.Bias = BiasShort
	}

	crossedBelowLow := snap.PrevRSI >= cfg.LongThreshold && snap.RSI < cfg.LongThreshold
	crossedAboveLow := snap.PrevRSI < cfg.LongThreshold && snap.RSI >= cfg.LongThreshold
	crossedAboveHigh := snap.PrevRSI <= cfg.ShortThreshold && snap.RSI > cfg.ShortThreshold
	crossedBelowHigh := snap.PrevRSI > cfg.ShortThreshold && snap.RSI <= cfg.ShortThreshold

	switch st.Phase {
	case Neutral:
		if crossedBelowLow {
			st.Phase = ArmedLong
		} else if crossedAboveHigh {
			st.Phase = ArmedShort
		}

	case ArmedLong:
		var sig *models.Signal
		if crossedAboveLow {
			st.Phase = Neutral
			if st.Bias == BiasLong {
				sig = &models.Signal{
					Symbol:     snap.Symbol,
					Side:       models.Long,
					EntryPrice: snap.Price,
				}
			}
			// Bias mismatch at the return crossing: arm discarded.
		}
		// An opposite extreme overrides the arm; it never stacks.
		if crossedAboveHigh {
			st.Phase = ArmedShort
		}
		return sig

	case ArmedShort:
		var sig *models.Signal
		if crossedBelowHigh {
			st.Phase = Neutral
			if st.Bias == BiasShort {
				sig = &models.Signal{
					Symbol:     snap.Symbol,
					Side:       models.Short,
					EntryPrice: snap.Price,
				}
			}
		}
		if crossedBelowLow {
			st.Phase = ArmedLong
		}
		return sig
	}
	return nil
}
