// Package indicator maintains O(1)-updatable EMA and RSI state per symbol.
package indicator

import (
	"time"

	"SignalPulse/internal/domain/models"
)

// neutralRSI is the mid-scale baseline used as the first defined RSI's
// predecessor.
const neutralRSI = 50.0

// State holds the incremental indicator state for one symbol. It is owned
// exclusively by that symbol's processing goroutine and is never shared.
type State struct {
	periodRSI int
	periodEMA int

	lastPrice float64
	lastTS    time.Time
	seen      int

	// EMA
	emaSum     float64
	ema        float64
	emaReady   bool
	multiplier float64

	// RSI (Wilder smoothing, seeded with the simple average of the first
	// periodRSI gains/losses)
	deltas   int
	gainSum  float64
	lossSum  float64
	avgGain  float64
	avgLoss  float64
	rsi      float64
	prevRSI  float64
	rsiReady bool
}

// NewState creates indicator state for a single symbol. Periods must be
// positive; config validation guarantees that before the engine is built.
func NewState(periodRSI, periodEMA int) *State {
	return &State{
		periodRSI:  periodRSI,
		periodEMA:  periodEMA,
		multiplier: 2.0 / float64(periodEMA+1),
	}
}

// Update consumes the next tick. It returns (snapshot, true) once both
// indicators are warm, and a DataError for ticks that fail data-quality
// checks. A rejected tick mutates no state.
func (s *State) Update(t *models.Tick) (models.IndicatorSnapshot, bool, error) {
	if t.Price <= 0 {
		return models.IndicatorSnapshot{}, false, &models.DataError{Symbol: t.Symbol, Reason: "non-positive price"}
	}
	if s.seen > 0 && !t.Timestamp.After(s.lastTS) {
		return models.IndicatorSnapshot{}, false, &models.DataError{Symbol: t.Symbol, Reason: "non-monotonic timestamp"}
	}

	if s.seen > 0 {
		s.updateRSI(t.Price - s.lastPrice)
	}
	s.updateEMA(t.Price)

	s.lastPrice = t.Price
	s.lastTS = t.Timestamp
	s.seen++

	if !s.emaReady || !s.rsiReady {
		return models.IndicatorSnapshot{}, false, nil
	}
	return models.IndicatorSnapshot{
		Symbol:  t.Symbol,
		Price:   t.Price,
		EMA:     s.ema,
		RSI:     s.rsi,
		PrevRSI: s.prevRSI,
	}, true, nil
}

// Warm reports whether both indicators have completed warm-up.
func (s *State) Warm() bool { return s.emaReady && s.rsiReady }

func (s *State) updateEMA(price float64) {
	if !s.emaReady {
		s.emaSum += price
		if s.seen+1 == s.periodEMA {
			s.ema = s.emaSum / float64(s.periodEMA)
			s.emaReady = true
		}
		return
	}
	s.ema = price*s.multiplier + s.ema*(1-s.multiplier)
}

func (s *State) updateRSI(change float64) {
	gain, loss := 0.0, 0.0
	if change > 0 {
		gain = change
	} else {
		loss = -change
	}

	s.deltas++
	switch {
	case s.deltas < s.periodRSI:
		s.gainSum += gain
		s.lossSum += loss
		return
	case s.deltas == s.periodRSI:
		s.avgGain = (s.gainSum + gain) / float64(s.periodRSI)
		s.avgLoss = (s.lossSum + loss) / float64(s.periodRSI)
	default:
		n := float64(s.periodRSI)
		s.avgGain = (s.avgGain*(n-1) + gain) / n
		s.avgLoss = (s.avgLoss*(n-1) + loss) / n
	}

	s.prevRSI = s.rsi
	if s.avgLoss == 0 {
		s.rsi = 100.0
	} else {
		rs := s.avgGain / s.avgLoss
		s.rsi = 100.0 - 100.0/(1.0+rs)
	}
	if !s.rsiReady {
		// First defined RSI has no predecessor; a neutral baseline lets
		// an extreme already present at warm-up register as a crossing.
		s.prevRSI = neutralRSI
		s.rsiReady = true
	}
}

// Engine maps symbols to their owned indicator state. Each symbol's state
// is touched only by that symbol's worker, so no locking is needed.
type Engine struct {
	periodRSI int
	periodEMA int
	states    map[string]*State
}

// NewEngine creates an indicator engine for the configured periods.
func NewEngine(periodRSI, periodEMA int) *Engine {
	return &Engine{
		periodRSI: periodRSI,
		periodEMA: periodEMA,
		states:    make(map[string]*State),
	}
}

// Update routes a tick to its symbol's state, creating it on first sight.
func (e *Engine) Update(t *models.Tick) (models.IndicatorSnapshot, bool, error) {
	st := e.states[t.Symbol]
	if st == nil {
		st = NewState(e.periodRSI, e.periodEMA)
		e.states[t.Symbol] = st
	}
	return st.Update(t)
}
