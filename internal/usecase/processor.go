package usecase

import (
	"time"

	"SignalPulse/internal/dispatch"
	"SignalPulse/internal/domain/models"
	"SignalPulse/internal/domain/repository"
	"SignalPulse/internal/indicator"
	"SignalPulse/internal/risk"
	"SignalPulse/internal/strategy"
	"SignalPulse/pkg/logger"
)

// Processor drives one tick through the indicator engine, the crossover
// state machine, and the risk calculator, and hands resulting alerts to
// the dispatcher. A Processor owns its symbol states and must only be
// called from a single goroutine; the collector shards symbols across
// processors so this holds.
type Processor struct {
	engine  *indicator.Engine
	machine *strategy.Machine
	risk    *risk.Calculator
	disp    *dispatch.Dispatcher
	log     *logger.Logger
	metrics repository.Metrics
}

func NewProcessor(engine *indicator.Engine, machine *strategy.Machine, calc *risk.Calculator, disp *dispatch.Dispatcher, log *logger.Logger, m repository.Metrics) *Processor {
	return &Processor{
		engine:  engine,
		machine: machine,
		risk:    calc,
		disp:    disp,
		log:     log,
		metrics: m,
	}
}

// Process handles a single tick. Malformed ticks are counted and skipped;
// indicator state is untouched by them.
func (p *Processor) Process(t *models.Tick) {
	start := time.Now()

	snap, ready, err := p.engine.Update(t)
	if err != nil {
		if p.metrics != nil {
			p.metrics.RecordTickRejected(t.Symbol)
		}
		if p.log != nil {
			p.log.Debug("tick rejected",
				logger.String("symbol", t.Symbol),
				logger.Error(err))
		}
		return
	}

	if p.metrics != nil {
		p.metrics.RecordTick(t.Symbol)
		p.metrics.RecordLastPrice(t.Symbol, t.Price)
	}

	if !ready {
		return
	}

	sig := p.machine.Step(snap)
	if sig == nil {
		return
	}
	sig.Timestamp = t.Timestamp

	if p.metrics != nil {
		p.metrics.RecordSignal(sig.Symbol, string(sig.Side))
	}
	if p.log != nil {
		p.log.Info("entry signal",
			logger.String("symbol", sig.Symbol),
			logger.String("side", string(sig.Side)),
			logger.Float64("entry_price", sig.EntryPrice))
	}

	levels, err := p.risk.Compute(sig)
	if err != nil {
		if p.metrics != nil {
			p.metrics.RecordError("risk_compute")
		}
		if p.log != nil {
			p.log.Error("risk level computation failed",
				logger.String("symbol", sig.Symbol),
				logger.Error(err))
		}
		return
	}

	alert := &models.Alert{
		Symbol:     sig.Symbol,
		Side:       sig.Side,
		EntryPrice: sig.EntryPrice,
		TakeProfit: levels.TakeProfit,
		StopLoss:   levels.StopLoss,
		Timestamp:  sig.Timestamp,
	}
	p.disp.Enqueue(alert)

	if p.metrics != nil {
		p.metrics.RecordLatency("tick_to_enqueue", time.Since(start).Seconds())
	}
}
