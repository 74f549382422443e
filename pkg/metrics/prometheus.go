package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	ticksTotal    *prometheus.CounterVec
	ticksRejected *prometheus.CounterVec
	signalsTotal  *prometheus.CounterVec
	alertsSent    *prometheus.CounterVec
	alertsFailed  *prometheus.CounterVec
	errorsTotal   *prometheus.CounterVec
	lastPrice     *prometheus.GaugeVec
	latency       *prometheus.HistogramVec
	queueDepth    prometheus.Gauge
}

// New creates a new Prometheus metrics recorder.
func New() *Recorder {
	return &Recorder{
		ticksTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "signalpulse_ticks_total",
				Help: "Total number of ticks processed",
			},
			[]string{"symbol"},
		),
		ticksRejected: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "signalpulse_ticks_rejected_total",
				Help: "Total number of malformed or out-of-order ticks rejected",
			},
			[]string{"symbol"},
		),
		signalsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "signalpulse_signals_total",
				Help: "Total number of entry signals emitted",
			},
			[]string{"symbol", "side"},
		),
		alertsSent: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "signalpulse_alerts_delivered_total",
				Help: "Total number of alerts delivered",
			},
			[]string{"symbol"},
		),
		alertsFailed: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "signalpulse_alerts_failed_total",
				Help: "Total number of alerts that reached a failure outcome",
			},
			[]string{"symbol", "reason"},
		),
		errorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "signalpulse_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		lastPrice: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "signalpulse_last_price",
				Help: "Last recorded price for a symbol",
			},
			[]string{"symbol"},
		),
		latency: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "signalpulse_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
			},
			[]string{"operation"},
		),
		queueDepth: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "signalpulse_alert_queue_depth",
				Help: "Current number of alerts waiting in the dispatch queue",
			},
		),
	}
}

// RecordTick records one processed tick for a symbol.
func (r *Recorder) RecordTick(symbol string) {
	r.ticksTotal.WithLabelValues(symbol).Inc()
}

// RecordTickRejected records a rejected tick.
func (r *Recorder) RecordTickRejected(symbol string) {
	r.ticksRejected.WithLabelValues(symbol).Inc()
}

// RecordSignal records an emitted entry signal.
func (r *Recorder) RecordSignal(symbol, side string) {
	r.signalsTotal.WithLabelValues(symbol, side).Inc()
}

// RecordAlertDelivered records a successful alert delivery.
func (r *Recorder) RecordAlertDelivered(symbol string) {
	r.alertsSent.WithLabelValues(symbol).Inc()
}

// RecordAlertFailed records an alert failure outcome.
func (r *Recorder) RecordAlertFailed(symbol, reason string) {
	r.alertsFailed.WithLabelValues(symbol, reason).Inc()
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordLastPrice records the last price for a symbol.
func (r *Recorder) RecordLastPrice(symbol string, price float64) {
	r.lastPrice.WithLabelValues(symbol).Set(price)
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}

// RecordQueueDepth records the dispatch queue depth.
func (r *Recorder) RecordQueueDepth(depth int) {
	r.queueDepth.Set(float64(depth))
}
