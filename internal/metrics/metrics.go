// Package metrics provides Prometheus instrumentation for IPC sessions.
package metrics

import (
	stderrors "errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Recorder records session activity. A nil *Recorder is valid and records nothing.
type Recorder struct {
	handshakes         *prometheus.CounterVec
	handshakeDuration  prometheus.Histogram
	requests           *prometheus.CounterVec
	requestDuration    prometheus.Histogram
	pending            prometheus.Gauge
	sendFailures       *prometheus.CounterVec
	inbound            *prometheus.CounterVec
	duplicateResponses prometheus.Counter
}

// New creates a Recorder and registers its collectors on reg.
// Collectors already registered by another Recorder on the same registry are
// shared. New returns nil when reg is nil.
func New(reg prometheus.Registerer) *Recorder {
	if reg == nil {
		return nil
	}

	return &Recorder{
		handshakes: register(reg, prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ipcsession_handshakes_total",
				Help: "Handshakes finished, by winning sequence or failure",
			},
			[]string{"outcome"},
		)),
		handshakeDuration: register(reg, prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "ipcsession_handshake_duration_seconds",
				Help:    "Time from handshake start to resolution",
				Buckets: prometheus.ExponentialBuckets(0.001, 4, 8),
			},
		)),
		requests: register(reg, prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ipcsession_requests_total",
				Help: "Outbound requests finished, by outcome",
			},
			[]string{"outcome"},
		)),
		requestDuration: register(reg, prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "ipcsession_request_duration_seconds",
				Help:    "Time from request send to matching response",
				Buckets: prometheus.ExponentialBuckets(0.0005, 4, 10),
			},
		)),
		pending: register(reg, prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "ipcsession_pending_requests",
				Help: "Outbound requests awaiting a response",
			},
		)),
		sendFailures: register(reg, prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ipcsession_send_failures_total",
				Help: "Messages the channel refused or failed to deliver, by message kind",
			},
			[]string{"kind"},
		)),
		inbound: register(reg, prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ipcsession_inbound_messages_total",
				Help: "Inbound messages seen by session listeners, by envelope kind",
			},
			[]string{"kind"},
		)),
		duplicateResponses: register(reg, prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "ipcsession_duplicate_response_attempts_total",
				Help: "Response sends rejected because a response was already sent",
			},
		)),
	}
}

// Handshake records a finished handshake. outcome is the winning tag or "failed".
func (r *Recorder) Handshake(outcome string, d time.Duration) {
	if r == nil {
		return
	}

	r.handshakes.WithLabelValues(outcome).Inc()
	r.handshakeDuration.Observe(d.Seconds())
}

// RequestStarted increments the pending gauge.
func (r *Recorder) RequestStarted() {
	if r == nil {
		return
	}

	r.pending.Inc()
}

// RequestFinished decrements the pending gauge and records the outcome.
// Duration is only observed for answered requests.
func (r *Recorder) RequestFinished(outcome string, d time.Duration) {
	if r == nil {
		return
	}

	r.pending.Dec()
	r.requests.WithLabelValues(outcome).Inc()

	if outcome == OutcomeAnswered {
		r.requestDuration.Observe(d.Seconds())
	}
}

// SendFailed counts a send failure for a message kind label.
func (r *Recorder) SendFailed(kind string) {
	if r == nil {
		return
	}

	r.sendFailures.WithLabelValues(kind).Inc()
}

// Inbound counts an inbound message by envelope kind.
func (r *Recorder) Inbound(kind string) {
	if r == nil {
		return
	}

	r.inbound.WithLabelValues(kind).Inc()
}

// DuplicateResponse counts a rejected duplicate response.
func (r *Recorder) DuplicateResponse() {
	if r == nil {
		return
	}

	r.duplicateResponses.Inc()
}

// Request outcomes.
const (
	OutcomeAnswered   = "answered"
	OutcomeSendFailed = "send_failed"
	OutcomeCancelled  = "cancelled"
	OutcomeClosed     = "closed"
)

// OutcomeFailed labels a failed handshake.
const OutcomeFailed = "failed"

func register[T prometheus.Collector](reg prometheus.Registerer, c T) T {
	if err := reg.Register(c); err != nil {
		if are, ok := stderrors.AsType[prometheus.AlreadyRegisteredError](err); ok {
			if existing, ok := are.ExistingCollector.(T); ok {
				return existing
			}
		}

		panic(err)
	}

	return c
}
