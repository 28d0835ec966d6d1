package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "vehicle_loan"

// Metrics holds the lifecycle counters. A nil *Metrics is a valid no-op.
type Metrics struct {
	reg         *prometheus.Registry
	transitions *prometheus.CounterVec
	failures    *prometheus.CounterVec
	schedules   *prometheus.CounterVec
	payments    *prometheus.CounterVec
	riskTiers   *prometheus.CounterVec
	notifyFails prometheus.Counter
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		reg: reg,
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transitions_total",
			Help:      "Committed lifecycle commands by command and resulting state.",
		}, []string{"command", "state"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "command_failures_total",
			Help:      "Lifecycle commands that returned an error, by command and error kind.",
		}, []string{"command", "kind"}),
		schedules: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "schedules_generated_total",
			Help:      "Installment schedules written, by reason.",
		}, []string{"reason"}),
		payments: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "payments_recorded_total",
			Help:      "Payments recorded by method.",
		}, []string{"method"}),
		riskTiers: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "risk_assessments_total",
			Help:      "Risk assessments by final tier.",
		}, []string{"tier"}),
		notifyFails: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notification_failures_total",
			Help:      "Notifications that could not be delivered.",
		}),
	}
	reg.MustRegister(m.transitions, m.failures, m.schedules, m.payments, m.riskTiers, m.notifyFails,
		collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	return m
}

func (m *Metrics) Transition(command, state string) {
	if m == nil {
		return
	}
	m.transitions.WithLabelValues(command, state).Inc()
}

func (m *Metrics) Failure(command, kind string) {
	if m == nil {
		return
	}
	if kind == "" {
		kind = "internal"
	}
	m.failures.WithLabelValues(command, kind).Inc()
}

func (m *Metrics) ScheduleGenerated(reason string) {
	if m == nil {
		return
	}
	m.schedules.WithLabelValues(reason).Inc()
}

func (m *Metrics) PaymentRecorded(method string) {
	if m == nil {
		return
	}
	m.payments.WithLabelValues(method).Inc()
}

func (m *Metrics) RiskAssessed(tier string) {
	if m == nil {
		return
	}
	m.riskTiers.WithLabelValues(tier).Inc()
}

func (m *Metrics) NotificationFailed() {
	if m == nil {
		return
	}
	m.notifyFails.Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{})
}
