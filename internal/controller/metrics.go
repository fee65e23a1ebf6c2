package controller

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the controller's Prometheus collectors.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	events      *prometheus.CounterVec
	dropped     *prometheus.CounterVec
	transitions *prometheus.CounterVec
	reports     *prometheus.CounterVec
	resyncs     prometheus.Counter
	zoneState   *prometheus.GaugeVec
	applyTime   prometheus.Histogram
	queueDepth  prometheus.Gauge
}

// NewMetrics creates the controller collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		events: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "zoneshadow_events_total",
				Help: "Events received from the shadow client, by kind.",
			},
			[]string{"kind"},
		),
		dropped: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "zoneshadow_events_dropped_total",
				Help: "Events dropped without being applied, by reason.",
			},
			[]string{"reason"},
		),
		transitions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "zoneshadow_zone_apply_total",
				Help: "Zone apply attempts, by device and result.",
			},
			[]string{"device_id", "result"},
		),
		reports: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "zoneshadow_reports_total",
				Help: "Reported-state publishes, by result.",
			},
			[]string{"result"},
		),
		resyncs: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "zoneshadow_resyncs_total",
				Help: "Full resynchronisations (startup and every reconnect).",
			},
		),
		zoneState: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "zoneshadow_zone_on",
				Help: "Last applied zone state (1 = ON).",
			},
			[]string{"device_id"},
		),
		applyTime: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "zoneshadow_zone_apply_duration_seconds",
				Help:    "Time spent switching a zone's output lines.",
				Buckets: []float64{0.001, 0.01, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
			},
		),
		queueDepth: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "zoneshadow_event_queue_depth",
				Help: "Events waiting in the shadow client queue after the last event was handled.",
			},
		),
	}
	reg.MustRegister(m.events, m.dropped, m.transitions, m.reports, m.resyncs, m.zoneState, m.applyTime, m.queueDepth)
	return m
}

// Drop reasons.
const (
	dropDecode      = "decode"
	dropUnknownZone = "unknown_zone"
)

// Apply results.
const (
	resultChanged   = "changed"
	resultUnchanged = "unchanged"
	resultHardware  = "hardware_error"
)

func (m *Metrics) event(kind string) {
	if m != nil {
		m.events.WithLabelValues(kind).Inc()
	}
}

func (m *Metrics) drop(reason string) {
	if m != nil {
		m.dropped.WithLabelValues(reason).Inc()
	}
}

func (m *Metrics) apply(deviceID, result string, seconds float64) {
	if m != nil {
		m.transitions.WithLabelValues(deviceID, result).Inc()
		m.applyTime.Observe(seconds)
	}
}

func (m *Metrics) state(deviceID string, on bool) {
	if m != nil {
		v := 0.0
		if on {
			v = 1
		}
		m.zoneState.WithLabelValues(deviceID).Set(v)
	}
}

func (m *Metrics) report(err error) {
	if m == nil {
		return
	}
	if err != nil {
		m.reports.WithLabelValues("error").Inc()
		return
	}
	m.reports.WithLabelValues("ok").Inc()
}

func (m *Metrics) resync() {
	if m != nil {
		m.resyncs.Inc()
	}
}

func (m *Metrics) backlog(n int) {
	if m != nil {
		m.queueDepth.Set(float64(n))
	}
}
