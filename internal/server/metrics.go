package server

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the server's Prometheus collectors. A nil *Metrics is valid
// and turns every method into a no-op, which keeps tests quiet.
type Metrics struct {
	sessions   prometheus.Gauge
	rooms      prometheus.Gauge
	frames     *prometheus.CounterVec
	ruleErrors *prometheus.CounterVec
	matches    prometheus.Counter
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		sessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "burad",
			Name:      "sessions_active",
			Help:      "Number of live websocket sessions.",
		}),
		rooms: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "burad",
			Name:      "rooms_active",
			Help:      "Number of live rooms.",
		}),
		frames: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "burad",
			Name:      "frames_total",
			Help:      "Inbound intent frames by type.",
		}, []string{"type"}),
		ruleErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "burad",
			Name:      "rule_errors_total",
			Help:      "Rejected intents by rule error kind.",
		}, []string{"kind"}),
		matches: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "burad",
			Name:      "matches_total",
			Help:      "Completed matches.",
		}),
	}
	reg.MustRegister(m.sessions, m.rooms, m.frames, m.ruleErrors, m.matches)
	return m
}

func (m *Metrics) SessionOpened() {
	if m == nil {
		return
	}
	m.sessions.Inc()
}

func (m *Metrics) SessionClosed() {
	if m == nil {
		return
	}
	m.sessions.Dec()
}

func (m *Metrics) RoomCreated(total int) {
	if m == nil {
		return
	}
	m.rooms.Set(float64(total))
}

func (m *Metrics) RoomDeleted(total int) {
	if m == nil {
		return
	}
	m.rooms.Set(float64(total))
}

func (m *Metrics) FrameReceived(frameType string) {
	if m == nil {
		return
	}
	m.frames.WithLabelValues(frameType).Inc()
}

func (m *Metrics) RuleErrorRejected(kind string) {
	if m == nil {
		return
	}
	m.ruleErrors.WithLabelValues(kind).Inc()
}

func (m *Metrics) MatchCompleted() {
	if m == nil {
		return
	}
	m.matches.Inc()
}
