// Package metrics exposes the client's Prometheus collectors. All methods
// are safe on a nil *Metrics so components can run without instrumentation.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "leadsync"

type Metrics struct {
	// FramesTotal counts socket frames. Labels: direction (in, out), type.
	FramesTotal *prometheus.CounterVec
	// ReconnectsTotal counts reconnect attempts. Labels: outcome (ok, failed).
	ReconnectsTotal *prometheus.CounterVec
	// HeartbeatTimeoutsTotal counts pongs that never came.
	HeartbeatTimeoutsTotal prometheus.Counter
	// SocketState is 1 for the current transport state. Labels: state.
	SocketState *prometheus.GaugeVec

	// LoadsTotal counts ticket list loads. Labels: view, outcome (ok, error, shared).
	LoadsTotal *prometheus.CounterVec
	// LoadDurationSeconds measures full loads including auto-pagination.
	LoadDurationSeconds *prometheus.HistogramVec
	// BusEventsTotal counts sync bus emissions. Labels: type.
	BusEventsTotal *prometheus.CounterVec
	// UnreadTickets mirrors the unread badge.
	UnreadTickets prometheus.Gauge
}

// New registers every collector on reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		FramesTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "socket",
			Name:      "frames_total",
			Help:      "Socket frames by direction and type",
		}, []string{"direction", "type"}),
		ReconnectsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "socket",
			Name:      "reconnects_total",
			Help:      "Socket reconnect attempts by outcome",
		}, []string{"outcome"}),
		HeartbeatTimeoutsTotal: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "socket",
			Name:      "heartbeat_timeouts_total",
			Help:      "Connections closed because no pong arrived in time",
		}),
		SocketState: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "socket",
			Name:      "state",
			Help:      "1 for the current socket state",
		}, []string{"state"}),
		LoadsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "store",
			Name:      "loads_total",
			Help:      "Ticket list loads by view and outcome",
		}, []string{"view", "outcome"}),
		LoadDurationSeconds: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "store",
			Name:      "load_duration_seconds",
			Help:      "Duration of ticket list loads including every page",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"view"}),
		BusEventsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "bus",
			Name:      "events_total",
			Help:      "Sync bus events by type",
		}, []string{"type"}),
		UnreadTickets: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "unread_messages",
			Help:      "Current value of the unread badge",
		}),
	}
}

func (m *Metrics) FrameIn(frameType string) {
	if m != nil {
		m.FramesTotal.WithLabelValues("in", frameType).Inc()
	}
}

func (m *Metrics) FrameOut(frameType string) {
	if m != nil {
		m.FramesTotal.WithLabelValues("out", frameType).Inc()
	}
}

func (m *Metrics) Reconnect(ok bool) {
	if m == nil {
		return
	}
	outcome := "failed"
	if ok {
		outcome = "ok"
	}
	m.ReconnectsTotal.WithLabelValues(outcome).Inc()
}

func (m *Metrics) HeartbeatTimeout() {
	if m != nil {
		m.HeartbeatTimeoutsTotal.Inc()
	}
}

// SetSocketState marks state as current and clears the others.
func (m *Metrics) SetSocketState(state string, all []string) {
	if m == nil {
		return
	}
	for _, s := range all {
		v := 0.0
		if s == state {
			v = 1
		}
		m.SocketState.WithLabelValues(s).Set(v)
	}
}

func (m *Metrics) ObserveLoad(view, outcome string, started time.Time) {
	if m == nil {
		return
	}
	m.LoadsTotal.WithLabelValues(view, outcome).Inc()
	if outcome != "shared" {
		m.LoadDurationSeconds.WithLabelValues(view).Observe(time.Since(started).Seconds())
	}
}

func (m *Metrics) BusEvent(eventType string) {
	if m != nil {
		m.BusEventsTotal.WithLabelValues(eventType).Inc()
	}
}

func (m *Metrics) SetUnread(v int) {
	if m != nil {
		m.UnreadTickets.Set(float64(v))
	}
}
