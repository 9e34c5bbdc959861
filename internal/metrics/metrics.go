// Package metrics exposes pipeline instrumentation counters.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder is the instrumentation surface the pipeline and web layers
// report into.
type Recorder interface {
	CycleCompleted(ok bool)
	FeedFailed(series, stage string)
	SetDisplayedSessions(count int)
	SetConnectedClients(count int)
	NotificationFired()
}

// Provider implements Recorder on the default Prometheus registry.
type Provider struct {
	cycles       *prometheus.CounterVec
	feedFailures *prometheus.CounterVec
	displayed    prometheus.Gauge
	clients      prometheus.Gauge
	fired        prometheus.Counter
}

// NewProvider registers the gridclock collectors and returns the recorder.
func NewProvider() *Provider {
	return &Provider{
		cycles: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "gridclock_cycles_total",
			Help: "Fetch cycles run, by result.",
		}, []string{"result"}),
		feedFailures: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "gridclock_feed_failures_total",
			Help: "Per-series feed failures, by pipeline stage.",
		}, []string{"series", "stage"}),
		displayed: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "gridclock_displayed_sessions",
			Help: "Sessions in the current display set.",
		}),
		clients: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "gridclock_connected_clients",
			Help: "Connected WebSocket clients.",
		}),
		fired: promauto.NewCounter(prometheus.CounterOpts{
			Name: "gridclock_notifications_fired_total",
			Help: "Session-start notifications fired.",
		}),
	}
}

func (p *Provider) CycleCompleted(ok bool) {
	result := "ok"
	if !ok {
		result = "error"
	}
	p.cycles.WithLabelValues(result).Inc()
}

func (p *Provider) FeedFailed(series, stage string) {
	p.feedFailures.WithLabelValues(series, stage).Inc()
}

func (p *Provider) SetDisplayedSessions(count int) {
	p.displayed.Set(float64(count))
}

func (p *Provider) SetConnectedClients(count int) {
	p.clients.Set(float64(count))
}

func (p *Provider) NotificationFired() {
	p.fired.Inc()
}

// Noop discards all observations. Used in tests and when metrics are off.
type Noop struct{}

func (Noop) CycleCompleted(bool)       {}
func (Noop) FeedFailed(string, string) {}
func (Noop) SetDisplayedSessions(int)  {}
func (Noop) SetConnectedClients(int)   {}
func (Noop) NotificationFired()        {}
