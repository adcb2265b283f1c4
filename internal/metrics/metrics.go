package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the service's Prometheus counters. All methods are nil-safe
// so components can run without metrics in tests.
type Metrics struct {
	WebhooksReceived  *prometheus.CounterVec
	AlertsNew         prometheus.Counter
	AlertsUpdated     prometheus.Counter
	ControlMessages   prometheus.Counter
	AlertsEvicted     prometheus.Counter
	StoreWipes        prometheus.Counter
	DedupeKeysPruned  prometheus.Counter
	HeartbeatFailures prometheus.Counter
}

// New registers all counters on reg and returns the Metrics handle.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		WebhooksReceived: f.NewCounterVec(prometheus.CounterOpts{
			Name: "alertdash_webhooks_received_total",
			Help: "Webhook payloads received, by source.",
		}, []string{"source"}),
		AlertsNew: f.NewCounter(prometheus.CounterOpts{
			Name: "alertdash_alerts_new_total",
			Help: "Alerts inserted as new into the retention store.",
		}),
		AlertsUpdated: f.NewCounter(prometheus.CounterOpts{
			Name: "alertdash_alerts_updated_total",
			Help: "Alerts merged into an existing entry by dedupe key.",
		}),
		ControlMessages: f.NewCounter(prometheus.CounterOpts{
			Name: "alertdash_control_messages_total",
			Help: "Protocol control messages (subscription confirmations).",
		}),
		AlertsEvicted: f.NewCounter(prometheus.CounterOpts{
			Name: "alertdash_alerts_evicted_total",
			Help: "Alerts evicted because the store exceeded capacity.",
		}),
		StoreWipes: f.NewCounter(prometheus.CounterOpts{
			Name: "alertdash_store_wipes_total",
			Help: "Scheduled full wipes of the retention store.",
		}),
		DedupeKeysPruned: f.NewCounter(prometheus.CounterOpts{
			Name: "alertdash_dedupe_keys_pruned_total",
			Help: "Stale dedupe keys removed by the periodic sweep.",
		}),
		HeartbeatFailures: f.NewCounter(prometheus.CounterOpts{
			Name: "alertdash_heartbeat_fetch_failures_total",
			Help: "Heartbeat channel fetches that timed out or failed.",
		}),
	}
}

func (m *Metrics) IncWebhook(source string) {
	if m == nil {
		return
	}
	m.WebhooksReceived.WithLabelValues(source).Inc()
}

func (m *Metrics) IncNew() {
	if m == nil {
		return
	}
	m.AlertsNew.Inc()
}

func (m *Metrics) IncUpdated() {
	if m == nil {
		return
	}
	m.AlertsUpdated.Inc()
}

func (m *Metrics) IncControl() {
	if m == nil {
		return
	}
	m.ControlMessages.Inc()
}

func (m *Metrics) IncEvicted() {
	if m == nil {
		return
	}
	m.AlertsEvicted.Inc()
}

func (m *Metrics) IncWipe() {
	if m == nil {
		return
	}
	m.StoreWipes.Inc()
}

func (m *Metrics) AddPruned(n int) {
	if m == nil || n == 0 {
		return
	}
	m.DedupeKeysPruned.Add(float64(n))
}

func (m *Metrics) IncHeartbeatFailure() {
	if m == nil {
		return
	}
	m.HeartbeatFailures.Inc()
}
