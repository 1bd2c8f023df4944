package monitoring

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the host core.
type Metrics struct {
	// State sync metrics
	MergesApplied   prometheus.Counter
	PushMessages    *prometheus.CounterVec
	EntriesAppended *prometheus.CounterVec
	Reconnects      prometheus.Counter
	RequestFailures prometheus.Counter

	// Supervisor metrics
	ProcessStarts prometheus.Counter
	ProcessExits  *prometheus.CounterVec

	registry *prometheus.Registry
}

// NewMetrics creates a metrics collector backed by its own registry so
// multiple hosts (and tests) never collide on registration.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		MergesApplied: factory.NewCounter(prometheus.CounterOpts{
			Name: "host_state_merges_total",
			Help: "Total number of partial merges applied to the agent state",
		}),
		PushMessages: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "host_push_messages_total",
			Help: "Push-channel messages received, by message type",
		}, []string{"type"}),
		EntriesAppended: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "host_conversation_entries_total",
			Help: "Conversation entries appended, by kind",
		}, []string{"kind"}),
		Reconnects: factory.NewCounter(prometheus.CounterOpts{
			Name: "host_stream_reconnects_total",
			Help: "Push-channel reconnect attempts after a drop",
		}),
		RequestFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "host_request_failures_total",
			Help: "Outbound request-channel calls that failed",
		}),
		ProcessStarts: factory.NewCounter(prometheus.CounterOpts{
			Name: "host_backend_starts_total",
			Help: "Backend process launches",
		}),
		ProcessExits: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "host_backend_exits_total",
			Help: "Backend process exits, by outcome",
		}, []string{"outcome"}),
		registry: reg,
	}
}

// Registry returns the underlying registry for exposition by the embedder.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
