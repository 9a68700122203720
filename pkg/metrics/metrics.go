// Package metrics exposes roleguard's Prometheus instrumentation: counts
// and latencies for role evaluations, requirement checks, and plugin
// loads. The teacher's monitoring/prometheus client only ever queries a
// running Prometheus server; this package is the other half, the
// exposition side, built on the same github.com/prometheus/client_golang
// dependency.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry holds every metric roleguard exports.
type Registry struct {
	registry *prometheus.Registry

	EvaluationsTotal   *prometheus.CounterVec
	EvaluationDuration *prometheus.HistogramVec
	RequirementChecks  *prometheus.CounterVec
	RequirementLatency *prometheus.HistogramVec
	PluginLoadFailures *prometheus.CounterVec
	UsersEvaluated     prometheus.Counter
}

// New creates a Registry with all metrics registered.
func New() *Registry {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Registry{
		registry: reg,

		EvaluationsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "roleguard",
			Name:      "evaluations_total",
			Help:      "Total number of role evaluations, labeled by outcome.",
		}, []string{"role_id", "outcome"}),

		EvaluationDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "roleguard",
			Name:      "evaluation_duration_seconds",
			Help:      "Time to evaluate a role against a user batch.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"role_id"}),

		RequirementChecks: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "roleguard",
			Name:      "requirement_checks_total",
			Help:      "Total number of requirement checks, labeled by plugin prefix and outcome.",
		}, []string{"prefix", "outcome"}),

		RequirementLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "roleguard",
			Name:      "requirement_check_duration_seconds",
			Help:      "Time a single requirement's plugin call took to return.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"prefix"}),

		PluginLoadFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "roleguard",
			Name:      "plugin_load_failures_total",
			Help:      "Total number of plugin load failures, labeled by prefix and failure kind.",
		}, []string{"prefix", "kind"}),

		UsersEvaluated: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "roleguard",
			Name:      "users_evaluated_total",
			Help:      "Total number of individual users processed across all evaluations.",
		}),
	}
}

// Handler returns the HTTP handler the metrics server should mount at /metrics.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}
