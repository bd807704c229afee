package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry holds the standalone node's collectors on a private registry.
type Registry struct {
	reg             *prometheus.Registry
	Operations      *prometheus.CounterVec
	OperationLatSec *prometheus.HistogramVec
	EventsPublished prometheus.Counter
	EventsDropped   prometheus.Counter
	EventsFailed    prometheus.Counter
}

func NewRegistry() *Registry {
	r := prometheus.NewRegistry()
	ops := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "lifecycle_operations_total",
		Help: "Ledger operations by name and result.",
	}, []string{"operation", "result"})
	lat := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "lifecycle_operation_latency_seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation"})
	published := prometheus.NewCounter(prometheus.CounterOpts{Name: "lifecycle_events_published_total"})
	dropped := prometheus.NewCounter(prometheus.CounterOpts{Name: "lifecycle_events_dropped_total"})
	failed := prometheus.NewCounter(prometheus.CounterOpts{Name: "lifecycle_events_failed_total"})

	r.MustRegister(ops, lat, published, dropped, failed)
	return &Registry{
		reg:             r,
		Operations:      ops,
		OperationLatSec: lat,
		EventsPublished: published,
		EventsDropped:   dropped,
		EventsFailed:    failed,
	}
}

// ObserveOperation records one finished operation. result is "ok" or the
// error kind reported by the caller.
func (r *Registry) ObserveOperation(op, result string, started time.Time) {
	r.Operations.WithLabelValues(op, result).Inc()
	r.OperationLatSec.WithLabelValues(op).Observe(time.Since(started).Seconds())
}

func (r *Registry) Handler() http.Handler { return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{}) }
