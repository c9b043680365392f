// Package metrics exposes Prometheus collectors for the sync and fan-out
// pipeline and serves them on the metrics port.
package metrics

import (
	"log"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// SyncTotal counts counter-sync handler runs by result.
	SyncTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "counter_sync_total",
		Help: "Counter sync handler runs partitioned by result",
	}, []string{"entity", "kind", "result"})

	// SyncDuration observes how long one counter sync takes, retries
	// included.
	SyncDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "counter_sync_duration_seconds",
		Help:    "Duration of counter sync handler runs",
		Buckets: prometheus.ExponentialBucketsRange(0.001, 10, 12),
	}, []string{"entity", "kind"})

	// TriggerDropped counts counter events dropped because the trigger
	// queue was full. The next write to the same counter self-corrects.
	TriggerDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "trigger_queue_dropped_total",
		Help: "Counter events dropped on trigger queue backpressure",
	})

	// FanoutTotal counts processed notification events by outcome.
	FanoutTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "notification_fanout_total",
		Help: "Notification events processed partitioned by outcome",
	}, []string{"kind", "outcome"})
)

// Listen serves the Prometheus endpoint on the given port in the background.
func Listen(port string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	go func() {
		if err := http.ListenAndServe(":"+port, mux); err != nil {
			log.Printf("metrics listener stopped: %v", err)
		}
	}()
}
