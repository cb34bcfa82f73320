// Package metrics exposes sync progress as Prometheus metrics.
package metrics

import (
	"context"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/prometheus/client_golang/prometheus/push"

	"channel_mirror/internal/domain"
)

const namespace = "mirror"

// Recorder owns a private registry so several recorders can live in one
// process (tests, one-shot pushes).
type Recorder struct {
	registry *prometheus.Registry

	documents     *prometheus.CounterVec
	inserted      prometheus.Counter
	channels      *prometheus.CounterVec
	fetchFailures prometheus.Counter
	duration      prometheus.Histogram
}

func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		documents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "documents_total",
			Help:      "Fetched metadata documents by parse result.",
		}, []string{"result"}),
		inserted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "videos_inserted_total",
			Help:      "Videos inserted into the store.",
		}),
		channels: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "channels_total",
			Help:      "Processed channels by outcome.",
		}, []string{"status"}),
		fetchFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fetch_failures_total",
			Help:      "Fetcher invocations that did not exit cleanly.",
		}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "channel_duration_seconds",
			Help:      "Wall time of a single channel pass.",
			Buckets:   []float64{1, 5, 15, 30, 60, 120, 300, 600, 1800},
		}),
	}

	r.registry.MustRegister(r.documents, r.inserted, r.channels, r.fetchFailures, r.duration)
	return r
}

// ObserveChannel records the outcome of one channel pass.
func (r *Recorder) ObserveChannel(stats domain.ChannelStats) {
	r.documents.WithLabelValues("valid").Add(float64(stats.Valid))
	r.documents.WithLabelValues("failed").Add(float64(stats.Failed))
	r.inserted.Add(float64(stats.Inserted))
	r.duration.Observe(stats.Duration.Seconds())

	if stats.FetchErr != nil {
		r.fetchFailures.Inc()
	}

	status := "ok"
	if stats.Err != nil {
		status = "failed"
	}
	r.channels.WithLabelValues(status).Inc()
}

func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// Handler serves the recorder's metrics.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

// Push sends the current values to a Pushgateway. Used after one-shot runs
// where nothing would be around to scrape.
func (r *Recorder) Push(ctx context.Context, url, job string) error {
	if err := push.New(url, job).Gatherer(r.registry).PushContext(ctx); err != nil {
		return fmt.Errorf("push metrics: %w", err)
	}
	return nil
}
