package metrics

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the application collectors on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	BetsPlaced      *prometheus.CounterVec
	EventsCreated   prometheus.Counter
	EventsRevealed  *prometheus.CounterVec
	PlansPurchased  prometheus.Counter
	RequestDuration *prometheus.HistogramVec
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		BetsPlaced: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "reveal_bets_placed_total",
			Help: "Wagers accepted, by guessed category.",
		}, []string{"guess"}),
		EventsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "reveal_events_created_total",
			Help: "Events created.",
		}),
		EventsRevealed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "reveal_events_revealed_total",
			Help: "Events settled, by outcome and whether a winner was drawn.",
		}, []string{"outcome", "winner"}),
		PlansPurchased: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "reveal_plans_purchased_total",
			Help: "Plans purchased.",
		}),
		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "reveal_http_request_duration_seconds",
			Help:    "HTTP request latency by route and status.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.BetsPlaced,
		m.EventsCreated,
		m.EventsRevealed,
		m.PlansPurchased,
		m.RequestDuration,
	)
	return m
}

// Registry exposes the underlying registry, mostly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

type HealthFunc func(ctx context.Context) error

// NewServer returns a listener for /metrics and /healthz, separate from the public API.
func (m *Metrics) NewServer(port string, healthFn HealthFunc) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 500*time.Millisecond)
		defer cancel()

		if err := healthFn(ctx); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = fmt.Fprintf(w, "unhealthy: %v", err)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	return &http.Server{
		Addr:              ":" + port,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
}
