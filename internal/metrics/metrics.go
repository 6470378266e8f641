// Package metrics exposes the storefront's Prometheus collectors.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// ProductLoads counts catalog fetches by result ("ok", "empty", "error").
	ProductLoads = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "storefront",
		Name:      "product_loads_total",
		Help:      "Catalog fetches from the backend, by result.",
	}, []string{"result"})

	// Inquiries counts submit attempts by result
	// ("success", "error", "invalid", "in_flight").
	Inquiries = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "storefront",
		Name:      "inquiries_total",
		Help:      "Contact form submissions, by result.",
	}, []string{"result"})

	// BridgeEvents counts "Inquire" selections by whether a form received them.
	BridgeEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "storefront",
		Name:      "inquire_events_total",
		Help:      "Inquire selections published to the page bridge, by delivery.",
	}, []string{"delivered"})

	// ActivePages tracks live page sessions.
	ActivePages = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "storefront",
		Name:      "active_pages",
		Help:      "Page sessions currently held in memory.",
	})

	// BackendDuration observes backend call latency by operation.
	BackendDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "storefront",
		Name:      "backend_request_duration_seconds",
		Help:      "Latency of calls to the catalog backend.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"operation"})
)

// NewServer creates an HTTP server serving /metrics (Prometheus) and /healthz.
func NewServer(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	return &http.Server{
		Addr:    addr,
		Handler: mux,
	}
}
