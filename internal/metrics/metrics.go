// Package metrics defines the service's Prometheus collectors.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "urbanyatra_http_requests_total",
		Help: "HTTP requests served, by endpoint and status code.",
	}, []string{"endpoint", "status"})

	ProducerFallbacks = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "urbanyatra_producer_fallbacks_total",
		Help: "Producer failures replaced by rule-based fallback estimates.",
	}, []string{"platform"})

	QuoteCacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "urbanyatra_quote_cache_hits_total",
		Help: "Fare quote requests answered from the coordinate-grid cache.",
	})

	QuoteCacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "urbanyatra_quote_cache_misses_total",
		Help: "Fare quote requests that required a producer fan-out.",
	})

	ItinerariesReturned = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "urbanyatra_bus_itineraries_returned",
		Help:    "Bus itineraries returned per planning request.",
		Buckets: []float64{0, 1, 2, 3, 4, 5},
	})
)

// Handler exposes the default registry for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
