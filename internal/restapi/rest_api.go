// Package restapi is the HTTP transport layer. It owns request decoding,
// validation, the middleware chain and the JSON wire envelopes; all domain
// work is delegated to the services on the Application.
package restapi

import (
	"net/http"
	"time"

	"urbanyatra.in/internal/app"
)

type RestAPI struct {
	*app.Application
	rateLimiter *RateLimitMiddleware
}

// NewRestAPI creates a new RestAPI instance with an initialized rate limiter.
func NewRestAPI(app *app.Application) *RestAPI {
	return &RestAPI{
		Application: app,
		rateLimiter: NewRateLimitMiddleware(app.Config.RateLimit, time.Second),
	}
}

// Shutdown stops background middleware work. Safe to call more than once.
func (api *RestAPI) Shutdown() {
	if api.rateLimiter != nil {
		api.rateLimiter.Stop()
	}
}

// SetRoutes registers all API endpoints.
func (api *RestAPI) SetRoutes(mux *http.ServeMux) {
	// Health and metrics carry no rate limiting so probes never get throttled.
	mux.HandleFunc("GET /healthz", api.healthHandler)
	mux.Handle("GET /metrics", metricsHandler())

	mux.Handle("POST /api/compare-fares", api.withStandardMiddleware(api.compareFaresHandler))
	mux.Handle("POST /api/bus-routes", api.withStandardMiddleware(api.busRoutesHandler))
	mux.Handle("POST /api/metro-route", api.withStandardMiddleware(api.metroRouteHandler))
}

// withStandardMiddleware applies the per-route chain: rate limiting outside,
// then compression around the handler.
func (api *RestAPI) withStandardMiddleware(handler http.HandlerFunc) http.Handler {
	compressed := CompressionMiddleware(handler)
	if api.rateLimiter != nil {
		return api.rateLimiter.Handler()(compressed)
	}
	return compressed
}
