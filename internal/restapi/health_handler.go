package restapi

import (
	"net/http"

	"urbanyatra.in/internal/metrics"
)

type healthResponse struct {
	Status    string   `json:"status"`
	Env       string   `json:"env"`
	Bus       bool     `json:"bus"`
	Metro     bool     `json:"metro"`
	Platforms []string `json:"platforms"`
}

// healthHandler reports service readiness and which trip modes are live.
func (api *RestAPI) healthHandler(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{
		Status:    "ok",
		Env:       api.Config.Env.String(),
		Bus:       api.Planner != nil && api.Planner.Enabled(),
		Metro:     api.Metro != nil && api.Metro.Enabled(),
		Platforms: api.Aggregator.Platforms(),
	}
	api.sendJSON(w, r, http.StatusOK, resp)
}

func metricsHandler() http.Handler {
	return metrics.Handler()
}
