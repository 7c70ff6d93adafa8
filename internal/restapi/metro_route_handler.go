package restapi

import (
	"net/http"

	"urbanyatra.in/internal/metro"
)

type metroRouteResponse struct {
	Success bool         `json:"success"`
	Route   *metro.Route `json:"route"`
}

func (api *RestAPI) metroRouteHandler(w http.ResponseWriter, r *http.Request) {
	pickup, drop, err := api.decodeTripRequest(r)
	if err != nil {
		api.badRequestResponse(w, r, err.Error())
		return
	}

	if api.Metro == nil || !api.Metro.Enabled() {
		api.serviceUnavailableResponse(w, r, "metro routing is not configured")
		return
	}

	route, err := api.Metro.ComputeRoute(r.Context(), pickup, drop)
	if err != nil {
		api.serverErrorResponse(w, r, err)
		return
	}

	api.sendJSON(w, r, http.StatusOK, metroRouteResponse{Success: true, Route: route})
}
