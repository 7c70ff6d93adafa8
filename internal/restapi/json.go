package restapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"urbanyatra.in/internal/geo"
	"urbanyatra.in/internal/metrics"
	"urbanyatra.in/internal/models"
)

// Request bodies top out well below this; anything larger is garbage.
const maxRequestBodyBytes = 1 << 20

// coordinate mirrors one {lat, lng} object in a request body. Pointers
// distinguish an absent field from a zero value.
type coordinate struct {
	Lat *float64 `json:"lat"`
	Lng *float64 `json:"lng"`
}

// tripRequest is the shared body of the compare-fares, bus-routes and
// metro-route endpoints.
type tripRequest struct {
	Pickup coordinate `json:"pickup"`
	Drop   coordinate `json:"drop"`
}

// decodeTripRequest reads and validates the request body. The returned error
// message is safe to echo to the client.
func (api *RestAPI) decodeTripRequest(r *http.Request) (pickup, drop geo.Point, err error) {
	body := http.MaxBytesReader(nil, r.Body, maxRequestBodyBytes)

	var req tripRequest
	decoder := json.NewDecoder(body)
	if err := decoder.Decode(&req); err != nil {
		return geo.Point{}, geo.Point{}, errors.New("request body must be valid JSON")
	}
	// A second object in the body indicates a malformed request.
	if decoder.More() {
		return geo.Point{}, geo.Point{}, errors.New("request body must contain a single JSON object")
	}

	pickup, err = req.Pickup.toPoint("pickup")
	if err != nil {
		return geo.Point{}, geo.Point{}, err
	}
	drop, err = req.Drop.toPoint("drop")
	if err != nil {
		return geo.Point{}, geo.Point{}, err
	}
	return pickup, drop, nil
}

func (c coordinate) toPoint(field string) (geo.Point, error) {
	if c.Lat == nil || c.Lng == nil {
		return geo.Point{}, fmt.Errorf("%s must include numeric lat and lng", field)
	}
	p := geo.Point{Lat: *c.Lat, Lng: *c.Lng}
	if !p.Valid() {
		return geo.Point{}, fmt.Errorf("%s coordinates are out of range", field)
	}
	return p, nil
}

// sendJSON writes the response and records the request metric.
func (api *RestAPI) sendJSON(w http.ResponseWriter, r *http.Request, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		api.Logger.Error("writing response", "error", err, "path", r.URL.Path)
	}
	metrics.HTTPRequests.WithLabelValues(r.URL.Path, strconv.Itoa(status)).Inc()
}

func (api *RestAPI) badRequestResponse(w http.ResponseWriter, r *http.Request, message string) {
	api.sendJSON(w, r, http.StatusBadRequest, models.NewErrorResponse(message))
}

func (api *RestAPI) serverErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	api.Logger.Error("handler failed", "error", err, "path", r.URL.Path, "request_id", RequestIDFromContext(r.Context()))
	api.sendJSON(w, r, http.StatusInternalServerError, models.NewErrorResponse("internal server error"))
}

func (api *RestAPI) serviceUnavailableResponse(w http.ResponseWriter, r *http.Request, message string) {
	api.sendJSON(w, r, http.StatusServiceUnavailable, models.NewErrorResponse(message))
}
