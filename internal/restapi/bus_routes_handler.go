package restapi

import (
	"net/http"

	"urbanyatra.in/internal/metrics"
	"urbanyatra.in/internal/models"
)

func (api *RestAPI) busRoutesHandler(w http.ResponseWriter, r *http.Request) {
	pickup, drop, err := api.decodeTripRequest(r)
	if err != nil {
		api.badRequestResponse(w, r, err.Error())
		return
	}

	itineraries := api.Planner.FindItineraries(pickup, drop)
	metrics.ItinerariesReturned.Observe(float64(len(itineraries)))

	api.sendJSON(w, r, http.StatusOK, models.NewBusRoutesResponse(itineraries))
}
