package restapi

import (
	"net/http"

	"urbanyatra.in/internal/models"
)

func (api *RestAPI) compareFaresHandler(w http.ResponseWriter, r *http.Request) {
	pickup, drop, err := api.decodeTripRequest(r)
	if err != nil {
		api.badRequestResponse(w, r, err.Error())
		return
	}

	fareQuotes := api.Aggregator.GetQuotes(r.Context(), pickup, drop)
	api.sendJSON(w, r, http.StatusOK, models.NewCompareFaresResponse(fareQuotes))
}
