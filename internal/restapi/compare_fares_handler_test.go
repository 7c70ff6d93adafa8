package restapi

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"urbanyatra.in/internal/models"
)

func TestCompareFaresReturnsQuotes(t *testing.T) {
	api := createTestApi(t)

	rec := serveRequest(t, api, http.MethodPost, "/api/compare-fares", tripBody(28.7001, 77.1001, 28.7051, 77.1051))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var resp models.CompareFaresResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	assert.True(t, resp.Success)
	assert.Equal(t, 1, resp.Count)
	require.Len(t, resp.Estimates, 1)
	assert.Equal(t, "uber", resp.Estimates[0].Platform)
	assert.Equal(t, "live", resp.Estimates[0].Source)
}

func TestCompareFaresRejectsMissingCoordinate(t *testing.T) {
	api := createTestApi(t)

	body := map[string]interface{}{
		"pickup": map[string]float64{"lat": 28.7001}, // lng absent
		"drop":   map[string]float64{"lat": 28.7051, "lng": 77.1051},
	}
	rec := serveRequest(t, api, http.MethodPost, "/api/compare-fares", body)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var resp models.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.False(t, resp.Success)
	assert.Contains(t, resp.Error, "pickup")
}

func TestCompareFaresRejectsNonNumericCoordinate(t *testing.T) {
	api := createTestApi(t)

	body := map[string]interface{}{
		"pickup": map[string]interface{}{"lat": "28.7", "lng": 77.1},
		"drop":   map[string]float64{"lat": 28.7051, "lng": 77.1051},
	}
	rec := serveRequest(t, api, http.MethodPost, "/api/compare-fares", body)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCompareFaresRejectsOutOfRangeCoordinate(t *testing.T) {
	api := createTestApi(t)

	rec := serveRequest(t, api, http.MethodPost, "/api/compare-fares", tripBody(91.0, 77.1001, 28.7051, 77.1051))
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var resp models.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Contains(t, resp.Error, "out of range")
}

func TestCompareFaresRejectsEmptyBody(t *testing.T) {
	api := createTestApi(t)

	rec := serveRequest(t, api, http.MethodPost, "/api/compare-fares", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
