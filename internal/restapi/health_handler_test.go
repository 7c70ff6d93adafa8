package restapi

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealthzReportsModes(t *testing.T) {
	api := createTestApi(t)

	rec := serveRequest(t, api, http.MethodGet, "/healthz", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp healthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "test", resp.Env)
	assert.True(t, resp.Bus)
	assert.False(t, resp.Metro)
	assert.Equal(t, []string{"uber"}, resp.Platforms)
}

func TestMetricsEndpointServesPrometheusText(t *testing.T) {
	api := createTestApi(t)

	rec := serveRequest(t, api, http.MethodGet, "/metrics", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Body.String())
}
