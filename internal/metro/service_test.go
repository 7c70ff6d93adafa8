package metro

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"urbanyatra.in/internal/clock"
	"urbanyatra.in/internal/geo"
)

var (
	metroPickup = geo.Point{Lat: 28.6315, Lng: 77.2167}
	metroDrop   = geo.Point{Lat: 28.5562, Lng: 77.1000}
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func clockAt(hour, minute int) clock.FixedClock {
	return clock.FixedClock{Time: time.Date(2025, 3, 17, hour, minute, 0, 0, time.UTC)}
}

func newTestService(t *testing.T, clk clock.Clock, handler http.HandlerFunc) *Service {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	s := NewService("test-key", clk, testLogger())
	s.endpoint = server.URL
	return s
}

func transitStep(line, vehicle, from, to string, intermediates []string, stopCount, durationSec int) map[string]interface{} {
	stops := []map[string]string{}
	for _, name := range intermediates {
		stops = append(stops, map[string]string{"name": name})
	}
	return map[string]interface{}{
		"travelMode":     "TRANSIT",
		"staticDuration": fmt.Sprintf("%ds", durationSec),
		"transitDetails": map[string]interface{}{
			"stopCount": stopCount,
			"stopDetails": map[string]interface{}{
				"departureStop":     map[string]string{"name": from},
				"arrivalStop":       map[string]string{"name": to},
				"intermediateStops": stops,
			},
			"transitLine": map[string]interface{}{
				"nameShort": line,
				"vehicle":   map[string]string{"type": vehicle},
			},
		},
	}
}

func walkStep(durationSec int) map[string]interface{} {
	return map[string]interface{}{
		"travelMode":     "WALK",
		"staticDuration": fmt.Sprintf("%ds", durationSec),
	}
}

func routesBody(steps ...map[string]interface{}) map[string]interface{} {
	return map[string]interface{}{
		"routes": []map[string]interface{}{
			{
				"duration":       "2520s",
				"distanceMeters": 18400,
				"legs": []map[string]interface{}{
					{"steps": steps},
				},
			},
		},
	}
}

func TestComputeRouteBuildsSegmentsAndLineChanges(t *testing.T) {
	var gotKey, gotMask string
	var gotPayload map[string]interface{}
	s := newTestService(t, clockAt(9, 55), func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("X-Goog-Api-Key")
		gotMask = r.Header.Get("X-Goog-FieldMask")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotPayload))

		_ = json.NewEncoder(w).Encode(routesBody(
			walkStep(300),
			transitStep("Yellow Line", "SUBWAY", "Rajiv Chowk", "Central Secretariat", []string{"Patel Chowk"}, 2, 420),
			transitStep("Violet Line", "SUBWAY", "Central Secretariat", "Khan Market", nil, 1, 180),
			walkStep(240),
		))
	})

	route, err := s.ComputeRoute(context.Background(), metroPickup, metroDrop)
	require.NoError(t, err)

	assert.Equal(t, "test-key", gotKey)
	assert.Equal(t, "routes", gotMask)
	assert.Equal(t, "TRANSIT", gotPayload["travelMode"])

	assert.Equal(t, 2520, route.TotalDurationSeconds)
	assert.Equal(t, "42 mins", route.TotalDuration)
	assert.Equal(t, 18400, route.TotalDistanceMeters)

	require.Len(t, route.Segments, 2)
	first := route.Segments[0]
	assert.Equal(t, "Yellow Line", first.LineName)
	assert.Equal(t, "SUBWAY", first.VehicleType)
	assert.Equal(t, "Rajiv Chowk", first.DepartureStation)
	assert.Equal(t, "Central Secretariat", first.ArrivalStation)
	assert.Equal(t, 2, first.NumStops)
	assert.Equal(t, "7 mins", first.Duration)
	assert.Equal(t, []string{"Rajiv Chowk", "Patel Chowk", "Central Secretariat"}, first.Stations)

	// Central Secretariat appears once even though both segments touch it.
	assert.Equal(t, []string{"Rajiv Chowk", "Patel Chowk", "Central Secretariat", "Khan Market"}, route.MetroStations)

	require.Len(t, route.LineChanges, 1)
	assert.Equal(t, LineChange{Station: "Central Secretariat", FromLine: "Yellow Line", ToLine: "Violet Line"}, route.LineChanges[0])
}

func TestComputeRouteSkipsNonRailTransitSteps(t *testing.T) {
	s := newTestService(t, clockAt(9, 55), func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(routesBody(
			transitStep("522", "BUS", "ISBT", "Kashmere Gate", nil, 4, 600),
			transitStep("Red Line", "RAIL", "Kashmere Gate", "Welcome", nil, 3, 480),
		))
	})

	route, err := s.ComputeRoute(context.Background(), metroPickup, metroDrop)
	require.NoError(t, err)

	require.Len(t, route.Segments, 1)
	assert.Equal(t, "Red Line", route.Segments[0].LineName)
	assert.Equal(t, "RAIL", route.Segments[0].VehicleType)
	assert.Empty(t, route.LineChanges)
}

func TestComputeRouteNoRoutesFound(t *testing.T) {
	s := newTestService(t, clockAt(9, 55), func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"routes": []interface{}{}})
	})

	_, err := s.ComputeRoute(context.Background(), metroPickup, metroDrop)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no metro routes")
}

func TestComputeRouteUpstreamError(t *testing.T) {
	s := newTestService(t, clockAt(9, 55), func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	})

	_, err := s.ComputeRoute(context.Background(), metroPickup, metroDrop)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 429")
}

func TestNextDepartureWindow(t *testing.T) {
	tests := []struct {
		name     string
		now      time.Time
		expected time.Time
	}{
		{
			name:     "late night rolls to next day 10:00",
			now:      time.Date(2025, 3, 17, 23, 30, 0, 0, time.UTC),
			expected: time.Date(2025, 3, 18, 10, 0, 0, 0, time.UTC),
		},
		{
			name:     "early morning uses today 10:00",
			now:      time.Date(2025, 3, 17, 3, 15, 0, 0, time.UTC),
			expected: time.Date(2025, 3, 17, 10, 0, 0, 0, time.UTC),
		},
		{
			name:     "daytime rounds up to next full hour",
			now:      time.Date(2025, 3, 17, 14, 40, 0, 0, time.UTC),
			expected: time.Date(2025, 3, 17, 15, 0, 0, 0, time.UTC),
		},
		{
			name:     "evening capped at 22:00",
			now:      time.Date(2025, 3, 17, 22, 10, 0, 0, time.UTC),
			expected: time.Date(2025, 3, 17, 22, 0, 0, 0, time.UTC),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewService("test-key", clock.FixedClock{Time: tt.now}, testLogger())
			assert.Equal(t, tt.expected.Unix(), s.nextDepartureUnix())
		})
	}
}

func TestServiceEnabled(t *testing.T) {
	assert.False(t, NewService("", clockAt(9, 0), testLogger()).Enabled())
	assert.True(t, NewService("k", clockAt(9, 0), testLogger()).Enabled())
}

func TestParseDurationSeconds(t *testing.T) {
	assert.Equal(t, 420, parseDurationSeconds("420s"))
	assert.Equal(t, 0, parseDurationSeconds("420"))
	assert.Equal(t, 0, parseDurationSeconds("abc"))
	assert.Equal(t, 0, parseDurationSeconds(""))
}
