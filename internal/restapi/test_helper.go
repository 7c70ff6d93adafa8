package restapi

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"urbanyatra.in/internal/app"
	"urbanyatra.in/internal/appconf"
	"urbanyatra.in/internal/clock"
	"urbanyatra.in/internal/geo"
	"urbanyatra.in/internal/gtfs"
	"urbanyatra.in/internal/planner"
	"urbanyatra.in/internal/quotes"
)

// mondayMorning matches the schedule fixtures: a weekday just before the
// 10:00 departures.
var mondayMorning = time.Date(2025, 3, 17, 9, 55, 0, 0, time.UTC)

// staticProducer returns a fixed quote list.
type staticProducer struct {
	name   string
	quotes []quotes.FareQuote
}

func (s staticProducer) Platform() string { return s.name }

func (s staticProducer) Quotes(ctx context.Context, pickup, drop geo.Point) []quotes.FareQuote {
	return s.quotes
}

func testFeed() *gtfs.Static {
	weekdays := [7]bool{false, true, true, true, true, true, false}
	return &gtfs.Static{
		Stops: []gtfs.Stop{
			{ID: "S1", Name: "Model Town", Lat: 28.7000, Lon: 77.1000},
			{ID: "S2", Name: "GTB Nagar", Lat: 28.7020, Lon: 77.1020},
			{ID: "S3", Name: "Vishwavidyalaya", Lat: 28.7050, Lon: 77.1050},
		},
		Routes: []gtfs.Route{{ID: "R1", ShortName: "DTC-101", Type: 3}},
		Trips:  []gtfs.Trip{{ID: "T1", RouteID: "R1", ServiceID: "WK"}},
		StopTimes: []gtfs.StopTime{
			{TripID: "T1", StopID: "S1", Sequence: 1, ArrivalSec: 36000, DepartureSec: 36000},
			{TripID: "T1", StopID: "S2", Sequence: 2, ArrivalSec: 36300, DepartureSec: 36300},
			{TripID: "T1", StopID: "S3", Sequence: 3, ArrivalSec: 36600, DepartureSec: 36600},
		},
		Calendars: []gtfs.Calendar{{
			ServiceID: "WK",
			Weekdays:  weekdays,
			StartDate: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
			EndDate:   time.Date(2025, 12, 31, 0, 0, 0, 0, time.UTC),
		}},
	}
}

func createTestApi(t *testing.T) *RestAPI {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	clk := clock.FixedClock{Time: mondayMorning}

	producers := []quotes.Producer{
		staticProducer{name: "uber", quotes: []quotes.FareQuote{{
			Platform:     "uber",
			VehicleClass: "mini",
			Price:        120,
			Currency:     "INR",
			ETA:          "4 min",
			Confidence:   quotes.ConfidenceHigh,
			Provenance:   quotes.ProvenanceLive,
		}}},
	}

	coreApp := &app.Application{
		Config:     appconf.Config{Port: 4000, Env: appconf.Test, RateLimit: 100},
		Logger:     logger,
		Clock:      clk,
		Planner:    planner.New(gtfs.BuildIndex(testFeed()), clk, logger),
		Aggregator: quotes.NewAggregator(producers, clk, logger),
	}

	api := NewRestAPI(coreApp)
	t.Cleanup(api.Shutdown)
	return api
}

func serveRequest(t *testing.T, api *RestAPI, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(encoded)
	}

	req := httptest.NewRequest(method, path, reader)
	req.RemoteAddr = "10.0.0.1:51234"

	mux := http.NewServeMux()
	api.SetRoutes(mux)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func tripBody(pickupLat, pickupLng, dropLat, dropLng float64) map[string]interface{} {
	return map[string]interface{}{
		"pickup": map[string]float64{"lat": pickupLat, "lng": pickupLng},
		"drop":   map[string]float64{"lat": dropLat, "lng": dropLng},
	}
}
