// Package metro is a thin adapter over an external transit directions
// provider for the metro mode. It forwards the trip to the provider, keeps
// only subway/rail steps and reshapes them into segments with station lists
// and line changes.
package metro

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"urbanyatra.in/internal/clock"
	"urbanyatra.in/internal/geo"
	"urbanyatra.in/internal/logging"
)

const (
	defaultEndpoint = "https://routes.googleapis.com/directions/v2:computeRoutes"
	fieldMask       = "routes"
	requestTimeout  = 15 * time.Second
)

// Segment is one metro ride on a single line.
type Segment struct {
	LineName         string   `json:"line_name"`
	VehicleType      string   `json:"vehicle_type"`
	DepartureStation string   `json:"departure_station"`
	ArrivalStation   string   `json:"arrival_station"`
	NumStops         int      `json:"num_stops"`
	DurationSeconds  int      `json:"duration_seconds"`
	Duration         string   `json:"duration"`
	Stations         []string `json:"stations"`
}

// LineChange marks a switch between lines at a station.
type LineChange struct {
	Station  string `json:"station"`
	FromLine string `json:"from_line"`
	ToLine   string `json:"to_line"`
}

// Route is a complete metro journey.
type Route struct {
	TotalDurationSeconds int          `json:"total_duration_seconds"`
	TotalDuration        string       `json:"total_duration"`
	TotalDistanceMeters  int          `json:"total_distance_meters"`
	Segments             []Segment    `json:"segments"`
	MetroStations        []string     `json:"metro_stations"`
	LineChanges          []LineChange `json:"line_changes"`
}

// Service calls the external directions provider. With no API key the
// service is disabled and ComputeRoute is never reached by the transport
// layer.
type Service struct {
	apiKey   string
	endpoint string
	client   *http.Client
	clk      clock.Clock
	logger   *slog.Logger
}

func NewService(apiKey string, clk clock.Clock, logger *slog.Logger) *Service {
	return &Service{
		apiKey:   apiKey,
		endpoint: defaultEndpoint,
		client:   &http.Client{Timeout: requestTimeout},
		clk:      clk,
		logger:   logger,
	}
}

// Enabled reports whether an API key is configured.
func (s *Service) Enabled() bool {
	return s.apiKey != ""
}

// ComputeRoute fetches a subway-only transit route between the two points.
func (s *Service) ComputeRoute(ctx context.Context, pickup, drop geo.Point) (*Route, error) {
	payload := map[string]interface{}{
		"origin": map[string]interface{}{
			"location": map[string]interface{}{"latLng": map[string]float64{"latitude": pickup.Lat, "longitude": pickup.Lng}},
		},
		"destination": map[string]interface{}{
			"location": map[string]interface{}{"latLng": map[string]float64{"latitude": drop.Lat, "longitude": drop.Lng}},
		},
		"travelMode":              "TRANSIT",
		"transitPreferences":      map[string]interface{}{"allowedTravelModes": []string{"SUBWAY"}},
		"departureTime":           map[string]int64{"seconds": s.nextDepartureUnix()},
		"computeAlternativeRoutes": false,
		"languageCode":            "en",
		"regionCode":              "IN",
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encoding directions request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating directions request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Goog-Api-Key", s.apiKey)
	req.Header.Set("X-Goog-FieldMask", fieldMask)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling directions provider: %w", err)
	}
	defer logging.SafeCloseWithLogging(resp.Body, s.logger, "directions_response_body")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("directions provider returned status %d", resp.StatusCode)
	}

	var decoded providerResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("decoding directions response: %w", err)
	}
	if len(decoded.Routes) == 0 {
		return nil, fmt.Errorf("no metro routes found between these locations")
	}

	return buildRoute(decoded.Routes[0]), nil
}

// nextDepartureUnix picks the departure instant sent to the provider: trips
// queried late at night roll over to 10:00 the next service day, early
// morning queries use 10:00 today, and daytime queries use the next full
// hour capped at 22:00.
func (s *Service) nextDepartureUnix() int64 {
	now := s.clk.Now()
	switch {
	case now.Hour() >= 23:
		next := now.AddDate(0, 0, 1)
		return time.Date(next.Year(), next.Month(), next.Day(), 10, 0, 0, 0, now.Location()).Unix()
	case now.Hour() < 5:
		return time.Date(now.Year(), now.Month(), now.Day(), 10, 0, 0, 0, now.Location()).Unix()
	default:
		target := now.Hour() + 1
		if target > 22 {
			target = 22
		}
		return time.Date(now.Year(), now.Month(), now.Day(), target, 0, 0, 0, now.Location()).Unix()
	}
}

type providerResponse struct {
	Routes []providerRoute `json:"routes"`
}

type providerRoute struct {
	Duration       string `json:"duration"`
	DistanceMeters int    `json:"distanceMeters"`
	Legs           []struct {
		Steps []providerStep `json:"steps"`
	} `json:"legs"`
}

type providerStep struct {
	TravelMode     string `json:"travelMode"`
	StaticDuration string `json:"staticDuration"`
	TransitDetails struct {
		Headsign    string `json:"headsign"`
		StopCount   int    `json:"stopCount"`
		StopDetails struct {
			DepartureStop     providerStop   `json:"departureStop"`
			ArrivalStop       providerStop   `json:"arrivalStop"`
			IntermediateStops []providerStop `json:"intermediateStops"`
		} `json:"stopDetails"`
		TransitLine struct {
			Name      string `json:"name"`
			NameShort string `json:"nameShort"`
			Vehicle   struct {
				Type string `json:"type"`
			} `json:"vehicle"`
		} `json:"transitLine"`
	} `json:"transitDetails"`
}

type providerStop struct {
	Name string `json:"name"`
}

func buildRoute(r providerRoute) *Route {
	route := &Route{
		TotalDurationSeconds: parseDurationSeconds(r.Duration),
		TotalDistanceMeters:  r.DistanceMeters,
		Segments:             []Segment{},
		MetroStations:        []string{},
		LineChanges:          []LineChange{},
	}
	route.TotalDuration = minutesLabel(route.TotalDurationSeconds)

	seenStations := map[string]bool{}
	for _, leg := range r.Legs {
		for _, step := range leg.Steps {
			if step.TravelMode != "TRANSIT" {
				continue
			}
			vehicleType := step.TransitDetails.TransitLine.Vehicle.Type
			if vehicleType == "" {
				vehicleType = "SUBWAY"
			}
			if vehicleType != "SUBWAY" && vehicleType != "RAIL" {
				continue
			}

			details := step.TransitDetails
			departure := stationName(details.StopDetails.DepartureStop)
			arrival := stationName(details.StopDetails.ArrivalStop)

			lineName := details.TransitLine.NameShort
			if lineName == "" {
				lineName = details.TransitLine.Name
			}
			if lineName == "" {
				lineName = details.Headsign
			}
			if lineName == "" {
				lineName = "Unknown Line"
			}

			stations := []string{departure}
			for _, stop := range details.StopDetails.IntermediateStops {
				stations = append(stations, stationName(stop))
			}
			stations = append(stations, arrival)

			durationSec := parseDurationSeconds(step.StaticDuration)
			route.Segments = append(route.Segments, Segment{
				LineName:         lineName,
				VehicleType:      vehicleType,
				DepartureStation: departure,
				ArrivalStation:   arrival,
				NumStops:         details.StopCount,
				DurationSeconds:  durationSec,
				Duration:         minutesLabel(durationSec),
				Stations:         stations,
			})

			for _, st := range stations {
				if !seenStations[st] {
					seenStations[st] = true
					route.MetroStations = append(route.MetroStations, st)
				}
			}
		}
	}

	for i := 1; i < len(route.Segments); i++ {
		prev := route.Segments[i-1].LineName
		curr := route.Segments[i].LineName
		if prev != curr {
			route.LineChanges = append(route.LineChanges, LineChange{
				Station:  route.Segments[i].DepartureStation,
				FromLine: prev,
				ToLine:   curr,
			})
		}
	}

	return route
}

func stationName(stop providerStop) string {
	if stop.Name == "" {
		return "Unknown"
	}
	return stop.Name
}

// parseDurationSeconds parses the provider's "123s" duration strings.
func parseDurationSeconds(d string) int {
	if !strings.HasSuffix(d, "s") {
		return 0
	}
	n, err := strconv.Atoi(strings.TrimSuffix(d, "s"))
	if err != nil {
		return 0
	}
	return n
}

func minutesLabel(seconds int) string {
	return fmt.Sprintf("%d mins", seconds/60)
}
