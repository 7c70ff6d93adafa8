package models

import (
	"fmt"

	"github.com/twpayne/go-polyline"

	"urbanyatra.in/internal/gtfs"
	"urbanyatra.in/internal/planner"
)

// PathPoint is one stop along the riding portion of an itinerary.
type PathPoint struct {
	Lat      float64 `json:"lat"`
	Lng      float64 `json:"lng"`
	Name     string  `json:"name"`
	Sequence int     `json:"sequence"`
}

// BusSegment is one leg of a bus itinerary on the wire. Fields beyond the
// common set are populated per segment type.
type BusSegment struct {
	Type     string  `json:"type"`
	FromName string  `json:"from_name"`
	ToName   string  `json:"to_name"`
	FromLat  float64 `json:"from_lat"`
	FromLng  float64 `json:"from_lng"`
	ToLat    float64 `json:"to_lat"`
	ToLng    float64 `json:"to_lng"`
	Duration string  `json:"duration"`
	Distance string  `json:"distance,omitempty"`

	// Bus legs only.
	RouteName     string `json:"route_name,omitempty"`
	TripID        string `json:"trip_id,omitempty"`
	DepartureTime string `json:"departure_time,omitempty"`
	ArrivalTime   string `json:"arrival_time,omitempty"`
	Fare          int    `json:"fare,omitempty"`
	Polyline      string `json:"polyline,omitempty"`

	// Wait legs only.
	WaitMinutes int `json:"wait_minutes,omitempty"`
}

// BusRoute is one complete itinerary on the wire.
type BusRoute struct {
	RouteName     string       `json:"route_name"`
	StartStop     string       `json:"start_stop"`
	EndStop       string       `json:"end_stop"`
	DepartureTime string       `json:"departure_time"`
	ArrivalTime   string       `json:"arrival_time"`
	Duration      string       `json:"duration"`
	StopsCount    int          `json:"stops_count"`
	Fare          int          `json:"fare"`
	Path          []PathPoint  `json:"path"`
	Segments      []BusSegment `json:"segments"`
	TotalDistance string       `json:"total_distance"`
}

// BusRoutesResponse is the envelope for POST /api/bus-routes.
type BusRoutesResponse struct {
	Success bool       `json:"success"`
	Count   int        `json:"count"`
	Routes  []BusRoute `json:"routes"`
}

func NewBusRoutesResponse(itineraries []planner.Itinerary) BusRoutesResponse {
	routes := make([]BusRoute, len(itineraries))
	for i, it := range itineraries {
		routes[i] = newBusRoute(it)
	}
	return BusRoutesResponse{Success: true, Count: len(routes), Routes: routes}
}

func newBusRoute(it planner.Itinerary) BusRoute {
	route := BusRoute{
		DepartureTime: gtfs.FormatTimeOfDay(it.DepartSec),
		ArrivalTime:   gtfs.FormatTimeOfDay(it.ArriveSec),
		Duration:      fmt.Sprintf("%d mins", it.DurationMin),
		Fare:          it.Fare,
		Path:          []PathPoint{},
		TotalDistance: fmt.Sprintf("%.1f km", it.DistanceKm),
	}

	var routeNames []string
	sequence := 0
	for _, seg := range it.Segments {
		route.Segments = append(route.Segments, newBusSegment(seg))

		if seg.Kind != planner.SegmentBus {
			continue
		}
		if seg.Route != nil {
			routeNames = append(routeNames, routeLabel(seg.Route))
		}
		if route.StartStop == "" {
			route.StartStop = seg.FromName
		}
		route.EndStop = seg.ToName
		// The transfer stop closes one leg and opens the next; count it once.
		stops := seg.Stops
		if sequence > 0 && len(stops) > 0 {
			stops = stops[1:]
		}
		for _, stop := range stops {
			route.Path = append(route.Path, PathPoint{
				Lat:      stop.Lat,
				Lng:      stop.Lon,
				Name:     stop.Name,
				Sequence: sequence,
			})
			sequence++
		}
	}

	// Stop count is the number of hops ridden, not stops visited.
	if len(route.Path) > 0 {
		route.StopsCount = len(route.Path) - 1
	}

	switch len(routeNames) {
	case 0:
		route.RouteName = "Walk"
	case 1:
		route.RouteName = routeNames[0]
	default:
		route.RouteName = routeNames[0] + " → " + routeNames[1]
	}

	return route
}

func newBusSegment(seg planner.Segment) BusSegment {
	out := BusSegment{
		Type:     string(seg.Kind),
		FromName: seg.FromName,
		ToName:   seg.ToName,
		FromLat:  seg.From.Lat,
		FromLng:  seg.From.Lng,
		ToLat:    seg.To.Lat,
		ToLng:    seg.To.Lng,
		Duration: fmt.Sprintf("%d mins", seg.DurationMin),
	}

	switch seg.Kind {
	case planner.SegmentWalk:
		out.Distance = fmt.Sprintf("%.1f km", seg.DistanceKm)
	case planner.SegmentBus:
		out.Distance = fmt.Sprintf("%.1f km", seg.DistanceKm)
		if seg.Route != nil {
			out.RouteName = routeLabel(seg.Route)
		}
		out.TripID = seg.TripID
		out.DepartureTime = gtfs.FormatTimeOfDay(seg.DepartSec)
		out.ArrivalTime = gtfs.FormatTimeOfDay(seg.ArriveSec)
		out.Fare = seg.Fare
		out.Polyline = encodeStops(seg.Stops)
	case planner.SegmentWait:
		out.WaitMinutes = seg.WaitMin
	}

	return out
}

func routeLabel(r *gtfs.Route) string {
	if r.ShortName != "" {
		return r.ShortName
	}
	if r.LongName != "" {
		return r.LongName
	}
	return r.ID
}

// encodeStops encodes the board-to-alight stop chain as a Google encoded
// polyline for map rendering.
func encodeStops(stops []*gtfs.Stop) string {
	if len(stops) < 2 {
		return ""
	}
	coords := make([][]float64, len(stops))
	for i, stop := range stops {
		coords[i] = []float64{stop.Lat, stop.Lon}
	}
	return string(polyline.EncodeCoords(coords))
}
