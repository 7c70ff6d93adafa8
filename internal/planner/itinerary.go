package planner

import (
	"math"

	"urbanyatra.in/internal/fare"
	"urbanyatra.in/internal/geo"
	"urbanyatra.in/internal/gtfs"
)

// Pedestrian speed assumed for walking legs, meters per minute (4.8 km/h).
const walkSpeedMetersPerMin = 80.0

type SegmentKind string

const (
	SegmentWalk SegmentKind = "walk"
	SegmentBus  SegmentKind = "bus"
	SegmentWait SegmentKind = "wait"
)

// Segment is one leg of an itinerary. Which fields are meaningful depends on
// Kind: walk legs carry endpoints and distance, bus legs additionally carry
// the route, trip and stop sequence, wait legs only the transfer stop and
// wait time.
type Segment struct {
	Kind     SegmentKind
	From     geo.Point
	To       geo.Point
	FromName string
	ToName   string

	DistanceKm  float64
	DurationMin int

	// Bus legs only.
	Route     *gtfs.Route
	TripID    string
	Stops     []*gtfs.Stop // board through alight, inclusive
	DepartSec int
	ArriveSec int
	Fare      int

	// Wait legs only.
	WaitMin int
}

// Itinerary is an ordered walk-bounded sequence of segments. Totals are
// precomputed at assembly so invariants (duration = Σ segment durations,
// fare = Σ bus fares) hold by construction.
type Itinerary struct {
	Segments    []Segment
	DurationMin int
	DistanceKm  float64
	Fare        int

	// First bus departure and last bus arrival, seconds from midnight.
	DepartSec int
	ArriveSec int
}

func walkSegment(from, to geo.Point, fromName, toName string) Segment {
	distanceKm := geo.DistanceKm(from, to)
	return Segment{
		Kind:        SegmentWalk,
		From:        from,
		To:          to,
		FromName:    fromName,
		ToName:      toName,
		DistanceKm:  distanceKm,
		DurationMin: int(math.Ceil(distanceKm * 1000 / walkSpeedMetersPerMin)),
	}
}

// busSegment builds the riding leg for a selection. Distance is the sum of
// great-circle hops across the included stop sequence; there is no road
// geometry in the feed.
func (p *Planner) busSegment(route *gtfs.Route, sel *tripSelection) Segment {
	var stops []*gtfs.Stop
	for _, st := range sel.stops {
		if st.Sequence < sel.board.Sequence || st.Sequence > sel.alight.Sequence {
			continue
		}
		if stop := p.idx.Stop(st.StopID); stop != nil {
			stops = append(stops, stop)
		}
	}

	var distanceKm float64
	for i := 1; i < len(stops); i++ {
		distanceKm += geo.DistanceKm(stops[i-1].Point(), stops[i].Point())
	}

	boardStop := p.idx.Stop(sel.board.StopID)
	alightStop := p.idx.Stop(sel.alight.StopID)
	rideSec := sel.alight.ArrivalSec - sel.board.DepartureSec

	return Segment{
		Kind:        SegmentBus,
		From:        boardStop.Point(),
		To:          alightStop.Point(),
		FromName:    boardStop.Name,
		ToName:      alightStop.Name,
		DistanceKm:  distanceKm,
		DurationMin: int(math.Ceil(float64(rideSec) / 60)),
		Route:       route,
		TripID:      sel.trip.ID,
		Stops:       stops,
		DepartSec:   sel.board.DepartureSec,
		ArriveSec:   sel.alight.ArrivalSec,
		Fare:        fare.BusFare(distanceKm),
	}
}

func waitSegment(stop *gtfs.Stop, waitSec int) Segment {
	return Segment{
		Kind:        SegmentWait,
		From:        stop.Point(),
		To:          stop.Point(),
		FromName:    stop.Name,
		ToName:      stop.Name,
		DurationMin: waitSec / 60,
		WaitMin:     waitSec / 60,
	}
}

func (p *Planner) assembleDirect(pickup, drop geo.Point, pCand, dCand routeCandidate, route *gtfs.Route, sel *tripSelection) Itinerary {
	bus := p.busSegment(route, sel)
	segments := []Segment{
		walkSegment(pickup, pCand.stop.Point(), "Pickup", pCand.stop.Name),
		bus,
		walkSegment(dCand.stop.Point(), drop, dCand.stop.Name, "Drop"),
	}
	return finishItinerary(segments, bus.DepartSec, bus.ArriveSec)
}

func (p *Planner) assembleTransfer(pickup, drop geo.Point, pCand, dCand routeCandidate, leg1, leg2 *tripSelection, transferStopID string) Itinerary {
	transferStop := p.idx.Stop(transferStopID)
	bus1 := p.busSegment(p.idx.Route(leg1.trip.RouteID), leg1)
	bus2 := p.busSegment(p.idx.Route(leg2.trip.RouteID), leg2)

	segments := []Segment{
		walkSegment(pickup, pCand.stop.Point(), "Pickup", pCand.stop.Name),
		bus1,
		waitSegment(transferStop, leg2.board.DepartureSec-leg1.alight.ArrivalSec),
		bus2,
		walkSegment(dCand.stop.Point(), drop, dCand.stop.Name, "Drop"),
	}
	return finishItinerary(segments, bus1.DepartSec, bus2.ArriveSec)
}

func finishItinerary(segments []Segment, departSec, arriveSec int) Itinerary {
	it := Itinerary{Segments: segments, DepartSec: departSec, ArriveSec: arriveSec}
	for _, s := range segments {
		it.DurationMin += s.DurationMin
		it.DistanceKm += s.DistanceKm
		it.Fare += s.Fare
	}
	return it
}
