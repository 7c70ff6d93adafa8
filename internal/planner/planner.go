// Package planner answers point-to-point bus itinerary queries over the
// frozen schedule index: direct rides and one-transfer combinations, each
// wrapped in walking legs.
package planner

import (
	"log/slog"
	"sort"
	"time"

	"urbanyatra.in/internal/clock"
	"urbanyatra.in/internal/geo"
	"urbanyatra.in/internal/gtfs"
)

const (
	searchRadiusKm   = 2.0
	maxNearbyStops   = 20
	maxResults       = 5
	maxTransferStops = 5
	maxTransferWait  = 45 * 60 // seconds
	maxDurationMin   = 240
)

// Planner performs itinerary searches. A nil index leaves the planner in
// disabled mode where every query returns an empty list.
type Planner struct {
	idx    *gtfs.ScheduleIndex
	clock  clock.Clock
	logger *slog.Logger
}

func New(idx *gtfs.ScheduleIndex, clk clock.Clock, logger *slog.Logger) *Planner {
	return &Planner{idx: idx, clock: clk, logger: logger}
}

// Enabled reports whether a schedule index is loaded.
func (p *Planner) Enabled() bool {
	return p.idx != nil
}

// routeCandidate is the nearest endpoint stop served by a particular route.
type routeCandidate struct {
	stop       *gtfs.Stop
	distanceKm float64
}

// tripSelection is the outcome of selectTrip: a concrete boarding.
type tripSelection struct {
	trip   *gtfs.Trip
	board  *gtfs.StopTime
	alight *gtfs.StopTime
	stops  []*gtfs.StopTime // full trip call sequence
}

// FindItineraries searches for bus itineraries from pickup to drop departing
// around now. Results are sorted by ascending total duration and capped at
// five; an empty list means nothing suitable was found.
func (p *Planner) FindItineraries(pickup, drop geo.Point) []Itinerary {
	if p.idx == nil {
		return []Itinerary{}
	}

	now := p.clock.Now()
	nowSec := gtfs.SecondsSinceMidnight(now)

	pickupStops := p.idx.StopsNear(pickup, searchRadiusKm, maxNearbyStops)
	dropStops := p.idx.StopsNear(drop, searchRadiusKm, maxNearbyStops)
	if len(pickupStops) == 0 || len(dropStops) == 0 {
		return []Itinerary{}
	}

	itineraries := p.directSearch(pickup, drop, pickupStops, dropStops, now, nowSec)
	if len(itineraries) < maxResults {
		itineraries = append(itineraries, p.transferSearch(pickup, drop, pickupStops, dropStops, now, nowSec)...)
	}

	kept := itineraries[:0]
	for _, it := range itineraries {
		if it.DurationMin < maxDurationMin {
			kept = append(kept, it)
		}
	}

	sort.SliceStable(kept, func(i, j int) bool {
		return kept[i].DurationMin < kept[j].DurationMin
	})
	if len(kept) > maxResults {
		kept = kept[:maxResults]
	}
	return kept
}

// routesByNearest maps every route covering the candidate stops to the
// nearest candidate it serves. Candidates arrive ordered by distance, so the
// first sighting of a route wins.
func (p *Planner) routesByNearest(candidates []gtfs.NearbyStop) map[string]routeCandidate {
	routes := make(map[string]routeCandidate)
	for _, c := range candidates {
		for _, routeID := range p.idx.RoutesAtStop(c.Stop.ID) {
			if _, seen := routes[routeID]; !seen {
				routes[routeID] = routeCandidate{stop: c.Stop, distanceKm: c.DistanceKm}
			}
		}
	}
	return routes
}

func (p *Planner) directSearch(pickup, drop geo.Point, pickupStops, dropStops []gtfs.NearbyStop, date time.Time, nowSec int) []Itinerary {
	pickupRoutes := p.routesByNearest(pickupStops)
	dropRoutes := p.routesByNearest(dropStops)

	// Deterministic iteration over the route intersection.
	shared := make([]string, 0, len(pickupRoutes))
	for routeID := range pickupRoutes {
		if _, ok := dropRoutes[routeID]; ok {
			shared = append(shared, routeID)
		}
	}
	sort.Strings(shared)

	var results []Itinerary
	seen := make(map[[3]string]bool)

	for _, routeID := range shared {
		pCand := pickupRoutes[routeID]
		dCand := dropRoutes[routeID]

		pattern := p.idx.StopsOnRoute(routeID)
		pIdx := indexOf(pattern, pCand.stop.ID)
		dIdx := indexOf(pattern, dCand.stop.ID)
		if pIdx < 0 || dIdx < 0 || pIdx >= dIdx {
			continue
		}

		sel := p.selectTrip(routeID, pCand.stop.ID, dCand.stop.ID, nowSec, date)
		if sel == nil {
			continue
		}

		route := p.idx.Route(routeID)
		key := [3]string{route.ShortName, pCand.stop.Name, dCand.stop.Name}
		if seen[key] {
			continue
		}
		seen[key] = true

		results = append(results, p.assembleDirect(pickup, drop, pCand, dCand, route, sel))
	}
	return results
}

func (p *Planner) transferSearch(pickup, drop geo.Point, pickupStops, dropStops []gtfs.NearbyStop, date time.Time, nowSec int) []Itinerary {
	if len(pickupStops) > maxTransferStops {
		pickupStops = pickupStops[:maxTransferStops]
	}
	if len(dropStops) > maxTransferStops {
		dropStops = dropStops[:maxTransferStops]
	}

	pickupRoutes := p.routesByNearest(pickupStops)
	dropRoutes := p.routesByNearest(dropStops)

	// Every stop lying on a drop-side route, mapped to the routes that call
	// there. Candidate transfer points are exactly these stops.
	transferIndex := make(map[string][]string)
	for routeID := range dropRoutes {
		for _, stopID := range p.idx.StopsOnRoute(routeID) {
			transferIndex[stopID] = append(transferIndex[stopID], routeID)
		}
	}
	for _, routeIDs := range transferIndex {
		sort.Strings(routeIDs)
	}

	pickupRouteIDs := make([]string, 0, len(pickupRoutes))
	for routeID := range pickupRoutes {
		pickupRouteIDs = append(pickupRouteIDs, routeID)
	}
	sort.Strings(pickupRouteIDs)

	var results []Itinerary
	seen := make(map[[3]string]bool)

	for _, pRouteID := range pickupRouteIDs {
		pCand := pickupRoutes[pRouteID]
		pPattern := p.idx.StopsOnRoute(pRouteID)
		pIdx := indexOf(pPattern, pCand.stop.ID)
		if pIdx < 0 {
			continue
		}

		for i := pIdx + 1; i < len(pPattern); i++ {
			transferStopID := pPattern[i]
			// stop_times may reference stops whose stops.txt row the
			// loader dropped; without coordinates they cannot anchor a
			// transfer.
			if p.idx.Stop(transferStopID) == nil {
				continue
			}
			candidateRoutes := transferIndex[transferStopID]
			if len(candidateRoutes) == 0 {
				continue
			}

			var leg1 *tripSelection
			leg1Resolved := false

			for _, dRouteID := range candidateRoutes {
				if dRouteID == pRouteID {
					continue
				}
				dCand := dropRoutes[dRouteID]
				dPattern := p.idx.StopsOnRoute(dRouteID)
				tIdx := indexOf(dPattern, transferStopID)
				dIdx := indexOf(dPattern, dCand.stop.ID)
				if tIdx < 0 || dIdx < 0 || tIdx >= dIdx {
					continue
				}

				key := [3]string{pRouteID, transferStopID, dRouteID}
				if seen[key] {
					continue
				}

				// The first leg is independent of the drop route;
				// resolve it once per transfer stop.
				if !leg1Resolved {
					leg1 = p.selectTrip(pRouteID, pCand.stop.ID, transferStopID, nowSec, date)
					leg1Resolved = true
				}
				if leg1 == nil {
					break
				}

				leg2 := p.selectTrip(dRouteID, transferStopID, dCand.stop.ID, leg1.alight.ArrivalSec, date)
				if leg2 == nil {
					continue
				}

				wait := leg2.board.DepartureSec - leg1.alight.ArrivalSec
				if wait < 0 || wait >= maxTransferWait {
					continue
				}

				seen[key] = true
				results = append(results, p.assembleTransfer(pickup, drop, pCand, dCand, leg1, leg2, transferStopID))
			}
		}
	}
	return results
}

// selectTrip finds the earliest feasible boarding on routeID departing
// boardStopID at or after earliestSec, whose trip later calls alightStopID.
// Earliest boarding minimizes waiting; routes already constrain the path, so
// there is no preference for fewer stops.
func (p *Planner) selectTrip(routeID, boardStopID, alightStopID string, earliestSec int, date time.Time) *tripSelection {
	var boardings []*gtfs.StopTime
	for _, st := range p.idx.StopTimesAtStop(boardStopID) {
		trip := p.idx.Trip(st.TripID)
		if trip == nil || trip.RouteID != routeID {
			continue
		}
		if !p.idx.ServiceActiveOn(trip.ServiceID, date) {
			continue
		}
		boardings = append(boardings, st)
	}

	sort.Slice(boardings, func(i, j int) bool {
		if boardings[i].DepartureSec != boardings[j].DepartureSec {
			return boardings[i].DepartureSec < boardings[j].DepartureSec
		}
		return boardings[i].TripID < boardings[j].TripID
	})

	for _, board := range boardings {
		if board.DepartureSec < earliestSec {
			continue
		}
		stops := p.idx.StopTimesForTrip(board.TripID)
		for _, st := range stops {
			if st.StopID == alightStopID && st.Sequence > board.Sequence {
				return &tripSelection{
					trip:   p.idx.Trip(board.TripID),
					board:  board,
					alight: st,
					stops:  stops,
				}
			}
		}
	}
	return nil
}

func indexOf(list []string, value string) int {
	for i, v := range list {
		if v == value {
			return i
		}
	}
	return -1
}
