package gtfs

import (
	"math"
	"sort"
	"time"

	"github.com/tidwall/rtree"

	"urbanyatra.in/internal/geo"
)

// ScheduleIndex is the read-only view of a loaded feed. It is built in one
// deterministic pass and published frozen; readers never take locks.
type ScheduleIndex struct {
	stops  map[string]*Stop
	routes map[string]*Route
	trips  map[string]*Trip

	stopTimesByStop map[string][]*StopTime
	stopTimesByTrip map[string][]*StopTime
	routesByStop    map[string]map[string]bool
	stopsByRoute    map[string][]string

	calendars map[string]*Calendar

	stopTree rtree.RTree
}

// NearbyStop pairs a stop with its great-circle distance from a query point.
type NearbyStop struct {
	Stop       *Stop
	DistanceKm float64
}

// BuildIndex constructs the schedule index from raw feed tables. The
// representative trip backing stopsByRoute is the first trip encountered for
// each route, which is stable across rebuilds given input order.
func BuildIndex(static *Static) *ScheduleIndex {
	idx := &ScheduleIndex{
		stops:           make(map[string]*Stop, len(static.Stops)),
		routes:          make(map[string]*Route, len(static.Routes)),
		trips:           make(map[string]*Trip, len(static.Trips)),
		stopTimesByStop: make(map[string][]*StopTime),
		stopTimesByTrip: make(map[string][]*StopTime),
		routesByStop:    make(map[string]map[string]bool),
		stopsByRoute:    make(map[string][]string),
		calendars:       make(map[string]*Calendar, len(static.Calendars)),
	}

	for i := range static.Stops {
		stop := &static.Stops[i]
		idx.stops[stop.ID] = stop
		idx.stopTree.Insert(
			[2]float64{stop.Lat, stop.Lon},
			[2]float64{stop.Lat, stop.Lon},
			stop,
		)
	}
	for i := range static.Routes {
		idx.routes[static.Routes[i].ID] = &static.Routes[i]
	}
	for i := range static.Trips {
		idx.trips[static.Trips[i].ID] = &static.Trips[i]
	}
	for i := range static.Calendars {
		idx.calendars[static.Calendars[i].ServiceID] = &static.Calendars[i]
	}

	for i := range static.StopTimes {
		st := &static.StopTimes[i]
		idx.stopTimesByStop[st.StopID] = append(idx.stopTimesByStop[st.StopID], st)
		idx.stopTimesByTrip[st.TripID] = append(idx.stopTimesByTrip[st.TripID], st)

		trip, ok := idx.trips[st.TripID]
		if !ok {
			continue
		}
		set, ok := idx.routesByStop[st.StopID]
		if !ok {
			set = make(map[string]bool)
			idx.routesByStop[st.StopID] = set
		}
		set[trip.RouteID] = true
	}

	for _, times := range idx.stopTimesByTrip {
		sort.Slice(times, func(i, j int) bool {
			return times[i].Sequence < times[j].Sequence
		})
	}

	// Representative call pattern per route: the stop sequence of the
	// first trip seen for that route, in feed order.
	for i := range static.Trips {
		trip := &static.Trips[i]
		if _, done := idx.stopsByRoute[trip.RouteID]; done {
			continue
		}
		times := idx.stopTimesByTrip[trip.ID]
		if len(times) == 0 {
			continue
		}
		stopIDs := make([]string, 0, len(times))
		for _, st := range times {
			stopIDs = append(stopIDs, st.StopID)
		}
		idx.stopsByRoute[trip.RouteID] = stopIDs
	}

	return idx
}

// Stop returns the stop with the given id, or nil.
func (idx *ScheduleIndex) Stop(id string) *Stop { return idx.stops[id] }

// Route returns the route with the given id, or nil.
func (idx *ScheduleIndex) Route(id string) *Route { return idx.routes[id] }

// Trip returns the trip with the given id, or nil.
func (idx *ScheduleIndex) Trip(id string) *Trip { return idx.trips[id] }

// StopTimesAtStop returns every scheduled call at the stop, in feed order.
func (idx *ScheduleIndex) StopTimesAtStop(stopID string) []*StopTime {
	return idx.stopTimesByStop[stopID]
}

// StopTimesForTrip returns the trip's calls ordered by stop_sequence.
func (idx *ScheduleIndex) StopTimesForTrip(tripID string) []*StopTime {
	return idx.stopTimesByTrip[tripID]
}

// RoutesAtStop returns the ids of every route with a trip calling at stopID.
func (idx *ScheduleIndex) RoutesAtStop(stopID string) []string {
	set := idx.routesByStop[stopID]
	ids := make([]string, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// StopsOnRoute returns the route's representative call pattern in travel
// direction.
func (idx *ScheduleIndex) StopsOnRoute(routeID string) []string {
	return idx.stopsByRoute[routeID]
}

// ServiceActiveOn reports whether serviceID runs on the given date. Services
// with no calendar entry are treated as always active, a permissive fallback
// for incomplete feeds.
func (idx *ScheduleIndex) ServiceActiveOn(serviceID string, date time.Time) bool {
	cal, ok := idx.calendars[serviceID]
	if !ok {
		return true
	}
	return cal.ActiveOn(date)
}

// StopsNear returns up to limit stops within radiusKm of p, ordered by
// ascending distance. The r-tree narrows candidates to a bounding box; exact
// great-circle distance filters and orders the result.
func (idx *ScheduleIndex) StopsNear(p geo.Point, radiusKm float64, limit int) []NearbyStop {
	// ~111 km per degree of latitude. Longitude degrees shrink by cos(lat),
	// so the box widens accordingly away from the equator.
	latMargin := radiusKm / 111.0 * 1.5
	lngMargin := latMargin
	if c := math.Cos(p.Lat * math.Pi / 180); c > 0.01 {
		lngMargin = latMargin / c
	}

	var nearby []NearbyStop
	idx.stopTree.Search(
		[2]float64{p.Lat - latMargin, p.Lng - lngMargin},
		[2]float64{p.Lat + latMargin, p.Lng + lngMargin},
		func(min, max [2]float64, data interface{}) bool {
			stop, ok := data.(*Stop)
			if !ok {
				return true
			}
			d := geo.DistanceKm(p, stop.Point())
			if d <= radiusKm {
				nearby = append(nearby, NearbyStop{Stop: stop, DistanceKm: d})
			}
			return true
		},
	)

	sort.Slice(nearby, func(i, j int) bool {
		if nearby[i].DistanceKm != nearby[j].DistanceKm {
			return nearby[i].DistanceKm < nearby[j].DistanceKm
		}
		return nearby[i].Stop.ID < nearby[j].Stop.ID
	})

	if limit > 0 && len(nearby) > limit {
		nearby = nearby[:limit]
	}
	return nearby
}
