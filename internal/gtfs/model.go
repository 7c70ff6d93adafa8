// Package gtfs loads a static GTFS feed from disk and builds the immutable
// in-memory schedule index the itinerary planner reads from. All data is
// loaded once at startup; after Build the index is never mutated and is safe
// to share across goroutines without locks.
package gtfs

import (
	"time"

	"urbanyatra.in/internal/geo"
)

// Stop is a physical boarding location from stops.txt.
type Stop struct {
	ID   string
	Name string
	Lat  float64
	Lon  float64
}

// Point returns the stop's coordinate.
func (s *Stop) Point() geo.Point {
	return geo.Point{Lat: s.Lat, Lng: s.Lon}
}

// Route is a labeled transit line from routes.txt.
type Route struct {
	ID        string
	ShortName string
	LongName  string
	Type      int
}

// Trip is one scheduled run of a vehicle along a route, from trips.txt.
type Trip struct {
	ID        string
	RouteID   string
	ServiceID string
	Headsign  string
}

// StopTime is one scheduled call of a trip at a stop, from stop_times.txt.
// Times are seconds from service-day midnight and may exceed 86400 for
// trips running past midnight.
type StopTime struct {
	TripID       string
	StopID       string
	Sequence     int
	ArrivalSec   int
	DepartureSec int
}

// Calendar is the weekly service pattern for one service_id, from
// calendar.txt. Weekdays is indexed by time.Weekday (Sunday = 0).
type Calendar struct {
	ServiceID string
	Weekdays  [7]bool
	StartDate time.Time
	EndDate   time.Time
}

// ActiveOn reports whether the service runs on the given date.
func (c *Calendar) ActiveOn(date time.Time) bool {
	day := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)
	if day.Before(c.StartDate) || day.After(c.EndDate) {
		return false
	}
	return c.Weekdays[date.Weekday()]
}

// Static holds the raw tables of a parsed feed, keyed and ordered exactly as
// read. It is the loader's output and the schedule index's input.
type Static struct {
	Stops     []Stop
	Routes    []Route
	Trips     []Trip
	StopTimes []StopTime
	Calendars []Calendar
}
