package gtfs

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gocarina/gocsv"
	"github.com/spkg/bom"
)

// ErrFeedUnavailable is returned when a mandatory feed file is missing. The
// caller runs the planner in disabled mode rather than failing startup.
var ErrFeedUnavailable = errors.New("gtfs feed unavailable")

var mandatoryFiles = []string{"stops.txt", "routes.txt", "trips.txt", "stop_times.txt"}

func init() {
	// LazyCSVReader survives sloppy quoting seen in real-world feeds. The
	// BOM reader strips unicode BOMs if present.
	gocsv.SetCSVReader(func(in io.Reader) gocsv.CSVReader {
		return gocsv.LazyCSVReader(bom.NewReader(in))
	})
}

// Numeric columns are declared as strings and parsed strictly by hand so a
// single malformed row is skipped with a warning instead of failing the
// whole file.

type stopCSV struct {
	ID   string `csv:"stop_id"`
	Name string `csv:"stop_name"`
	Lat  string `csv:"stop_lat"`
	Lon  string `csv:"stop_lon"`
}

type routeCSV struct {
	ID        string `csv:"route_id"`
	ShortName string `csv:"route_short_name"`
	LongName  string `csv:"route_long_name"`
	Type      string `csv:"route_type"`
}

type tripCSV struct {
	RouteID   string `csv:"route_id"`
	ServiceID string `csv:"service_id"`
	ID        string `csv:"trip_id"`
	Headsign  string `csv:"trip_headsign"`
}

type stopTimeCSV struct {
	TripID    string `csv:"trip_id"`
	Arrival   string `csv:"arrival_time"`
	Departure string `csv:"departure_time"`
	StopID    string `csv:"stop_id"`
	Sequence  string `csv:"stop_sequence"`
}

type calendarCSV struct {
	ServiceID string `csv:"service_id"`
	Monday    string `csv:"monday"`
	Tuesday   string `csv:"tuesday"`
	Wednesday string `csv:"wednesday"`
	Thursday  string `csv:"thursday"`
	Friday    string `csv:"friday"`
	Saturday  string `csv:"saturday"`
	Sunday    string `csv:"sunday"`
	StartDate string `csv:"start_date"`
	EndDate   string `csv:"end_date"`
}

// Load reads the static feed files from dir and returns the raw tables.
// Mandatory files (stops, routes, trips, stop_times) missing yields
// ErrFeedUnavailable; a missing calendar.txt is tolerated and leaves every
// service always active.
func Load(dir string, logger *slog.Logger) (*Static, error) {
	for _, name := range mandatoryFiles {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			logger.Warn("gtfs feed file missing, planner disabled", "file", name, "dir", dir)
			return nil, fmt.Errorf("%w: missing %s", ErrFeedUnavailable, name)
		}
	}

	static := &Static{}

	if err := loadFile(dir, "stops.txt", func(row *stopCSV) {
		lat, errLat := strconv.ParseFloat(strings.TrimSpace(row.Lat), 64)
		lon, errLon := strconv.ParseFloat(strings.TrimSpace(row.Lon), 64)
		id := strings.TrimSpace(row.ID)
		if id == "" || errLat != nil || errLon != nil {
			logger.Warn("skipping stop row", "stop_id", row.ID, "lat", row.Lat, "lon", row.Lon)
			return
		}
		static.Stops = append(static.Stops, Stop{
			ID:   id,
			Name: strings.TrimSpace(row.Name),
			Lat:  lat,
			Lon:  lon,
		})
	}); err != nil {
		return nil, err
	}

	if err := loadFile(dir, "routes.txt", func(row *routeCSV) {
		id := strings.TrimSpace(row.ID)
		if id == "" {
			logger.Warn("skipping route row with empty route_id")
			return
		}
		routeType, err := strconv.Atoi(strings.TrimSpace(row.Type))
		if err != nil {
			logger.Warn("skipping route row", "route_id", id, "route_type", row.Type)
			return
		}
		static.Routes = append(static.Routes, Route{
			ID:        id,
			ShortName: strings.TrimSpace(row.ShortName),
			LongName:  strings.TrimSpace(row.LongName),
			Type:      routeType,
		})
	}); err != nil {
		return nil, err
	}

	if err := loadFile(dir, "trips.txt", func(row *tripCSV) {
		id := strings.TrimSpace(row.ID)
		routeID := strings.TrimSpace(row.RouteID)
		if id == "" || routeID == "" {
			logger.Warn("skipping trip row", "trip_id", row.ID, "route_id", row.RouteID)
			return
		}
		static.Trips = append(static.Trips, Trip{
			ID:        id,
			RouteID:   routeID,
			ServiceID: strings.TrimSpace(row.ServiceID),
			Headsign:  strings.TrimSpace(row.Headsign),
		})
	}); err != nil {
		return nil, err
	}

	if err := loadFile(dir, "stop_times.txt", func(row *stopTimeCSV) {
		tripID := strings.TrimSpace(row.TripID)
		stopID := strings.TrimSpace(row.StopID)
		seq, errSeq := strconv.Atoi(strings.TrimSpace(row.Sequence))
		arrival, errArr := ParseTimeOfDay(row.Arrival)
		departure, errDep := ParseTimeOfDay(row.Departure)
		if tripID == "" || stopID == "" || errSeq != nil || seq < 0 || errArr != nil || errDep != nil {
			logger.Warn("skipping stop_time row", "trip_id", row.TripID, "stop_id", row.StopID, "sequence", row.Sequence)
			return
		}
		static.StopTimes = append(static.StopTimes, StopTime{
			TripID:       tripID,
			StopID:       stopID,
			Sequence:     seq,
			ArrivalSec:   arrival,
			DepartureSec: departure,
		})
	}); err != nil {
		return nil, err
	}

	if _, err := os.Stat(filepath.Join(dir, "calendar.txt")); err == nil {
		if err := loadFile(dir, "calendar.txt", func(row *calendarCSV) {
			cal, err := parseCalendarRow(row)
			if err != nil {
				logger.Warn("skipping calendar row", "service_id", row.ServiceID, "error", err)
				return
			}
			static.Calendars = append(static.Calendars, cal)
		}); err != nil {
			return nil, err
		}
	} else {
		logger.Warn("calendar.txt missing, treating all services as always active", "dir", dir)
	}

	logger.Info("gtfs feed loaded",
		"stops", len(static.Stops),
		"routes", len(static.Routes),
		"trips", len(static.Trips),
		"stop_times", len(static.StopTimes),
		"calendars", len(static.Calendars))

	return static, nil
}

func loadFile[T any](dir, name string, each func(*T)) error {
	f, err := os.Open(filepath.Join(dir, name))
	if err != nil {
		return fmt.Errorf("opening %s: %w", name, err)
	}
	defer f.Close()

	if err := gocsv.UnmarshalToCallback(f, each); err != nil {
		return fmt.Errorf("unmarshaling %s: %w", name, err)
	}
	return nil
}

func parseCalendarRow(row *calendarCSV) (Calendar, error) {
	serviceID := strings.TrimSpace(row.ServiceID)
	if serviceID == "" {
		return Calendar{}, fmt.Errorf("empty service_id")
	}

	start, err := parseServiceDate(row.StartDate)
	if err != nil {
		return Calendar{}, fmt.Errorf("parsing start_date: %w", err)
	}
	end, err := parseServiceDate(row.EndDate)
	if err != nil {
		return Calendar{}, fmt.Errorf("parsing end_date: %w", err)
	}

	cal := Calendar{ServiceID: serviceID, StartDate: start, EndDate: end}
	days := []struct {
		weekday time.Weekday
		value   string
	}{
		{time.Monday, row.Monday},
		{time.Tuesday, row.Tuesday},
		{time.Wednesday, row.Wednesday},
		{time.Thursday, row.Thursday},
		{time.Friday, row.Friday},
		{time.Saturday, row.Saturday},
		{time.Sunday, row.Sunday},
	}
	for _, d := range days {
		active, err := strconv.Atoi(strings.TrimSpace(d.value))
		if err != nil {
			return Calendar{}, fmt.Errorf("parsing %s flag: %w", d.weekday, err)
		}
		cal.Weekdays[d.weekday] = active == 1
	}

	return cal, nil
}

func parseServiceDate(s string) (time.Time, error) {
	return time.ParseInLocation("20060102", strings.TrimSpace(s), time.UTC)
}
