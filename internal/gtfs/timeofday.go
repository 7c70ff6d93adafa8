package gtfs

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ParseTimeOfDay converts an HH:MM:SS string to seconds from service-day
// midnight. Hours may exceed 23 for trips running past midnight.
func ParseTimeOfDay(s string) (int, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != 3 {
		return 0, fmt.Errorf("found %d parts in %q", len(parts), s)
	}

	hms := [3]int{}
	for i, str := range parts {
		n, err := strconv.Atoi(str)
		if err != nil {
			return 0, fmt.Errorf("non-integer in %q pos %d", s, i)
		}
		hms[i] = n
	}

	if hms[0] < 0 || hms[0] > 99 {
		return 0, fmt.Errorf("invalid hour in %q", s)
	}
	if hms[1] < 0 || hms[1] > 59 {
		return 0, fmt.Errorf("invalid minute in %q", s)
	}
	if hms[2] < 0 || hms[2] > 59 {
		return 0, fmt.Errorf("invalid second in %q", s)
	}

	return hms[0]*3600 + hms[1]*60 + hms[2], nil
}

// FormatTimeOfDay renders seconds-from-midnight as a wall-clock HH:MM:SS
// string, wrapping past-midnight times back into the 24h day.
func FormatTimeOfDay(sec int) string {
	sec %= 86400
	if sec < 0 {
		sec += 86400
	}
	return fmt.Sprintf("%02d:%02d:%02d", sec/3600, (sec/60)%60, sec%60)
}

// SecondsSinceMidnight maps an instant to seconds from that day's local
// midnight.
func SecondsSinceMidnight(t time.Time) int {
	return t.Hour()*3600 + t.Minute()*60 + t.Second()
}
