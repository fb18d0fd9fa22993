package arrivals

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/transitmap/arrivals/gtfs"
)

// ParseTimeOfDay parses a GTFS HH:MM:SS wall-clock time. Hours may exceed
// 23 for post-midnight service, so the result is a duration past midnight
// rather than a clock time.
func ParseTimeOfDay(s string) (time.Duration, error) {
	parts := strings.Split(s, ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0, fmt.Errorf("malformed time of day %q", s)
	}
	h, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil || h < 0 {
		return 0, fmt.Errorf("malformed hours in %q", s)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return 0, fmt.Errorf("malformed minutes in %q", s)
	}
	sec := 0
	if len(parts) == 3 {
		sec, err = strconv.Atoi(parts[2])
		if err != nil || sec < 0 || sec > 59 {
			return 0, fmt.Errorf("malformed seconds in %q", s)
		}
	}
	return time.Duration(h)*time.Hour + time.Duration(m)*time.Minute + time.Duration(sec)*time.Second, nil
}

// ProjectArrivals derives the scheduled arrivals at a stop, sorted
// ascending by absolute time — the canonical ordering for every downstream
// consumer. Entries whose trip or route does not resolve are skipped
// silently, as are trips whose service is not active on now's service day.
//
// A stop time at or before now rolls forward exactly one calendar day;
// rollover is pure time arithmetic and does not re-check the calendar for
// the rolled day. Arrivals further out than horizon are dropped. A positive
// limit caps the result after sorting; 0 means no cap.
func ProjectArrivals(idx *gtfs.ScheduleIndex, stopID string, now time.Time, horizon time.Duration, limit int) []Arrival {
	var out []Arrival
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	for _, st := range idx.StopTimes(stopID) {
		trip, ok := idx.Trip(st.TripID)
		if !ok {
			continue
		}
		route, ok := idx.Route(trip.RouteID)
		if !ok {
			continue
		}
		if !idx.ServiceActive(trip.ServiceID, now) {
			continue
		}
		tod, err := ParseTimeOfDay(st.ArrivalTime)
		if err != nil {
			continue
		}
		abs := midnight.Add(tod)
		if !abs.After(now) {
			abs = abs.AddDate(0, 0, 1)
		}
		if abs.Sub(now) > horizon {
			continue
		}
		out = append(out, Arrival{
			Route:       route.DisplayName(),
			RouteID:     route.ID,
			RouteLong:   route.LongName,
			Destination: trip.Headsign,
			Color:       route.Color,
			TripID:      trip.ID,
			StopID:      stopID,
			Time:        abs,
			MinutesAway: minutesAway(abs, now),
			Status:      StatusScheduled,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Time.Before(out[j].Time) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

func minutesAway(target, now time.Time) int {
	m := int(target.Sub(now).Round(time.Minute) / time.Minute)
	if m < 0 {
		return 0
	}
	return m
}
