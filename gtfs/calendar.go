package gtfs

import "time"

// DateInt converts a time to the YYYYMMDD integer form used by calendar
// tables, in the time's own location.
func DateInt(t time.Time) int {
	return t.Year()*10000 + int(t.Month())*100 + t.Day()
}

// ServiceActive reports whether a service runs on the given calendar date.
//
// A calendar_dates exception for the exact (service, date) pair is
// authoritative either way and overrides the weekly pattern. Without one,
// the weekly bit for the date's weekday decides; an unknown service is
// inactive. The service's start_date/end_date bounds are deliberately not
// consulted here, matching the behavior of the feeds this engine replaces.
func (idx *ScheduleIndex) ServiceActive(serviceID string, date time.Time) bool {
	if kinds := idx.exceptions[serviceID]; kinds != nil {
		if kind, ok := kinds[DateInt(date)]; ok {
			return kind == ServiceAdded
		}
	}
	svc, ok := idx.calendars[serviceID]
	if !ok {
		return false
	}
	return svc.Weekdays[int(date.Weekday())]
}
