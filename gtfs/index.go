package gtfs

import (
	"fmt"
	"sort"

	"github.com/rs/zerolog/log"
)

// ScheduleIndex holds the derived lookups over one loaded Schedule. It is
// built once per load and read-only afterwards, so it is safe for
// concurrent readers.
type ScheduleIndex struct {
	schedule *Schedule

	stops      map[string]Stop
	routes     map[string]Route
	trips      map[string]Trip
	calendars  map[string]CalendarService
	exceptions map[string]map[int]ExceptionKind

	// stopTimesByStop avoids re-scanning the full stop_times table on
	// every projection; entries keep input row order.
	stopTimesByStop map[string][]StopTimeEntry
}

// NewScheduleIndex builds the lookup maps for a schedule. Stops referenced
// by stop_times but absent from stops.txt are given a placeholder entry so
// their timetable is not lost.
func NewScheduleIndex(s *Schedule) *ScheduleIndex {
	idx := &ScheduleIndex{
		schedule:        s,
		stops:           make(map[string]Stop, len(s.Stops)),
		routes:          make(map[string]Route, len(s.Routes)),
		trips:           make(map[string]Trip, len(s.Trips)),
		calendars:       make(map[string]CalendarService, len(s.Calendars)),
		exceptions:      map[string]map[int]ExceptionKind{},
		stopTimesByStop: map[string][]StopTimeEntry{},
	}
	for _, stop := range s.Stops {
		idx.stops[stop.ID] = stop
	}
	for _, route := range s.Routes {
		idx.routes[route.ID] = route
	}
	for _, trip := range s.Trips {
		idx.trips[trip.ID] = trip
	}
	for _, svc := range s.Calendars {
		idx.calendars[svc.ServiceID] = svc
	}
	// Duplicate exceptions for the same (service, date) resolve to the
	// last row read.
	for _, exc := range s.CalendarDates {
		m := idx.exceptions[exc.ServiceID]
		if m == nil {
			m = map[int]ExceptionKind{}
			idx.exceptions[exc.ServiceID] = m
		}
		m[exc.Date] = exc.Kind
	}
	placeholders := 0
	for _, st := range s.StopTimes {
		idx.stopTimesByStop[st.StopID] = append(idx.stopTimesByStop[st.StopID], st)
		if _, ok := idx.stops[st.StopID]; !ok {
			idx.stops[st.StopID] = Stop{ID: st.StopID, Name: fmt.Sprintf("Stop %s", st.StopID)}
			placeholders++
		}
	}
	if placeholders > 0 {
		log.Warn().Int("stops", placeholders).Msg("Stop times reference stops missing from stops.txt; placeholders created")
	}
	return idx
}

// Stop returns the stop record for an id.
func (idx *ScheduleIndex) Stop(id string) (Stop, bool) {
	s, ok := idx.stops[id]
	return s, ok
}

// Route returns the route record for an id.
func (idx *ScheduleIndex) Route(id string) (Route, bool) {
	r, ok := idx.routes[id]
	return r, ok
}

// Trip returns the trip record for an id.
func (idx *ScheduleIndex) Trip(id string) (Trip, bool) {
	t, ok := idx.trips[id]
	return t, ok
}

// StopTimes returns the stop-time rows for a stop in input order.
func (idx *ScheduleIndex) StopTimes(stopID string) []StopTimeEntry {
	return idx.stopTimesByStop[stopID]
}

// StopIDs returns every known stop id, sorted for stable output.
func (idx *ScheduleIndex) StopIDs() []string {
	ids := make([]string, 0, len(idx.stops))
	for id := range idx.stops {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// StopCount is the number of stops, placeholders included.
func (idx *ScheduleIndex) StopCount() int { return len(idx.stops) }

// Schedule returns the raw tables this index was built from.
func (idx *ScheduleIndex) Schedule() *Schedule { return idx.schedule }
