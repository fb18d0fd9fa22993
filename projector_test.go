package arrivals

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/transitmap/arrivals/gtfs"
)

// everyDay marks a service active on all seven weekdays.
var everyDay = [7]bool{true, true, true, true, true, true, true}

// testSchedule is one stop on route 42 with three trips through it, plus
// a second route sharing the stop.
func testSchedule() *gtfs.Schedule {
	return &gtfs.Schedule{
		Stops: []gtfs.Stop{
			{ID: "S1", Name: "Main St", Latitude: 41.38, Longitude: 2.17},
		},
		Routes: []gtfs.Route{
			{ID: "R1", ShortName: "42", LongName: "Crosstown", Color: "FF0000"},
			{ID: "R2", LongName: "Harbor Express", Color: "0088cc"},
		},
		Trips: []gtfs.Trip{
			{ID: "T1", RouteID: "R1", ServiceID: "SVC1", Headsign: "Downtown"},
			{ID: "T2", RouteID: "R1", ServiceID: "SVC1", Headsign: "Downtown"},
			{ID: "T3", RouteID: "R2", ServiceID: "SVC1", Headsign: "Harbor"},
			{ID: "T4", RouteID: "R1", ServiceID: "SVC-OFF", Headsign: "Downtown"},
		},
		StopTimes: []gtfs.StopTimeEntry{
			{TripID: "T1", StopID: "S1", ArrivalTime: "08:00:00", Sequence: 1},
			{TripID: "T2", StopID: "S1", ArrivalTime: "09:30:00", Sequence: 1},
			{TripID: "T3", StopID: "S1", ArrivalTime: "08:15:00", Sequence: 1},
			{TripID: "T4", StopID: "S1", ArrivalTime: "08:05:00", Sequence: 1},
		},
		Calendars: []gtfs.CalendarService{
			{ServiceID: "SVC1", Weekdays: everyDay},
			// SVC-OFF has no active days at all.
			{ServiceID: "SVC-OFF"},
		},
	}
}

func at(hour, min int) time.Time {
	return time.Date(2025, time.July, 4, hour, min, 0, 0, time.UTC)
}

func TestParseTimeOfDay(t *testing.T) {
	tests := []struct {
		in      string
		want    time.Duration
		wantErr bool
	}{
		{"08:00:00", 8 * time.Hour, false},
		{"23:59:59", 23*time.Hour + 59*time.Minute + 59*time.Second, false},
		{"25:10:00", 25*time.Hour + 10*time.Minute, false}, // post-midnight service
		{"7:05", 7*time.Hour + 5*time.Minute, false},
		{"nope", 0, true},
		{"08:61:00", 0, true},
		{"", 0, true},
	}
	for _, tc := range tests {
		got, err := ParseTimeOfDay(tc.in)
		if tc.wantErr {
			assert.Error(t, err, tc.in)
			continue
		}
		require.NoError(t, err, tc.in)
		assert.Equal(t, tc.want, got, tc.in)
	}
}

func TestProjectArrivalsOrderingAndFields(t *testing.T) {
	idx := gtfs.NewScheduleIndex(testSchedule())
	now := at(7, 0)

	list := ProjectArrivals(idx, "S1", now, 3*time.Hour, 0)
	require.Len(t, list, 3)

	assert.Equal(t, "T1", list[0].TripID)
	assert.Equal(t, "T3", list[1].TripID)
	assert.Equal(t, "T2", list[2].TripID)

	first := list[0]
	assert.Equal(t, "42", first.Route) // short name wins over route id
	assert.Equal(t, "R1", first.RouteID)
	assert.Equal(t, "Downtown", first.Destination)
	assert.Equal(t, "FF0000", first.Color)
	assert.Equal(t, at(8, 0), first.Time)
	assert.Equal(t, 60, first.MinutesAway)
	assert.False(t, first.Realtime)
	assert.Equal(t, StatusScheduled, first.Status)

	// R2 has no short name; the route id stands in.
	assert.Equal(t, "R2", list[1].Route)
}

func TestProjectArrivalsRollover(t *testing.T) {
	sched := &gtfs.Schedule{
		Stops:  []gtfs.Stop{{ID: "S1", Name: "Main St"}},
		Routes: []gtfs.Route{{ID: "R1", ShortName: "N1"}},
		Trips:  []gtfs.Trip{{ID: "T1", RouteID: "R1", ServiceID: "SVC1"}},
		StopTimes: []gtfs.StopTimeEntry{
			{TripID: "T1", StopID: "S1", ArrivalTime: "00:10:00", Sequence: 1},
		},
		Calendars: []gtfs.CalendarService{{ServiceID: "SVC1", Weekdays: everyDay}},
	}
	idx := gtfs.NewScheduleIndex(sched)

	// 23:50: today's 00:10 is in the past, so it rolls to tomorrow and
	// lands 20 minutes out.
	now := at(23, 50)
	list := ProjectArrivals(idx, "S1", now, 2*time.Hour, 0)
	require.Len(t, list, 1)
	assert.Equal(t, now.Add(20*time.Minute), list[0].Time)
	assert.Equal(t, 20, list[0].MinutesAway)
}

func TestProjectArrivalsHorizon(t *testing.T) {
	idx := gtfs.NewScheduleIndex(testSchedule())

	// Two hours from 07:00 keeps 08:00 and 08:15 but drops 09:30.
	list := ProjectArrivals(idx, "S1", at(7, 0), 2*time.Hour, 0)
	require.Len(t, list, 2)
	assert.Equal(t, "T1", list[0].TripID)
	assert.Equal(t, "T3", list[1].TripID)
}

func TestProjectArrivalsLimit(t *testing.T) {
	idx := gtfs.NewScheduleIndex(testSchedule())
	list := ProjectArrivals(idx, "S1", at(7, 0), 3*time.Hour, 1)
	require.Len(t, list, 1)
	assert.Equal(t, "T1", list[0].TripID)
}

func TestProjectArrivalsSkipsInactiveService(t *testing.T) {
	idx := gtfs.NewScheduleIndex(testSchedule())
	list := ProjectArrivals(idx, "S1", at(7, 0), 3*time.Hour, 0)
	for _, a := range list {
		assert.NotEqual(t, "T4", a.TripID)
	}
}

func TestProjectArrivalsUnknownStop(t *testing.T) {
	idx := gtfs.NewScheduleIndex(testSchedule())
	assert.Empty(t, ProjectArrivals(idx, "NOPE", at(7, 0), 2*time.Hour, 0))
}
