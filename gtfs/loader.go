package gtfs

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
)

// ErrNoStops is returned when the static feed yields no stops at all. It is
// the only static-load condition surfaced upward as an error; everything
// else degrades to skipped rows or a missing table.
var ErrNoStops = errors.New("gtfs: no stops loaded from static feed")

// LoadStats reports per-table row accounting for one load.
type LoadStats struct {
	Loaded  map[string]int
	Skipped map[string]int
	// TableErrors holds per-table load failures (missing file, schema
	// error). A failed table does not abort the other tables.
	TableErrors map[string]error
}

func newLoadStats() *LoadStats {
	return &LoadStats{
		Loaded:      map[string]int{},
		Skipped:     map[string]int{},
		TableErrors: map[string]error{},
	}
}

// tableSource opens named tables from a directory or a zip archive.
type tableSource interface {
	Open(name string) (io.ReadCloser, error)
	Close() error
}

type dirSource struct{ base string }

func (d dirSource) Open(name string) (io.ReadCloser, error) {
	return os.Open(filepath.Join(d.base, name))
}
func (d dirSource) Close() error { return nil }

type zipSource struct{ r *zip.ReadCloser }

func (z zipSource) Open(name string) (io.ReadCloser, error) {
	for _, f := range z.r.File {
		if strings.EqualFold(f.Name, name) {
			return f.Open()
		}
	}
	return nil, fmt.Errorf("%s not in archive", name)
}
func (z zipSource) Close() error { return z.r.Close() }

// LoadSchedule reads the static tables from path, which may be a directory
// of .txt files or a .zip archive. Each table loads independently; a schema
// error or missing file fails only that table. The returned error is non-nil
// only when the feed is unusable outright (no stops at all).
func LoadSchedule(path string) (*Schedule, *LoadStats, error) {
	var src tableSource
	info, err := os.Stat(path)
	switch {
	case err != nil:
		return nil, nil, fmt.Errorf("gtfs: open %s: %w", path, err)
	case info.IsDir():
		src = dirSource{base: path}
	default:
		zr, err := zip.OpenReader(path)
		if err != nil {
			return nil, nil, fmt.Errorf("gtfs: open %s: %w", path, err)
		}
		src = zipSource{r: zr}
	}
	defer src.Close()

	sched := &Schedule{}
	stats := newLoadStats()
	for _, table := range []struct {
		file  string
		parse func(r io.Reader, stats *LoadStats) error
	}{
		{"stops.txt", func(r io.Reader, stats *LoadStats) (err error) {
			sched.Stops, err = parseStops(r, stats)
			return
		}},
		{"routes.txt", func(r io.Reader, stats *LoadStats) (err error) {
			sched.Routes, err = parseRoutes(r, stats)
			return
		}},
		{"trips.txt", func(r io.Reader, stats *LoadStats) (err error) {
			sched.Trips, err = parseTrips(r, stats)
			return
		}},
		{"stop_times.txt", func(r io.Reader, stats *LoadStats) (err error) {
			sched.StopTimes, err = parseStopTimes(r, stats)
			return
		}},
		{"calendar.txt", func(r io.Reader, stats *LoadStats) (err error) {
			sched.Calendars, err = parseCalendars(r, stats)
			return
		}},
		{"calendar_dates.txt", func(r io.Reader, stats *LoadStats) (err error) {
			sched.CalendarDates, err = parseCalendarDates(r, stats)
			return
		}},
	} {
		f, err := src.Open(table.file)
		if err != nil {
			log.Warn().Str("table", table.file).Err(err).Msg("Static table unavailable")
			stats.TableErrors[table.file] = err
			continue
		}
		err = table.parse(f, stats)
		f.Close()
		if err != nil {
			log.Error().Str("table", table.file).Err(err).Msg("Static table failed to load")
			stats.TableErrors[table.file] = err
		}
	}

	if len(sched.Stops) == 0 {
		return nil, stats, ErrNoStops
	}
	log.Info().
		Int("stops", len(sched.Stops)).
		Int("routes", len(sched.Routes)).
		Int("trips", len(sched.Trips)).
		Int("stop_times", len(sched.StopTimes)).
		Msg("Loaded GTFS static schedule")
	return sched, stats, nil
}

func parseStops(r io.Reader, stats *LoadStats) ([]Stop, error) {
	t, err := NewTableReader("stops", r, []string{"stop_id", "stop_name", "stop_lat", "stop_lon"})
	if err != nil {
		return nil, err
	}
	var stops []Stop
	for t.Next() {
		lat, latErr := strconv.ParseFloat(t.Field("stop_lat"), 64)
		lon, lonErr := strconv.ParseFloat(t.Field("stop_lon"), 64)
		stop := Stop{
			ID:        t.Field("stop_id"),
			Name:      t.Field("stop_name"),
			Latitude:  lat,
			Longitude: lon,
		}
		if stop.ID == "" || stop.Name == "" || latErr != nil || lonErr != nil ||
			lat < -90 || lat > 90 || lon < -180 || lon > 180 {
			t.MarkSkipped()
			log.Debug().Str("stop_id", stop.ID).Int("row", t.RowNumber()).Msg("Skipping malformed stop")
			continue
		}
		stops = append(stops, stop)
	}
	recordTable(t, stats, len(stops))
	return stops, nil
}

func parseRoutes(r io.Reader, stats *LoadStats) ([]Route, error) {
	t, err := NewTableReader("routes", r, []string{"route_id"})
	if err != nil {
		return nil, err
	}
	var routes []Route
	for t.Next() {
		route := Route{
			ID:        t.Field("route_id"),
			ShortName: t.Field("route_short_name"),
			LongName:  t.Field("route_long_name"),
			Color:     t.FieldOr("route_color", "0088cc"),
		}
		if route.ID == "" {
			t.MarkSkipped()
			continue
		}
		if v := t.Field("route_type"); v != "" {
			route.Type, _ = strconv.Atoi(v)
		}
		routes = append(routes, route)
	}
	recordTable(t, stats, len(routes))
	return routes, nil
}

func parseTrips(r io.Reader, stats *LoadStats) ([]Trip, error) {
	t, err := NewTableReader("trips", r, []string{"route_id", "service_id", "trip_id"})
	if err != nil {
		return nil, err
	}
	var trips []Trip
	for t.Next() {
		trip := Trip{
			ID:        t.Field("trip_id"),
			RouteID:   t.Field("route_id"),
			ServiceID: t.Field("service_id"),
			Headsign:  t.Field("trip_headsign"),
		}
		if trip.ID == "" || trip.RouteID == "" || trip.ServiceID == "" {
			t.MarkSkipped()
			continue
		}
		if v := t.Field("direction_id"); v != "" {
			trip.Direction, _ = strconv.Atoi(v)
		}
		trips = append(trips, trip)
	}
	recordTable(t, stats, len(trips))
	return trips, nil
}

func parseStopTimes(r io.Reader, stats *LoadStats) ([]StopTimeEntry, error) {
	t, err := NewTableReader("stop_times", r, []string{"trip_id", "stop_id", "arrival_time"})
	if err != nil {
		return nil, err
	}
	var entries []StopTimeEntry
	for t.Next() {
		entry := StopTimeEntry{
			TripID:        t.Field("trip_id"),
			StopID:        t.Field("stop_id"),
			ArrivalTime:   t.Field("arrival_time"),
			DepartureTime: t.Field("departure_time"),
		}
		if entry.TripID == "" || entry.StopID == "" || entry.ArrivalTime == "" {
			t.MarkSkipped()
			continue
		}
		if v := t.Field("stop_sequence"); v != "" {
			entry.Sequence, _ = strconv.Atoi(v)
		}
		entries = append(entries, entry)
	}
	recordTable(t, stats, len(entries))
	return entries, nil
}

var weekdayColumns = [7]string{"sunday", "monday", "tuesday", "wednesday", "thursday", "friday", "saturday"}

func parseCalendars(r io.Reader, stats *LoadStats) ([]CalendarService, error) {
	t, err := NewTableReader("calendar", r, []string{
		"service_id", "monday", "tuesday", "wednesday", "thursday",
		"friday", "saturday", "sunday", "start_date", "end_date",
	})
	if err != nil {
		return nil, err
	}
	var services []CalendarService
	for t.Next() {
		svc := CalendarService{ServiceID: t.Field("service_id")}
		if svc.ServiceID == "" {
			t.MarkSkipped()
			continue
		}
		for i, col := range weekdayColumns {
			svc.Weekdays[i] = t.Field(col) == "1"
		}
		svc.StartDate, _ = strconv.Atoi(t.Field("start_date"))
		svc.EndDate, _ = strconv.Atoi(t.Field("end_date"))
		services = append(services, svc)
	}
	recordTable(t, stats, len(services))
	return services, nil
}

func parseCalendarDates(r io.Reader, stats *LoadStats) ([]CalendarException, error) {
	t, err := NewTableReader("calendar_dates", r, []string{"service_id", "date", "exception_type"})
	if err != nil {
		return nil, err
	}
	var exceptions []CalendarException
	for t.Next() {
		date, dateErr := strconv.Atoi(t.Field("date"))
		kind, kindErr := strconv.Atoi(t.Field("exception_type"))
		exc := CalendarException{
			ServiceID: t.Field("service_id"),
			Date:      date,
			Kind:      ExceptionKind(kind),
		}
		if exc.ServiceID == "" || dateErr != nil || kindErr != nil ||
			(exc.Kind != ServiceAdded && exc.Kind != ServiceRemoved) {
			t.MarkSkipped()
			continue
		}
		exceptions = append(exceptions, exc)
	}
	recordTable(t, stats, len(exceptions))
	return exceptions, nil
}

func recordTable(t *TableReader, stats *LoadStats, loaded int) {
	stats.Loaded[t.Name()] = loaded
	stats.Skipped[t.Name()] = t.Skipped()
	if t.Skipped() > 0 {
		log.Warn().Str("table", t.Name()).Int("rows", loaded).Int("skipped", t.Skipped()).Msg("Table loaded with skipped rows")
	}
}
