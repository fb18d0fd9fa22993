/*
Package gtfs loads GTFS static schedules into typed records and builds the
in-memory index the arrivals engine queries.

The loader reads the six tables this engine needs (stops, routes, trips,
stop_times, calendar, calendar_dates) from a directory or zip archive.
Header matching is case-insensitive and order-independent; malformed rows
are skipped and counted rather than failing the load, and a table missing a
required column fails that table alone with a *SchemaError.

# Usage

	sched, stats, err := gtfs.LoadSchedule("feeds/amb_bus")
	if err != nil {
	    // only ErrNoStops or an unreadable path land here
	}
	idx := gtfs.NewScheduleIndex(sched)

	idx.ServiceActive("SVC1", time.Now())
	idx.StopTimes("S1")

The index is read-only after construction and safe for concurrent readers.
Schedules can be cached to disk with SerializeScheduleToFile to skip the
CSV pass on restart.
*/
package gtfs
