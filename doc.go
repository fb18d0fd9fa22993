// Package arrivals turns GTFS static schedules and GTFS-realtime feeds
// into per-stop arrival boards.
//
// The gtfs package loads and indexes the static tables, the gtfsrt
// package fetches and decodes the binary realtime feeds, and this package
// projects schedules into upcoming arrivals, merges realtime estimates
// over them and serves the result over HTTP. An Engine holds all state
// for one feed; nothing is process-global, so several networks can run in
// one process.
package arrivals
