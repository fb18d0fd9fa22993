/*
Package gtfsrt fetches and decodes GTFS-Realtime binary feeds into the
normalized records the arrivals engine merges over its schedule.

Decoding runs a two-strategy chain: the generated protobuf bindings first,
then a minimal hand-specified wire-format decoder covering only the fields
the engine consumes. When both fail the result is an empty feed — real-time
data is always optional and its absence must never abort a caller.

	client := gtfsrt.NewClient(10 * time.Second)
	data, err := client.Fetch(ctx, cfg.TripUpdatesURL)
	if err != nil {
	    // schedule-only output; not fatal
	}
	feed := gtfsrt.NewDecoder().Decode(data)
*/
package gtfsrt
