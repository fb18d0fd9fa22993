package arrivals

import (
	"sort"
	"time"

	"github.com/transitmap/arrivals/gtfs"
	"github.com/transitmap/arrivals/gtfsrt"
)

type mergeKey struct {
	stopID string
	route  string
}

// MergeRealtime overlays decoded feed updates on a projected arrival list.
//
// Updates are indexed by (stop, rider-facing route name); each scheduled
// arrival looks up its own key and takes the candidate closest in time,
// but only when the gap is inside tolerance. Unmatched arrivals pass
// through unchanged. A matched arrival's time becomes the update's arrival
// plus its delay, its minutes-away is recomputed against now, and its
// status reflects the delay's sign.
//
// The input slice is not mutated and every arrival is matched
// independently, so re-running the merge with the same feed snapshot is a
// no-op.
func MergeRealtime(idx *gtfs.ScheduleIndex, scheduled []Arrival, updates []gtfsrt.TripUpdate, now time.Time, tolerance time.Duration) []Arrival {
	if len(scheduled) == 0 {
		return nil
	}
	out := make([]Arrival, len(scheduled))
	copy(out, scheduled)
	if len(updates) == 0 {
		return out
	}

	byKey := map[mergeKey][]gtfsrt.TripUpdate{}
	for _, u := range updates {
		key := mergeKey{stopID: u.StopID, route: routeNameForUpdate(idx, u)}
		byKey[key] = append(byKey[key], u)
	}

	for i := range out {
		candidates := byKey[mergeKey{stopID: out[i].StopID, route: out[i].Route}]
		best, ok := closestUpdate(candidates, out[i].Time, tolerance)
		if !ok {
			continue
		}
		live := time.Unix(best.ArrivalTime, 0).In(out[i].Time.Location()).Add(time.Duration(best.DelaySeconds) * time.Second)
		out[i].Time = live
		out[i].MinutesAway = minutesAway(live, now)
		out[i].Realtime = true
		out[i].DelaySeconds = best.DelaySeconds
		switch {
		case best.DelaySeconds > 0:
			out[i].Status = StatusDelayed
		case best.DelaySeconds < 0:
			out[i].Status = StatusEarly
		default:
			out[i].Status = StatusOnTime
		}
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Time.Before(out[j].Time) })
	return out
}

// routeNameForUpdate resolves the rider-facing route name for a feed
// update so both sides of the merge share one key. Updates missing a route
// id fall back to their trip's route.
func routeNameForUpdate(idx *gtfs.ScheduleIndex, u gtfsrt.TripUpdate) string {
	routeID := u.RouteID
	if routeID == "" {
		if trip, ok := idx.Trip(u.TripID); ok {
			routeID = trip.RouteID
		}
	}
	if route, ok := idx.Route(routeID); ok {
		return route.DisplayName()
	}
	return routeID
}

func closestUpdate(candidates []gtfsrt.TripUpdate, scheduled time.Time, tolerance time.Duration) (gtfsrt.TripUpdate, bool) {
	var best gtfsrt.TripUpdate
	bestDiff := tolerance
	found := false
	for _, c := range candidates {
		diff := time.Unix(c.ArrivalTime, 0).Sub(scheduled)
		if diff < 0 {
			diff = -diff
		}
		if diff <= bestDiff && (diff < bestDiff || !found) {
			best = c
			bestDiff = diff
			found = true
		}
	}
	if !found {
		return gtfsrt.TripUpdate{}, false
	}
	return best, true
}
