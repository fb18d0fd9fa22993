package arrivals

import (
	"fmt"
	"time"
)

// ArrivalStatus classifies an arrival's realtime state.
type ArrivalStatus int

const (
	// StatusScheduled means no live data matched this arrival.
	StatusScheduled ArrivalStatus = iota
	StatusOnTime
	StatusDelayed
	StatusEarly
)

// Arrival is one upcoming vehicle arrival at a stop. Scheduled arrivals are
// produced by ProjectArrivals; MergeRealtime may overlay Time, Realtime,
// Status and DelaySeconds from a matched feed update. Values are never
// mutated after being handed to a reader; each projection builds new ones.
type Arrival struct {
	Route       string `json:"route"` // rider-facing name: short name or route id
	RouteID     string `json:"routeId"`
	RouteLong   string `json:"routeLongName,omitempty"`
	Destination string `json:"destination,omitempty"`
	Color       string `json:"color,omitempty"`
	TripID      string `json:"tripId"`
	StopID      string `json:"stopId"`

	Time         time.Time     `json:"time"`
	MinutesAway  int           `json:"minutesAway"`
	Realtime     bool          `json:"isRealtime"`
	Status       ArrivalStatus `json:"-"`
	DelaySeconds int32         `json:"delaySeconds,omitempty"`
}

// StatusLabel renders the status the way the departure board shows it.
func (a Arrival) StatusLabel() string {
	switch a.Status {
	case StatusOnTime:
		return "on time"
	case StatusDelayed:
		return fmt.Sprintf("delayed %d min", delayMinutes(a.DelaySeconds))
	case StatusEarly:
		return fmt.Sprintf("early %d min", delayMinutes(a.DelaySeconds))
	}
	return "scheduled"
}

func delayMinutes(delaySeconds int32) int {
	d := delaySeconds
	if d < 0 {
		d = -d
	}
	return int((d + 30) / 60)
}
