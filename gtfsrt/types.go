package gtfsrt

// TripUpdate is one normalized arrival estimate extracted from a feed's
// trip updates. Only stop-time updates carrying an arrival time become
// TripUpdates; entries without one are dropped at decode time.
type TripUpdate struct {
	TripID       string
	RouteID      string
	StopID       string
	ArrivalTime  int64 // epoch seconds
	DelaySeconds int32
	StopSequence uint32
}

// VehicleStopStatus mirrors the feed's vehicle status enum.
type VehicleStopStatus int32

const (
	IncomingAt  VehicleStopStatus = 0
	StoppedAt   VehicleStopStatus = 1
	InTransitTo VehicleStopStatus = 2
)

func (s VehicleStopStatus) String() string {
	switch s {
	case IncomingAt:
		return "INCOMING_AT"
	case StoppedAt:
		return "STOPPED_AT"
	case InTransitTo:
		return "IN_TRANSIT_TO"
	}
	return "UNKNOWN"
}

// VehiclePosition is one normalized vehicle position record.
type VehiclePosition struct {
	TripID        string
	RouteID       string
	VehicleID     string
	Latitude      float64
	Longitude     float64
	Bearing       float64
	Speed         float64
	StopID        string
	CurrentStatus VehicleStopStatus
	StopSequence  uint32
	Timestamp     int64
}

// Feed is the normalized result of decoding one binary feed message.
type Feed struct {
	Timestamp        int64 // header timestamp, epoch seconds
	TripUpdates      []TripUpdate
	VehiclePositions []VehiclePosition
}

// Empty reports whether the feed carries no usable records.
func (f *Feed) Empty() bool {
	return f == nil || (len(f.TripUpdates) == 0 && len(f.VehiclePositions) == 0)
}
