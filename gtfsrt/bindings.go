package gtfsrt

import (
	gtfsrtpb "github.com/MobilityData/gtfs-realtime-bindings/golang/gtfs"
	"google.golang.org/protobuf/proto"
)

// bindingsStrategy decodes with the generated GTFS-RT bindings. It is the
// schema-rich primary strategy.
type bindingsStrategy struct{}

func (bindingsStrategy) Name() string { return "bindings" }

func (bindingsStrategy) Decode(data []byte) (*Feed, error) {
	var msg gtfsrtpb.FeedMessage
	if err := proto.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	feed := &Feed{}
	if msg.Header != nil && msg.Header.Timestamp != nil {
		feed.Timestamp = int64(*msg.Header.Timestamp)
	}
	for _, entity := range msg.Entity {
		if tu := entity.GetTripUpdate(); tu != nil {
			trip := tu.GetTrip()
			for _, stu := range tu.GetStopTimeUpdate() {
				arrival := stu.GetArrival()
				if arrival == nil || arrival.Time == nil {
					continue
				}
				feed.TripUpdates = append(feed.TripUpdates, TripUpdate{
					TripID:       trip.GetTripId(),
					RouteID:      trip.GetRouteId(),
					StopID:       stu.GetStopId(),
					ArrivalTime:  arrival.GetTime(),
					DelaySeconds: arrival.GetDelay(),
					StopSequence: stu.GetStopSequence(),
				})
			}
		}
		if vp := entity.GetVehicle(); vp != nil {
			trip := vp.GetTrip()
			pos := vp.GetPosition()
			feed.VehiclePositions = append(feed.VehiclePositions, VehiclePosition{
				TripID:        trip.GetTripId(),
				RouteID:       trip.GetRouteId(),
				VehicleID:     vp.GetVehicle().GetId(),
				Latitude:      float64(pos.GetLatitude()),
				Longitude:     float64(pos.GetLongitude()),
				Bearing:       float64(pos.GetBearing()),
				Speed:         float64(pos.GetSpeed()),
				StopID:        vp.GetStopId(),
				CurrentStatus: VehicleStopStatus(vp.GetCurrentStatus()),
				StopSequence:  vp.GetCurrentStopSequence(),
				Timestamp:     int64(vp.GetTimestamp()),
			})
		}
	}
	return feed, nil
}
