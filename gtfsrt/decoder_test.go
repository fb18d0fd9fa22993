package gtfsrt

import (
	"testing"

	gtfsrtpb "github.com/MobilityData/gtfs-realtime-bindings/golang/gtfs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/proto"
)

// buildFeedBytes marshals a realistic feed message with one trip update
// (two stop-time updates, one missing its arrival) and one vehicle
// position.
func buildFeedBytes(t *testing.T) []byte {
	t.Helper()
	msg := &gtfsrtpb.FeedMessage{
		Header: &gtfsrtpb.FeedHeader{
			GtfsRealtimeVersion: proto.String("2.0"),
			Timestamp:           proto.Uint64(1751623200),
		},
		Entity: []*gtfsrtpb.FeedEntity{
			{
				Id: proto.String("tu-1"),
				TripUpdate: &gtfsrtpb.TripUpdate{
					Trip: &gtfsrtpb.TripDescriptor{
						TripId:  proto.String("T1"),
						RouteId: proto.String("R1"),
					},
					StopTimeUpdate: []*gtfsrtpb.TripUpdate_StopTimeUpdate{
						{
							StopSequence: proto.Uint32(3),
							StopId:       proto.String("S1"),
							Arrival: &gtfsrtpb.TripUpdate_StopTimeEvent{
								Time:  proto.Int64(1751623500),
								Delay: proto.Int32(300),
							},
						},
						{
							// Departure only; must not become a TripUpdate.
							StopSequence: proto.Uint32(4),
							StopId:       proto.String("S2"),
							Departure: &gtfsrtpb.TripUpdate_StopTimeEvent{
								Time: proto.Int64(1751623800),
							},
						},
					},
				},
			},
			{
				Id: proto.String("vp-1"),
				Vehicle: &gtfsrtpb.VehiclePosition{
					Trip: &gtfsrtpb.TripDescriptor{
						TripId:  proto.String("T1"),
						RouteId: proto.String("R1"),
					},
					Vehicle: &gtfsrtpb.VehicleDescriptor{Id: proto.String("BUS7")},
					Position: &gtfsrtpb.Position{
						Latitude:  proto.Float32(41.3851),
						Longitude: proto.Float32(2.1734),
						Bearing:   proto.Float32(90),
					},
					CurrentStopSequence: proto.Uint32(3),
					CurrentStatus:       gtfsrtpb.VehiclePosition_IN_TRANSIT_TO.Enum(),
					StopId:              proto.String("S1"),
					Timestamp:           proto.Uint64(1751623190),
				},
			},
		},
	}
	data, err := proto.Marshal(msg)
	require.NoError(t, err)
	return data
}

func checkDecodedFeed(t *testing.T, feed *Feed) {
	t.Helper()
	require.NotNil(t, feed)
	assert.Equal(t, int64(1751623200), feed.Timestamp)

	require.Len(t, feed.TripUpdates, 1)
	tu := feed.TripUpdates[0]
	assert.Equal(t, "T1", tu.TripID)
	assert.Equal(t, "R1", tu.RouteID)
	assert.Equal(t, "S1", tu.StopID)
	assert.Equal(t, int64(1751623500), tu.ArrivalTime)
	assert.Equal(t, int32(300), tu.DelaySeconds)
	assert.Equal(t, uint32(3), tu.StopSequence)

	require.Len(t, feed.VehiclePositions, 1)
	vp := feed.VehiclePositions[0]
	assert.Equal(t, "BUS7", vp.VehicleID)
	assert.Equal(t, "S1", vp.StopID)
	assert.Equal(t, InTransitTo, vp.CurrentStatus)
	assert.InDelta(t, 41.3851, vp.Latitude, 0.0001)
	assert.InDelta(t, 2.1734, vp.Longitude, 0.0001)
	assert.Equal(t, int64(1751623190), vp.Timestamp)
}

func TestBindingsStrategyDecode(t *testing.T) {
	feed, err := bindingsStrategy{}.Decode(buildFeedBytes(t))
	require.NoError(t, err)
	checkDecodedFeed(t, feed)
}

func TestWireStrategyDecode(t *testing.T) {
	feed, err := wireStrategy{}.Decode(buildFeedBytes(t))
	require.NoError(t, err)
	checkDecodedFeed(t, feed)
}

func TestDecoderFallsBackToWire(t *testing.T) {
	failing := strategyFunc{name: "broken", fn: func([]byte) (*Feed, error) {
		return nil, assert.AnError
	}}
	d := NewDecoderWithStrategies(failing, wireStrategy{})
	feed := d.Decode(buildFeedBytes(t))
	checkDecodedFeed(t, feed)
}

func TestDecoderGarbageYieldsEmptyFeed(t *testing.T) {
	d := NewDecoder()
	// 0xFF opens a field with wire type 7, which does not exist.
	feed := d.Decode([]byte{0xFF, 0x01, 0x02})
	require.NotNil(t, feed)
	assert.True(t, feed.Empty())

	feed = d.Decode(nil)
	require.NotNil(t, feed)
	assert.True(t, feed.Empty())
}

type strategyFunc struct {
	name string
	fn   func([]byte) (*Feed, error)
}

func (s strategyFunc) Name() string                      { return s.name }
func (s strategyFunc) Decode(data []byte) (*Feed, error) { return s.fn(data) }
