package gtfsrt

import (
	"fmt"
	"math"

	"google.golang.org/protobuf/encoding/protowire"
)

// wireStrategy is the fallback decoder: a hand-specified minimal schema
// walked directly with protowire. It covers only the fields the engine
// consumes, so it keeps working when the generated bindings are absent or
// reject a message.
//
// Field numbers follow the GTFS-RT feed specification:
//
//	FeedMessage    header=1 entity=2
//	FeedHeader     version=1 incrementality=2 timestamp=3
//	FeedEntity     id=1 trip_update=3 vehicle=4
//	TripUpdate     trip=1 stop_time_update=2 vehicle=3 timestamp=4 delay=5
//	TripDescriptor trip_id=1 start_time=2 start_date=3 route_id=5 direction_id=6
//	StopTimeUpdate stop_sequence=1 arrival=2 departure=3 stop_id=4
//	StopTimeEvent  delay=1 time=2
//	VehiclePosition trip=1 position=2 current_stop_sequence=3 current_status=4
//	                timestamp=5 stop_id=7 vehicle=8
//	Position       latitude=1 longitude=2 bearing=3 speed=5
//	VehicleDescriptor id=1
type wireStrategy struct{}

func (wireStrategy) Name() string { return "wire" }

func (wireStrategy) Decode(data []byte) (*Feed, error) {
	feed := &Feed{}
	err := eachField(data, func(num protowire.Number, typ protowire.Type, value []byte, varint uint64) error {
		switch num {
		case 1: // header
			if typ != protowire.BytesType {
				return nil
			}
			return eachField(value, func(num protowire.Number, typ protowire.Type, _ []byte, varint uint64) error {
				if num == 3 && typ == protowire.VarintType {
					feed.Timestamp = int64(varint)
				}
				return nil
			})
		case 2: // entity
			if typ != protowire.BytesType {
				return nil
			}
			return decodeEntity(value, feed)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return feed, nil
}

func decodeEntity(data []byte, feed *Feed) error {
	return eachField(data, func(num protowire.Number, typ protowire.Type, value []byte, _ uint64) error {
		if typ != protowire.BytesType {
			return nil
		}
		switch num {
		case 3:
			return decodeTripUpdate(value, feed)
		case 4:
			return decodeVehiclePosition(value, feed)
		}
		return nil
	})
}

func decodeTripUpdate(data []byte, feed *Feed) error {
	var tripID, routeID string
	type stopEvent struct {
		stopID   string
		sequence uint32
		arrTime  int64
		arrDelay int32
		hasTime  bool
	}
	var events []stopEvent

	err := eachField(data, func(num protowire.Number, typ protowire.Type, value []byte, _ uint64) error {
		if typ != protowire.BytesType {
			return nil
		}
		switch num {
		case 1: // trip descriptor
			return eachField(value, func(num protowire.Number, typ protowire.Type, value []byte, _ uint64) error {
				if typ != protowire.BytesType {
					return nil
				}
				switch num {
				case 1:
					tripID = string(value)
				case 5:
					routeID = string(value)
				}
				return nil
			})
		case 2: // stop_time_update
			ev := stopEvent{}
			err := eachField(value, func(num protowire.Number, typ protowire.Type, value []byte, varint uint64) error {
				switch num {
				case 1:
					if typ == protowire.VarintType {
						ev.sequence = uint32(varint)
					}
				case 2: // arrival StopTimeEvent
					if typ == protowire.BytesType {
						return eachField(value, func(num protowire.Number, typ protowire.Type, _ []byte, varint uint64) error {
							if typ != protowire.VarintType {
								return nil
							}
							switch num {
							case 1:
								ev.arrDelay = int32(int64(varint))
							case 2:
								ev.arrTime = int64(varint)
								ev.hasTime = true
							}
							return nil
						})
					}
				case 4:
					if typ == protowire.BytesType {
						ev.stopID = string(value)
					}
				}
				return nil
			})
			if err != nil {
				return err
			}
			events = append(events, ev)
		}
		return nil
	})
	if err != nil {
		return err
	}
	for _, ev := range events {
		if !ev.hasTime {
			continue
		}
		feed.TripUpdates = append(feed.TripUpdates, TripUpdate{
			TripID:       tripID,
			RouteID:      routeID,
			StopID:       ev.stopID,
			ArrivalTime:  ev.arrTime,
			DelaySeconds: ev.arrDelay,
			StopSequence: ev.sequence,
		})
	}
	return nil
}

func decodeVehiclePosition(data []byte, feed *Feed) error {
	vp := VehiclePosition{}
	err := eachField(data, func(num protowire.Number, typ protowire.Type, value []byte, varint uint64) error {
		switch num {
		case 1: // trip descriptor
			if typ == protowire.BytesType {
				return eachField(value, func(num protowire.Number, typ protowire.Type, value []byte, _ uint64) error {
					if typ != protowire.BytesType {
						return nil
					}
					switch num {
					case 1:
						vp.TripID = string(value)
					case 5:
						vp.RouteID = string(value)
					}
					return nil
				})
			}
		case 2: // position
			if typ == protowire.BytesType {
				return eachField(value, func(num protowire.Number, typ protowire.Type, _ []byte, varint uint64) error {
					if typ != protowire.Fixed32Type {
						return nil
					}
					f := float64(math.Float32frombits(uint32(varint)))
					switch num {
					case 1:
						vp.Latitude = f
					case 2:
						vp.Longitude = f
					case 3:
						vp.Bearing = f
					case 5:
						vp.Speed = f
					}
					return nil
				})
			}
		case 3:
			if typ == protowire.VarintType {
				vp.StopSequence = uint32(varint)
			}
		case 4:
			if typ == protowire.VarintType {
				vp.CurrentStatus = VehicleStopStatus(varint)
			}
		case 5:
			if typ == protowire.VarintType {
				vp.Timestamp = int64(varint)
			}
		case 7:
			if typ == protowire.BytesType {
				vp.StopID = string(value)
			}
		case 8: // vehicle descriptor
			if typ == protowire.BytesType {
				return eachField(value, func(num protowire.Number, typ protowire.Type, value []byte, _ uint64) error {
					if num == 1 && typ == protowire.BytesType {
						vp.VehicleID = string(value)
					}
					return nil
				})
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	feed.VehiclePositions = append(feed.VehiclePositions, vp)
	return nil
}

// eachField walks one message's fields. For bytes fields the payload is
// passed in value; for varint and fixed fields the raw integer is passed in
// varint. Unknown fields are skipped.
func eachField(data []byte, fn func(num protowire.Number, typ protowire.Type, value []byte, varint uint64) error) error {
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return fmt.Errorf("gtfsrt: malformed tag: %w", protowire.ParseError(n))
		}
		data = data[n:]
		var value []byte
		var raw uint64
		switch typ {
		case protowire.VarintType:
			v, n := protowire.ConsumeVarint(data)
			if n < 0 {
				return fmt.Errorf("gtfsrt: malformed varint: %w", protowire.ParseError(n))
			}
			raw, data = v, data[n:]
		case protowire.Fixed32Type:
			v, n := protowire.ConsumeFixed32(data)
			if n < 0 {
				return fmt.Errorf("gtfsrt: malformed fixed32: %w", protowire.ParseError(n))
			}
			raw, data = uint64(v), data[n:]
		case protowire.Fixed64Type:
			v, n := protowire.ConsumeFixed64(data)
			if n < 0 {
				return fmt.Errorf("gtfsrt: malformed fixed64: %w", protowire.ParseError(n))
			}
			raw, data = v, data[n:]
		case protowire.BytesType:
			v, n := protowire.ConsumeBytes(data)
			if n < 0 {
				return fmt.Errorf("gtfsrt: malformed length-delimited field: %w", protowire.ParseError(n))
			}
			value, data = v, data[n:]
		default:
			n := protowire.ConsumeFieldValue(num, typ, data)
			if n < 0 {
				return fmt.Errorf("gtfsrt: malformed field %d: %w", num, protowire.ParseError(n))
			}
			data = data[n:]
			continue
		}
		if err := fn(num, typ, value, raw); err != nil {
			return err
		}
	}
	return nil
}
