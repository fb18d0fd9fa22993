package gtfsrt

import (
	"github.com/rs/zerolog/log"
)

// Strategy is one way of decoding a binary feed message.
type Strategy interface {
	Name() string
	Decode(data []byte) (*Feed, error)
}

// Decoder tries an ordered list of strategies until one succeeds.
// Real-time enrichment is always optional: when every strategy fails the
// decoder hands back an empty feed, never an error that aborts the caller.
type Decoder struct {
	strategies []Strategy
}

// NewDecoder returns the default chain: the generated bindings first, the
// minimal wire-format decoder as fallback.
func NewDecoder() *Decoder {
	return &Decoder{strategies: []Strategy{bindingsStrategy{}, wireStrategy{}}}
}

// NewDecoderWithStrategies builds a decoder with an explicit chain, in
// order of preference.
func NewDecoderWithStrategies(strategies ...Strategy) *Decoder {
	return &Decoder{strategies: strategies}
}

// Decode decodes one feed message. The result is never nil; it is empty
// when data is empty or no strategy could decode it.
func (d *Decoder) Decode(data []byte) *Feed {
	if len(data) == 0 {
		return &Feed{}
	}
	for _, s := range d.strategies {
		feed, err := s.Decode(data)
		if err != nil {
			log.Warn().Str("strategy", s.Name()).Err(err).Msg("Feed decode strategy failed")
			continue
		}
		log.Debug().
			Str("strategy", s.Name()).
			Int("trip_updates", len(feed.TripUpdates)).
			Int("vehicle_positions", len(feed.VehiclePositions)).
			Msg("Decoded realtime feed")
		return feed
	}
	log.Warn().Int("bytes", len(data)).Msg("All decode strategies failed; continuing without realtime data")
	return &Feed{}
}
