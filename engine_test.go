package arrivals

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	gtfsrtpb "github.com/MobilityData/gtfs-realtime-bindings/golang/gtfs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/proto"

	"github.com/transitmap/arrivals/config"
)

func writeStaticFeed(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	tables := map[string]string{
		"stops.txt":  "stop_id,stop_name,stop_lat,stop_lon\nS1,Main St,41.38,2.17\n",
		"routes.txt": "route_id,route_short_name,route_long_name,route_color\nR1,42,Crosstown,FF0000\n",
		"trips.txt":  "route_id,service_id,trip_id,trip_headsign\nR1,SVC1,T1,Downtown\n",
		"stop_times.txt": "trip_id,stop_id,arrival_time,departure_time,stop_sequence\n" +
			"T1,S1,08:00:00,08:00:00,1\n",
		"calendar.txt": "service_id,monday,tuesday,wednesday,thursday,friday,saturday,sunday,start_date,end_date\n" +
			"SVC1,1,1,1,1,1,1,1,20250101,20251231\n",
	}
	for name, content := range tables {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}
	return dir
}

// delayedFeedBytes is a trip-update feed putting trip T1 five minutes
// late at stop S1, plus one vehicle position.
func delayedFeedBytes(t *testing.T, scheduled time.Time) []byte {
	t.Helper()
	msg := &gtfsrtpb.FeedMessage{
		Header: &gtfsrtpb.FeedHeader{
			GtfsRealtimeVersion: proto.String("2.0"),
			Timestamp:           proto.Uint64(uint64(scheduled.Add(-time.Hour).Unix())),
		},
		Entity: []*gtfsrtpb.FeedEntity{
			{
				Id: proto.String("tu-1"),
				TripUpdate: &gtfsrtpb.TripUpdate{
					Trip: &gtfsrtpb.TripDescriptor{
						TripId:  proto.String("T1"),
						RouteId: proto.String("R1"),
					},
					StopTimeUpdate: []*gtfsrtpb.TripUpdate_StopTimeUpdate{{
						StopId: proto.String("S1"),
						Arrival: &gtfsrtpb.TripUpdate_StopTimeEvent{
							Time:  proto.Int64(scheduled.Unix()),
							Delay: proto.Int32(300),
						},
					}},
				},
			},
			{
				Id: proto.String("vp-1"),
				Vehicle: &gtfsrtpb.VehiclePosition{
					Trip:    &gtfsrtpb.TripDescriptor{TripId: proto.String("T1")},
					Vehicle: &gtfsrtpb.VehicleDescriptor{Id: proto.String("BUS7")},
					Position: &gtfsrtpb.Position{
						Latitude:  proto.Float32(41.39),
						Longitude: proto.Float32(2.18),
					},
				},
			},
		},
	}
	data, err := proto.Marshal(msg)
	require.NoError(t, err)
	return data
}

func testEngineConfig() config.EngineConfig {
	return config.EngineConfig{
		RefreshIntervalS:   120,
		ShortHorizonMin:    120,
		FullHorizonMin:     1440,
		MergeToleranceMin:  10,
		MaxArrivalsPerStop: 10,
	}
}

func TestEngineScheduleOnlyThenRealtime(t *testing.T) {
	staticDir := writeStaticFeed(t)
	now := at(7, 0)
	scheduled := at(8, 0)

	feedSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(delayedFeedBytes(t, scheduled))
	}))
	defer feedSrv.Close()

	engine, err := NewEngine(config.Feed{
		Name:   "city",
		GTFS:   config.GTFSConfig{StaticPath: staticDir},
		GTFSRT: config.GTFSRTConfig{TripUpdatesURL: feedSrv.URL, TimeoutMS: 2000},
	}, testEngineConfig())
	require.NoError(t, err)
	engine.now = func() time.Time { return now }

	// Before any refresh the board is schedule-only.
	list := engine.Arrivals("S1")
	require.Len(t, list, 1)
	assert.Equal(t, "42", list[0].Route)
	assert.Equal(t, scheduled, list[0].Time.UTC())
	assert.False(t, list[0].Realtime)
	assert.Equal(t, "scheduled", list[0].StatusLabel())

	require.NoError(t, engine.Refresh(context.Background()))

	list = engine.Arrivals("S1")
	require.Len(t, list, 1)
	assert.True(t, list[0].Realtime)
	assert.Equal(t, scheduled.Add(5*time.Minute), list[0].Time.UTC())
	assert.Equal(t, "delayed 5 min", list[0].StatusLabel())
	assert.Equal(t, 65, list[0].MinutesAway)

	vehicles := engine.Vehicles()
	require.Len(t, vehicles, 1)
	assert.Equal(t, "BUS7", vehicles[0].VehicleID)
	assert.Equal(t, scheduled.Add(-time.Hour).Unix(), engine.LatestFeedTimestamp())
}

func TestEngineFetchFailureDegrades(t *testing.T) {
	staticDir := writeStaticFeed(t)
	feedSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer feedSrv.Close()

	engine, err := NewEngine(config.Feed{
		Name:   "city",
		GTFS:   config.GTFSConfig{StaticPath: staticDir},
		GTFSRT: config.GTFSRTConfig{TripUpdatesURL: feedSrv.URL, TimeoutMS: 2000},
	}, testEngineConfig())
	require.NoError(t, err)
	engine.now = func() time.Time { return at(7, 0) }

	require.NoError(t, engine.Refresh(context.Background()))

	list := engine.Arrivals("S1")
	require.Len(t, list, 1)
	assert.False(t, list[0].Realtime)
	assert.Empty(t, engine.Vehicles())
}

func TestEngineScheduleCache(t *testing.T) {
	staticDir := writeStaticFeed(t)
	cachePath := filepath.Join(t.TempDir(), "schedule.gob")
	feedCfg := config.Feed{
		Name: "city",
		GTFS: config.GTFSConfig{StaticPath: staticDir, CachePath: cachePath},
	}

	first, err := NewEngine(feedCfg, testEngineConfig())
	require.NoError(t, err)
	require.NotNil(t, first.Stats())
	require.FileExists(t, cachePath)

	// The second engine reads the cache and never runs the CSV pass.
	second, err := NewEngine(feedCfg, testEngineConfig())
	require.NoError(t, err)
	assert.Nil(t, second.Stats())
	assert.Equal(t, first.Index().StopCount(), second.Index().StopCount())
}

func TestEngineTimetableUncapped(t *testing.T) {
	engine := NewEngineFromSchedule("city", testSchedule(), config.EngineConfig{
		ShortHorizonMin:    120,
		FullHorizonMin:     1440,
		MergeToleranceMin:  10,
		MaxArrivalsPerStop: 1,
	})
	engine.now = func() time.Time { return at(7, 0) }

	assert.Len(t, engine.Arrivals("S1"), 1)  // capped live view
	assert.Len(t, engine.Timetable("S1"), 3) // full day, no cap
}
