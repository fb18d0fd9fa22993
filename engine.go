package arrivals

import (
	"context"
	"errors"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/transitmap/arrivals/config"
	"github.com/transitmap/arrivals/gtfs"
	"github.com/transitmap/arrivals/gtfsrt"
)

// feedSnapshot is one immutable decode result. The engine swaps the whole
// snapshot atomically; readers never see a partially refreshed feed.
type feedSnapshot struct {
	fetchedAt   time.Time
	timestamp   int64
	tripUpdates []gtfsrt.TripUpdate
	vehicles    []gtfsrt.VehiclePosition
}

// Engine owns one feed's schedule tables, derived indices, realtime
// decoder and merge configuration. All state lives on the Engine value;
// run several engines side by side for several networks.
type Engine struct {
	name    string
	feedCfg config.Feed
	opts    config.EngineConfig

	idx     *gtfs.ScheduleIndex
	stats   *gtfs.LoadStats
	decoder *gtfsrt.Decoder
	client  *gtfsrt.Client

	snapshot atomic.Pointer[feedSnapshot]

	// now is replaceable in tests.
	now func() time.Time
}

// NewEngine loads the feed's static schedule and prepares the realtime
// pipeline. When a cache path is configured and readable the gob cache
// replaces the CSV pass; a fresh CSV load rewrites the cache.
func NewEngine(feedCfg config.Feed, opts config.EngineConfig) (*Engine, error) {
	e := &Engine{
		name:    feedCfg.Name,
		feedCfg: feedCfg,
		opts:    opts,
		decoder: gtfsrt.NewDecoder(),
		client:  gtfsrt.NewClient(time.Duration(feedCfg.GTFSRT.TimeoutMS) * time.Millisecond),
		now:     time.Now,
	}
	if err := e.loadStatic(); err != nil {
		return nil, err
	}
	e.snapshot.Store(&feedSnapshot{})
	return e, nil
}

// NewEngineFromSchedule builds an engine over already-parsed tables. Used
// by tests and by callers that manage schedule loading themselves.
func NewEngineFromSchedule(name string, s *gtfs.Schedule, opts config.EngineConfig) *Engine {
	e := &Engine{
		name:    name,
		opts:    opts,
		idx:     gtfs.NewScheduleIndex(s),
		decoder: gtfsrt.NewDecoder(),
		client:  gtfsrt.NewClient(0),
		now:     time.Now,
	}
	e.snapshot.Store(&feedSnapshot{})
	return e
}

func (e *Engine) loadStatic() error {
	cachePath := e.feedCfg.GTFS.CachePath
	if cachePath != "" {
		if s, err := gtfs.DeserializeScheduleFromFile(cachePath); err == nil {
			log.Info().Str("feed", e.name).Str("cache", cachePath).Msg("loaded schedule from cache")
			e.idx = gtfs.NewScheduleIndex(s)
			return nil
		} else if !errors.Is(err, os.ErrNotExist) {
			log.Warn().Err(err).Str("feed", e.name).Str("cache", cachePath).Msg("schedule cache unreadable, reloading from source")
		}
	}

	s, stats, err := gtfs.LoadSchedule(e.feedCfg.GTFS.StaticPath)
	if err != nil {
		return err
	}
	e.stats = stats
	e.idx = gtfs.NewScheduleIndex(s)
	log.Info().
		Str("feed", e.name).
		Int("stops", e.idx.StopCount()).
		Msg("loaded schedule")

	if cachePath != "" {
		if err := gtfs.SerializeScheduleToFile(s, cachePath); err != nil {
			log.Warn().Err(err).Str("feed", e.name).Str("cache", cachePath).Msg("failed to write schedule cache")
		}
	}
	return nil
}

// Name returns the configured feed name.
func (e *Engine) Name() string { return e.name }

// Index exposes the schedule index for read-only consumers.
func (e *Engine) Index() *gtfs.ScheduleIndex { return e.idx }

// Stats returns the load statistics of the last CSV pass, nil when the
// schedule came from the cache.
func (e *Engine) Stats() *gtfs.LoadStats { return e.stats }

// Refresh fetches and decodes the trip-update and vehicle-position feeds
// concurrently and publishes the result as a new snapshot. A fetch or
// decode failure on either feed degrades to that feed's data being empty;
// Refresh only returns ctx errors. Concurrent calls are safe, the last
// completed swap wins.
func (e *Engine) Refresh(ctx context.Context) error {
	var wg sync.WaitGroup
	var tu, vp *gtfsrt.Feed

	fetch := func(url string, dst **gtfsrt.Feed) {
		defer wg.Done()
		data, err := e.client.Fetch(ctx, url)
		if err != nil {
			log.Warn().Err(err).Str("feed", e.name).Str("url", url).Msg("realtime fetch failed")
			return
		}
		if data == nil {
			return
		}
		*dst = e.decoder.Decode(data)
	}

	wg.Add(2)
	go fetch(e.feedCfg.GTFSRT.TripUpdatesURL, &tu)
	go fetch(e.feedCfg.GTFSRT.VehiclePositionsURL, &vp)
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return err
	}

	snap := &feedSnapshot{fetchedAt: e.now()}
	if tu != nil {
		snap.timestamp = tu.Timestamp
		snap.tripUpdates = tu.TripUpdates
		snap.vehicles = append(snap.vehicles, tu.VehiclePositions...)
	}
	if vp != nil {
		if vp.Timestamp > snap.timestamp {
			snap.timestamp = vp.Timestamp
		}
		snap.vehicles = append(snap.vehicles, vp.VehiclePositions...)
	}
	e.snapshot.Store(snap)
	log.Debug().
		Str("feed", e.name).
		Int("tripUpdates", len(snap.tripUpdates)).
		Int("vehicles", len(snap.vehicles)).
		Msg("published realtime snapshot")
	return nil
}

// GetArrivals projects the schedule at stopID within horizon, merges the
// latest realtime snapshot over it and caps the result at limit (0 = no
// cap). The result is always non-nil for a known stop with upcoming
// service and empty otherwise; realtime being unavailable yields a
// schedule-only list.
func (e *Engine) GetArrivals(stopID string, horizon time.Duration, limit int) []Arrival {
	now := e.now()
	scheduled := ProjectArrivals(e.idx, stopID, now, horizon, limit)
	snap := e.snapshot.Load()
	if snap == nil || len(snap.tripUpdates) == 0 {
		return scheduled
	}
	tolerance := time.Duration(e.opts.MergeToleranceMin) * time.Minute
	return MergeRealtime(e.idx, scheduled, snap.tripUpdates, now, tolerance)
}

// Arrivals is the live departure-board view: short horizon, per-stop cap.
func (e *Engine) Arrivals(stopID string) []Arrival {
	return e.GetArrivals(stopID, time.Duration(e.opts.ShortHorizonMin)*time.Minute, e.opts.MaxArrivalsPerStop)
}

// Timetable is the full-day view: long horizon, no cap.
func (e *Engine) Timetable(stopID string) []Arrival {
	return e.GetArrivals(stopID, time.Duration(e.opts.FullHorizonMin)*time.Minute, 0)
}

// Vehicles returns the vehicle positions from the latest snapshot.
func (e *Engine) Vehicles() []gtfsrt.VehiclePosition {
	snap := e.snapshot.Load()
	if snap == nil {
		return nil
	}
	return snap.vehicles
}

// LatestFeedTimestamp reports the newest feed header timestamp seen, 0
// before the first successful refresh.
func (e *Engine) LatestFeedTimestamp() int64 {
	snap := e.snapshot.Load()
	if snap == nil {
		return 0
	}
	return snap.timestamp
}

// Run refreshes immediately and then on the configured coarse interval
// until ctx is cancelled. The countdown scheduler ticks independently;
// Run is the only loop doing network I/O.
func (e *Engine) Run(ctx context.Context) {
	interval := time.Duration(e.opts.RefreshIntervalS) * time.Second
	if interval <= 0 {
		interval = time.Duration(config.DefaultRefreshIntervalS) * time.Second
	}
	if err := e.Refresh(ctx); err != nil {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := e.Refresh(ctx); err != nil {
				return
			}
		}
	}
}
