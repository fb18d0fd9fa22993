package arrivals

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/transitmap/arrivals/gtfsrt"
)

type healthResponse struct {
	Status          string           `json:"status"`
	Feeds           map[string]int64 `json:"latest_feed_epochs"`
	LatestFeedEpoch int64            `json:"latest_feed_epoch"`
}

type arrivalItem struct {
	Arrival
	Status    string `json:"status"`
	Countdown string `json:"countdown"`
}

type arrivalsResponse struct {
	Feed     string        `json:"feed"`
	StopID   string        `json:"stopId"`
	StopName string        `json:"stopName,omitempty"`
	Arrivals []arrivalItem `json:"arrivals"`
}

type vehiclesResponse struct {
	Feed     string                   `json:"feed"`
	Vehicles []gtfsrt.VehiclePosition `json:"vehicles"`
}

// engineFor resolves the feed query parameter, writing a 404 and returning
// nil when the feed is unknown.
func (s *Server) engineFor(w http.ResponseWriter, r *http.Request) *Engine {
	name := r.URL.Query().Get("feed")
	if name == "" {
		name = s.defaultFeed
	}
	e, ok := s.engines[name]
	if !ok {
		writeError(w, http.StatusNotFound, "unknown feed "+name)
		return nil
	}
	return e
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{Status: "ok", Feeds: make(map[string]int64, len(s.engines))}
	for name, e := range s.engines {
		ts := e.LatestFeedTimestamp()
		resp.Feeds[name] = ts
		if ts > resp.LatestFeedEpoch {
			resp.LatestFeedEpoch = ts
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleArrivals(w http.ResponseWriter, r *http.Request) {
	e := s.engineFor(w, r)
	if e == nil {
		return
	}
	s.writeArrivals(w, e, r.PathValue("id"), e.Arrivals(r.PathValue("id")))
}

func (s *Server) handleTimetable(w http.ResponseWriter, r *http.Request) {
	e := s.engineFor(w, r)
	if e == nil {
		return
	}
	s.writeArrivals(w, e, r.PathValue("id"), e.Timetable(r.PathValue("id")))
}

func (s *Server) writeArrivals(w http.ResponseWriter, e *Engine, stopID string, list []Arrival) {
	now := time.Now()
	resp := arrivalsResponse{
		Feed:     e.Name(),
		StopID:   stopID,
		Arrivals: make([]arrivalItem, 0, len(list)),
	}
	if stop, ok := e.Index().Stop(stopID); ok {
		resp.StopName = stop.Name
	}
	for _, a := range list {
		resp.Arrivals = append(resp.Arrivals, arrivalItem{
			Arrival:   a,
			Status:    a.StatusLabel(),
			Countdown: Countdown(a.Time, now),
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleVehicles(w http.ResponseWriter, r *http.Request) {
	e := s.engineFor(w, r)
	if e == nil {
		return
	}
	vehicles := e.Vehicles()
	if vehicles == nil {
		vehicles = []gtfsrt.VehiclePosition{}
	}
	writeJSON(w, http.StatusOK, vehiclesResponse{Feed: e.Name(), Vehicles: vehicles})
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	e := s.engineFor(w, r)
	if e == nil {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()
	if err := e.Refresh(ctx); err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":            "refreshed",
		"feed":              e.Name(),
		"latest_feed_epoch": e.LatestFeedTimestamp(),
	})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("failed to encode response")
	}
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}
