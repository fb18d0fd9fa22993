package arrivals

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
)

// Server exposes the engines over HTTP. One server hosts every configured
// feed; requests select a feed by query parameter, defaulting to the first
// one registered.
type Server struct {
	httpServer  *http.Server
	engines     map[string]*Engine
	defaultFeed string
}

// NewServer wires the API routes over the given engines. The engines slice
// must not be empty; its first entry becomes the default feed.
func NewServer(port int, engines []*Engine) (*Server, error) {
	if len(engines) == 0 {
		return nil, errors.New("server: no engines to serve")
	}
	s := &Server{
		engines:     make(map[string]*Engine, len(engines)),
		defaultFeed: engines[0].Name(),
	}
	for _, e := range engines {
		s.engines[e.Name()] = e
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/health", s.handleHealth)
	mux.HandleFunc("GET /api/stops/{id}/arrivals", s.handleArrivals)
	mux.HandleFunc("GET /api/stops/{id}/timetable", s.handleTimetable)
	mux.HandleFunc("GET /api/vehicles", s.handleVehicles)
	mux.HandleFunc("POST /api/refresh", s.handleRefresh)

	s.httpServer = &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s, nil
}

// Handler exposes the routed mux, mainly for tests.
func (s *Server) Handler() http.Handler { return s.httpServer.Handler }

// Start listens in a background goroutine and returns immediately. Listen
// errors other than a clean close are fatal.
func (s *Server) Start() {
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server error")
		}
	}()
	log.Info().Str("addr", s.httpServer.Addr).Msg("server listening")
}

// Shutdown drains in-flight requests within the given timeout.
func (s *Server) Shutdown(timeout time.Duration) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := s.httpServer.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("server shutdown error")
		return
	}
	log.Info().Msg("server shut down")
}

// WaitForShutdown blocks until SIGINT or SIGTERM, then drains the server.
func (s *Server) WaitForShutdown() {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	<-sigs
	log.Info().Msg("shutdown signal received")
	s.Shutdown(10 * time.Second)
}
