package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/nerrad567/zoneshadow/internal/controller"
	"github.com/nerrad567/zoneshadow/internal/infrastructure/config"
	"github.com/nerrad567/zoneshadow/internal/infrastructure/logging"
	"github.com/nerrad567/zoneshadow/internal/journal"
	"github.com/nerrad567/zoneshadow/internal/process"
)

// Server timeouts.
const (
	gracefulShutdownTimeout = 10 * time.Second
	readTimeout             = 5 * time.Second
	writeTimeout            = 10 * time.Second
	idleTimeout             = 60 * time.Second
)

// ZoneSource supplies zone status. *controller.Ref satisfies it.
type ZoneSource interface {
	Snapshot() []controller.ZoneStatus
	Zone(deviceID string) (controller.ZoneStatus, bool)
}

// HistorySource reads the actuation journal.
type HistorySource interface {
	History(ctx context.Context, deviceID string, limit int) ([]journal.Entry, error)
}

// SupervisorInfo reports the controller supervisor state.
type SupervisorInfo interface {
	Info() process.Info
}

// Deps holds the dependencies required by the API server.
type Deps struct {
	Config     config.APIConfig
	Logger     *logging.Logger
	Zones      ZoneSource
	History    HistorySource
	Supervisor SupervisorInfo
	Gatherer   prometheus.Gatherer

	// Connected reports whether the broker session is up. Optional.
	Connected func() bool

	Version string
}

// Server is the HTTP status server.
type Server struct {
	cfg        config.APIConfig
	logger     *logging.Logger
	zones      ZoneSource
	history    HistorySource
	supervisor SupervisorInfo
	gatherer   prometheus.Gatherer
	connected  func() bool
	version    string
	startTime  time.Time
	server     *http.Server
}

// New creates a new API server with the given dependencies.
//
// The server is not started until Start() is called.
//
// Returns:
//   - *Server: Configured server ready to start
//   - error: If the logger is missing
func New(deps Deps) (*Server, error) {
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	s := &Server{
		cfg:        deps.Config,
		logger:     deps.Logger,
		zones:      deps.Zones,
		history:    deps.History,
		supervisor: deps.Supervisor,
		gatherer:   deps.Gatherer,
		connected:  deps.Connected,
		version:    deps.Version,
		startTime:  time.Now(),
	}
	if s.gatherer == nil {
		s.gatherer = prometheus.DefaultGatherer
	}
	return s, nil
}

// Start begins listening for HTTP connections in a background goroutine.
// The server can be stopped with Close().
func (s *Server) Start(_ context.Context) error {
	s.server = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port),
		Handler:           s.buildRouter(),
		ReadTimeout:       readTimeout,
		ReadHeaderTimeout: readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
	}

	go func() {
		s.logger.Info("API server starting", "address", s.server.Addr)
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("API server error", "error", err)
		}
	}()

	return nil
}

// Close gracefully shuts down the API server.
//
// It waits up to 10 seconds for in-flight requests to complete,
// then forcefully closes remaining connections.
func (s *Server) Close() error {
	if s.server == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
	defer cancel()

	s.logger.Info("API server shutting down")
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down API server: %w", err)
	}
	return nil
}
