package process

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

// Status represents the current state of a supervised function.
type Status string

const (
	StatusStopped    Status = "stopped"
	StatusRunning    Status = "running"
	StatusRestarting Status = "restarting"
	StatusFailed     Status = "failed"
)

// defaultRestartDelay is the cooldown between a failure and the rebuild.
const defaultRestartDelay = 5 * time.Second

// ErrMaxRestarts is returned by Run when MaxRestartAttempts is exhausted.
var ErrMaxRestarts = errors.New("process: max restart attempts reached")

// Config holds supervisor configuration.
type Config struct {
	// Name is a human-readable identifier for logging.
	Name string

	// RestartDelay is the time to wait before running again after a failure.
	RestartDelay time.Duration

	// MaxRestartAttempts limits restart attempts. 0 means unlimited.
	MaxRestartAttempts int

	// OnRestart is called before each restart attempt.
	OnRestart func(attempt int, cause error)
}

// Logger defines the logging interface for the supervisor.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Supervisor runs a function until its context is cancelled, running it
// again after a cooldown whenever it fails.
//
// The function is expected to build everything it needs (connections,
// hardware handles) on entry and release it on return, so that each restart
// starts from a clean slate.
type Supervisor struct {
	config Config
	logger Logger

	mu           sync.RWMutex
	status       Status
	restartCount int
	lastError    error
	startTime    time.Time
}

// NewSupervisor creates a supervisor. A nil logger disables logging.
func NewSupervisor(cfg Config, logger Logger) *Supervisor {
	if cfg.RestartDelay <= 0 {
		cfg.RestartDelay = defaultRestartDelay
	}
	if logger == nil {
		logger = noopLogger{}
	}
	return &Supervisor{
		config: cfg,
		logger: logger,
		status: StatusStopped,
	}
}

// Run calls fn and keeps calling it after failures.
//
// A nil return or a return caused by ctx cancellation ends supervision.
// Any other error is logged and fn is called again after RestartDelay.
//
// Returns:
//   - nil: fn finished cleanly or ctx was cancelled
//   - error: wrapping ErrMaxRestarts with the last failure
func (s *Supervisor) Run(ctx context.Context, fn func(ctx context.Context) error) error {
	for {
		s.setRunning()

		err := fn(ctx)

		if err == nil || ctx.Err() != nil {
			s.setStatus(StatusStopped, nil)
			s.logger.Info("supervised run finished", "name", s.config.Name)
			return nil
		}

		s.mu.Lock()
		s.restartCount++
		attempt := s.restartCount
		s.lastError = err
		s.mu.Unlock()

		if s.config.MaxRestartAttempts > 0 && attempt > s.config.MaxRestartAttempts {
			s.setStatus(StatusFailed, err)
			s.logger.Error("max restart attempts reached",
				"name", s.config.Name,
				"attempts", s.config.MaxRestartAttempts,
				"error", err,
			)
			return fmt.Errorf("%w: %s: %w", ErrMaxRestarts, s.config.Name, err)
		}

		s.setStatus(StatusRestarting, err)
		s.logger.Error("supervised run failed, restarting",
			"name", s.config.Name,
			"attempt", attempt,
			"delay", s.config.RestartDelay,
			"error", err,
		)

		if s.config.OnRestart != nil {
			s.config.OnRestart(attempt, err)
		}

		select {
		case <-ctx.Done():
			s.setStatus(StatusStopped, err)
			s.logger.Info("context cancelled, not restarting", "name", s.config.Name)
			return nil
		case <-time.After(s.config.RestartDelay):
		}
	}
}

func (s *Supervisor) setRunning() {
	s.mu.Lock()
	s.status = StatusRunning
	s.startTime = time.Now()
	s.mu.Unlock()
}

func (s *Supervisor) setStatus(status Status, err error) {
	s.mu.Lock()
	s.status = status
	if err != nil {
		s.lastError = err
	}
	s.mu.Unlock()
}

// RestartCount returns how many times fn has been restarted.
func (s *Supervisor) RestartCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.restartCount
}

// Info is a point-in-time view of the supervisor.
type Info struct {
	Name         string        `json:"name"`
	Status       Status        `json:"status"`
	RestartCount int           `json:"restart_count"`
	LastError    string        `json:"last_error,omitempty"`
	Uptime       time.Duration `json:"uptime_ns,omitempty"`
}

// Info returns the current supervisor state.
func (s *Supervisor) Info() Info {
	s.mu.RLock()
	defer s.mu.RUnlock()

	info := Info{
		Name:         s.config.Name,
		Status:       s.status,
		RestartCount: s.restartCount,
	}
	if s.lastError != nil {
		info.LastError = s.lastError.Error()
	}
	if s.status == StatusRunning {
		info.Uptime = time.Since(s.startTime)
	}
	return info
}
