package zone

import (
	"errors"
	"fmt"
	"time"

	"github.com/nerrad567/zoneshadow/internal/infrastructure/config"
)

// Logger defines the logging interface for zones.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// line is an acquired output together with its configured pin name.
type line struct {
	pin    string
	output Output
}

// Zone is a named group of output lines switched together.
//
// A Zone is owned by exactly one controller and is not safe for concurrent
// use. The cached state is what this process last applied successfully;
// it is never read back from hardware and starts OFF.
type Zone struct {
	name      string
	deviceID  string
	lines     []line
	delay     time.Duration
	activeLow bool
	state     bool

	sleep  func(time.Duration)
	logger Logger
}

// Option configures a Zone.
type Option func(*Zone)

// WithSleep replaces time.Sleep for the inter-line delay.
func WithSleep(sleep func(time.Duration)) Option {
	return func(z *Zone) {
		z.sleep = sleep
	}
}

// New creates a zone and acquires its output lines in configured order.
//
// Pins that cannot be acquired are logged and omitted; the zone still
// works with the remaining lines. New never fails.
//
// Parameters:
//   - cfg: Zone configuration (name, device id, pins, delay, polarity)
//   - driver: Hardware driver used to acquire each pin
//   - logger: Optional logger; nil disables logging
func New(cfg config.ZoneConfig, driver OutputDriver, logger Logger, opts ...Option) *Zone {
	if logger == nil {
		logger = noopLogger{}
	}

	z := &Zone{
		name:      cfg.Name,
		deviceID:  cfg.DeviceID,
		delay:     cfg.Delay(),
		activeLow: cfg.ActiveLow,
		sleep:     time.Sleep,
		logger:    logger,
	}
	for _, opt := range opts {
		opt(z)
	}

	for _, pin := range cfg.Pins {
		out, err := driver.Acquire(pin)
		if err != nil {
			logger.Error("failed to acquire output line, omitting it",
				"zone", cfg.Name,
				"device_id", cfg.DeviceID,
				"pin", pin,
				"error", err,
			)
			continue
		}
		z.lines = append(z.lines, line{pin: pin, output: out})
	}

	if len(z.lines) == 0 && len(cfg.Pins) > 0 {
		logger.Warn("zone has no working output lines", "zone", cfg.Name, "device_id", cfg.DeviceID)
	}

	return z
}

// Name returns the zone's display name.
func (z *Zone) Name() string { return z.name }

// DeviceID returns the shadow thing name the zone is bound to.
func (z *Zone) DeviceID() string { return z.deviceID }

// State returns the last successfully applied state (true = ON).
func (z *Zone) State() bool { return z.state }

// Lines returns the number of output lines the zone actually owns.
func (z *Zone) Lines() int { return len(z.lines) }

// LevelFor maps a logical state to the electrical level for this zone.
func (z *Zone) LevelFor(on bool) Level {
	return Level(on != z.activeLow)
}

// SetState drives every line to the level for desired, in configured order,
// pausing for the zone delay after each line.
//
// If desired equals the cached state nothing is written and changed is
// false. A write failure aborts the sequence: later lines are untouched,
// the cached state is kept, and the error wraps ErrHardware.
func (z *Zone) SetState(desired bool) (changed bool, err error) {
	if desired == z.state {
		return false, nil
	}

	level := z.LevelFor(desired)
	for i, l := range z.lines {
		if err := l.output.Set(level); err != nil {
			return false, fmt.Errorf("%w: zone %s pin %s (line %d of %d) to %s: %w",
				ErrHardware, z.name, l.pin, i+1, len(z.lines), level, err)
		}
		z.logger.Debug("output line switched", "zone", z.name, "pin", l.pin, "level", level.String())
		z.sleep(z.delay)
	}

	z.state = desired
	return true, nil
}

// Close releases every output line. Errors from individual lines are joined.
func (z *Zone) Close() error {
	var errs []error
	for _, l := range z.lines {
		if err := l.output.Close(); err != nil {
			errs = append(errs, fmt.Errorf("releasing pin %s: %w", l.pin, err))
		}
	}
	z.lines = nil
	return errors.Join(errs...)
}
