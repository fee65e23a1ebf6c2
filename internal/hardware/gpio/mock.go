package gpio

import (
	"errors"
	"fmt"
	"sync"

	"github.com/nerrad567/zoneshadow/internal/zone"
)

// Write is one recorded level change on a mock line.
type Write struct {
	Pin   string
	Level zone.Level
}

// MockDriver is an in-memory output driver.
//
// It records every write and supports per-pin failure injection. It backs
// the "mock" driver setting for development machines without GPIO, and the
// tests.
//
// Thread Safety:
//   - All methods are safe for concurrent use.
type MockDriver struct {
	mu          sync.Mutex
	levels      map[string]zone.Level
	held        map[string]bool
	writes      []Write
	failAcquire map[string]bool
	failWrite   map[string]bool
}

// NewMockDriver creates an empty mock driver.
func NewMockDriver() *MockDriver {
	return &MockDriver{
		levels:      make(map[string]zone.Level),
		held:        make(map[string]bool),
		failAcquire: make(map[string]bool),
		failWrite:   make(map[string]bool),
	}
}

// Acquire returns an in-memory line for pin.
func (m *MockDriver) Acquire(pin string) (zone.Output, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.failAcquire[pin] {
		return nil, fmt.Errorf("%w: %s", ErrPinNotFound, pin)
	}
	if m.held[pin] {
		return nil, fmt.Errorf("%w: %s", ErrPinBusy, pin)
	}
	m.held[pin] = true
	if _, ok := m.levels[pin]; !ok {
		m.levels[pin] = zone.Low
	}
	return &mockOutput{pin: pin, driver: m}, nil
}

// FailAcquire makes future Acquire calls for pin fail.
func (m *MockDriver) FailAcquire(pin string) {
	m.mu.Lock()
	m.failAcquire[pin] = true
	m.mu.Unlock()
}

// FailWrites makes Set on pin fail while fail is true.
func (m *MockDriver) FailWrites(pin string, fail bool) {
	m.mu.Lock()
	m.failWrite[pin] = fail
	m.mu.Unlock()
}

// Level returns the current level of pin and whether it was ever acquired.
func (m *MockDriver) Level(pin string) (zone.Level, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.levels[pin]
	return l, ok
}

// Writes returns a copy of every successful write, in order.
func (m *MockDriver) Writes() []Write {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Write, len(m.writes))
	copy(out, m.writes)
	return out
}

// Held reports whether pin is currently acquired.
func (m *MockDriver) Held(pin string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.held[pin]
}

type mockOutput struct {
	pin    string
	driver *MockDriver
	closed bool
}

func (o *mockOutput) Set(level zone.Level) error {
	m := o.driver
	m.mu.Lock()
	defer m.mu.Unlock()

	if o.closed {
		return fmt.Errorf("mock pin %s: %w", o.pin, errors.New("line released"))
	}
	if m.failWrite[o.pin] {
		return fmt.Errorf("mock pin %s: injected write failure", o.pin)
	}
	m.levels[o.pin] = level
	m.writes = append(m.writes, Write{Pin: o.pin, Level: level})
	return nil
}

func (o *mockOutput) Close() error {
	m := o.driver
	m.mu.Lock()
	defer m.mu.Unlock()
	if !o.closed {
		o.closed = true
		delete(m.held, o.pin)
	}
	return nil
}
