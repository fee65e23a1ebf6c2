package gpio

import (
	"fmt"
	"sync"

	periphgpio "periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"

	"github.com/nerrad567/zoneshadow/internal/zone"
)

var (
	hostInitOnce sync.Once
	hostInitErr  error
)

// initHost loads the periph.io host drivers exactly once per process.
func initHost() error {
	hostInitOnce.Do(func() {
		_, hostInitErr = host.Init()
	})
	return hostInitErr
}

// PeriphDriver drives real GPIO lines through periph.io.
//
// Pin names are whatever gpioreg understands on the host, e.g. "GPIO17"
// on a Raspberry Pi.
type PeriphDriver struct {
	mu   sync.Mutex
	held map[string]bool
}

// NewPeriphDriver initialises the host and returns a hardware driver.
func NewPeriphDriver() (*PeriphDriver, error) {
	if err := initHost(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrHostInit, err)
	}
	return &PeriphDriver{held: make(map[string]bool)}, nil
}

// Acquire resolves pin by name and returns it as an output line.
// The line's level is not changed until the first Set.
func (d *PeriphDriver) Acquire(pin string) (zone.Output, error) {
	p := gpioreg.ByName(pin)
	if p == nil {
		return nil, fmt.Errorf("%w: %s", ErrPinNotFound, pin)
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.held[pin] {
		return nil, fmt.Errorf("%w: %s", ErrPinBusy, pin)
	}
	d.held[pin] = true

	return &periphOutput{pin: p, name: pin, driver: d}, nil
}

func (d *PeriphDriver) release(name string) {
	d.mu.Lock()
	delete(d.held, name)
	d.mu.Unlock()
}

type periphOutput struct {
	pin    periphgpio.PinIO
	name   string
	driver *PeriphDriver
}

func (o *periphOutput) Set(level zone.Level) error {
	l := periphgpio.Low
	if level == zone.High {
		l = periphgpio.High
	}
	if err := o.pin.Out(l); err != nil {
		return fmt.Errorf("setting %s %s: %w", o.name, level, err)
	}
	return nil
}

func (o *periphOutput) Close() error {
	defer o.driver.release(o.name)
	if err := o.pin.Halt(); err != nil {
		return fmt.Errorf("halting %s: %w", o.name, err)
	}
	return nil
}
