package zone

// Level is the electrical level of an output line.
type Level bool

const (
	Low  Level = false
	High Level = true
)

// String returns "HIGH" or "LOW".
func (l Level) String() string {
	if l {
		return "HIGH"
	}
	return "LOW"
}

// Output is a single acquired output line.
type Output interface {
	// Set drives the line to the given level.
	Set(level Level) error

	// Close releases the line.
	Close() error
}

// OutputDriver acquires output lines by an opaque, driver-specific pin name.
//
// Implementations live in internal/hardware/gpio.
type OutputDriver interface {
	Acquire(pin string) (Output, error)
}
