package gpio

import "errors"

var (
	// ErrUnknownDriver is returned by NewDriver for an unsupported driver name.
	ErrUnknownDriver = errors.New("gpio: unknown driver")

	// ErrHostInit is returned when periph.io host drivers fail to load.
	ErrHostInit = errors.New("gpio: host initialisation failed")

	// ErrPinNotFound is returned when a pin name does not resolve to a line.
	ErrPinNotFound = errors.New("gpio: pin not found")

	// ErrPinBusy is returned when a pin is already held by another zone.
	ErrPinBusy = errors.New("gpio: pin already acquired")
)
