package gpio

import (
	"fmt"

	"github.com/nerrad567/zoneshadow/internal/infrastructure/config"
	"github.com/nerrad567/zoneshadow/internal/zone"
)

// NewDriver returns the output driver named by cfg.Driver.
//
// Returns:
//   - zone.OutputDriver: periph.io hardware driver or in-memory mock
//   - error: wrapping ErrUnknownDriver, or a host initialisation failure
func NewDriver(cfg config.GPIOConfig) (zone.OutputDriver, error) {
	switch cfg.Driver {
	case config.GPIODriverPeriph, "":
		d, err := NewPeriphDriver()
		if err != nil {
			return nil, err
		}
		return d, nil
	case config.GPIODriverMock:
		return NewMockDriver(), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, cfg.Driver)
	}
}
