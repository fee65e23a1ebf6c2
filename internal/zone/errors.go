package zone

import "errors"

// ErrHardware is returned by SetState when an output line write fails.
// The zone's cached state is left unchanged so the same transition can be retried.
var ErrHardware = errors.New("zone: hardware write failed")
