package shadow

import "errors"

var (
	// ErrTransportOp is returned when a single subscribe or publish fails.
	// It is not fatal; the next resync or delta recovers.
	ErrTransportOp = errors.New("shadow: transport operation failed")

	// ErrDecode is returned when a shadow document has an unexpected shape.
	ErrDecode = errors.New("shadow: cannot decode document")
)
