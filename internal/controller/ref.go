package controller

import "sync/atomic"

// Ref points at the controller currently running, if any.
//
// The supervisor builds a fresh controller after every fatal failure;
// status readers hold a Ref instead of a *Controller so they always see the
// live one.
type Ref struct {
	p atomic.Pointer[Controller]
}

// Set replaces the current controller. nil clears it.
func (r *Ref) Set(c *Controller) {
	r.p.Store(c)
}

// Snapshot returns the current controller's zone statuses, or nil while
// no controller is running.
func (r *Ref) Snapshot() []ZoneStatus {
	c := r.p.Load()
	if c == nil {
		return nil
	}
	return c.Snapshot()
}

// Zone returns one zone's status from the current controller.
func (r *Ref) Zone(deviceID string) (ZoneStatus, bool) {
	c := r.p.Load()
	if c == nil {
		return ZoneStatus{}, false
	}
	return c.Zone(deviceID)
}
