// Package controller keeps local zones in step with their device shadows.
//
// On start, and again after every reconnect, the controller requests each
// zone's full shadow and subscribes to its deltas. It then applies events
// strictly one at a time, in arrival order:
//
//   - get response: apply state.desired.state, then always report it back
//   - delta: apply state.state, report only if the zone actually changed
//
// Bad documents, unknown devices, hardware failures and publish failures
// are logged and the event is dropped; the controller keeps running. Only
// the end of the event stream (ErrQueueClosed) stops Run with an error, at
// which point the supervisor rebuilds everything.
package controller
