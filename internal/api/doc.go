// Package api implements the read-only HTTP status server for zoneshadow.
//
// This package provides:
//   - Health endpoint reporting broker connectivity and supervisor state
//   - Zone status endpoints backed by the running controller
//   - Actuation history from the SQLite journal
//   - Prometheus metrics exposition
//   - Middleware stack (request ID, logging, recovery)
//
// Nothing here changes zone state; the shadow is the only way to drive a
// zone.
//
// # Graceful Degradation
//
// Every dependency except the logger is optional. Without a journal the
// history endpoint answers 503; without a controller the zone list is empty.
package api
