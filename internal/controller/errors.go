package controller

import "errors"

var (
	// ErrUnknownZone is reported when an event names a device with no configured zone.
	ErrUnknownZone = errors.New("controller: unknown zone")

	// ErrQueueClosed is returned by Run when the event stream ends.
	// The caller must rebuild the client and controller.
	ErrQueueClosed = errors.New("controller: event queue closed")

	// ErrDuplicateZone is returned by New when two zones share a device id.
	ErrDuplicateZone = errors.New("controller: duplicate zone device id")
)
