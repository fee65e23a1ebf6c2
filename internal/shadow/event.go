package shadow

import "encoding/json"

// EventKind identifies what happened on the transport.
type EventKind int

const (
	// EventReconnected is emitted once per disconnected to connected edge.
	EventReconnected EventKind = iota + 1

	// EventGetResponse carries a full shadow document from get/accepted.
	EventGetResponse

	// EventDeltaUpdate carries a desired-state delta from update/delta.
	EventDeltaUpdate
)

// String returns a short name for logs and metric labels.
func (k EventKind) String() string {
	switch k {
	case EventReconnected:
		return "reconnected"
	case EventGetResponse:
		return "get_response"
	case EventDeltaUpdate:
		return "delta_update"
	default:
		return "unknown"
	}
}

// Event is one item on the client's event queue.
//
// DeviceID and Document are empty for EventReconnected. Document is always
// syntactically valid JSON for the other kinds.
type Event struct {
	Kind     EventKind
	DeviceID string
	Document json.RawMessage
}
