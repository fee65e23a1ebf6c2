package shadow

import (
	"encoding/json"
	"fmt"
)

// Shadow state values.
const (
	StateOn  = "ON"
	StateOff = "OFF"
)

// IsOn maps a desired-state string to a zone state. Only "ON" is on;
// every other value, including lowercase "on", is off.
func IsOn(value string) bool {
	return value == StateOn
}

// StateString returns the canonical shadow value for a zone state.
func StateString(on bool) string {
	if on {
		return StateOn
	}
	return StateOff
}

// stateValue is the innermost {"state": "..."} object.
type stateValue struct {
	State *string `json:"state"`
}

// getAcceptedDocument is the part of a get/accepted payload we read.
//
//	{"state": {"desired": {"state": "ON"}, "reported": {...}}, "version": 7}
type getAcceptedDocument struct {
	State *struct {
		Desired *stateValue `json:"desired"`
	} `json:"state"`
}

// deltaDocument is the part of an update/delta payload we read.
//
//	{"state": {"state": "OFF"}, "version": 8}
type deltaDocument struct {
	State *stateValue `json:"state"`
}

// reportedDocument is published to the update topic.
type reportedDocument struct {
	State struct {
		Reported struct {
			State string `json:"state"`
		} `json:"reported"`
	} `json:"state"`
}

// DecodeDesiredState extracts state.desired.state from a get/accepted document.
//
// Returns an error wrapping ErrDecode when the field is missing, is not a
// string, or the document is not a JSON object.
func DecodeDesiredState(doc []byte) (string, error) {
	var d getAcceptedDocument
	if err := json.Unmarshal(doc, &d); err != nil {
		return "", fmt.Errorf("%w: get document: %w", ErrDecode, err)
	}
	if d.State == nil || d.State.Desired == nil || d.State.Desired.State == nil {
		return "", fmt.Errorf("%w: get document has no state.desired.state", ErrDecode)
	}
	return *d.State.Desired.State, nil
}

// DecodeDeltaState extracts state.state from an update/delta document.
//
// Returns an error wrapping ErrDecode on any other shape.
func DecodeDeltaState(doc []byte) (string, error) {
	var d deltaDocument
	if err := json.Unmarshal(doc, &d); err != nil {
		return "", fmt.Errorf("%w: delta document: %w", ErrDecode, err)
	}
	if d.State == nil || d.State.State == nil {
		return "", fmt.Errorf("%w: delta document has no state.state", ErrDecode)
	}
	return *d.State.State, nil
}

// EncodeReported builds the reported-state document for a zone state:
//
//	{"state":{"reported":{"state":"ON"}}}
func EncodeReported(on bool) ([]byte, error) {
	var d reportedDocument
	d.State.Reported.State = StateString(on)
	b, err := json.Marshal(d)
	if err != nil {
		return nil, fmt.Errorf("encoding reported state: %w", err)
	}
	return b, nil
}
