package shadow

import (
	"fmt"
	"regexp"
)

// TopicPrefix is the base of every shadow topic.
const TopicPrefix = "things"

// Topic actions and suffixes that appear on the receive path.
const (
	ActionGet    = "get"
	ActionUpdate = "update"

	SuffixAccepted = "accepted"
	SuffixDelta    = "delta"
)

// Topics provides builders for device-shadow topics.
//
//	topics := shadow.Topics{}
//	topics.Delta("pump-01")
//	// Returns: "things/pump-01/shadow/update/delta"
type Topics struct{}

// Get returns the topic a shadow request is published to.
//
// Example: things/pump-01/shadow/get
func (Topics) Get(deviceID string) string {
	return fmt.Sprintf("%s/%s/shadow/%s", TopicPrefix, deviceID, ActionGet)
}

// GetAccepted returns the topic the full shadow document arrives on.
//
// Example: things/pump-01/shadow/get/accepted
func (Topics) GetAccepted(deviceID string) string {
	return fmt.Sprintf("%s/%s/shadow/%s/%s", TopicPrefix, deviceID, ActionGet, SuffixAccepted)
}

// Delta returns the topic desired-state changes arrive on.
//
// Example: things/pump-01/shadow/update/delta
func (Topics) Delta(deviceID string) string {
	return fmt.Sprintf("%s/%s/shadow/%s/%s", TopicPrefix, deviceID, ActionUpdate, SuffixDelta)
}

// Update returns the topic reported state is published to.
//
// Example: things/pump-01/shadow/update
func (Topics) Update(deviceID string) string {
	return fmt.Sprintf("%s/%s/shadow/%s", TopicPrefix, deviceID, ActionUpdate)
}

// Topic is a decoded receive-path topic.
type Topic struct {
	DeviceID string
	Action   string
	Suffix   string
}

var topicPattern = regexp.MustCompile(`^things/([^/]+)/shadow/([^/]+)/(accepted|delta)$`)

// ParseTopic decodes a receive-path topic.
//
// It accepts "things/{id}/shadow/{action}/accepted" for any action and
// "things/{id}/shadow/update/delta". Anything else, including an empty
// device segment or extra trailing segments, reports false.
func ParseTopic(topic string) (Topic, bool) {
	m := topicPattern.FindStringSubmatch(topic)
	if m == nil {
		return Topic{}, false
	}

	t := Topic{DeviceID: m[1], Action: m[2], Suffix: m[3]}
	if t.Suffix == SuffixDelta && t.Action != ActionUpdate {
		return Topic{}, false
	}
	return t, true
}
