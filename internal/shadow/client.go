package shadow

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/nerrad567/zoneshadow/internal/infrastructure/mqtt"
)

// qos is used for every shadow subscribe and publish.
const qos byte = 0

// defaultSettleDelay is the pause between subscribing to get/accepted and
// publishing the request, so the broker has the subscription in place
// before the response is sent.
const defaultSettleDelay = 250 * time.Millisecond

// Transport is the subset of *mqtt.Client the shadow client needs.
type Transport interface {
	Subscribe(topic string, qos byte, handler mqtt.MessageHandler) error
	Publish(topic string, payload []byte, qos byte, retained bool) error
}

// Logger defines the logging interface for the shadow client.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Client speaks the device-shadow protocol over an MQTT transport and turns
// incoming traffic into an ordered stream of Events.
//
// Thread Safety:
//   - HandleMessage, HandleConnected and HandleConnectionLost may be called
//     from transport goroutines; they never block.
//   - RequestShadow, SubscribeToDelta and ReportState are called by the
//     single consumer of Events.
type Client struct {
	transport   Transport
	topics      Topics
	settleDelay time.Duration
	sleep       func(time.Duration)
	logger      Logger

	queue *eventQueue

	connMu    sync.Mutex
	connected bool
}

// Option configures a Client.
type Option func(*Client)

// WithSettleDelay overrides the pause between subscribing to get/accepted
// and publishing the get request.
func WithSettleDelay(d time.Duration) Option {
	return func(c *Client) {
		c.settleDelay = d
	}
}

// WithLogger sets the client logger.
func WithLogger(logger Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewClient creates a shadow client on top of a transport that is connected
// or about to make its first connection.
//
// The connection is assumed to be up, so the first HandleConnected call
// (the transport's own notification of the initial connect) emits nothing.
// Wire HandleConnected and HandleConnectionLost into the transport before
// it dials.
func NewClient(transport Transport, opts ...Option) *Client {
	c := &Client{
		transport:   transport,
		settleDelay: defaultSettleDelay,
		sleep:       time.Sleep,
		logger:      noopLogger{},
		queue:       newEventQueue(),
		connected:   true,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Events returns the ordered event stream. The channel is closed by Close.
func (c *Client) Events() <-chan Event {
	return c.queue.out
}

// Pending returns the number of queued events not yet received.
func (c *Client) Pending() int {
	return c.queue.len()
}

// Close stops the event stream. Queued events are discarded.
func (c *Client) Close() {
	c.queue.close()
}

// RequestShadow subscribes to the device's get/accepted topic and then
// asks the broker for the current shadow document.
func (c *Client) RequestShadow(deviceID string) error {
	if err := c.subscribe(c.topics.GetAccepted(deviceID), deviceID); err != nil {
		return err
	}

	c.sleep(c.settleDelay)

	if err := c.publish(c.topics.Get(deviceID), []byte("{}"), deviceID); err != nil {
		return err
	}

	c.logger.Debug("shadow requested", "device_id", deviceID)
	return nil
}

// SubscribeToDelta subscribes to the device's desired-state deltas.
func (c *Client) SubscribeToDelta(deviceID string) error {
	return c.subscribe(c.topics.Delta(deviceID), deviceID)
}

// ReportState publishes the zone's applied state as the shadow's reported state.
func (c *Client) ReportState(deviceID string, on bool) error {
	doc, err := EncodeReported(on)
	if err != nil {
		return fmt.Errorf("%w: report %s: %w", ErrTransportOp, deviceID, err)
	}
	return c.publish(c.topics.Update(deviceID), doc, deviceID)
}

func (c *Client) subscribe(topic, deviceID string) error {
	if err := c.transport.Subscribe(topic, qos, c.HandleMessage); err != nil {
		return fmt.Errorf("%w: subscribe %s for %s: %w", ErrTransportOp, topic, deviceID, err)
	}
	return nil
}

func (c *Client) publish(topic string, payload []byte, deviceID string) error {
	if err := c.transport.Publish(topic, payload, qos, false); err != nil {
		return fmt.Errorf("%w: publish %s for %s: %w", ErrTransportOp, topic, deviceID, err)
	}
	return nil
}

// HandleMessage is the transport receive callback.
//
// Recognised topics with valid JSON payloads become events. Everything else
// is logged and dropped. It always returns nil so the transport does not
// log a second time.
func (c *Client) HandleMessage(topic string, payload []byte) error {
	t, ok := ParseTopic(topic)
	if !ok {
		c.logger.Warn("dropping message on unrecognised topic", "topic", topic)
		return nil
	}

	var kind EventKind
	switch {
	case t.Action == ActionGet && t.Suffix == SuffixAccepted:
		kind = EventGetResponse
	case t.Action == ActionUpdate && t.Suffix == SuffixDelta:
		kind = EventDeltaUpdate
	default:
		c.logger.Warn("dropping message on unhandled shadow topic",
			"topic", topic,
			"device_id", t.DeviceID,
		)
		return nil
	}

	if !json.Valid(payload) {
		c.logger.Warn("dropping message with invalid JSON",
			"topic", topic,
			"device_id", t.DeviceID,
			"payload", string(payload),
		)
		return nil
	}

	doc := make(json.RawMessage, len(payload))
	copy(doc, payload)

	if !c.queue.push(Event{Kind: kind, DeviceID: t.DeviceID, Document: doc}) {
		c.logger.Debug("event queue closed, dropping message", "topic", topic)
	}
	return nil
}

// HandleConnectionLost records that the transport dropped the connection.
func (c *Client) HandleConnectionLost(err error) {
	c.connMu.Lock()
	c.connected = false
	c.connMu.Unlock()

	c.logger.Warn("shadow connection lost", "error", err)
}

// HandleConnected records a transport (re)connect. Only a transition from
// disconnected to connected emits EventReconnected.
func (c *Client) HandleConnected() {
	c.connMu.Lock()
	wasConnected := c.connected
	c.connected = true
	c.connMu.Unlock()

	if wasConnected {
		return
	}

	c.logger.Info("shadow connection restored")
	c.queue.push(Event{Kind: EventReconnected})
}
