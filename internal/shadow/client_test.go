package shadow

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/nerrad567/zoneshadow/internal/infrastructure/mqtt"
)

type publishCall struct {
	topic    string
	payload  string
	qos      byte
	retained bool
}

// fakeTransport records subscribe and publish calls.
type fakeTransport struct {
	mu        sync.Mutex
	calls     []string // "sub:<topic>" / "pub:<topic>" in order
	published []publishCall
	handlers  map[string]mqtt.MessageHandler
	subQoS    []byte
	subErr    error
	pubErr    error
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{handlers: make(map[string]mqtt.MessageHandler)}
}

func (f *fakeTransport) Subscribe(topic string, qos byte, handler mqtt.MessageHandler) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.subErr != nil {
		return f.subErr
	}
	f.calls = append(f.calls, "sub:"+topic)
	f.handlers[topic] = handler
	f.subQoS = append(f.subQoS, qos)
	return nil
}

func (f *fakeTransport) Publish(topic string, payload []byte, qos byte, retained bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.pubErr != nil {
		return f.pubErr
	}
	f.calls = append(f.calls, "pub:"+topic)
	f.published = append(f.published, publishCall{topic, string(payload), qos, retained})
	return nil
}

// recordingLogger captures warning messages.
type recordingLogger struct {
	noopLogger
	mu    sync.Mutex
	warns []string
}

func (l *recordingLogger) Warn(msg string, _ ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.warns = append(l.warns, msg)
}

func (l *recordingLogger) warnings() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.warns)
}

func newTestClient(transport Transport) *Client {
	return NewClient(transport, WithSettleDelay(0))
}

// receive waits briefly for the next event.
func receive(t *testing.T, c *Client) Event {
	t.Helper()
	select {
	case e := <-c.Events():
		return e
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for event")
		return Event{}
	}
}

// expectNoEvent fails if an event arrives within a short window.
func expectNoEvent(t *testing.T, c *Client) {
	t.Helper()
	select {
	case e := <-c.Events():
		t.Fatalf("unexpected event %+v", e)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestRequestShadow_SubscribesThenPublishes(t *testing.T) {
	ft := newFakeTransport()
	var slept []time.Duration
	c := NewClient(ft, WithSettleDelay(250*time.Millisecond))
	c.sleep = func(d time.Duration) { slept = append(slept, d) }
	defer c.Close()

	if err := c.RequestShadow("pump-01"); err != nil {
		t.Fatalf("RequestShadow() error = %v", err)
	}

	want := []string{"sub:things/pump-01/shadow/get/accepted", "pub:things/pump-01/shadow/get"}
	if len(ft.calls) != 2 || ft.calls[0] != want[0] || ft.calls[1] != want[1] {
		t.Errorf("calls = %v, want %v", ft.calls, want)
	}
	if ft.published[0].payload != "{}" || ft.published[0].qos != 0 || ft.published[0].retained {
		t.Errorf("get publish = %+v", ft.published[0])
	}
	if len(slept) != 1 || slept[0] != 250*time.Millisecond {
		t.Errorf("settle sleeps = %v, want [250ms]", slept)
	}
}

func TestRequestShadow_SubscribeFailureSkipsPublish(t *testing.T) {
	ft := newFakeTransport()
	ft.subErr = mqtt.ErrNotConnected
	c := newTestClient(ft)
	defer c.Close()

	err := c.RequestShadow("pump-01")
	if !errors.Is(err, ErrTransportOp) || !errors.Is(err, mqtt.ErrNotConnected) {
		t.Errorf("RequestShadow() error = %v, want ErrTransportOp wrapping ErrNotConnected", err)
	}
	if len(ft.published) != 0 {
		t.Error("published despite subscribe failure")
	}
}

func TestSubscribeToDelta(t *testing.T) {
	ft := newFakeTransport()
	c := newTestClient(ft)
	defer c.Close()

	if err := c.SubscribeToDelta("pump-01"); err != nil {
		t.Fatalf("SubscribeToDelta() error = %v", err)
	}
	if len(ft.calls) != 1 || ft.calls[0] != "sub:things/pump-01/shadow/update/delta" {
		t.Errorf("calls = %v", ft.calls)
	}
	if ft.subQoS[0] != 0 {
		t.Errorf("qos = %d, want 0", ft.subQoS[0])
	}
}

func TestReportState(t *testing.T) {
	ft := newFakeTransport()
	c := newTestClient(ft)
	defer c.Close()

	if err := c.ReportState("pump-01", true); err != nil {
		t.Fatalf("ReportState() error = %v", err)
	}
	got := ft.published[0]
	if got.topic != "things/pump-01/shadow/update" || got.payload != `{"state":{"reported":{"state":"ON"}}}` {
		t.Errorf("published %+v", got)
	}
	if got.qos != 0 || got.retained {
		t.Errorf("qos/retained = %d/%v, want 0/false", got.qos, got.retained)
	}

	ft.pubErr = mqtt.ErrPublishFailed
	if err := c.ReportState("pump-01", false); !errors.Is(err, ErrTransportOp) {
		t.Errorf("ReportState() error = %v, want ErrTransportOp", err)
	}
}

func TestHandleMessage_ProducesEvents(t *testing.T) {
	ft := newFakeTransport()
	c := newTestClient(ft)
	defer c.Close()

	_ = c.RequestShadow("pump-01")
	_ = c.SubscribeToDelta("pump-01")

	// Deliver through the handler the transport was given.
	getDoc := `{"state":{"desired":{"state":"ON"}}}`
	deltaDoc := `{"state":{"state":"OFF"}}`
	_ = ft.handlers["things/pump-01/shadow/get/accepted"]("things/pump-01/shadow/get/accepted", []byte(getDoc))
	_ = ft.handlers["things/pump-01/shadow/update/delta"]("things/pump-01/shadow/update/delta", []byte(deltaDoc))

	e := receive(t, c)
	if e.Kind != EventGetResponse || e.DeviceID != "pump-01" || string(e.Document) != getDoc {
		t.Errorf("first event = %+v", e)
	}
	e = receive(t, c)
	if e.Kind != EventDeltaUpdate || e.DeviceID != "pump-01" || string(e.Document) != deltaDoc {
		t.Errorf("second event = %+v", e)
	}
}

func TestHandleMessage_DropsBadInput(t *testing.T) {
	c := newTestClient(newFakeTransport())
	defer c.Close()

	inputs := []struct{ topic, payload string }{
		{"things/pump-01/shadow/get/rejected", `{}`},
		{"things//shadow/get/accepted", `{}`},
		{"things/pump-01/shadow/update/accepted", `{}`},
		{"things/pump-01/shadow/get/accepted", `{not json`},
		{"unrelated/topic", `{}`},
	}
	for _, in := range inputs {
		if err := c.HandleMessage(in.topic, []byte(in.payload)); err != nil {
			t.Errorf("HandleMessage(%q) error = %v, want nil", in.topic, err)
		}
	}

	expectNoEvent(t, c)
}

func TestHandleMessage_UnhandledActionWarns(t *testing.T) {
	logger := &recordingLogger{}
	c := NewClient(newFakeTransport(), WithSettleDelay(0), WithLogger(logger))
	defer c.Close()

	topics := []string{
		"things/x/shadow/delete/accepted",
		"things/x/shadow/get/rejected",
		"things/x/shadow/update/accepted",
	}
	for _, topic := range topics {
		_ = c.HandleMessage(topic, []byte(`{}`))
	}

	if got := logger.warnings(); got != len(topics) {
		t.Errorf("logged %d warnings, want %d", got, len(topics))
	}
	expectNoEvent(t, c)
}

func TestHandleMessage_CopiesPayload(t *testing.T) {
	c := newTestClient(newFakeTransport())
	defer c.Close()

	payload := []byte(`{"state":{"state":"ON"}}`)
	_ = c.HandleMessage("things/a/shadow/update/delta", payload)
	copy(payload, []byte(`{"state":{"state":"XX"}}`))

	e := receive(t, c)
	if string(e.Document) != `{"state":{"state":"ON"}}` {
		t.Errorf("Document = %s, payload buffer was aliased", e.Document)
	}
}

func TestReconnectEdgeDetection(t *testing.T) {
	c := newTestClient(newFakeTransport())
	defer c.Close()

	// Initial connect notification: already connected, nothing emitted.
	c.HandleConnected()
	expectNoEvent(t, c)

	c.HandleConnectionLost(errors.New("keepalive timeout"))
	c.HandleConnected()
	c.HandleConnected()

	e := receive(t, c)
	if e.Kind != EventReconnected {
		t.Fatalf("event = %v, want reconnected", e.Kind)
	}
	expectNoEvent(t, c)

	// Repeated loss notifications still yield one event per edge.
	c.HandleConnectionLost(nil)
	c.HandleConnectionLost(nil)
	c.HandleConnected()
	if e := receive(t, c); e.Kind != EventReconnected {
		t.Fatalf("event = %v, want reconnected", e.Kind)
	}
	expectNoEvent(t, c)
}

// The transport may report a loss before it ever repeats the initial
// connect notification.
func TestConnectionLostBeforeFirstReconnect(t *testing.T) {
	c := newTestClient(newFakeTransport())
	defer c.Close()

	c.HandleConnectionLost(errors.New("EOF"))
	c.HandleConnected()

	if e := receive(t, c); e.Kind != EventReconnected {
		t.Fatalf("event = %v, want reconnected", e.Kind)
	}
	expectNoEvent(t, c)
}

func TestPending(t *testing.T) {
	c := newTestClient(newFakeTransport())
	defer c.Close()

	if c.Pending() != 0 {
		t.Fatalf("Pending() = %d on empty queue", c.Pending())
	}

	for i := 0; i < 3; i++ {
		_ = c.HandleMessage("things/a/shadow/update/delta", []byte(`{}`))
	}

	// The pump holds one event while waiting for a receiver.
	deadline := time.Now().Add(time.Second)
	for c.Pending() != 2 {
		if time.Now().After(deadline) {
			t.Fatalf("Pending() = %d, want 2", c.Pending())
		}
		time.Sleep(5 * time.Millisecond)
	}

	for i := 0; i < 3; i++ {
		receive(t, c)
	}
	if c.Pending() != 0 {
		t.Errorf("Pending() = %d after draining, want 0", c.Pending())
	}
}

func TestEventsPreserveArrivalOrder(t *testing.T) {
	c := newTestClient(newFakeTransport())
	defer c.Close()

	const n = 200
	for i := 0; i < n; i++ {
		id := string(rune('a' + i%26))
		_ = c.HandleMessage("things/"+id+"/shadow/update/delta", []byte(`{"state":{"state":"ON"}}`))
	}

	for i := 0; i < n; i++ {
		e := receive(t, c)
		if want := string(rune('a' + i%26)); e.DeviceID != want {
			t.Fatalf("event %d device = %q, want %q", i, e.DeviceID, want)
		}
	}
}

func TestHandleMessage_NeverBlocksWithoutConsumer(t *testing.T) {
	c := newTestClient(newFakeTransport())
	defer c.Close()

	done := make(chan struct{})
	go func() {
		for i := 0; i < 10000; i++ {
			_ = c.HandleMessage("things/a/shadow/update/delta", []byte(`{}`))
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("HandleMessage blocked with no consumer")
	}
}

func TestClose_ClosesEvents(t *testing.T) {
	c := newTestClient(newFakeTransport())
	_ = c.HandleMessage("things/a/shadow/update/delta", []byte(`{}`))
	c.Close()
	c.Close()

	deadline := time.After(time.Second)
	for {
		select {
		case _, ok := <-c.Events():
			if !ok {
				// Pushing after close is a silent drop.
				_ = c.HandleMessage("things/a/shadow/update/delta", []byte(`{}`))
				c.HandleConnectionLost(nil)
				c.HandleConnected()
				return
			}
		case <-deadline:
			t.Fatal("Events() not closed after Close")
		}
	}
}
