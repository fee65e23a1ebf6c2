//go:build integration

package mqtt

import (
	"sync"
	"testing"
	"time"

	"github.com/nerrad567/zoneshadow/internal/infrastructure/config"
)

// Integration tests against a live broker.
// These tests require a plain-TCP MQTT broker at 127.0.0.1:1883.
//
// Run with:
//   go test -tags=integration -count=1 -v ./internal/infrastructure/mqtt/...

func integrationConfig(clientID string) config.IoTConfig {
	return config.IoTConfig{
		ClientID:  clientID,
		Host:      "127.0.0.1",
		Port:      1883,
		KeepAlive: 10,
		Reconnect: config.ReconnectConfig{MaxDelay: 5},
	}
}

func TestIntegration_PublishSubscribeRoundTrip(t *testing.T) {
	client, err := Connect(integrationConfig("zoneshadow-int-roundtrip"))
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	defer client.Close()

	topic := "things/int-test/shadow/update/delta"
	received := make(chan []byte, 1)
	if err := client.Subscribe(topic, 0, func(_ string, payload []byte) error {
		received <- payload
		return nil
	}); err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}

	want := `{"state":{"state":"ON"}}`
	if err := client.Publish(topic, []byte(want), 0, false); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}

	select {
	case got := <-received:
		if string(got) != want {
			t.Errorf("payload = %s, want %s", got, want)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timeout waiting for message")
	}
}

func TestIntegration_MessageOrderPreserved(t *testing.T) {
	client, err := Connect(integrationConfig("zoneshadow-int-order"))
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	defer client.Close()

	topic := "things/int-order/shadow/update/delta"
	var mu sync.Mutex
	var got []string
	done := make(chan struct{})
	const count = 20

	if err := client.Subscribe(topic, 0, func(_ string, payload []byte) error {
		mu.Lock()
		defer mu.Unlock()
		got = append(got, string(payload))
		if len(got) == count {
			close(done)
		}
		return nil
	}); err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}

	for i := 0; i < count; i++ {
		payload := []byte{byte('a' + i)}
		if err := client.Publish(topic, payload, 0, false); err != nil {
			t.Fatalf("Publish(%d) error = %v", i, err)
		}
	}

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatalf("received %d of %d messages", len(got), count)
	}

	mu.Lock()
	defer mu.Unlock()
	for i, p := range got {
		if p != string(rune('a'+i)) {
			t.Fatalf("message %d = %q, out of order", i, p)
		}
	}
}

func TestIntegration_ConnectRefusedIsFatal(t *testing.T) {
	cfg := integrationConfig("zoneshadow-int-refused")
	cfg.Port = 19999

	if _, err := Connect(cfg); err == nil {
		t.Fatal("Connect() expected error for closed port")
	}
}
