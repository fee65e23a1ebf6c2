// Package mqtt provides the MQTT session used to talk to the device-shadow
// service.
//
// This package manages:
//   - Mutually authenticated TLS (root CA, client certificate, private key)
//   - Connection with auto-reconnect after the first successful connect
//   - Publishing and subscribing with bounded waits
//   - Connection state notifications for the shadow layer
//
// # Reconnection
//
// A failed initial connect is returned as ErrConnectionFailed and is fatal
// for the caller. Once connected, paho reconnects on its own, doubling the
// delay from one second up to reconnect.max_delay. Subscriptions are not
// replayed; the owner receives SetOnConnect notifications and
// re-establishes what it needs. Register callbacks between NewClient and
// Client.Connect so the first drop is never missed.
//
// # Dispatch
//
// Messages are dispatched in order on a single paho goroutine. Handlers must
// not block, see MessageHandler.
//
// # Usage
//
//	client, err := mqtt.NewClient(cfg.IoT)
//	if err != nil {
//	    return err
//	}
//	client.SetOnDisconnect(func(err error) { log.Printf("lost: %v", err) })
//	if err := client.Connect(); err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	err = client.Subscribe("things/pump-01/shadow/update/delta", 0,
//	    func(topic string, payload []byte) error {
//	        log.Printf("delta on %s: %s", topic, payload)
//	        return nil
//	    })
package mqtt
