// Package shadow implements the device-shadow protocol on top of MQTT.
//
// For each device the client can request the full shadow document,
// subscribe to desired-state deltas, and publish the reported state:
//
//	things/{id}/shadow/get              publish "{}"
//	things/{id}/shadow/get/accepted     full document
//	things/{id}/shadow/update/delta     desired-state changes
//	things/{id}/shadow/update           reported state
//
// Incoming messages and reconnects are delivered through a single ordered
// event channel (Client.Events). The receive side never blocks the MQTT
// dispatcher, so subscribe acknowledgements keep flowing even while the
// consumer is busy switching hardware.
package shadow
