package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// MeasurementZoneState is the measurement zone transitions are written to.
const MeasurementZoneState = "zone_state"

// WriteZoneState records a zone's applied state.
//
// The write is non-blocking; points are batched and sent asynchronously.
//
// Parameters:
//   - deviceID: Shadow thing name (tag)
//   - zone: Zone display name (tag)
//   - on: Applied state, stored as field on=1 or on=0
//   - source: What triggered the change, "get" or "delta" (tag)
func (c *Client) WriteZoneState(deviceID, zone string, on bool, source string) {
	if !c.IsConnected() {
		return
	}
	c.writeAPI.WritePoint(newZoneStatePoint(deviceID, zone, on, source, time.Now()))
}

func newZoneStatePoint(deviceID, zone string, on bool, source string, ts time.Time) *write.Point {
	value := 0
	if on {
		value = 1
	}
	return write.NewPoint(
		MeasurementZoneState,
		map[string]string{
			"device_id": deviceID,
			"zone":      zone,
			"source":    source,
		},
		map[string]interface{}{
			"on": value,
		},
		ts,
	)
}
