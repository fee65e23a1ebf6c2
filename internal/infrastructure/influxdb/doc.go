// Package influxdb writes zone state telemetry to InfluxDB v2.
//
// Every successful zone transition becomes one zone_state point:
//
//	zone_state,device_id=pump-01,source=delta,zone=Irrigation on=1i
//
// Writes are batched and non-blocking, so a slow or unreachable InfluxDB
// never delays hardware switching. Asynchronous write failures are
// reported through SetOnError.
//
// # Usage
//
//	client, err := influxdb.Connect(cfg.InfluxDB)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	client.WriteZoneState("pump-01", "Irrigation", true, "delta")
package influxdb
