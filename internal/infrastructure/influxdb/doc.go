// Package influxdb provides time-series storage for device telemetry.
//
// Inbound telemetry readings, connectivity transitions, and command
// outcomes are written to InfluxDB v2 for dashboarding and long-term
// trend analysis. Writes are non-blocking and batched; losing a point
// under backpressure is acceptable, losing a command frame is not -
// which is why command state lives in the dispatcher, not here.
//
// The sink is optional: when disabled in configuration the telemetry
// router simply skips the write path.
package influxdb
