package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// WriteReading writes a single telemetry reading to InfluxDB.
//
// This is the primary method for recording device telemetry data.
// The write is non-blocking; data is batched and sent asynchronously.
//
// Parameters:
//   - deviceID: Unique identifier for the device (e.g., "123")
//   - field: The reading name (e.g., "Shunt Current", "Reference UP")
//   - value: The numeric value to record
//
// Example:
//
//	client.WriteReading("123", "Shunt Current", 16.8)
//	client.WriteReading("123", "Reference UP", -1.12)
func (c *Client) WriteReading(deviceID string, field string, value float64) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"telemetry",
		map[string]string{
			"device_id": deviceID,
			"field":     field,
		},
		map[string]interface{}{
			"value": value,
		},
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}

// WriteConnectivity records a device connectivity transition.
//
// Connectivity is inferred from message cadence by the liveness tracker;
// this measurement gives dashboards a history of online/offline changes.
//
// Parameters:
//   - deviceID: Device identifier
//   - connected: Whether the device is currently considered connected
func (c *Client) WriteConnectivity(deviceID string, connected bool) {
	if !c.IsConnected() {
		return
	}

	state := 0.0
	if connected {
		state = 1.0
	}

	point := write.NewPoint(
		"connectivity",
		map[string]string{
			"device_id": deviceID,
		},
		map[string]interface{}{
			"connected": state,
		},
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}

// WriteCommandResult records the outcome of a dispatched settings frame.
//
// Parameters:
//   - deviceID: Device identifier
//   - status: Terminal command status (SUCCESS, FAILED, TIMEOUT)
//   - responseTime: Time from dispatch to acknowledgment (zero for TIMEOUT)
func (c *Client) WriteCommandResult(deviceID string, status string, responseTime time.Duration) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"command_results",
		map[string]string{
			"device_id": deviceID,
			"status":    status,
		},
		map[string]interface{}{
			"response_time_ms": float64(responseTime.Milliseconds()),
		},
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}

// WritePoint writes a custom point with full control over tags and fields.
//
// Use this for custom measurements that don't fit the helper methods.
//
// Parameters:
//   - measurement: The measurement name (table)
//   - tags: Key-value pairs for indexing (low cardinality)
//   - fields: Key-value pairs for the actual data
func (c *Client) WritePoint(measurement string, tags map[string]string, fields map[string]interface{}) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(measurement, tags, fields, time.Now())
	c.writeAPI.WritePoint(point)
}
