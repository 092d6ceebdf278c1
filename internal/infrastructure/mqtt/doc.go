// Package mqtt provides the publish/subscribe transport for Cathodic Core.
//
// It wraps the Eclipse Paho MQTT client with:
//
//   - Connection lifecycle management (connect, reconnect, graceful close)
//   - Last Will and Testament on cathodic/system/status for crash detection
//   - Tracked subscriptions that are restored automatically after reconnect
//   - Panic-recovering handler wrappers
//   - Topic builders for the fleet's fixed topic layout
//
// # Topic Layout
//
// Device-facing topics match the firmware's fixed scheme:
//
//	devices/{device_id}/data      device -> server telemetry (JSON)
//	devices/{device_id}/commands  bidirectional: server settings frames,
//	                              device acknowledgments
//
// Server-side topics are namespaced under cathodic/:
//
//	cathodic/system/status        server online/offline status (retained)
//	cathodic/core/notify/{event}  command lifecycle notifications
//
// # Usage
//
//	client, err := mqtt.Connect(cfg.MQTT)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	topics := mqtt.Topics{}
//	err = client.Subscribe(topics.AllDeviceData(), 1, handleTelemetry)
//
// The transport is treated as a black box by the protocol layer: delivery
// guarantees come from QoS, and device connectivity is inferred from message
// cadence, not from transport connection state.
package mqtt
