package mqtt

import (
	"fmt"
	"strings"
)

// Topic prefixes for the cathodic-protection fleet.
//
// Device topics are device-scoped under the devices/ prefix and match the
// firmware's fixed topic layout. Core topics carry server-side status and
// notification traffic and are namespaced under cathodic/.
const (
	// TopicPrefixDevices is the base for all device-facing topics.
	// Layout: devices/{device_id}/{channel}
	TopicPrefixDevices = "devices"

	// TopicPrefixCore is the base for server-side topics.
	TopicPrefixCore = "cathodic/core"

	// TopicPrefixSystem is the base for system topics.
	TopicPrefixSystem = "cathodic/system"
)

// Topics provides builders for fleet MQTT topics.
// Using these helpers ensures consistent topic naming across the codebase.
//
//	topics := mqtt.Topics{}
//	cmdTopic := topics.DeviceCommands("123")
//	// Returns: "devices/123/commands"
type Topics struct{}

// DeviceData returns the telemetry topic for a device.
//
// Example: devices/123/data
func (Topics) DeviceData(deviceID string) string {
	return fmt.Sprintf("%s/%s/data", TopicPrefixDevices, deviceID)
}

// DeviceCommands returns the bidirectional command topic for a device.
// The server publishes full settings frames here; the device publishes
// acknowledgments on the same topic.
//
// Example: devices/123/commands
func (Topics) DeviceCommands(deviceID string) string {
	return fmt.Sprintf("%s/%s/commands", TopicPrefixDevices, deviceID)
}

// CoreNotification returns the topic for server-side push notifications
// about command lifecycle events (sent, acknowledged, timeout).
//
// Example: cathodic/core/notify/command_timeout
func (Topics) CoreNotification(eventType string) string {
	return fmt.Sprintf("%s/notify/%s", TopicPrefixCore, eventType)
}

// SystemStatus returns the system status topic used for the server's
// online/offline announcements and Last Will.
//
// Example: cathodic/system/status
func (Topics) SystemStatus() string {
	return fmt.Sprintf("%s/status", TopicPrefixSystem)
}

// AllDeviceData returns a pattern matching telemetry from every device.
//
// Pattern: devices/+/data
func (Topics) AllDeviceData() string {
	return fmt.Sprintf("%s/+/data", TopicPrefixDevices)
}

// AllDeviceCommands returns a pattern matching the command channel of
// every device. Both server frames and device acknowledgments arrive here.
//
// Pattern: devices/+/commands
func (Topics) AllDeviceCommands() string {
	return fmt.Sprintf("%s/+/commands", TopicPrefixDevices)
}

// DeviceIDFromTopic extracts the device ID segment from a device-scoped
// topic such as devices/123/data. Returns "" if the topic does not match
// the devices/{id}/{channel} layout.
func DeviceIDFromTopic(topic string) string {
	parts := strings.Split(topic, "/")
	if len(parts) != 3 || parts[0] != TopicPrefixDevices || parts[1] == "" || parts[2] == "" {
		return ""
	}
	return parts[1]
}
