package mqtt

import "fmt"

// Topic prefixes for the Inventory Core MQTT hierarchy.
//
// Device-originated traffic uses the flat scheme:
// inventory/{category}/{device_id}. Core-originated traffic lives
// under inventory/core.
const (
	// TopicPrefix is the base for all inventory topics.
	TopicPrefix = "inventory"

	// TopicPrefixCore is the base for core-published topics.
	TopicPrefixCore = "inventory/core"

	// TopicPrefixSystem is the base for system topics.
	TopicPrefixSystem = "inventory/system"
)

// Topics provides builders for Inventory Core MQTT topics.
// Using these helpers ensures consistent topic naming across the codebase.
//
//	topics := mqtt.Topics{}
//	hb := topics.DeviceHeartbeat("dev-42")
//	// Returns: "inventory/heartbeat/dev-42"
type Topics struct{}

// DeviceHeartbeat returns the topic a device publishes heartbeats on.
//
// Example: inventory/heartbeat/dev-42
func (Topics) DeviceHeartbeat(deviceID string) string {
	return fmt.Sprintf("%s/heartbeat/%s", TopicPrefix, deviceID)
}

// DeviceStatus returns the canonical device status topic.
// This is the authoritative status published by Core after processing
// heartbeats and API updates.
//
// Example: inventory/core/device/dev-42/status
func (Topics) DeviceStatus(deviceID string) string {
	return fmt.Sprintf("%s/device/%s/status", TopicPrefixCore, deviceID)
}

// CoreEvent returns the topic for inventory events.
//
// Example: inventory/core/event/device.created
func (Topics) CoreEvent(eventType string) string {
	return fmt.Sprintf("%s/event/%s", TopicPrefixCore, eventType)
}

// SystemStatus returns the system status topic, also used for the LWT.
//
// Example: inventory/system/status
func (Topics) SystemStatus() string {
	return fmt.Sprintf("%s/status", TopicPrefixSystem)
}

// AllHeartbeats returns a pattern matching every device heartbeat.
//
// Pattern: inventory/heartbeat/+
func (Topics) AllHeartbeats() string {
	return fmt.Sprintf("%s/heartbeat/+", TopicPrefix)
}

// AllDeviceStatuses returns a pattern matching all canonical statuses.
//
// Pattern: inventory/core/device/+/status
func (Topics) AllDeviceStatuses() string {
	return fmt.Sprintf("%s/device/+/status", TopicPrefixCore)
}

// AllCoreEvents returns a pattern matching all inventory events.
//
// Pattern: inventory/core/event/+
func (Topics) AllCoreEvents() string {
	return fmt.Sprintf("%s/event/+", TopicPrefixCore)
}

// AllTopics returns a pattern matching all inventory topics.
// Use with caution - this receives ALL traffic.
//
// Pattern: inventory/#
func (Topics) AllTopics() string {
	return "inventory/#"
}
