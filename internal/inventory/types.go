package inventory

import "time"

// Device represents one inventory record: a piece of field equipment
// tracked by the service. The server owns id and timestamps; serial
// number and type are write-once and never appear in update payloads.
type Device struct {
	// Identity
	ID           string `json:"id"`
	Name         string `json:"name"`
	SerialNumber string `json:"serial_number"`

	// Classification (set at creation, immutable afterwards)
	Type DeviceType `json:"type"`

	// Operational state
	Status          Status `json:"status"`
	FirmwareVersion string `json:"firmware_version"`

	// Optional placement note, nil when not recorded
	Location *string `json:"location,omitempty"`

	// Telemetry
	LastSeenAt *time.Time `json:"last_seen_at,omitempty"`

	// Timestamps
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Clone creates an independent copy of the Device.
// Pointer fields are re-allocated so modifications to the copy do not
// affect the original. This is essential for cache isolation.
func (d *Device) Clone() *Device {
	if d == nil {
		return nil
	}

	cpy := *d

	if d.Location != nil {
		loc := *d.Location
		cpy.Location = &loc
	}
	if d.LastSeenAt != nil {
		seen := *d.LastSeenAt
		cpy.LastSeenAt = &seen
	}

	return &cpy
}

// CreateInput carries the caller-supplied fields for a new device.
// The server assigns id, created_at and updated_at; status defaults
// to offline until the first heartbeat arrives.
type CreateInput struct {
	Name            string     `json:"name"`
	SerialNumber    string     `json:"serial_number"`
	Type            DeviceType `json:"type"`
	FirmwareVersion string     `json:"firmware_version"`
	Location        *string    `json:"location,omitempty"`
}

// UpdateInput carries a partial update for an existing device.
// A nil field is left unchanged server-side; a pointer to the empty
// string clears Location. SerialNumber and Type are deliberately
// absent: both are write-once.
type UpdateInput struct {
	ID              string  `json:"id"`
	Name            *string `json:"name,omitempty"`
	Status          *Status `json:"status,omitempty"`
	FirmwareVersion *string `json:"firmware_version,omitempty"`
	Location        *string `json:"location,omitempty"`
}

// DeviceType classifies what kind of equipment a device is.
type DeviceType string

// DeviceType constants.
const (
	TypeSensor     DeviceType = "sensor"
	TypeGateway    DeviceType = "gateway"
	TypeCamera     DeviceType = "camera"
	TypeController DeviceType = "controller"
	TypeActuator   DeviceType = "actuator"
	TypeTracker    DeviceType = "tracker"
)

// AllDeviceTypes returns all valid device type values.
func AllDeviceTypes() []DeviceType {
	return []DeviceType{
		TypeSensor, TypeGateway, TypeCamera,
		TypeController, TypeActuator, TypeTracker,
	}
}

// Status represents the operational state of a device.
type Status string

// Status constants.
const (
	StatusOnline      Status = "online"
	StatusOffline     Status = "offline"
	StatusError       Status = "error"
	StatusMaintenance Status = "maintenance"
)

// AllStatuses returns all valid status values.
func AllStatuses() []Status {
	return []Status{StatusOnline, StatusOffline, StatusError, StatusMaintenance}
}
