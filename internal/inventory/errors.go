package inventory

import "errors"

// Domain errors for the inventory package.
//
// These errors can be checked using errors.Is() for error handling:
//
//	if errors.Is(err, inventory.ErrDeviceNotFound) {
//	    // handle not found case
//	}
//
// The ErrInvalid* family (plus ErrMissingID) classifies validation
// failures raised before any repository call; everything else coming
// out of a mutation is a collaborator failure propagated unchanged.
var (
	// ErrDeviceNotFound is returned when a device ID does not exist.
	ErrDeviceNotFound = errors.New("inventory: device not found")

	// ErrDeviceExists is returned when creating a device whose ID or
	// serial number already exists.
	ErrDeviceExists = errors.New("inventory: device already exists")

	// ErrInvalidDevice is returned when device validation fails.
	ErrInvalidDevice = errors.New("inventory: invalid device")

	// ErrInvalidName is returned when a device name is outside 3-50
	// characters after trimming.
	ErrInvalidName = errors.New("inventory: invalid name")

	// ErrInvalidSerialNumber is returned when a serial number does not
	// match the XX-000-XXX format.
	ErrInvalidSerialNumber = errors.New("inventory: invalid serial number")

	// ErrInvalidFirmware is returned when a firmware version is not a
	// strict X.Y.Z triplet.
	ErrInvalidFirmware = errors.New("inventory: invalid firmware version")

	// ErrInvalidDeviceType is returned when a device type is not recognised.
	ErrInvalidDeviceType = errors.New("inventory: invalid type")

	// ErrInvalidStatus is returned when a status value is not recognised.
	ErrInvalidStatus = errors.New("inventory: invalid status")

	// ErrMissingID is returned when an update or delete names no device.
	ErrMissingID = errors.New("inventory: device id is required")
)

// IsValidationError reports whether err was raised by input validation,
// as opposed to a failure surfaced from the repository or transport.
// Validation errors never reach the data-access layer.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidDevice) ||
		errors.Is(err, ErrInvalidName) ||
		errors.Is(err, ErrInvalidSerialNumber) ||
		errors.Is(err, ErrInvalidFirmware) ||
		errors.Is(err, ErrInvalidDeviceType) ||
		errors.Is(err, ErrInvalidStatus) ||
		errors.Is(err, ErrMissingID)
}
