package inventory

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
)

// Validation constants.
const (
	minNameLength = 3
	maxNameLength = 50

	// serialPattern: 2-4 uppercase letters, 3-4 digits, 1-4 alphanumerics,
	// hyphen-separated. Examples: "TS-001-A", "GW-0042-MAIN".
	serialPattern = `^[A-Z]{2,4}-[0-9]{3,4}-[A-Z0-9]{1,4}$`

	// firmwarePattern: exactly three dot-separated non-negative integers.
	// No "v" prefix, no four-part versions.
	firmwarePattern = `^[0-9]+\.[0-9]+\.[0-9]+$`
)

var (
	serialRegex   = regexp.MustCompile(serialPattern)
	firmwareRegex = regexp.MustCompile(firmwarePattern)
)

// Pre-computed validation sets for O(1) lookups instead of O(n) linear search.
var (
	validDeviceTypes map[DeviceType]struct{}
	validStatuses    map[Status]struct{}
)

func init() {
	validDeviceTypes = make(map[DeviceType]struct{}, len(AllDeviceTypes()))
	for _, t := range AllDeviceTypes() {
		validDeviceTypes[t] = struct{}{}
	}

	validStatuses = make(map[Status]struct{}, len(AllStatuses()))
	for _, s := range AllStatuses() {
		validStatuses[s] = struct{}{}
	}
}

// ValidateName checks if a device name is valid.
// A name is valid when its trimmed length is between 3 and 50 characters.
// Length is counted in runes so multibyte names are not penalised.
func ValidateName(name string) error {
	trimmed := strings.TrimSpace(name)
	length := utf8.RuneCountInString(trimmed)
	if length < minNameLength {
		return fmt.Errorf("%w: name must be at least %d characters", ErrInvalidName, minNameLength)
	}
	if length > maxNameLength {
		return fmt.Errorf("%w: name exceeds %d characters", ErrInvalidName, maxNameLength)
	}
	return nil
}

// ValidateSerialNumber checks if a serial number matches the expected
// format: 2-4 uppercase letters, hyphen, 3-4 digits, hyphen, 1-4
// alphanumerics (e.g. "TS-001-A", "GW-001-MAIN").
func ValidateSerialNumber(serial string) error {
	if !serialRegex.MatchString(serial) {
		return fmt.Errorf("%w: %q does not match XX-000-XXX format", ErrInvalidSerialNumber, serial)
	}
	return nil
}

// ValidateFirmwareVersion checks if a firmware version is a strict
// X.Y.Z numeric triplet. Rejects "1.0", "1.0.0.0" and "v1.0.0".
func ValidateFirmwareVersion(version string) error {
	if !firmwareRegex.MatchString(version) {
		return fmt.Errorf("%w: %q is not a X.Y.Z triplet", ErrInvalidFirmware, version)
	}
	return nil
}

// ValidateDeviceType checks if a device type is valid.
func ValidateDeviceType(deviceType DeviceType) error {
	if _, ok := validDeviceTypes[deviceType]; ok {
		return nil
	}
	return fmt.Errorf("%w: %q", ErrInvalidDeviceType, deviceType)
}

// ValidateStatus checks if a status is valid.
func ValidateStatus(status Status) error {
	if _, ok := validStatuses[status]; ok {
		return nil
	}
	return fmt.Errorf("%w: %q", ErrInvalidStatus, status)
}

// ValidateNew checks a creation payload. Name, serial number, type and
// firmware version are all required. The first failing rule wins and
// the returned error names the offending field.
func ValidateNew(input CreateInput) error {
	if err := ValidateName(input.Name); err != nil {
		return err
	}
	if err := ValidateSerialNumber(input.SerialNumber); err != nil {
		return err
	}
	if err := ValidateDeviceType(input.Type); err != nil {
		return err
	}
	if err := ValidateFirmwareVersion(input.FirmwareVersion); err != nil {
		return err
	}
	return nil
}

// ValidateChanges checks a partial update payload. Only fields present
// in the input are validated; omitted fields are left server-side
// unchanged and are not inspected. Location is free text and accepts
// anything, including an explicit clear.
func ValidateChanges(input UpdateInput) error {
	if input.ID == "" {
		return ErrMissingID
	}
	if input.Name != nil {
		if err := ValidateName(*input.Name); err != nil {
			return err
		}
	}
	if input.Status != nil {
		if err := ValidateStatus(*input.Status); err != nil {
			return err
		}
	}
	if input.FirmwareVersion != nil {
		if err := ValidateFirmwareVersion(*input.FirmwareVersion); err != nil {
			return err
		}
	}
	return nil
}

// GenerateID creates a new UUID for a device.
func GenerateID() string {
	return uuid.New().String()
}
