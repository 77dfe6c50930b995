package inventory

import (
	"fmt"
	"strings"
	"time"
)

// Record is a read-only presentation view over one Device snapshot.
// It derives display values (status grouping, relative last-seen text,
// search matching) without mutating the underlying device. Two records
// are the same device iff their IDs match.
type Record struct {
	Device
}

// NewRecord wraps a device snapshot. The record keeps its own copy so
// later cache updates do not leak into an already-rendered view.
func NewRecord(d Device) Record {
	return Record{Device: *d.Clone()}
}

// WrapAll wraps a device slice in fetch order.
func WrapAll(devices []Device) []Record {
	records := make([]Record, 0, len(devices))
	for i := range devices {
		records = append(records, NewRecord(devices[i]))
	}
	return records
}

// IsOnline reports whether the device is currently online.
func (r Record) IsOnline() bool { return r.Status == StatusOnline }

// IsOffline reports whether the device is currently offline.
func (r Record) IsOffline() bool { return r.Status == StatusOffline }

// NeedsAttention reports whether the device requires operator action:
// true for error and maintenance states.
func (r Record) NeedsAttention() bool {
	return r.Status == StatusError || r.Status == StatusMaintenance
}

// StatusColor returns the foreground palette token for the device
// status. Unknown statuses map to neutral gray.
func (r Record) StatusColor() string {
	switch r.Status {
	case StatusOnline:
		return "green"
	case StatusError:
		return "red"
	case StatusMaintenance:
		return "amber"
	case StatusOffline:
		return "gray"
	default:
		return "gray"
	}
}

// StatusBgColor returns the background palette token for the device
// status. Unknown statuses map to neutral gray.
func (r Record) StatusBgColor() string {
	switch r.Status {
	case StatusOnline:
		return "green-muted"
	case StatusError:
		return "red-muted"
	case StatusMaintenance:
		return "amber-muted"
	case StatusOffline:
		return "gray-muted"
	default:
		return "gray-muted"
	}
}

// TypeIcon returns the glyph token for the device type. Unknown types
// map to a generic device glyph.
func (r Record) TypeIcon() string {
	switch r.Type {
	case TypeSensor:
		return "gauge"
	case TypeGateway:
		return "wifi"
	case TypeCamera:
		return "camera"
	case TypeController:
		return "sliders"
	case TypeActuator:
		return "zap"
	case TypeTracker:
		return "map-pin"
	default:
		return "box"
	}
}

// LastSeenFormatted returns a human-relative description of the last
// heartbeat, computed against the current time at call time.
func (r Record) LastSeenFormatted() string {
	return r.LastSeenIn(time.Now())
}

// LastSeenIn returns a human-relative description of the last heartbeat
// as seen from now: "Never" when absent, "Just now" under one minute,
// then "N minute(s) ago", "N hour(s) ago", "N day(s) ago". Each unit
// uses floor division of the elapsed time; singular form only when N
// is exactly 1.
func (r Record) LastSeenIn(now time.Time) string {
	if r.LastSeenAt == nil {
		return "Never"
	}

	elapsed := now.Sub(*r.LastSeenAt)
	switch {
	case elapsed < time.Minute:
		return "Just now"
	case elapsed < time.Hour:
		return pluralise(int(elapsed/time.Minute), "minute")
	case elapsed < 24*time.Hour:
		return pluralise(int(elapsed/time.Hour), "hour")
	default:
		return pluralise(int(elapsed/(24*time.Hour)), "day")
	}
}

// pluralise renders "N unit ago" with an "s" unless N is exactly 1.
func pluralise(n int, unit string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s ago", unit)
	}
	return fmt.Sprintf("%d %ss ago", n, unit)
}

// MatchesSearch reports whether the whole term occurs, case-insensitively,
// in the device name, serial number, type or location. The term is used
// as a single substring (no tokenisation). An absent location never
// matches. The empty term matches everything.
func (r Record) MatchesSearch(term string) bool {
	needle := strings.ToLower(term)

	if strings.Contains(strings.ToLower(r.Name), needle) {
		return true
	}
	if strings.Contains(strings.ToLower(r.SerialNumber), needle) {
		return true
	}
	if strings.Contains(strings.ToLower(string(r.Type)), needle) {
		return true
	}
	if r.Location != nil && strings.Contains(strings.ToLower(*r.Location), needle) {
		return true
	}
	return false
}

// Same reports whether two records refer to the same device (identity
// by ID). Field-level differences are ignored: the records may be
// snapshots taken at different times.
func (r Record) Same(other Record) bool {
	return r.ID == other.ID
}

// FilterRecords returns the records matching term, preserving the input
// order. The empty term returns the input unchanged.
func FilterRecords(records []Record, term string) []Record {
	if term == "" {
		return records
	}

	filtered := make([]Record, 0, len(records))
	for _, rec := range records {
		if rec.MatchesSearch(term) {
			filtered = append(filtered, rec)
		}
	}
	return filtered
}
