package inventory

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Logger defines the logging interface used by the Registry.
// This allows different logging implementations to be used.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// ChangeKind identifies the mutation behind a change notification.
type ChangeKind string

// Change kinds emitted by the registry.
const (
	ChangeCreated       ChangeKind = "created"
	ChangeUpdated       ChangeKind = "updated"
	ChangeDeleted       ChangeKind = "deleted"
	ChangeStatusFlipped ChangeKind = "status_changed"
)

// ChangeFunc receives a notification after a mutation has been
// persisted and the cache updated. For deletions the device carries
// the last known snapshot. Handlers must not block.
type ChangeFunc func(kind ChangeKind, device Device)

// Registry provides device management with caching and thread safety.
// It wraps a Repository and adds an in-memory cache for fast lookups.
//
// The cache preserves registration order: List returns devices in the
// order the repository handed them out, with new devices appended.
//
// Validation happens here, before the repository is touched, so an
// invalid input never reaches persistence. Repository errors pass
// through unchanged.
//
// All public methods are thread-safe.
type Registry struct {
	repo    Repository
	cache   map[string]*Device // Cached devices by ID
	order   []string           // Device IDs in registration order
	cacheMu sync.RWMutex       // Protects cache and order

	listeners   []ChangeFunc
	listenersMu sync.RWMutex

	logger Logger
}

// NewRegistry creates a new device registry.
// The repository is used for persistence; the registry adds caching.
func NewRegistry(repo Repository) *Registry {
	return &Registry{
		repo:   repo,
		cache:  make(map[string]*Device),
		logger: noopLogger{},
	}
}

// SetLogger sets the logger for the registry.
func (r *Registry) SetLogger(logger Logger) {
	r.logger = logger
}

// OnChange registers a callback invoked after every successful
// mutation. Multiple callbacks may be registered; they are invoked in
// registration order. Safe to call while mutations are in flight.
func (r *Registry) OnChange(fn ChangeFunc) {
	r.listenersMu.Lock()
	r.listeners = append(r.listeners, fn)
	r.listenersMu.Unlock()
}

func (r *Registry) notify(kind ChangeKind, device Device) {
	r.listenersMu.RLock()
	listeners := r.listeners
	r.listenersMu.RUnlock()

	for _, fn := range listeners {
		fn(kind, device)
	}
}

// RefreshCache reloads all devices from the repository into the cache.
// This should be called on application startup, and again whenever a
// caller wants to discard local state in favour of persistence.
func (r *Registry) RefreshCache(ctx context.Context) error {
	devices, err := r.repo.List(ctx)
	if err != nil {
		return fmt.Errorf("loading devices: %w", err)
	}

	r.cacheMu.Lock()
	defer r.cacheMu.Unlock()

	r.cache = make(map[string]*Device, len(devices))
	r.order = make([]string, 0, len(devices))
	for i := range devices {
		d := devices[i]
		r.cache[d.ID] = d.Clone()
		r.order = append(r.order, d.ID)
	}

	r.logger.Info("device cache refreshed", "count", len(devices))
	return nil
}

// GetDevice retrieves a device by ID.
// Returns ErrDeviceNotFound if the device does not exist.
// The returned device is a copy; callers can safely modify it.
func (r *Registry) GetDevice(ctx context.Context, id string) (*Device, error) {
	r.cacheMu.RLock()
	cached, ok := r.cache[id]
	r.cacheMu.RUnlock()

	if ok {
		return cached.Clone(), nil
	}

	// Fall back to repository (might be a new device not yet cached)
	device, err := r.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	r.cacheMu.Lock()
	if _, ok := r.cache[device.ID]; !ok {
		r.cache[device.ID] = device.Clone()
		r.order = append(r.order, device.ID)
	}
	r.cacheMu.Unlock()

	return device, nil
}

// ListDevices retrieves all devices in registration order.
// The returned devices are copies; callers can safely modify them.
func (r *Registry) ListDevices(ctx context.Context) ([]Device, error) {
	r.cacheMu.RLock()
	if len(r.order) > 0 {
		devices := make([]Device, 0, len(r.order))
		for _, id := range r.order {
			if d, ok := r.cache[id]; ok {
				devices = append(devices, *d.Clone())
			}
		}
		r.cacheMu.RUnlock()
		return devices, nil
	}
	r.cacheMu.RUnlock()

	// Fall back to repository
	return r.repo.List(ctx)
}

// CreateDevice validates the input, assigns an ID and persists a new
// device. New devices start offline with no heartbeat on record.
// Validation failures surface before the repository sees anything.
func (r *Registry) CreateDevice(ctx context.Context, input CreateInput) (*Device, error) {
	if err := ValidateNew(input); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	device := &Device{
		ID:              GenerateID(),
		Name:            input.Name,
		SerialNumber:    input.SerialNumber,
		Type:            input.Type,
		Status:          StatusOffline,
		FirmwareVersion: input.FirmwareVersion,
		Location:        input.Location,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if err := r.repo.Create(ctx, device); err != nil {
		return nil, err
	}

	r.cacheMu.Lock()
	r.cache[device.ID] = device.Clone()
	r.order = append(r.order, device.ID)
	r.cacheMu.Unlock()

	r.logger.Info("device created", "id", device.ID, "name", device.Name)
	r.notify(ChangeCreated, *device.Clone())
	return device.Clone(), nil
}

// UpdateDevice applies a partial update to an existing device. Nil
// fields are left untouched; the serial number and type never change
// after registration. Validation of the changed fields happens before
// anything is persisted.
func (r *Registry) UpdateDevice(ctx context.Context, input UpdateInput) (*Device, error) {
	if err := ValidateChanges(input); err != nil {
		return nil, err
	}

	existing, err := r.GetDevice(ctx, input.ID)
	if err != nil {
		return nil, err
	}

	device := existing.Clone()
	if input.Name != nil {
		device.Name = *input.Name
	}
	if input.Status != nil {
		device.Status = *input.Status
	}
	if input.FirmwareVersion != nil {
		device.FirmwareVersion = *input.FirmwareVersion
	}
	if input.Location != nil {
		if *input.Location == "" {
			device.Location = nil
		} else {
			loc := *input.Location
			device.Location = &loc
		}
	}

	if err := r.repo.Update(ctx, device); err != nil {
		return nil, err
	}

	r.cacheMu.Lock()
	r.cache[device.ID] = device.Clone()
	r.cacheMu.Unlock()

	r.logger.Info("device updated", "id", device.ID, "name", device.Name)
	r.notify(ChangeUpdated, *device.Clone())
	return device.Clone(), nil
}

// DeleteDevice removes a device. The cache entry is evicted only after
// the repository confirms the delete, so a failed delete leaves the
// device visible.
func (r *Registry) DeleteDevice(ctx context.Context, id string) error {
	r.cacheMu.RLock()
	snapshot, cached := r.cache[id]
	var last Device
	if cached {
		last = *snapshot.Clone()
	}
	r.cacheMu.RUnlock()

	if err := r.repo.Delete(ctx, id); err != nil {
		return err
	}

	r.cacheMu.Lock()
	delete(r.cache, id)
	for i, oid := range r.order {
		if oid == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	r.cacheMu.Unlock()

	r.logger.Info("device deleted", "id", id)
	if !cached {
		last = Device{ID: id}
	}
	r.notify(ChangeDeleted, last)
	return nil
}

// SetStatus updates only the status of a device.
// This is optimised for frequent flips from the presence monitor.
func (r *Registry) SetStatus(ctx context.Context, id string, status Status) error {
	if err := ValidateStatus(status); err != nil {
		return err
	}

	if err := r.repo.UpdateStatus(ctx, id, status); err != nil {
		return err
	}

	var snapshot Device
	r.cacheMu.Lock()
	if cached, ok := r.cache[id]; ok {
		updated := cached.Clone()
		updated.Status = status
		updated.UpdatedAt = time.Now().UTC()
		r.cache[id] = updated
		snapshot = *updated.Clone()
	} else {
		snapshot = Device{ID: id, Status: status}
	}
	r.cacheMu.Unlock()

	r.logger.Debug("device status updated", "id", id, "status", status)
	r.notify(ChangeStatusFlipped, snapshot)
	return nil
}

// TouchLastSeen records a heartbeat for a device. It does not flip the
// status; the presence monitor decides transitions separately.
func (r *Registry) TouchLastSeen(ctx context.Context, id string, seenAt time.Time) error {
	if err := r.repo.TouchLastSeen(ctx, id, seenAt); err != nil {
		return err
	}

	r.cacheMu.Lock()
	if cached, ok := r.cache[id]; ok {
		updated := cached.Clone()
		ts := seenAt.UTC()
		updated.LastSeenAt = &ts
		updated.UpdatedAt = time.Now().UTC()
		r.cache[id] = updated
	}
	r.cacheMu.Unlock()

	return nil
}

// DeviceCount returns the number of cached devices.
func (r *Registry) DeviceCount() int {
	r.cacheMu.RLock()
	defer r.cacheMu.RUnlock()
	return len(r.cache)
}

// Stats summarises the cached inventory for monitoring.
type Stats struct {
	TotalDevices   int                `json:"total_devices"`
	ByType         map[DeviceType]int `json:"by_type"`
	ByStatus       map[Status]int     `json:"by_status"`
	NeedsAttention int                `json:"needs_attention"`
}

// GetStats returns current inventory statistics.
func (r *Registry) GetStats() Stats {
	r.cacheMu.RLock()
	defer r.cacheMu.RUnlock()

	stats := Stats{
		TotalDevices: len(r.cache),
		ByType:       make(map[DeviceType]int),
		ByStatus:     make(map[Status]int),
	}

	for _, d := range r.cache {
		stats.ByType[d.Type]++
		stats.ByStatus[d.Status]++
		if d.Status == StatusError || d.Status == StatusMaintenance {
			stats.NeedsAttention++
		}
	}

	return stats
}
