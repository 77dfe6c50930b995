package inventory

import (
	"context"
	"sync"
	"sync/atomic"
)

// Collaborator is the data-access surface the controller drives. It is
// satisfied by *Registry and by test doubles.
type Collaborator interface {
	ListDevices(ctx context.Context) ([]Device, error)
	CreateDevice(ctx context.Context, input CreateInput) (*Device, error)
	UpdateDevice(ctx context.Context, input UpdateInput) (*Device, error)
	DeleteDevice(ctx context.Context, id string) error
}

// Controller holds the observable state for a device collection view:
// the fetched records, the current selection, the search term and one
// in-flight flag per operation kind.
//
// Mutations validate their input before the collaborator is called, so
// an invalid input never costs a round trip. Collaborator errors are
// returned unchanged and recorded as the last error; the local state
// is only touched once the collaborator has succeeded.
//
// All methods are safe for concurrent use.
type Controller struct {
	collab Collaborator

	mu         sync.RWMutex
	records    []Record // Fetch order, new devices appended
	selectedID string
	searchTerm string
	lastErr    error

	loading  atomic.Bool
	creating atomic.Bool
	updating atomic.Bool
	deleting atomic.Bool
}

// NewController creates a controller over the given collaborator.
// State starts empty; call Refetch to populate it.
func NewController(collab Collaborator) *Controller {
	return &Controller{collab: collab}
}

// Refetch replaces the record cache with a fresh fetch. Selection and
// search term survive a refetch; a selection pointing at a device that
// no longer exists simply resolves to nothing.
func (c *Controller) Refetch(ctx context.Context) error {
	c.loading.Store(true)
	defer c.loading.Store(false)

	devices, err := c.collab.ListDevices(ctx)
	if err != nil {
		c.setError(err)
		return err
	}

	c.mu.Lock()
	c.records = WrapAll(devices)
	c.lastErr = nil
	c.mu.Unlock()
	return nil
}

// Create validates the input and registers a new device. A validation
// failure returns before the collaborator is called. On success the
// new record is appended to the cache.
func (c *Controller) Create(ctx context.Context, input CreateInput) (*Record, error) {
	if err := ValidateNew(input); err != nil {
		c.setError(err)
		return nil, err
	}

	c.creating.Store(true)
	defer c.creating.Store(false)

	device, err := c.collab.CreateDevice(ctx, input)
	if err != nil {
		c.setError(err)
		return nil, err
	}

	rec := NewRecord(*device)
	c.mu.Lock()
	c.records = append(c.records, rec)
	c.lastErr = nil
	c.mu.Unlock()
	return &rec, nil
}

// Update validates the changed fields and applies a partial update. A
// validation failure returns before the collaborator is called. On
// success the cached record is replaced in place, keeping its position.
func (c *Controller) Update(ctx context.Context, input UpdateInput) (*Record, error) {
	if err := ValidateChanges(input); err != nil {
		c.setError(err)
		return nil, err
	}

	c.updating.Store(true)
	defer c.updating.Store(false)

	device, err := c.collab.UpdateDevice(ctx, input)
	if err != nil {
		c.setError(err)
		return nil, err
	}

	rec := NewRecord(*device)
	c.mu.Lock()
	for i := range c.records {
		if c.records[i].ID == rec.ID {
			c.records[i] = rec
			break
		}
	}
	c.lastErr = nil
	c.mu.Unlock()
	return &rec, nil
}

// Delete removes a device. On failure the cache and selection are left
// exactly as they were. On success the record is evicted and, if it
// was the selected one, the selection is cleared.
func (c *Controller) Delete(ctx context.Context, id string) error {
	if id == "" {
		c.setError(ErrMissingID)
		return ErrMissingID
	}

	c.deleting.Store(true)
	defer c.deleting.Store(false)

	if err := c.collab.DeleteDevice(ctx, id); err != nil {
		c.setError(err)
		return err
	}

	c.mu.Lock()
	for i := range c.records {
		if c.records[i].ID == id {
			c.records = append(c.records[:i], c.records[i+1:]...)
			break
		}
	}
	if c.selectedID == id {
		c.selectedID = ""
	}
	c.lastErr = nil
	c.mu.Unlock()
	return nil
}

// Devices returns the full record cache in fetch order.
func (c *Controller) Devices() []Record {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Record, len(c.records))
	copy(out, c.records)
	return out
}

// FilteredDevices returns the records matching the current search
// term, preserving fetch order. An empty term returns everything.
func (c *Controller) FilteredDevices() []Record {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.searchTerm == "" {
		out := make([]Record, len(c.records))
		copy(out, c.records)
		return out
	}
	return FilterRecords(c.records, c.searchTerm)
}

// Select marks a device as selected by ID. The ID does not have to be
// in the cache yet; SelectedDevice resolves lazily.
func (c *Controller) Select(id string) {
	c.mu.Lock()
	c.selectedID = id
	c.mu.Unlock()
}

// ClearSelection drops the current selection.
func (c *Controller) ClearSelection() {
	c.Select("")
}

// SelectedID returns the currently selected device ID, or "".
func (c *Controller) SelectedID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.selectedID
}

// SelectedDevice resolves the selection against the cache. Returns nil
// when nothing is selected or the selected device is not cached.
func (c *Controller) SelectedDevice() *Record {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.selectedID == "" {
		return nil
	}
	for i := range c.records {
		if c.records[i].ID == c.selectedID {
			rec := c.records[i]
			return &rec
		}
	}
	return nil
}

// SetSearchTerm updates the active search term. Filtering itself is
// lazy; nothing is recomputed until FilteredDevices is called.
func (c *Controller) SetSearchTerm(term string) {
	c.mu.Lock()
	c.searchTerm = term
	c.mu.Unlock()
}

// SearchTerm returns the active search term.
func (c *Controller) SearchTerm() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.searchTerm
}

// ApplyChange folds an externally observed mutation into the cache.
// This keeps a controller driven by registry change notifications in
// sync without a full refetch.
func (c *Controller) ApplyChange(kind ChangeKind, device Device) {
	rec := NewRecord(device)

	c.mu.Lock()
	defer c.mu.Unlock()

	switch kind {
	case ChangeCreated:
		for i := range c.records {
			if c.records[i].ID == rec.ID {
				c.records[i] = rec
				return
			}
		}
		c.records = append(c.records, rec)
	case ChangeUpdated, ChangeStatusFlipped:
		for i := range c.records {
			if c.records[i].ID == rec.ID {
				c.records[i] = rec
				return
			}
		}
	case ChangeDeleted:
		for i := range c.records {
			if c.records[i].ID == rec.ID {
				c.records = append(c.records[:i], c.records[i+1:]...)
				break
			}
		}
		if c.selectedID == rec.ID {
			c.selectedID = ""
		}
	}
}

// IsLoading reports whether a refetch is in flight.
func (c *Controller) IsLoading() bool { return c.loading.Load() }

// IsCreating reports whether a create is in flight.
func (c *Controller) IsCreating() bool { return c.creating.Load() }

// IsUpdating reports whether an update is in flight.
func (c *Controller) IsUpdating() bool { return c.updating.Load() }

// IsDeleting reports whether a delete is in flight.
func (c *Controller) IsDeleting() bool { return c.deleting.Load() }

// LastError returns the error recorded by the most recent failed
// operation, or nil if the last operation succeeded.
func (c *Controller) LastError() error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lastErr
}

func (c *Controller) setError(err error) {
	c.mu.Lock()
	c.lastErr = err
	c.mu.Unlock()
}
