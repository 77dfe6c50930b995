package inventory

import (
	"context"
	"errors"
	"testing"
)

// mockCollaborator is a scriptable Collaborator for controller tests.
// Call counters verify fail-fast validation never reaches it.
type mockCollaborator struct {
	devices []Device

	listCalls   int
	createCalls int
	updateCalls int
	deleteCalls int

	listErr   error
	createErr error
	updateErr error
	deleteErr error
}

func (m *mockCollaborator) ListDevices(_ context.Context) ([]Device, error) {
	m.listCalls++
	if m.listErr != nil {
		return nil, m.listErr
	}
	out := make([]Device, len(m.devices))
	copy(out, m.devices)
	return out, nil
}

func (m *mockCollaborator) CreateDevice(_ context.Context, input CreateInput) (*Device, error) {
	m.createCalls++
	if m.createErr != nil {
		return nil, m.createErr
	}
	device := Device{
		ID:              GenerateID(),
		Name:            input.Name,
		SerialNumber:    input.SerialNumber,
		Type:            input.Type,
		Status:          StatusOffline,
		FirmwareVersion: input.FirmwareVersion,
		Location:        input.Location,
	}
	m.devices = append(m.devices, device)
	return device.Clone(), nil
}

func (m *mockCollaborator) UpdateDevice(_ context.Context, input UpdateInput) (*Device, error) {
	m.updateCalls++
	if m.updateErr != nil {
		return nil, m.updateErr
	}
	for i := range m.devices {
		if m.devices[i].ID == input.ID {
			if input.Name != nil {
				m.devices[i].Name = *input.Name
			}
			if input.Status != nil {
				m.devices[i].Status = *input.Status
			}
			if input.FirmwareVersion != nil {
				m.devices[i].FirmwareVersion = *input.FirmwareVersion
			}
			return m.devices[i].Clone(), nil
		}
	}
	return nil, ErrDeviceNotFound
}

func (m *mockCollaborator) DeleteDevice(_ context.Context, id string) error {
	m.deleteCalls++
	if m.deleteErr != nil {
		return m.deleteErr
	}
	for i := range m.devices {
		if m.devices[i].ID == id {
			m.devices = append(m.devices[:i], m.devices[i+1:]...)
			return nil
		}
	}
	return ErrDeviceNotFound
}

func seededController(t *testing.T, devices ...Device) (*Controller, *mockCollaborator) {
	t.Helper()
	collab := &mockCollaborator{devices: devices}
	ctrl := NewController(collab)
	if err := ctrl.Refetch(context.Background()); err != nil {
		t.Fatalf("Refetch() error = %v", err)
	}
	return ctrl, collab
}

func TestController_Refetch(t *testing.T) {
	ctx := context.Background()

	t.Run("populates records in fetch order", func(t *testing.T) {
		ctrl, _ := seededController(t,
			*seedDevice("dev-1", "First", "AAA-100-1"),
			*seedDevice("dev-2", "Second", "AAA-100-2"),
		)

		devices := ctrl.Devices()
		if len(devices) != 2 {
			t.Fatalf("len = %d, want 2", len(devices))
		}
		if devices[0].ID != "dev-1" || devices[1].ID != "dev-2" {
			t.Errorf("order = [%s %s], want [dev-1 dev-2]", devices[0].ID, devices[1].ID)
		}
	})

	t.Run("propagates collaborator error unchanged", func(t *testing.T) {
		wantErr := errors.New("backend unreachable")
		collab := &mockCollaborator{listErr: wantErr}
		ctrl := NewController(collab)

		err := ctrl.Refetch(ctx)
		if !errors.Is(err, wantErr) {
			t.Errorf("Refetch() error = %v, want the collaborator error", err)
		}
		if !errors.Is(ctrl.LastError(), wantErr) {
			t.Errorf("LastError() = %v, want the collaborator error", ctrl.LastError())
		}
	})

	t.Run("selection survives refetch", func(t *testing.T) {
		ctrl, _ := seededController(t, *seedDevice("dev-1", "First", "AAA-100-1"))
		ctrl.Select("dev-1")

		if err := ctrl.Refetch(ctx); err != nil {
			t.Fatalf("Refetch() error = %v", err)
		}
		if sel := ctrl.SelectedDevice(); sel == nil || sel.ID != "dev-1" {
			t.Errorf("SelectedDevice() = %v, want dev-1", sel)
		}
	})
}

func TestController_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("invalid input never reaches collaborator", func(t *testing.T) {
		ctrl, collab := seededController(t)

		input := validCreateInput()
		input.Name = "ab"

		_, err := ctrl.Create(ctx, input)
		if !errors.Is(err, ErrInvalidName) {
			t.Errorf("Create() error = %v, want ErrInvalidName", err)
		}
		if collab.createCalls != 0 {
			t.Errorf("createCalls = %d, want 0", collab.createCalls)
		}
	})

	t.Run("appends the new record on success", func(t *testing.T) {
		ctrl, _ := seededController(t, *seedDevice("dev-1", "First", "AAA-100-1"))

		rec, err := ctrl.Create(ctx, validCreateInput())
		if err != nil {
			t.Fatalf("Create() error = %v", err)
		}

		devices := ctrl.Devices()
		if len(devices) != 2 {
			t.Fatalf("len = %d, want 2", len(devices))
		}
		if devices[1].ID != rec.ID {
			t.Errorf("last record = %q, want newly created %q", devices[1].ID, rec.ID)
		}
		if ctrl.LastError() != nil {
			t.Errorf("LastError() = %v, want nil", ctrl.LastError())
		}
	})

	t.Run("collaborator error leaves cache untouched", func(t *testing.T) {
		ctrl, collab := seededController(t, *seedDevice("dev-1", "First", "AAA-100-1"))
		collab.createErr = ErrDeviceExists

		_, err := ctrl.Create(ctx, validCreateInput())
		if !errors.Is(err, ErrDeviceExists) {
			t.Errorf("Create() error = %v, want ErrDeviceExists", err)
		}
		if len(ctrl.Devices()) != 1 {
			t.Errorf("len = %d, want 1", len(ctrl.Devices()))
		}
	})
}

func TestController_Update(t *testing.T) {
	ctx := context.Background()

	t.Run("invalid input never reaches collaborator", func(t *testing.T) {
		ctrl, collab := seededController(t, *seedDevice("dev-1", "First", "AAA-100-1"))

		bad := "ab"
		_, err := ctrl.Update(ctx, UpdateInput{ID: "dev-1", Name: &bad})
		if !errors.Is(err, ErrInvalidName) {
			t.Errorf("Update() error = %v, want ErrInvalidName", err)
		}
		if collab.updateCalls != 0 {
			t.Errorf("updateCalls = %d, want 0", collab.updateCalls)
		}
	})

	t.Run("replaces record in place on success", func(t *testing.T) {
		ctrl, _ := seededController(t,
			*seedDevice("dev-1", "First", "AAA-100-1"),
			*seedDevice("dev-2", "Second", "AAA-100-2"),
		)

		name := "Renamed Device"
		if _, err := ctrl.Update(ctx, UpdateInput{ID: "dev-1", Name: &name}); err != nil {
			t.Fatalf("Update() error = %v", err)
		}

		devices := ctrl.Devices()
		if devices[0].Name != "Renamed Device" {
			t.Errorf("Name = %q, want %q", devices[0].Name, "Renamed Device")
		}
		if devices[0].ID != "dev-1" {
			t.Errorf("updated record moved; devices[0].ID = %q, want dev-1", devices[0].ID)
		}
	})
}

func TestController_Delete(t *testing.T) {
	ctx := context.Background()

	t.Run("evicts record and clears matching selection", func(t *testing.T) {
		ctrl, _ := seededController(t,
			*seedDevice("dev-1", "First", "AAA-100-1"),
			*seedDevice("dev-2", "Second", "AAA-100-2"),
		)
		ctrl.Select("dev-1")

		if err := ctrl.Delete(ctx, "dev-1"); err != nil {
			t.Fatalf("Delete() error = %v", err)
		}

		if len(ctrl.Devices()) != 1 {
			t.Errorf("len = %d, want 1", len(ctrl.Devices()))
		}
		if ctrl.SelectedID() != "" {
			t.Errorf("SelectedID() = %q, want empty after deleting selection", ctrl.SelectedID())
		}
	})

	t.Run("keeps unrelated selection", func(t *testing.T) {
		ctrl, _ := seededController(t,
			*seedDevice("dev-1", "First", "AAA-100-1"),
			*seedDevice("dev-2", "Second", "AAA-100-2"),
		)
		ctrl.Select("dev-2")

		if err := ctrl.Delete(ctx, "dev-1"); err != nil {
			t.Fatalf("Delete() error = %v", err)
		}
		if ctrl.SelectedID() != "dev-2" {
			t.Errorf("SelectedID() = %q, want dev-2", ctrl.SelectedID())
		}
	})

	t.Run("failed delete preserves cache and selection", func(t *testing.T) {
		ctrl, collab := seededController(t, *seedDevice("dev-1", "First", "AAA-100-1"))
		ctrl.Select("dev-1")
		collab.deleteErr = errors.New("backend unreachable")

		if err := ctrl.Delete(ctx, "dev-1"); err == nil {
			t.Fatal("Delete() error = nil, want error")
		}
		if len(ctrl.Devices()) != 1 {
			t.Errorf("len = %d, want 1 after failed delete", len(ctrl.Devices()))
		}
		if ctrl.SelectedID() != "dev-1" {
			t.Errorf("SelectedID() = %q, want dev-1 preserved", ctrl.SelectedID())
		}
	})

	t.Run("empty id rejected without collaborator call", func(t *testing.T) {
		ctrl, collab := seededController(t)

		if err := ctrl.Delete(ctx, ""); !errors.Is(err, ErrMissingID) {
			t.Errorf("Delete() error = %v, want ErrMissingID", err)
		}
		if collab.deleteCalls != 0 {
			t.Errorf("deleteCalls = %d, want 0", collab.deleteCalls)
		}
	})
}

func TestController_FilteredDevices(t *testing.T) {
	alpha := *seedDevice("dev-1", "Alpha Sensor", "AAA-100-1")
	beta := *seedDevice("dev-2", "Beta Gateway", "AAA-100-2")
	beta.Type = TypeGateway
	gamma := *seedDevice("dev-3", "Gamma Sensor", "AAA-100-3")

	ctrl, _ := seededController(t, alpha, beta, gamma)

	t.Run("empty term returns everything", func(t *testing.T) {
		if got := ctrl.FilteredDevices(); len(got) != 3 {
			t.Errorf("len = %d, want 3", len(got))
		}
	})

	t.Run("filters case-insensitively, preserving order", func(t *testing.T) {
		ctrl.SetSearchTerm("SENSOR")
		got := ctrl.FilteredDevices()
		if len(got) != 2 {
			t.Fatalf("len = %d, want 2", len(got))
		}
		if got[0].ID != "dev-1" || got[1].ID != "dev-3" {
			t.Errorf("order = [%s %s], want [dev-1 dev-3]", got[0].ID, got[1].ID)
		}
	})

	t.Run("full cache is untouched by filtering", func(t *testing.T) {
		ctrl.SetSearchTerm("sensor")
		_ = ctrl.FilteredDevices()
		if got := ctrl.Devices(); len(got) != 3 {
			t.Errorf("Devices() len = %d, want 3", len(got))
		}
	})
}

func TestController_Selection(t *testing.T) {
	ctrl, _ := seededController(t, *seedDevice("dev-1", "First", "AAA-100-1"))

	t.Run("nothing selected initially", func(t *testing.T) {
		if got := ctrl.SelectedDevice(); got != nil {
			t.Errorf("SelectedDevice() = %v, want nil", got)
		}
	})

	t.Run("resolves selection against cache", func(t *testing.T) {
		ctrl.Select("dev-1")
		got := ctrl.SelectedDevice()
		if got == nil || got.ID != "dev-1" {
			t.Errorf("SelectedDevice() = %v, want dev-1", got)
		}
	})

	t.Run("unknown id resolves to nil", func(t *testing.T) {
		ctrl.Select("ghost")
		if got := ctrl.SelectedDevice(); got != nil {
			t.Errorf("SelectedDevice() = %v, want nil for unknown id", got)
		}
	})

	t.Run("clear selection", func(t *testing.T) {
		ctrl.Select("dev-1")
		ctrl.ClearSelection()
		if ctrl.SelectedID() != "" {
			t.Errorf("SelectedID() = %q, want empty", ctrl.SelectedID())
		}
	})
}

func TestController_ApplyChange(t *testing.T) {
	ctrl, _ := seededController(t, *seedDevice("dev-1", "First", "AAA-100-1"))

	t.Run("created appends", func(t *testing.T) {
		ctrl.ApplyChange(ChangeCreated, *seedDevice("dev-2", "Second", "AAA-100-2"))
		if len(ctrl.Devices()) != 2 {
			t.Errorf("len = %d, want 2", len(ctrl.Devices()))
		}
	})

	t.Run("status change replaces in place", func(t *testing.T) {
		flipped := *seedDevice("dev-1", "First", "AAA-100-1")
		flipped.Status = StatusOnline
		ctrl.ApplyChange(ChangeStatusFlipped, flipped)

		devices := ctrl.Devices()
		if devices[0].Status != StatusOnline {
			t.Errorf("Status = %q, want online", devices[0].Status)
		}
	})

	t.Run("deleted evicts and clears selection", func(t *testing.T) {
		ctrl.Select("dev-2")
		ctrl.ApplyChange(ChangeDeleted, Device{ID: "dev-2"})
		if len(ctrl.Devices()) != 1 {
			t.Errorf("len = %d, want 1", len(ctrl.Devices()))
		}
		if ctrl.SelectedID() != "" {
			t.Errorf("SelectedID() = %q, want empty", ctrl.SelectedID())
		}
	})
}
