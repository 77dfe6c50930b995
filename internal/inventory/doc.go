// Package inventory provides the device catalogue for Inventory Core.
//
// It tracks every registered fleet device through its lifecycle and
// exposes the state the REST API and WebSocket hub present to clients.
//
// # Architecture
//
//	┌──────────────────────────────────────────────────────────────────────┐
//	│                         Device Inventory                             │
//	│                                                                      │
//	│  ┌────────────────┐   ┌────────────────┐   ┌────────────────────┐   │
//	│  │   Controller   │   │    Registry    │   │     Repository     │   │
//	│  │(controller.go) │──▶│ (registry.go)  │──▶│  (repository.go)   │   │
//	│  │                │   │                │   │                    │   │
//	│  │ • Selection    │   │ • CRUD ops     │   │ • SQLite queries   │   │
//	│  │ • Search       │   │ • Cache        │   │ • Nullable columns │   │
//	│  │ • Flight flags │   │ • Change hooks │   │ • Constraint map   │   │
//	│  └────────────────┘   └────────────────┘   └────────────────────┘   │
//	└──────────────────────────────────────────────────────────────────────┘
//
// # Key Types
//
//   - Device: one registered fleet device
//   - Record: read-only presentation view over a device snapshot
//   - Registry: cached, thread-safe device store over a Repository
//   - Controller: collection view state (selection, search, in-flight flags)
//
// # Usage
//
//	repo := inventory.NewSQLiteRepository(db)
//	registry := inventory.NewRegistry(repo)
//	registry.SetLogger(log)
//
//	if err := registry.RefreshCache(ctx); err != nil {
//	    return err
//	}
//
//	device, err := registry.CreateDevice(ctx, inventory.CreateInput{
//	    Name:            "Dock 4 Temperature Probe",
//	    SerialNumber:    "TMP-0041-A7",
//	    Type:            inventory.TypeSensor,
//	    FirmwareVersion: "2.4.0",
//	})
//
// # Thread Safety
//
// The Registry and Controller are safe for concurrent use. The
// Repository implementation must also be thread-safe.
package inventory
