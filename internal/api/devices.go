package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/jmcavoy/inventory-core/internal/inventory"
)

// handleListDevices returns all devices in registration order, served
// from the server's collection view.
//
// Query parameters:
//   - q: case-insensitive substring search; the whole term (including
//     any spaces) must appear in the name, serial number, type, or
//     location.
func (s *Server) handleListDevices(w http.ResponseWriter, r *http.Request) {
	records := s.collection.Devices()

	if q := r.URL.Query().Get("q"); q != "" {
		records = inventory.FilterRecords(records, q)
	}

	writeJSON(w, http.StatusOK, map[string]any{"devices": records, "count": len(records)})
}

// handleGetDevice returns a single device by ID.
func (s *Server) handleGetDevice(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	dev, err := s.registry.GetDevice(r.Context(), id)
	if err != nil {
		if errors.Is(err, inventory.ErrDeviceNotFound) {
			writeNotFound(w, "device not found")
			return
		}
		writeInternalError(w, "failed to get device")
		return
	}

	writeJSON(w, http.StatusOK, dev)
}

// handleCreateDevice registers a new device.
func (s *Server) handleCreateDevice(w http.ResponseWriter, r *http.Request) {
	var input inventory.CreateInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	dev, err := s.registry.CreateDevice(r.Context(), input)
	if err != nil {
		switch {
		case inventory.IsValidationError(err):
			writeBadRequest(w, err.Error())
		case errors.Is(err, inventory.ErrDeviceExists):
			writeConflict(w, "device with this serial number already exists")
		default:
			writeInternalError(w, "failed to create device")
		}
		return
	}

	writeJSON(w, http.StatusCreated, dev)
}

// handleUpdateDevice partially updates a device. Serial number and type
// are write-once and not accepted here.
func (s *Server) handleUpdateDevice(w http.ResponseWriter, r *http.Request) {
	var input inventory.UpdateInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	input.ID = chi.URLParam(r, "id") // the path owns the ID

	dev, err := s.registry.UpdateDevice(r.Context(), input)
	if err != nil {
		switch {
		case inventory.IsValidationError(err):
			writeBadRequest(w, err.Error())
		case errors.Is(err, inventory.ErrDeviceNotFound):
			writeNotFound(w, "device not found")
		default:
			writeInternalError(w, "failed to update device")
		}
		return
	}

	writeJSON(w, http.StatusOK, dev)
}

// handleDeleteDevice removes a device by ID.
func (s *Server) handleDeleteDevice(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := s.registry.DeleteDevice(r.Context(), id); err != nil {
		if errors.Is(err, inventory.ErrDeviceNotFound) {
			writeNotFound(w, "device not found")
			return
		}
		writeInternalError(w, "failed to delete device")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// handleDeviceStats returns fleet statistics.
func (s *Server) handleDeviceStats(w http.ResponseWriter, _ *http.Request) {
	stats := s.registry.GetStats()
	writeJSON(w, http.StatusOK, stats)
}
