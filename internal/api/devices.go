package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"sort"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/fieldwatch/cathodic-core/internal/command"
	"github.com/fieldwatch/cathodic-core/internal/settings"
)

// handleListDevices returns the IDs of all devices the server knows
// about, with their current connectivity.
func (s *Server) handleListDevices(w http.ResponseWriter, _ *http.Request) {
	ids := s.settings.Devices()
	sort.Strings(ids)

	devices := make([]map[string]any, 0, len(ids))
	for _, id := range ids {
		devices = append(devices, map[string]any{
			"device_id": id,
			"connected": s.liveness.IsConnected(id),
		})
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"devices": devices,
		"count":   len(devices),
	})
}

// handleGetSettings returns the complete canonical settings snapshot for
// a device. The snapshot is lazily seeded on first access, so this never
// 404s for a syntactically valid device ID.
func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	deviceID := chi.URLParam(r, "id")

	snapshot, err := s.settings.Get(r.Context(), deviceID)
	if err != nil {
		if errors.Is(err, settings.ErrEmptyDeviceID) {
			writeBadRequest(w, "device ID is required")
			return
		}
		s.logger.Error("settings lookup failed", "device_id", deviceID, "error", err)
		writeInternalError(w, "failed to load settings")
		return
	}

	writeJSON(w, http.StatusOK, snapshot)
}

// handlePatchSettings merges a settings delta and dispatches the full
// frame to the device. Responds 202 with the PENDING command record;
// callers poll /commands/{commandID} for the outcome.
func (s *Server) handlePatchSettings(w http.ResponseWriter, r *http.Request) {
	deviceID := chi.URLParam(r, "id")

	var delta map[string]any
	if err := json.NewDecoder(r.Body).Decode(&delta); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	cmd, err := s.dispatcher.Dispatch(r.Context(), deviceID, delta)
	if err != nil {
		switch {
		case errors.Is(err, command.ErrEmptyDeviceID):
			writeBadRequest(w, "device ID is required")
		case errors.Is(err, command.ErrEmptyDelta):
			writeBadRequest(w, "delta must contain at least one field")
		case errors.Is(err, command.ErrPublishFailed):
			s.logger.Error("command publish failed", "device_id", deviceID, "error", err)
			writeError(w, http.StatusBadGateway, "publish_failed", "could not reach the broker; settings unchanged")
		default:
			s.logger.Error("dispatch failed", "device_id", deviceID, "error", err)
			writeInternalError(w, "failed to dispatch command")
		}
		return
	}

	writeJSON(w, http.StatusAccepted, cmd)
}

// handleResendSettings republishes the device's current complete
// settings frame without changing anything. Responds 202 with the
// PENDING command record, same as a patch.
func (s *Server) handleResendSettings(w http.ResponseWriter, r *http.Request) {
	deviceID := chi.URLParam(r, "id")

	cmd, err := s.dispatcher.DispatchSnapshot(r.Context(), deviceID)
	if err != nil {
		switch {
		case errors.Is(err, command.ErrEmptyDeviceID):
			writeBadRequest(w, "device ID is required")
		case errors.Is(err, command.ErrPublishFailed):
			s.logger.Error("snapshot publish failed", "device_id", deviceID, "error", err)
			writeError(w, http.StatusBadGateway, "publish_failed", "could not reach the broker")
		default:
			s.logger.Error("snapshot dispatch failed", "device_id", deviceID, "error", err)
			writeInternalError(w, "failed to dispatch snapshot")
		}
		return
	}

	writeJSON(w, http.StatusAccepted, cmd)
}

// handleGetConnectivity reports the liveness heuristic for a device.
func (s *Server) handleGetConnectivity(w http.ResponseWriter, r *http.Request) {
	deviceID := chi.URLParam(r, "id")

	rec, ok := s.liveness.Get(deviceID)
	if !ok {
		writeJSON(w, http.StatusOK, map[string]any{
			"device_id": deviceID,
			"connected": false,
			"seen":      false,
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"device_id":                 deviceID,
		"connected":                 s.liveness.IsConnected(deviceID),
		"seen":                      true,
		"last_activity_at":          rec.LastActivityAt.UTC().Format(time.RFC3339),
		"logging_interval_seconds":  int(rec.LoggingInterval.Seconds()),
		"effective_timeout_seconds": int(rec.EffectiveTimeout.Seconds()),
	})
}
