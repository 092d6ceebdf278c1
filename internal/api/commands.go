package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/fieldwatch/cathodic-core/internal/audit"
	"github.com/fieldwatch/cathodic-core/internal/command"
)

// handleListCommands returns the resolved command history plus the
// current pending count. History is oldest first and bounded; older
// outcomes live in the audit trail.
func (s *Server) handleListCommands(w http.ResponseWriter, _ *http.Request) {
	history := s.dispatcher.History()

	writeJSON(w, http.StatusOK, map[string]any{
		"commands": history,
		"count":    len(history),
		"pending":  s.dispatcher.PendingCount(),
	})
}

// handleGetCommand returns a single command by ID, pending or resolved.
// This is the polling endpoint clients use after a PATCH.
func (s *Server) handleGetCommand(w http.ResponseWriter, r *http.Request) {
	commandID := chi.URLParam(r, "commandID")

	cmd, err := s.dispatcher.Get(commandID)
	if err != nil {
		if errors.Is(err, command.ErrCommandNotFound) {
			writeNotFound(w, "command not found")
			return
		}
		s.logger.Error("command lookup failed", "command_id", commandID, "error", err)
		writeInternalError(w, "failed to load command")
		return
	}

	writeJSON(w, http.StatusOK, cmd)
}

// handleListAudit returns persisted command audit entries, filterable by
// device, command, and kind.
func (s *Server) handleListAudit(w http.ResponseWriter, r *http.Request) {
	if s.audit == nil {
		writeNotFound(w, "audit trail not enabled")
		return
	}

	filter := audit.Filter{
		DeviceID:  r.URL.Query().Get("device_id"),
		CommandID: r.URL.Query().Get("command_id"),
		Kind:      r.URL.Query().Get("kind"),
	}

	result, err := s.audit.List(r.Context(), filter)
	if err != nil {
		s.logger.Error("audit query failed", "error", err)
		writeInternalError(w, "failed to query audit trail")
		return
	}

	writeJSON(w, http.StatusOK, result)
}
