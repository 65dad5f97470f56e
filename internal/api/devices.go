package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
)

// CommandRequest is the body of POST /devices/{id}/commands.
type CommandRequest struct {
	Action string `json:"action"`
}

// CommandResponse reports a forwarded command.
type CommandResponse struct {
	Status   string `json:"status"`
	DeviceID string `json:"device_id"`
	Action   string `json:"action"`
}

// handleListDevices returns every registered device.
func (s *Server) handleListDevices(w http.ResponseWriter, _ *http.Request) {
	devices := s.registry.Devices()
	writeJSON(w, http.StatusOK, map[string]any{
		"devices": devices,
		"count":   len(devices),
	})
}

// handleGetDevice returns one registered device.
func (s *Server) handleGetDevice(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	dev, ok := s.registry.Device(id)
	if !ok {
		writeNotFound(w, r, "device not registered")
		return
	}
	writeJSON(w, http.StatusOK, dev)
}

// handleSendCommand forwards an action to a device through the same path as
// a WebSocket "cmd:" frame.
func (s *Server) handleSendCommand(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req CommandRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, r, "invalid JSON body")
		return
	}
	if strings.TrimSpace(req.Action) == "" {
		writeBadRequest(w, r, "action is required")
		return
	}

	result := s.router.Dispatch(id, req.Action)
	if err := result.Err(); err != nil {
		writeNotConnected(w, r, id, err)
		return
	}

	writeJSON(w, http.StatusAccepted, CommandResponse{
		Status:   result.String(),
		DeviceID: id,
		Action:   req.Action,
	})
}
