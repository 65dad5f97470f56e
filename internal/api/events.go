package api

import (
	"net/http"
	"strconv"

	"github.com/nerrad567/robot-relay/internal/audit"
)

// handleListEvents returns the session audit log, newest first.
//
// Query parameters: kind, device_id, limit, offset.
func (s *Server) handleListEvents(w http.ResponseWriter, r *http.Request) {
	if s.audit == nil {
		writeUnavailable(w, r, "session audit is disabled")
		return
	}

	q := r.URL.Query()
	filter := audit.Filter{
		Kind:     q.Get("kind"),
		DeviceID: q.Get("device_id"),
	}

	var err error
	if filter.Limit, err = intParam(q.Get("limit")); err != nil {
		writeBadRequest(w, r, "limit must be a non-negative integer")
		return
	}
	if filter.Offset, err = intParam(q.Get("offset")); err != nil {
		writeBadRequest(w, r, "offset must be a non-negative integer")
		return
	}

	result, err := s.audit.List(r.Context(), filter)
	if err != nil {
		s.logger.Error("failed to list audit events", "error", err, "request_id", requestIDFrom(r))
		writeInternalError(w, r, "failed to list events")
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// intParam parses an optional non-negative query parameter; "" yields 0.
func intParam(v string) (int, error) {
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, err
	}
	if n < 0 {
		return 0, strconv.ErrRange
	}
	return n, nil
}
