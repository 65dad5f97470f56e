package api

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// Error is the JSON body of every non-2xx API response.
type Error struct {
	Status    int    `json:"status"`
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}

// Error codes returned in Error.Code.
const (
	ErrCodeBadRequest   = "bad_request"
	ErrCodeNotFound     = "not_found"
	ErrCodeNotConnected = "not_connected"
	ErrCodeUnavailable  = "unavailable"
	ErrCodeInternal     = "internal_error"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	//nolint:errcheck // client may already be gone
	json.NewEncoder(w).Encode(v)
}

// writeError writes an Error tagged with the request id assigned by
// requestIDMiddleware.
func writeError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	writeJSON(w, status, Error{
		Status:    status,
		Code:      code,
		Message:   message,
		RequestID: requestIDFrom(r),
	})
}

func writeBadRequest(w http.ResponseWriter, r *http.Request, message string) {
	writeError(w, r, http.StatusBadRequest, ErrCodeBadRequest, message)
}

func writeNotFound(w http.ResponseWriter, r *http.Request, message string) {
	writeError(w, r, http.StatusNotFound, ErrCodeNotFound, message)
}

// writeNotConnected reports a command that could not reach its robot.
// It shares 404 with writeNotFound; the code tells them apart.
func writeNotConnected(w http.ResponseWriter, r *http.Request, deviceID string, err error) {
	writeError(w, r, http.StatusNotFound, ErrCodeNotConnected, fmt.Sprintf("%v: %s", err, deviceID))
}

func writeUnavailable(w http.ResponseWriter, r *http.Request, message string) {
	writeError(w, r, http.StatusServiceUnavailable, ErrCodeUnavailable, message)
}

func writeInternalError(w http.ResponseWriter, r *http.Request, message string) {
	writeError(w, r, http.StatusInternalServerError, ErrCodeInternal, message)
}
