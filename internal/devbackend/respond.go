package devbackend

import (
	"encoding/json"
	stderrors "errors"
	"net/http"

	"github.com/hpungsan/intentdesk/internal/errors"
)

// apiError is the payload of an error response: {"error": {...}}.
type apiError struct {
	Code    string         `json:"code"`
	Status  int            `json:"status"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

func toAPIError(err error) *apiError {
	var cErr *errors.ConsoleError
	if !stderrors.As(err, &cErr) {
		cErr = errors.NewInternal(err)
	}
	out := &apiError{Code: string(cErr.Code), Status: cErr.Status, Message: cErr.Message}
	// Internal causes stay in the server log.
	if cErr.Code != errors.ErrInternal {
		out.Details = cErr.Details
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, e *apiError) {
	writeJSON(w, e.Status, map[string]*apiError{"error": e})
}
