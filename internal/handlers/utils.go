package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/aerofans/apiserver/apperror"
)

type contextKey string

const contextSubjectKey contextKey = "sub"

func userIDFromContext(ctx context.Context) (int, error) {
	subject, ok := ctx.Value(contextSubjectKey).(int)
	if !ok || subject < 1 {
		return 0, errors.New("missing subject")
	}
	return subject, nil
}

func writeJSON(w http.ResponseWriter, status int, value any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(value)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, ErrorResponse{Error: message})
}

// writeAppError maps a typed application error to its HTTP status. Anything
// untyped is an opaque server fault.
func writeAppError(w http.ResponseWriter, err error) {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		writeError(w, appErr.StatusCode(), appErr.Message)
		return
	}
	writeError(w, http.StatusInternalServerError, "internal server error")
}

// ErrorResponse is a simple error payload.
type ErrorResponse struct {
	Error string `json:"error"`
}

// StatusResponse is the soft success/failure payload used by the auth
// endpoints, matching what the frontend expects.
type StatusResponse struct {
	Status  bool   `json:"status"`
	Message string `json:"message"`
}
