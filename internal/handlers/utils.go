package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
)

type contextKey string

const contextCallerKey contextKey = "caller"

// ErrorResponse is the JSON body returned for failed requests.
type ErrorResponse struct {
	Error string `json:"error"`
}

func callerFromContext(ctx context.Context) (string, error) {
	caller, ok := ctx.Value(contextCallerKey).(string)
	if !ok || strings.TrimSpace(caller) == "" {
		return "", errors.New("missing caller")
	}
	return caller, nil
}

func writeJSON(w http.ResponseWriter, status int, value any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(value)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, ErrorResponse{Error: message})
}
