package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/wherebelong/belong/internal/shared"
)

type errorResponse struct {
	Error string `json:"error"`
}

// writeJSON writes a JSON body with the given status.
func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body != nil {
		json.NewEncoder(w).Encode(body)
	}
}

// writeError maps service errors onto HTTP status codes.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError

	switch {
	case errors.Is(err, shared.ErrConflict):
		status = http.StatusConflict
	case errors.Is(err, shared.ErrNotFound), errors.Is(err, shared.ErrEmptyQueue):
		status = http.StatusNotFound
	case errors.Is(err, shared.ErrInvalidOperation), errors.Is(err, shared.ErrInvalidInput):
		status = http.StatusBadRequest
	case errors.Is(err, shared.ErrUpstreamFailure):
		status = http.StatusBadGateway
	case errors.Is(err, shared.ErrServiceUnavailable):
		status = http.StatusServiceUnavailable
	case errors.Is(err, shared.ErrAuthFailed), errors.Is(err, shared.ErrRefreshFailed):
		status = http.StatusUnauthorized
	}

	writeJSON(w, status, errorResponse{Error: err.Error()})
}

// decodeBody decodes a JSON request body into dst.
func decodeBody(r *http.Request, dst any) error {
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return shared.ErrInvalidInput
	}
	return nil
}
