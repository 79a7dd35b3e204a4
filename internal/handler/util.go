package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/alphabot/alphabot-client/internal/service"
	"github.com/alphabot/alphabot-client/pkg/logger"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 1 << 20

// errorResponse is the body of every error response.
type errorResponse struct {
	Error    string `json:"error"`
	Field    string `json:"field,omitempty"`
	Redirect string `json:"redirect,omitempty"`
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// writeServiceError maps a service error to a status code.
func writeServiceError(w http.ResponseWriter, log *logger.Logger, err error) {
	var fe *service.FieldError
	switch {
	case errors.As(err, &fe):
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: fe.Message, Field: fe.Field})
	case errors.Is(err, service.ErrUnauthorized):
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: service.ErrUnauthorized.Error(), Redirect: "/login"})
	case errors.Is(err, service.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, service.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrSendInFlight), errors.Is(err, service.ErrSuperseded):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, service.ErrEmptyMessage),
		errors.Is(err, service.ErrNoRoom),
		errors.Is(err, service.ErrInvalidTicker),
		errors.Is(err, service.ErrEmptyTitle),
		errors.Is(err, service.ErrTitleTooLong),
		errors.Is(err, service.ErrPasswordMismatch),
		errors.Is(err, service.ErrProvisionalMessage),
		errors.Is(err, service.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrResolutionFailed),
		errors.Is(err, service.ErrSendFailed),
		errors.Is(err, service.ErrRequestFailed):
		writeError(w, http.StatusBadGateway, err.Error())
	default:
		log.Error("unhandled service error", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

// decodeJSON reads a bounded JSON body into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

// queryInt reads a positive integer query parameter, or 0.
func queryInt(r *http.Request, key string) int {
	if v := r.URL.Query().Get(key); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			return parsed
		}
	}
	return 0
}
