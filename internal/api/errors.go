package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// maxErrorBody bounds how much of an error response is kept.
const maxErrorBody = 500

// StatusError is a non-2xx backend response.
type StatusError struct {
	Op     string
	Status int
	Detail string
	// Field names the offending input for validation responses, when known.
	Field string
}

func (e *StatusError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("%s: backend returned %d", e.Op, e.Status)
	}
	return fmt.Sprintf("%s: backend returned %d: %s", e.Op, e.Status, e.Detail)
}

// TransportError is a failure to reach the backend or to read its answer.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// StatusOf returns the HTTP status carried by err, or 0.
func StatusOf(err error) int {
	var se *StatusError
	if errors.As(err, &se) {
		return se.Status
	}
	return 0
}

// IsUnauthorized reports whether err is a 401 response.
func IsUnauthorized(err error) bool {
	return StatusOf(err) == http.StatusUnauthorized
}

// IsNotFound reports whether err is a 404 response.
func IsNotFound(err error) bool {
	return StatusOf(err) == http.StatusNotFound
}

// IsValidation reports whether err is an input validation response.
func IsValidation(err error) bool {
	switch StatusOf(err) {
	case http.StatusBadRequest, http.StatusConflict, http.StatusUnprocessableEntity:
		return true
	}
	return false
}

// errorBody covers the FastAPI error shapes: {"detail": "..."} and
// {"detail": [{"loc": [...], "msg": "..."}]}.
type errorBody struct {
	Detail json.RawMessage `json:"detail"`
	Error  string          `json:"error"`
}

type validationItem struct {
	Loc []any  `json:"loc"`
	Msg string `json:"msg"`
}

func newStatusError(op string, resp *http.Response) *StatusError {
	se := &StatusError{Op: op, Status: resp.StatusCode}

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if len(raw) == 0 {
		return se
	}

	var body errorBody
	if err := json.Unmarshal(raw, &body); err != nil {
		se.Detail = strings.TrimSpace(string(raw))
		return se
	}
	if body.Error != "" {
		se.Detail = body.Error
		return se
	}

	var detail string
	if err := json.Unmarshal(body.Detail, &detail); err == nil {
		se.Detail = detail
		return se
	}

	var items []validationItem
	if err := json.Unmarshal(body.Detail, &items); err == nil && len(items) > 0 {
		se.Detail = items[0].Msg
		if n := len(items[0].Loc); n > 0 {
			if field, ok := items[0].Loc[n-1].(string); ok {
				se.Field = field
			}
		}
		return se
	}

	se.Detail = strings.TrimSpace(string(raw))
	return se
}
