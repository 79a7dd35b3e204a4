package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/alphabot/alphabot-client/internal/api"
	"github.com/alphabot/alphabot-client/internal/credentials"
	"github.com/alphabot/alphabot-client/internal/model"
	"github.com/alphabot/alphabot-client/pkg/logger"
)

// Failure kinds. Every backend failure leaves the service layer as an *Error
// whose Kind is one of these, so callers match with errors.Is.
var (
	ErrUnauthorized     = errors.New("session expired")
	ErrNotFound         = errors.New("not found")
	ErrResolutionFailed = errors.New("could not load chat room")
	ErrSendFailed       = errors.New("message could not be sent")
	ErrRequestFailed    = errors.New("request failed")
	ErrInvalidInput     = errors.New("invalid input")
)

// Validation failures detected before any request is made.
var (
	ErrEmptyMessage       = errors.New("message is empty")
	ErrNoRoom             = errors.New("no chat room selected")
	ErrSendInFlight       = errors.New("a message is already being sent")
	ErrSuperseded         = errors.New("chat session changed")
	ErrInvalidTicker      = errors.New("invalid ticker")
	ErrEmptyTitle         = errors.New("title is empty")
	ErrTitleTooLong       = errors.New("title is too long")
	ErrInvalidCredentials = errors.New("incorrect login id or password")
	ErrPasswordMismatch   = errors.New("new passwords do not match")
	ErrProvisionalMessage = errors.New("message is not confirmed yet")
)

// Error is a classified backend failure.
type Error struct {
	Op     string
	Kind   error
	Status int
	Detail string
}

func (e *Error) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("%s: %v", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %v: %s", e.Op, e.Kind, e.Detail)
}

func (e *Error) Unwrap() error {
	return e.Kind
}

// FieldError is an input rejected by the backend or by local validation,
// attributed to one field of a form.
type FieldError struct {
	Field   string
	Message string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *FieldError) Unwrap() error {
	return ErrInvalidInput
}

// boundary converts backend errors into service errors. A 401 from any call
// clears the stored token and tells presentation layers to route to login.
type boundary struct {
	creds  credentials.Provider
	hub    *Hub
	logger *logger.Logger
}

func newBoundary(creds credentials.Provider, hub *Hub, log *logger.Logger) *boundary {
	return &boundary{creds: creds, hub: hub, logger: log}
}

// classify maps err to a service error. fallback is the kind used for
// failures that are neither 401 nor 404. When field is set, validation
// responses become a *FieldError for that field.
func (b *boundary) classify(ctx context.Context, op string, fallback error, field string, err error) error {
	status := api.StatusOf(err)
	detail := ""
	var se *api.StatusError
	if errors.As(err, &se) {
		detail = se.Detail
	}

	b.logger.Warn("backend call failed",
		zap.String("op", op),
		zap.Int("status", status),
		zap.Error(err),
	)

	switch {
	case api.IsUnauthorized(err):
		b.expire(ctx, op)
		return &Error{Op: op, Kind: ErrUnauthorized, Status: status, Detail: detail}
	case api.IsNotFound(err):
		return &Error{Op: op, Kind: ErrNotFound, Status: status, Detail: detail}
	case field != "" && api.IsValidation(err):
		f := field
		if se != nil && se.Field != "" {
			f = se.Field
		}
		msg := detail
		if msg == "" {
			msg = "rejected by server"
		}
		return &FieldError{Field: f, Message: msg}
	}
	return &Error{Op: op, Kind: fallback, Status: status, Detail: detail}
}

func (b *boundary) expire(ctx context.Context, op string) {
	if err := b.creds.Clear(context.WithoutCancel(ctx)); err != nil {
		b.logger.Error("failed to clear credentials", zap.Error(err))
	}
	b.hub.Emit(model.SessionEvent{
		Type:   model.EventAuthRequired,
		Reason: ErrUnauthorized.Error(),
		Metadata: map[string]any{
			"op":       op,
			"redirect": "/login",
		},
	})
}
