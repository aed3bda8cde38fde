package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/Skotchmaster/course_market/internal/events"
	"github.com/Skotchmaster/course_market/internal/moderation"
)

var (
	ErrValidation = errors.New("validation failed")
	ErrNotFound   = errors.New("not found")
	ErrConflict   = errors.New("conflict")
	ErrForbidden  = errors.New("forbidden")
)

// Error is a business failure with a client facing message. Kind is one of
// the sentinels above.
type Error struct {
	Kind    error
	Message string
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Unwrap() error { return e.Kind }

func invalid(msg string) error   { return &Error{Kind: ErrValidation, Message: msg} }
func notFound(msg string) error  { return &Error{Kind: ErrNotFound, Message: msg} }
func conflict(msg string) error  { return &Error{Kind: ErrConflict, Message: msg} }
func forbidden(msg string) error { return &Error{Kind: ErrForbidden, Message: msg} }

// fromViolation turns a refused moderation action into a conflict.
func fromViolation(err error) error {
	var v moderation.Violation
	if errors.As(err, &v) {
		return conflict(v.Error())
	}
	return err
}

// Message returns the client facing text of a business error.
func Message(err error) (string, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Message, true
	}
	return "", false
}

func publish(ctx context.Context, l *slog.Logger, p events.Publisher, topic, key string, ev events.Event) {
	if p == nil {
		return
	}
	if err := p.Publish(ctx, topic, key, ev); err != nil {
		l.Error("event_publish_failed", "topic", topic, "type", ev.Type, "error", err)
	}
}
