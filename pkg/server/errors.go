package server

import (
	"context"
	stderrors "errors"
	"fmt"

	"github.com/vango-dev/tableview/internal/errors"
	"github.com/vango-dev/tableview/pkg/protocol"
)

// Sentinel errors for common session and server error conditions.
var (
	// ErrSessionClosed is returned when an operation is attempted on a closed session.
	ErrSessionClosed = stderrors.New("server: session closed")

	// ErrSessionNotFound is returned when a session ID does not exist.
	ErrSessionNotFound = stderrors.New("server: session not found")

	// ErrIntentQueueFull is returned when the intent queue is full and an intent is dropped.
	ErrIntentQueueFull = stderrors.New("server: intent queue full")

	// ErrMaxSessionsReached is returned when the maximum number of sessions is reached.
	ErrMaxSessionsReached = stderrors.New("server: max sessions reached")

	// ErrNoConnection is returned when attempting to send on a nil connection.
	ErrNoConnection = stderrors.New("server: no connection")
)

// SessionError wraps an error with session context for debugging.
type SessionError struct {
	SessionID string
	Op        string // Operation that failed
	Err       error  // Underlying error
}

// Error returns the error message with session context.
func (e *SessionError) Error() string {
	if e.SessionID == "" {
		return fmt.Sprintf("server: %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("server: session %s: %s: %v", e.SessionID, e.Op, e.Err)
}

// Unwrap returns the underlying error.
func (e *SessionError) Unwrap() error {
	return e.Err
}

// rejectIntent builds the E201 error for an intent the session cannot apply.
func rejectIntent(in protocol.Intent, format string, args ...any) *errors.TableError {
	return errors.New(errors.CodeUnknownIntent).
		WithDetailf("intent %q: "+format, append([]any{string(in.Type)}, args...)...)
}

// wireError maps an intent failure to the error message sent to the client.
func wireError(err error) *protocol.ErrorMessage {
	switch {
	case errors.Code(err) == errors.CodeUnknownIntent:
		msg := err.Error()
		var te *errors.TableError
		if stderrors.As(err, &te) && te.Detail != "" {
			msg = te.Detail
		}
		return &protocol.ErrorMessage{Code: protocol.ErrInvalidIntent, Message: msg}
	case stderrors.Is(err, context.DeadlineExceeded):
		return &protocol.ErrorMessage{Code: protocol.ErrServerError, Message: "intent timed out"}
	case stderrors.Is(err, ErrIntentQueueFull):
		return &protocol.ErrorMessage{Code: protocol.ErrRateLimited, Message: "intent queue full"}
	default:
		return &protocol.ErrorMessage{Code: protocol.ErrServerError, Message: "internal error"}
	}
}
