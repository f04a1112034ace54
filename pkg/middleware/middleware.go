package middleware

import (
	"context"

	"github.com/vango-dev/tableview/pkg/protocol"
)

// Call is one intent being handled by a session.
type Call struct {
	SessionID string
	Intent    protocol.Intent

	// Patches is the number of patches the intent produced. It is filled in
	// by the session once the handler has returned.
	Patches int
}

// IntentLabel is the intent type as used in metric labels and span names.
// Types the server does not know collapse to "unknown" so client input
// cannot grow the label set.
func (c *Call) IntentLabel() string {
	if !c.Intent.Type.Valid() {
		return "unknown"
	}
	return c.Intent.Type.String()
}

// Middleware wraps intent handling.
type Middleware interface {
	Handle(ctx context.Context, call *Call, next func(ctx context.Context) error) error
}

// MiddlewareFunc adapts a function to Middleware.
type MiddlewareFunc func(ctx context.Context, call *Call, next func(ctx context.Context) error) error

// Handle implements Middleware.
func (f MiddlewareFunc) Handle(ctx context.Context, call *Call, next func(ctx context.Context) error) error {
	return f(ctx, call, next)
}

// Chain composes middleware so the first one is outermost.
func Chain(mws ...Middleware) Middleware {
	return MiddlewareFunc(func(ctx context.Context, call *Call, next func(ctx context.Context) error) error {
		h := next
		for i := len(mws) - 1; i >= 0; i-- {
			mw, inner := mws[i], h
			h = func(ctx context.Context) error {
				return mw.Handle(ctx, call, inner)
			}
		}
		return h(ctx)
	})
}
