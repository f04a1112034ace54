package protocol

// ErrorCode identifies the type of error.
type ErrorCode string

const (
	ErrUnknown        ErrorCode = "unknown"         // Unknown error
	ErrInvalidFrame   ErrorCode = "invalid_frame"   // Malformed envelope
	ErrInvalidIntent  ErrorCode = "invalid_intent"  // Malformed or unknown intent
	ErrHandlerPanic   ErrorCode = "handler_panic"   // Intent handler panicked
	ErrSessionExpired ErrorCode = "session_expired" // Session no longer valid
	ErrRateLimited    ErrorCode = "rate_limited"    // Intent queue full
	ErrServerError    ErrorCode = "server_error"    // Internal server error
)

// ErrorMessage is sent when an error occurs.
type ErrorMessage struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Fatal   bool      `json:"fatal,omitempty"` // If true, the connection will be closed
}
