package core

// Error codes sent to clients.
const (
	ErrCodeBadRequest     = "bad_request"
	ErrCodeUnauthorized   = "unauthorized"
	ErrCodeNotFound       = "not_found"
	ErrCodeRateLimited    = "rate_limited"
	ErrCodeInvalidMessage = "invalid_message"
	ErrCodeInternal       = "internal"
)

// CoreError wraps a code and human-readable message.
type CoreError struct {
	Code    string
	Message string
}

func (e *CoreError) Error() string {
	return e.Message
}

// NewError constructs a CoreError.
func NewError(code, msg string) *CoreError {
	return &CoreError{Code: code, Message: msg}
}
