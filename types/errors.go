package types

// Common error codes surfaced by the library. Codes are stable strings so
// callers can branch without matching message text.
const (
	ErrInvalidInput      = "invalid_input"
	ErrInvalidState      = "invalid_state"
	ErrQuoteFailed       = "quote_failed"
	ErrVerifyFailed      = "verification_failed"
	ErrQuoteInFlight     = "quote_in_flight"
	ErrExecutionInFlight = "execution_in_flight"
	ErrSessionExpired    = "session_expired"
	ErrInvalidPin        = "invalid_pin"
	ErrExecutionFailed   = "execution_failed"
	ErrNetworkError      = "network_error"
	ErrUnsupported       = "unsupported_category"
)

// Default reason strings used when the backend supplies none.
const (
	ReasonUnexpected     = "An unexpected error occurred"
	ReasonProviderDown   = "Service provider down"
	ReasonSessionExpired = "Session expired or invalid quote"
)

// Error is the library error type. Code is one of the Err* constants.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// E builds an Error from a code and message.
func E(code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Wrap builds an Error that keeps its cause for errors.Is/As chains.
func Wrap(code, message string, err error) *Error {
	return &Error{Code: code, Message: message, Err: err}
}

// CodeOf extracts the library error code from err, or empty string.
func CodeOf(err error) string {
	if e, ok := err.(*Error); ok {
		return e.Code
	}
	return ""
}
