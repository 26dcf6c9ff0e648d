package reasoncodes

import (
	"errors"
	"fmt"
)

// Error carries a ReasonCode alongside the underlying cause.
type Error struct {
	Code ReasonCode
	Err  error
}

func New(code ReasonCode, err error) *Error {
	return &Error{Code: code, Err: err}
}

func Newf(code ReasonCode, format string, args ...any) *Error {
	return &Error{Code: code, Err: fmt.Errorf(format, args...)}
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Code.String()
	}
	return fmt.Sprintf("%s: %v", e.Code, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error with the same code, so callers can test with errors.Is(err, reasoncodes.New(code, nil)).
func (e *Error) Is(target error) bool {
	var other *Error
	if !errors.As(target, &other) {
		return false
	}
	return other.Code == e.Code
}

// CodeOf extracts the reason code from err, falling back to the given default.
func CodeOf(err error, fallback ReasonCode) ReasonCode {
	var rcErr *Error
	if errors.As(err, &rcErr) {
		return rcErr.Code
	}
	return fallback
}
