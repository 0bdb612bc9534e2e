package catalog

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound    = errors.New("product not found")
	ErrInvalidID   = errors.New("invalid product id")
	ErrUnavailable = errors.New("no product backend available")
)

// Validation error codes, reported to API clients verbatim.
const (
	CodeInvalidBody  = "invalid_body"
	CodeInvalidName  = "invalid_name"
	CodeInvalidPrice = "invalid_price"
	CodeFileRequired = "file_required"
)

// ValidationError rejects a payload before any backend is touched.
type ValidationError struct {
	Code    string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func invalid(code, msg string) error {
	return &ValidationError{Code: code, Message: msg}
}

// IsValidation reports whether err is a ValidationError and returns it.
func IsValidation(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}
