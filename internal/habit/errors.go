package habit

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound     = errors.New("habit not found")
	ErrInvalidKind  = errors.New("operation not valid for habit kind")
	ErrDayNotClean  = errors.New("violations were logged on that day")
	ErrWindowClosed = errors.New("confirmation window is closed")
)

// ValidationError reports a malformed request field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

func invalid(field, format string, args ...any) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}
