package core

import (
	"fmt"

	goerrors "github.com/go-errors/errors"
)

// ValidationError reports a required-field or structural check failure on a
// graph mutation. The mutation is aborted before anything is persisted.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation: %s", e.Message)
}

func NewValidationError(format string, args ...any) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// ConfigurationError reports an internal invariant violation, such as an
// assigned role referencing a role id absent from the graph's role set. It is
// a data-integrity error, not a user-facing one, and carries the stack of the
// point where the violation was detected.
type ConfigurationError struct {
	Message string
	stack   string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration: %s", e.Message)
}

// Stack returns the captured stack trace.
func (e *ConfigurationError) Stack() string {
	return e.stack
}

func NewConfigurationError(format string, args ...any) *ConfigurationError {
	e := &ConfigurationError{Message: fmt.Sprintf(format, args...)}
	e.stack = string(goerrors.New(e.Message).Stack())

	return e
}
