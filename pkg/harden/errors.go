package harden

import (
	"errors"
	"fmt"
)

type ErrorType string

const (
	ErrorTypeIO          ErrorType = "io_error"
	ErrorTypeProbe       ErrorType = "probe_error"
	ErrorTypeResolution  ErrorType = "resolution_error"
	ErrorTypeSpawn       ErrorType = "spawn_error"
	ErrorTypeExecution   ErrorType = "execution_failed"
	ErrorTypeTimeout     ErrorType = "timeout"
	ErrorTypeInvalidRule ErrorType = "invalid_rule"
)

// HardenError is returned by every engine component. Action is the ActionSpec
// or rule id the failure belongs to; Stderr carries captured subprocess output
// for execution failures.
type HardenError struct {
	Type    ErrorType
	Message string
	Action  string
	Stderr  string
	Context map[string]any
	Err     error
}

func (e *HardenError) Error() string {
	msg := e.Message
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	if e.Action != "" {
		return fmt.Sprintf("[%s] %s (action: %s)", e.Type, msg, e.Action)
	}
	return fmt.Sprintf("[%s] %s", e.Type, msg)
}

func (e *HardenError) Unwrap() error {
	return e.Err
}

// Is matches any *HardenError with the same Type, so callers can write
// errors.Is(err, &HardenError{Type: ErrorTypeSpawn}).
func (e *HardenError) Is(target error) bool {
	var t *HardenError
	if errors.As(target, &t) {
		return e.Type == t.Type
	}
	return false
}

func NewHardenError(errType ErrorType, message string, action string) *HardenError {
	return &HardenError{
		Type:    errType,
		Message: message,
		Action:  action,
		Context: make(map[string]any),
	}
}

func (e *HardenError) WithContext(key string, value any) *HardenError {
	e.Context[key] = value
	return e
}

func (e *HardenError) Wrap(err error) *HardenError {
	e.Err = err
	return e
}

// ErrorTypeOf returns the type of the first HardenError in err's chain, or ""
// when there is none.
func ErrorTypeOf(err error) ErrorType {
	var hErr *HardenError
	if errors.As(err, &hErr) {
		return hErr.Type
	}
	return ""
}
