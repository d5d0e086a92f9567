package capture

import (
	"errors"
	"fmt"
)

// ErrorKind classifies configuration failures.
type ErrorKind int

const (
	// Unknown is used for failures that don't fit another kind.
	Unknown ErrorKind = iota
	// InvalidInput means no device matched, the device failed to open or
	// the session couldn't attach it.
	InvalidInput
	// InvalidOutput means the session couldn't attach the frame output.
	InvalidOutput
	// SessionMissing means the operation needs a configured session.
	SessionMissing
)

func (k ErrorKind) String() string {
	switch k {
	case InvalidInput:
		return "invalid input"
	case InvalidOutput:
		return "invalid output"
	case SessionMissing:
		return "session missing"
	default:
		return "unknown"
	}
}

// ConfigError is returned by the lifecycle operations of a Session. Use
// errors.Is with ErrInvalidInput, ErrInvalidOutput, ErrSessionMissing or
// ErrUnknown to test the kind; the cause, if any, is returned by Unwrap.
type ConfigError struct {
	Kind ErrorKind
	Err  error
}

func (e *ConfigError) Error() string {
	if e.Err == nil {
		return "capture: " + e.Kind.String()
	}
	return fmt.Sprintf("capture: %s: %v", e.Kind, e.Err)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// Is matches a ConfigError without a cause against any ConfigError of the
// same kind.
func (e *ConfigError) Is(target error) bool {
	t, ok := target.(*ConfigError)
	if !ok || t.Err != nil {
		return false
	}
	return t.Kind == e.Kind
}

var (
	// ErrInvalidInput matches configuration errors about the device.
	ErrInvalidInput error = &ConfigError{Kind: InvalidInput}
	// ErrInvalidOutput matches configuration errors about the frame output.
	ErrInvalidOutput error = &ConfigError{Kind: InvalidOutput}
	// ErrSessionMissing is returned when starting an unconfigured session.
	ErrSessionMissing error = &ConfigError{Kind: SessionMissing}
	// ErrUnknown matches failures that fit no other kind.
	ErrUnknown error = &ConfigError{Kind: Unknown}

	// ErrSessionClosed is returned by operations submitted after Close.
	ErrSessionClosed = errors.New("capture: session closed")
)

func configError(kind ErrorKind, format string, args ...interface{}) error {
	return &ConfigError{Kind: kind, Err: fmt.Errorf(format, args...)}
}
