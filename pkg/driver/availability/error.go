// Package availability holds the errors a device reports when it can't be
// used at all, as opposed to failing while in use.
package availability

import (
	"errors"
)

// Error is an availability failure. Compare with the values below using
// errors.Is.
type Error string

const (
	// ErrNoDevice means the device is gone or was never there.
	ErrNoDevice Error = "no such device"
	// ErrBusy means another client holds the device.
	ErrBusy Error = "device or resource busy"
)

func (e Error) Error() string {
	return string(e)
}

// IsError reports whether err is, or wraps, an availability error.
func IsError(err error) bool {
	var target Error
	return errors.As(err, &target)
}
