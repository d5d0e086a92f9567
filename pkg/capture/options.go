package capture

import (
	pionlogging "github.com/pion/logging"

	"github.com/pion/videocapture/internal/logging"
	"github.com/pion/videocapture/pkg/dispatch"
	"github.com/pion/videocapture/pkg/driver"
)

// SessionOptions stores parameters used by Session.
type SessionOptions struct {
	// Manager is where devices are looked up. Defaults to driver.GetManager().
	Manager *driver.Manager
	// DeviceFilter narrows the candidate devices. By default the session picks
	// a back facing camera, or one that doesn't report its position.
	DeviceFilter driver.FilterFn
	// Callbacks is the context completions and frames are delivered on.
	// Defaults to a serial queue owned by the session.
	Callbacks dispatch.Dispatcher

	LoggerFactory pionlogging.LoggerFactory
}

// SessionOption is a type of Session functional option.
type SessionOption func(*SessionOptions)

// WithManager makes the session look devices up in m.
func WithManager(m *driver.Manager) SessionOption {
	return func(o *SessionOptions) {
		o.Manager = m
	}
}

// WithDeviceFilter replaces the default device selection.
func WithDeviceFilter(f driver.FilterFn) SessionOption {
	return func(o *SessionOptions) {
		o.DeviceFilter = f
	}
}

// WithCallbackDispatcher delivers completions and frames on d. d should run
// functions one at a time and in order, otherwise frames may be seen out of
// order.
func WithCallbackDispatcher(d dispatch.Dispatcher) SessionOption {
	return func(o *SessionOptions) {
		o.Callbacks = d
	}
}

// WithLoggerFactory sets the factory the session logger is created from.
func WithLoggerFactory(f pionlogging.LoggerFactory) SessionOption {
	return func(o *SessionOptions) {
		o.LoggerFactory = f
	}
}

func defaultDeviceFilter() driver.FilterFn {
	return driver.FilterAnd(
		driver.FilterVideoRecorder(),
		driver.FilterDeviceType(driver.Camera),
		driver.FilterPosition(driver.PositionBack, driver.PositionUnspecified),
	)
}

func defaultSessionOptions() SessionOptions {
	return SessionOptions{
		Manager:       driver.GetManager(),
		DeviceFilter:  defaultDeviceFilter(),
		LoggerFactory: logging.Factory(),
	}
}
