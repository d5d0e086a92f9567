package driver

import (
	"github.com/pion/videocapture/pkg/frame"
	"github.com/pion/videocapture/pkg/prop"
)

type OpenCloser interface {
	Open() error
	Close() error
}

// Adapter is what a device implementation provides. The Manager wraps it
// into a Driver that tracks its state.
type Adapter interface {
	OpenCloser
	Properties() []prop.Media
}

// VideoRecorder is implemented by adapters that capture video. VideoRecord
// is only called on an opened adapter, and at most one ReadCloser is alive at
// a time.
type VideoRecorder interface {
	VideoRecord(p prop.Media) (ReadCloser, error)
}

// Reader hands out raw frames one at a time. The buffer belongs to the
// adapter until release is called; Read must not be called again before that.
// Read returns io.EOF once the recording has been closed.
type Reader interface {
	Read() (buf frame.PixelBuffer, release func(), err error)
}

// ReaderFunc is a proxy type to make easier for users to implement Reader
type ReaderFunc func() (frame.PixelBuffer, func(), error)

func (f ReaderFunc) Read() (frame.PixelBuffer, func(), error) {
	return f()
}

// ReadCloser is a recording. Close stops the hardware stream but leaves the
// device open, and unblocks a pending Read.
type ReadCloser interface {
	Reader
	Close() error
}

// NewReadCloser bundles read and close into a ReadCloser.
func NewReadCloser(read ReaderFunc, close func() error) ReadCloser {
	return &readCloser{ReaderFunc: read, close: close}
}

type readCloser struct {
	ReaderFunc
	close func() error
}

func (rc *readCloser) Close() error {
	return rc.close()
}

// Info describes a registered device.
type Info struct {
	Label      string
	Name       string
	DeviceType DeviceType
	Position   Position
	Priority   Priority
}

// Driver is a registered adapter.
type Driver interface {
	Adapter
	ID() string
	Info() Info
	Status() State
}
