package capture

import (
	"image"
	"sync/atomic"
	"weak"
)

// Consumer receives the frames of a running session. img is nil when the
// frame couldn't be converted. img belongs to the consumer and may be kept.
type Consumer interface {
	OnFrame(s *Session, img image.Image)
}

// ConsumerFunc is a proxy type to make easier for users to implement Consumer
type ConsumerFunc func(s *Session, img image.Image)

func (f ConsumerFunc) OnFrame(s *Session, img image.Image) {
	f(s, img)
}

// Registration ties a Consumer to a Session. The session only keeps a weak
// reference to it: frames are delivered as long as the caller holds the
// Registration and hasn't closed it.
type Registration struct {
	consumer Consumer
	closed   atomic.Bool
}

// Close stops the delivery of frames to the consumer. Notifications that
// were already dispatched still run.
func (r *Registration) Close() {
	r.closed.Store(true)
}

// SetConsumer replaces the consumer of s. Passing nil removes it. The
// returned Registration must be kept reachable for frames to be delivered.
func (s *Session) SetConsumer(c Consumer) *Registration {
	if c == nil {
		s.consumer.Store(nil)
		return nil
	}

	r := &Registration{consumer: c}
	wp := weak.Make(r)
	s.consumer.Store(&wp)
	return r
}

// HasConsumer reports whether a live consumer is registered.
func (s *Session) HasConsumer() bool {
	return s.liveConsumer() != nil
}

func (s *Session) liveConsumer() Consumer {
	wp := s.consumer.Load()
	if wp == nil {
		return nil
	}
	r := wp.Value()
	if r == nil || r.closed.Load() {
		return nil
	}
	return r.consumer
}
