package driver

import (
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"

	"github.com/pion/videocapture/internal/logging"
	"github.com/pion/videocapture/pkg/frame"
	"github.com/pion/videocapture/pkg/prop"
)

var streamLogger = logging.NewLogger("driver")

// FrameHandler receives one frame. It runs on the stream's callback goroutine;
// buf is only valid until it returns.
type FrameHandler func(buf frame.PixelBuffer)

// StreamOptions controls how frames are handed to the FrameHandler.
type StreamOptions struct {
	// DiscardLateFrames drops a frame when one is already waiting for the
	// handler, instead of making the device wait.
	DiscardLateFrames bool
}

// StreamStats counts frames seen by a stream.
type StreamStats struct {
	Captured  uint64
	Delivered uint64
	Dropped   uint64
}

type pendingFrame struct {
	buf     frame.PixelBuffer
	release func()
}

// Stream pumps frames out of a recording and calls a FrameHandler for each of
// them. Two goroutines are involved: the pump reads from the device, and the
// callback goroutine runs the handler, one frame at a time and in capture
// order. At most one frame waits between the two.
type Stream struct {
	rc      ReadCloser
	handler FrameHandler
	opts    StreamOptions

	frames   chan pendingFrame
	stop     chan struct{}
	pumpDone chan struct{}
	done     chan struct{}

	closeOnce sync.Once
	closeErr  error

	captured  atomic.Uint64
	delivered atomic.Uint64
	dropped   atomic.Uint64
}

// NewStream starts recording on d with p and delivers every frame to handler.
func NewStream(d Driver, p prop.Media, opts StreamOptions, handler FrameHandler) (*Stream, error) {
	vr, ok := d.(VideoRecorder)
	if !ok {
		return nil, fmt.Errorf("driver %s is not a video recorder", d.ID())
	}

	rc, err := vr.VideoRecord(p)
	if err != nil {
		return nil, err
	}

	s := &Stream{
		rc:       rc,
		handler:  handler,
		opts:     opts,
		frames:   make(chan pendingFrame, 1),
		stop:     make(chan struct{}),
		pumpDone: make(chan struct{}),
		done:     make(chan struct{}),
	}
	go s.pump()
	go s.deliver()

	streamLogger.Debugf("stream started on %s (%s)", d.Info().Label, p)
	return s, nil
}

func (s *Stream) pump() {
	defer close(s.pumpDone)
	defer close(s.frames)

	for {
		select {
		case <-s.stop:
			return
		default:
		}

		buf, release, err := s.rc.Read()
		if err != nil {
			if !errors.Is(err, io.EOF) {
				streamLogger.Warnf("stream ended: %v", err)
			}
			return
		}
		if release == nil {
			release = func() {}
		}
		s.captured.Add(1)

		f := pendingFrame{buf: buf, release: release}
		if s.opts.DiscardLateFrames {
			select {
			case s.frames <- f:
			case <-s.stop:
				s.dropped.Add(1)
				release()
				return
			default:
				s.dropped.Add(1)
				release()
			}
			continue
		}

		select {
		case s.frames <- f:
		case <-s.stop:
			s.dropped.Add(1)
			release()
			return
		}
	}
}

func (s *Stream) deliver() {
	defer close(s.done)

	for f := range s.frames {
		select {
		case <-s.stop:
			f.release()
			s.dropped.Add(1)
			continue
		default:
		}

		s.handler(f.buf)
		f.release()
		s.delivered.Add(1)
	}
}

// Done is closed once the callback goroutine has exited, either because the
// stream was closed or because the device stopped producing frames.
func (s *Stream) Done() <-chan struct{} {
	return s.done
}

// Stats returns a snapshot of the frame counters.
func (s *Stream) Stats() StreamStats {
	return StreamStats{
		Captured:  s.captured.Load(),
		Delivered: s.delivered.Load(),
		Dropped:   s.dropped.Load(),
	}
}

// Close stops the recording and waits for a handler call in progress to
// return. No handler call starts after Close returns. Close must not be
// called from the handler.
func (s *Stream) Close() error {
	s.closeOnce.Do(func() {
		close(s.stop)
		s.closeErr = s.rc.Close()
		<-s.pumpDone
		<-s.done
	})
	return s.closeErr
}
