// Package capture connects a video device to a frame consumer.
//
// A Session is configured once with a device and a frame output, then
// started and stopped any number of times. Configuration and start/stop run
// on a serial queue private to the session, frames are read on the device's
// stream goroutine, and both completions and frames reach the caller through
// the callback dispatcher.
package capture

import (
	"context"
	"sync"
	"sync/atomic"
	"weak"

	"github.com/pion/logging"

	"github.com/pion/videocapture/pkg/dispatch"
	"github.com/pion/videocapture/pkg/driver"
	"github.com/pion/videocapture/pkg/frame"
	"github.com/pion/videocapture/pkg/prop"
)

// Session is a capture pipeline from one device to one Consumer.
type Session struct {
	manager *driver.Manager
	filter  driver.FilterFn
	log     logging.LeveledLogger

	work      *dispatch.Queue
	callbacks dispatch.Dispatcher
	// Set when callbacks is owned by the session.
	ownedCallbacks *dispatch.Queue

	// graph and stream are only written on the work queue. mu guards them
	// for readers on other goroutines.
	mu          sync.Mutex
	graph       graph
	stream      *driver.Stream
	halt        chan struct{}
	droppedLate uint64

	// Holds a token while a frame notification is pending on the callback
	// dispatcher. The stream callback waits for it, so frames arriving in
	// the meantime are dropped by the stream instead of piling up.
	inflight chan struct{}

	running  atomic.Bool
	consumer atomic.Pointer[weak.Pointer[Registration]]

	delivered          atomic.Uint64
	discarded          atomic.Uint64
	conversionFailures atomic.Uint64

	closeOnce sync.Once
	closeErr  error
}

// Stats counts what happened to the frames of a session.
type Stats struct {
	// Delivered is the number of notifications dispatched to the consumer.
	Delivered uint64
	// Discarded counts frames dropped by the session: stopped, no consumer
	// or not readable.
	Discarded uint64
	// ConversionFailures counts notifications sent with a nil image.
	ConversionFailures uint64
	// DroppedLate counts frames the device produced while the previous one
	// was still being handled.
	DroppedLate uint64
}

// NewSession creates a stopped, unconfigured session.
func NewSession(opts ...SessionOption) *Session {
	o := defaultSessionOptions()
	for _, opt := range opts {
		opt(&o)
	}

	s := &Session{
		manager:   o.Manager,
		filter:    o.DeviceFilter,
		log:       o.LoggerFactory.NewLogger("capture"),
		work:      dispatch.NewQueue("capture.session"),
		callbacks: o.Callbacks,
		inflight:  make(chan struct{}, 1),
	}
	if s.callbacks == nil {
		s.ownedCallbacks = dispatch.NewQueue("capture.callbacks")
		s.callbacks = s.ownedCallbacks
	}
	return s
}

// submit runs task on the work queue and then hands its result to done,
// still on the work queue. done gets ErrSessionClosed if the session has
// been closed.
func (s *Session) submit(task func() error, done func(error)) {
	if !s.work.Dispatch(func() { done(task()) }) {
		done(ErrSessionClosed)
	}
}

// await blocks until task has run on the work queue or ctx is done. In the
// latter case task still runs.
func (s *Session) await(ctx context.Context, task func() error) error {
	result := make(chan error, 1)
	s.submit(task, func(err error) { result <- err })

	select {
	case err := <-result:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// notify submits task and reports its result to completion, if any, on the
// callback dispatcher.
func (s *Session) notify(task func() error, completion func(error)) {
	s.submit(task, func(err error) {
		if completion == nil {
			return
		}
		if !s.callbacks.Dispatch(func() { completion(err) }) {
			completion(err)
		}
	})
}

// Configure attaches a device and the frame output to the session. See
// ConfigureAsync.
func (s *Session) Configure(ctx context.Context) error {
	return s.await(ctx, s.configure)
}

// ConfigureAsync configures the session on its work queue. A running
// session is stopped first. The configuration is applied as a whole or not
// at all: on failure the session keeps its previous attachments and, if it
// was running, is running again by the time completion is called.
// Configuring an already configured session is harmless.
func (s *Session) ConfigureAsync(completion func(error)) {
	s.notify(s.configure, completion)
}

// Start starts the delivery of frames. See StartAsync.
func (s *Session) Start(ctx context.Context) error {
	return s.await(ctx, s.startRunning)
}

// StartAsync starts the device stream. Starting a running session only
// calls completion. It fails with ErrSessionMissing on a session that
// hasn't been configured.
func (s *Session) StartAsync(completion func(error)) {
	s.notify(s.startRunning, completion)
}

// Stop stops the delivery of frames. See StopAsync.
func (s *Session) Stop(ctx context.Context) error {
	return s.await(ctx, s.stopRunning)
}

// StopAsync stops the device stream. When completion runs no frame is being
// handled anymore and none will be. Notifications that were dispatched
// before the stop aren't cancelled.
func (s *Session) StopAsync(completion func(error)) {
	s.notify(s.stopRunning, completion)
}

// Close stops the session, closes its device and releases the queues it
// owns. The session can't be used afterwards. Close must not be called from
// a completion or a Consumer when the session owns the callback queue.
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		result := make(chan error, 1)
		if s.work.Dispatch(func() { result <- s.teardown() }) {
			s.closeErr = <-result
		}
		s.work.Close()
		if s.ownedCallbacks != nil {
			s.ownedCallbacks.Close()
		}
	})
	return s.closeErr
}

func (s *Session) teardown() error {
	err := s.stopRunning()

	s.mu.Lock()
	inputs := s.graph.inputs
	s.graph = graph{}
	s.mu.Unlock()

	for _, in := range inputs {
		if cerr := in.driver.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}
	return err
}

// State returns Running between a successful start and the next stop.
func (s *Session) State() State {
	if s.running.Load() {
		return Running
	}
	return Stopped
}

// IsRunning reports whether the session is delivering frames.
func (s *Session) IsRunning() bool {
	return s.running.Load()
}

// Inputs returns the attached inputs. There is at most one.
func (s *Session) Inputs() []*DeviceInput {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*DeviceInput(nil), s.graph.inputs...)
}

// Outputs returns the attached outputs. There is at most one.
func (s *Session) Outputs() []*VideoDataOutput {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*VideoDataOutput(nil), s.graph.outputs...)
}

// Preset returns the preset of the current configuration.
func (s *Session) Preset() prop.Preset {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.graph.preset
}

// Stats returns a snapshot of the frame counters.
func (s *Session) Stats() Stats {
	s.mu.Lock()
	droppedLate := s.droppedLate
	if s.stream != nil {
		droppedLate += s.stream.Stats().Dropped
	}
	s.mu.Unlock()

	return Stats{
		Delivered:          s.delivered.Load(),
		Discarded:          s.discarded.Load(),
		ConversionFailures: s.conversionFailures.Load(),
		DroppedLate:        droppedLate,
	}
}

func (s *Session) startRunning() error {
	if s.running.Load() {
		if !s.streamEnded() {
			return nil
		}
		// The stream ended but watch hasn't stopped the session yet.
		if err := s.stopRunning(); err != nil {
			s.log.Warnf("failed to stop ended stream: %v", err)
		}
	}

	s.mu.Lock()
	g := s.graph
	s.mu.Unlock()

	if len(g.inputs) == 0 || len(g.outputs) == 0 {
		return ErrSessionMissing
	}
	p, ok := g.media()
	if !ok {
		return configError(InvalidInput, "%s no longer offers %s", g.inputs[0].driver.Info().Label, g.preset)
	}

	out := g.outputs[0]
	halt := make(chan struct{})
	s.running.Store(true)
	stream, err := driver.NewStream(g.inputs[0].driver, p, driver.StreamOptions{
		DiscardLateFrames: out.DiscardLateFrames,
	}, func(buf frame.PixelBuffer) {
		s.captureOutput(buf, halt)
	})
	if err != nil {
		s.running.Store(false)
		return &ConfigError{Kind: Unknown, Err: err}
	}

	s.mu.Lock()
	s.stream = stream
	s.halt = halt
	s.mu.Unlock()

	go s.watch(stream)
	s.log.Infof("started capturing %s", p)
	return nil
}

// watch stops the session when the stream ends on its own, for example
// because the device went away.
func (s *Session) watch(stream *driver.Stream) {
	<-stream.Done()
	s.work.Dispatch(func() {
		s.mu.Lock()
		current := s.stream == stream
		s.mu.Unlock()
		if !current {
			return
		}
		s.log.Warn("device stream ended, stopping")
		if err := s.stopRunning(); err != nil {
			s.log.Warnf("failed to stop: %v", err)
		}
	})
}

// streamEnded reports whether the current stream stopped on its own.
func (s *Session) streamEnded() bool {
	s.mu.Lock()
	stream := s.stream
	s.mu.Unlock()

	if stream == nil {
		return false
	}
	select {
	case <-stream.Done():
		return true
	default:
		return false
	}
}

func (s *Session) stopRunning() error {
	s.running.Store(false)

	s.mu.Lock()
	stream, halt := s.stream, s.halt
	s.stream, s.halt = nil, nil
	s.mu.Unlock()

	if stream == nil {
		return nil
	}
	// Unblocks a stream callback waiting for the previous notification.
	close(halt)

	err := stream.Close()
	stats := stream.Stats()

	s.mu.Lock()
	s.droppedLate += stats.Dropped
	s.mu.Unlock()

	s.log.Infof("stopped capturing: %d captured, %d dropped late", stats.Captured, stats.Dropped)
	return err
}

// captureOutput runs on the stream goroutine, once per frame and in capture
// order. buf is only valid until it returns. It doesn't return before the
// previous notification has run or halt is closed, which keeps at most one
// converted frame waiting for the consumer.
func (s *Session) captureOutput(buf frame.PixelBuffer, halt <-chan struct{}) {
	if !s.running.Load() {
		s.discarded.Add(1)
		return
	}

	c := s.liveConsumer()
	if c == nil {
		s.discarded.Add(1)
		return
	}

	select {
	case s.inflight <- struct{}{}:
	case <-halt:
		s.discarded.Add(1)
		return
	}
	release := func() { <-s.inflight }

	img, ok := s.convert(buf)
	if !ok {
		release()
		s.discarded.Add(1)
		return
	}

	if !s.callbacks.Dispatch(func() {
		defer release()
		c.OnFrame(s, img)
	}) {
		release()
		s.discarded.Add(1)
		return
	}
	s.delivered.Add(1)
}
