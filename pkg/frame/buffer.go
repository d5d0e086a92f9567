package frame

import (
	"errors"
	"sync"
	"time"
)

var (
	ErrBufferReleased = errors.New("frame: buffer has been released")
	ErrBufferLocked   = errors.New("frame: buffer is already locked")
	ErrBufferEmpty    = errors.New("frame: buffer is empty")
)

// PixelBuffer is one captured frame, lent by the device that produced it.
// The pixel memory belongs to the device: it can only be read between
// LockReadOnly and Unlock, and the buffer must not be used once the frame
// callback that received it has returned.
type PixelBuffer interface {
	Format() Format
	Width() int
	Height() int
	// Sequence is a per stream frame counter starting at 1.
	Sequence() uint64
	Timestamp() time.Time
	// LockReadOnly grants read access to the pixel memory. Every successful
	// call must be paired with exactly one Unlock.
	LockReadOnly() ([]byte, error)
	Unlock()
}

// Buffer is the PixelBuffer implementation used by the drivers in this module.
type Buffer struct {
	format        Format
	width, height int
	seq           uint64
	ts            time.Time

	mu       sync.Mutex
	data     []byte
	locked   bool
	released bool
}

var _ PixelBuffer = &Buffer{}

// NewBuffer wraps data as a frame of the given format and size.
func NewBuffer(format Format, width, height int, data []byte) *Buffer {
	return &Buffer{
		format: format,
		width:  width,
		height: height,
		data:   data,
	}
}

func (b *Buffer) Format() Format       { return b.format }
func (b *Buffer) Width() int           { return b.width }
func (b *Buffer) Height() int          { return b.height }
func (b *Buffer) Sequence() uint64     { return b.seq }
func (b *Buffer) Timestamp() time.Time { return b.ts }

// Stamp sets the frame counter and the capture time.
func (b *Buffer) Stamp(seq uint64, ts time.Time) {
	b.seq = seq
	b.ts = ts
}

// Bytes gives the producer write access to the pixel memory. Consumers must
// go through LockReadOnly instead.
func (b *Buffer) Bytes() []byte {
	return b.data
}

// SetLen resizes the visible part of the pixel memory, growing the backing
// array when needed. It's used by producers of compressed frames.
func (b *Buffer) SetLen(n int) {
	if cap(b.data) < n {
		b.data = make([]byte, n)
	}
	b.data = b.data[:n]
}

func (b *Buffer) LockReadOnly() ([]byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch {
	case b.released:
		return nil, ErrBufferReleased
	case b.locked:
		return nil, ErrBufferLocked
	case len(b.data) == 0:
		return nil, ErrBufferEmpty
	}

	b.locked = true
	return b.data, nil
}

func (b *Buffer) Unlock() {
	b.mu.Lock()
	b.locked = false
	b.mu.Unlock()
}

// Locked reports whether a reader currently holds the buffer.
func (b *Buffer) Locked() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.locked
}

// Release invalidates the buffer. Later LockReadOnly calls fail.
func (b *Buffer) Release() {
	b.mu.Lock()
	b.released = true
	b.locked = false
	b.mu.Unlock()
}

// BufferPool recycles Buffers of a fixed format and size so that a stream
// doesn't allocate a new frame for every capture.
type BufferPool struct {
	format        Format
	width, height int
	pool          sync.Pool
}

// NewBufferPool creates a pool for width x height frames in format f. For
// compressed formats the buffers start empty and grow on demand.
func NewBufferPool(f Format, width, height int) *BufferPool {
	p := BufferPool{
		format: f,
		width:  width,
		height: height,
	}
	size, _ := Size(f, width, height)
	p.pool.New = func() interface{} {
		return NewBuffer(f, width, height, make([]byte, size))
	}
	return &p
}

// Get returns a writable buffer.
func (p *BufferPool) Get() *Buffer {
	b := p.pool.Get().(*Buffer)
	b.mu.Lock()
	b.released = false
	b.locked = false
	b.mu.Unlock()
	return b
}

// Put releases b and hands it back to the pool.
func (p *BufferPool) Put(b *Buffer) {
	b.Release()
	p.pool.Put(b)
}
