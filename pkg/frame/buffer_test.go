package frame

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBufferLock(t *testing.T) {
	b := NewBuffer(FormatNV12, 2, 2, []byte{1, 2, 3, 4, 5, 6})

	data, err := b.LockReadOnly()
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3, 4, 5, 6}, data)
	assert.True(t, b.Locked())

	_, err = b.LockReadOnly()
	assert.ErrorIs(t, err, ErrBufferLocked)

	b.Unlock()
	assert.False(t, b.Locked())

	_, err = b.LockReadOnly()
	require.NoError(t, err)
	b.Unlock()
}

func TestBufferReleased(t *testing.T) {
	b := NewBuffer(FormatNV12, 2, 2, make([]byte, 6))
	b.Release()

	_, err := b.LockReadOnly()
	assert.ErrorIs(t, err, ErrBufferReleased)
}

func TestBufferEmpty(t *testing.T) {
	b := NewBuffer(FormatMJPEG, 2, 2, nil)

	_, err := b.LockReadOnly()
	assert.ErrorIs(t, err, ErrBufferEmpty)

	b.SetLen(10)
	data, err := b.LockReadOnly()
	require.NoError(t, err)
	assert.Len(t, data, 10)
}

func TestBufferStamp(t *testing.T) {
	now := time.Now()
	b := NewBuffer(FormatI420, 4, 2, nil)
	b.Stamp(7, now)

	assert.Equal(t, uint64(7), b.Sequence())
	assert.Equal(t, now, b.Timestamp())
	assert.Equal(t, FormatI420, b.Format())
	assert.Equal(t, 4, b.Width())
	assert.Equal(t, 2, b.Height())
}

func TestBufferPool(t *testing.T) {
	p := NewBufferPool(FormatNV12, 4, 4)

	b := p.Get()
	assert.Len(t, b.Bytes(), 24)

	p.Put(b)
	_, err := b.LockReadOnly()
	assert.ErrorIs(t, err, ErrBufferReleased, "a pooled buffer must not be readable")

	b = p.Get()
	_, err = b.LockReadOnly()
	assert.NoError(t, err)
	b.Unlock()
}

func TestSize(t *testing.T) {
	cases := []struct {
		format Format
		size   int
		ok     bool
	}{
		{FormatNV12, 640*480 + 640*480/2, true},
		{FormatI420, 640*480 + 640*480/2, true},
		{FormatYUY2, 640 * 480 * 2, true},
		{FormatRGBA, 640 * 480 * 4, true},
		{FormatMJPEG, 0, false},
	}
	for _, c := range cases {
		size, ok := Size(c.format, 640, 480)
		assert.Equal(t, c.ok, ok, c.format)
		assert.Equal(t, c.size, size, c.format)
	}
}
