package dispatch

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueueOrder(t *testing.T) {
	q := NewQueue("test")
	defer q.Close()

	const n = 100
	var got []int
	done := make(chan struct{})
	for i := 0; i < n; i++ {
		i := i
		require.True(t, q.Dispatch(func() {
			got = append(got, i)
			if i == n-1 {
				close(done)
			}
		}))
	}
	<-done

	require.Len(t, got, n)
	for i, v := range got {
		assert.Equal(t, i, v)
	}
}

func TestQueueSerial(t *testing.T) {
	q := NewQueue("serial")

	var (
		mu      sync.Mutex
		running int
		maxSeen int
	)
	for i := 0; i < 50; i++ {
		q.Dispatch(func() {
			mu.Lock()
			running++
			if running > maxSeen {
				maxSeen = running
			}
			mu.Unlock()

			mu.Lock()
			running--
			mu.Unlock()
		})
	}
	q.Close()

	assert.Equal(t, 1, maxSeen)
}

func TestQueueCloseDrains(t *testing.T) {
	q := NewQueue("drain")

	var count int
	for i := 0; i < 10; i++ {
		q.Dispatch(func() { count++ })
	}
	q.Close()

	assert.Equal(t, 10, count)
	assert.False(t, q.Dispatch(func() { count++ }), "dispatch after close must be rejected")
	assert.Equal(t, 10, count)
	assert.Equal(t, "drain", q.Label())
}

func TestInline(t *testing.T) {
	var called bool
	assert.True(t, Inline.Dispatch(func() { called = true }))
	assert.True(t, called)
}
