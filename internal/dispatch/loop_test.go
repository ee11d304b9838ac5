package dispatch

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoop_RunsInOrder(t *testing.T) {
	l := NewLoop()
	defer l.Close()

	var got []int
	for i := 0; i < 100; i++ {
		i := i
		require.True(t, l.Dispatch(func() { got = append(got, i) }))
	}
	require.True(t, l.Sync())

	require.Len(t, got, 100)
	for i, v := range got {
		assert.Equal(t, i, v)
	}
}

func TestLoop_SerialFromManyGoroutines(t *testing.T) {
	l := NewLoop()
	defer l.Close()

	counter := 0
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				l.Dispatch(func() { counter++ })
			}
		}()
	}
	wg.Wait()
	require.True(t, l.Sync())
	assert.Equal(t, 1000, counter)
}

func TestLoop_CloseRejectsWork(t *testing.T) {
	l := NewLoop()
	l.Close()

	assert.False(t, l.Dispatch(func() { t.Error("must not run") }))
	assert.False(t, l.Sync())
	// Closing twice is harmless.
	l.Close()
}

func TestLoop_CloseDiscardsQueued(t *testing.T) {
	l := NewLoop()

	release := make(chan struct{})
	started := make(chan struct{})
	l.Dispatch(func() {
		close(started)
		<-release
	})
	<-started

	ran := false
	l.Dispatch(func() { ran = true })

	go func() {
		time.Sleep(10 * time.Millisecond)
		close(release)
	}()
	l.Close()
	assert.False(t, ran)
}

func TestFunc(t *testing.T) {
	called := false
	d := Func(func(fn func()) bool {
		fn()
		return true
	})
	assert.True(t, d.Dispatch(func() { called = true }))
	assert.True(t, called)
}

func TestQueue_NextHonoursContext(t *testing.T) {
	q := NewQueue()
	defer q.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	fn, ok := q.Next(ctx)
	assert.False(t, ok)
	assert.Nil(t, fn)
}

func TestQueue_FIFO(t *testing.T) {
	q := NewQueue()

	var got []string
	q.Dispatch(func() { got = append(got, "a") })
	q.Dispatch(func() { got = append(got, "b") })
	assert.Equal(t, 2, q.Len())

	for i := 0; i < 2; i++ {
		fn, ok := q.Next(context.Background())
		require.True(t, ok)
		fn()
	}
	assert.Equal(t, []string{"a", "b"}, got)

	q.Close()
	_, ok := q.Next(context.Background())
	assert.False(t, ok)
	assert.False(t, q.Dispatch(func() {}))
	<-q.Done()
}
