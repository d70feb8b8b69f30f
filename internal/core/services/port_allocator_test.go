package services

import (
	"errors"
	"sync"
	"testing"

	"gridcast/internal/core/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPortAllocator_SequentialAcquiresAreDistinct(t *testing.T) {
	alloc, err := NewPortAllocator(8554, 5)
	require.NoError(t, err)

	seen := make(map[int]bool)
	for i := 0; i < 5; i++ {
		port, err := alloc.Acquire()
		require.NoError(t, err)
		assert.False(t, seen[port], "port %d handed out twice", port)
		seen[port] = true
	}
	assert.Equal(t, 5, alloc.InUse())
}

func TestPortAllocator_ExhaustionAndReuseAfterRelease(t *testing.T) {
	alloc, err := NewPortAllocator(8554, 2)
	require.NoError(t, err)

	p1, err := alloc.Acquire()
	require.NoError(t, err)
	assert.Equal(t, 8554, p1)

	_, err = alloc.Acquire()
	require.NoError(t, err)

	_, err = alloc.Acquire()
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrNoFreePort))

	// Lowest free port is handed out again once released.
	alloc.Release(p1)
	p3, err := alloc.Acquire()
	require.NoError(t, err)
	assert.Equal(t, p1, p3)
}

func TestPortAllocator_ConcurrentAcquires(t *testing.T) {
	const n = 64
	alloc, err := NewPortAllocator(9000, n)
	require.NoError(t, err)

	var (
		mu    sync.Mutex
		seen  = make(map[int]bool)
		wg    sync.WaitGroup
		dupes int
	)

	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			port, err := alloc.Acquire()
			if err != nil {
				return
			}
			mu.Lock()
			if seen[port] {
				dupes++
			}
			seen[port] = true
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.Zero(t, dupes)
	assert.Equal(t, n, alloc.InUse())
}

func TestNewPortAllocator_ValidatesRange(t *testing.T) {
	_, err := NewPortAllocator(0, 10)
	assert.Error(t, err)

	_, err = NewPortAllocator(65530, 100)
	assert.Error(t, err)

	_, err = NewPortAllocator(8554, 0)
	assert.Error(t, err)
}
