package cache

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetGetAndExpiry(t *testing.T) {
	c := NewInMemoryCache[string](10, time.Minute)

	c.Set("vk", "bytes")
	v, ok := c.Get("vk")
	require.True(t, ok)
	assert.Equal(t, "bytes", v)

	c.Set("short", "life", 50*time.Millisecond)
	time.Sleep(100 * time.Millisecond)
	_, ok = c.Get("short")
	assert.False(t, ok)
}

func TestDeleteAndClear(t *testing.T) {
	c := NewInMemoryCache[int](10, 0)
	c.Set("a", 1)
	c.Set("b", 2)

	c.Delete("a")
	_, ok := c.Get("a")
	assert.False(t, ok)

	c.Clear()
	assert.Equal(t, 0, c.Len())
}

func TestGetOrLoadRunsLoaderOnce(t *testing.T) {
	c := NewInMemoryCache[int](10, time.Minute)
	var calls atomic.Int32
	release := make(chan struct{})

	var wg sync.WaitGroup
	results := make([]int, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			v, err := c.GetOrLoad("ProofOfAge", func() (int, error) {
				calls.Add(1)
				<-release
				return 42, nil
			})
			assert.NoError(t, err)
			results[i] = v
		}(i)
	}

	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), calls.Load())
	for _, v := range results {
		assert.Equal(t, 42, v)
	}
}

func TestGetOrLoadDoesNotCacheErrors(t *testing.T) {
	c := NewInMemoryCache[int](10, time.Minute)

	_, err := c.GetOrLoad("k", func() (int, error) { return 0, errors.New("compile failed") })
	require.Error(t, err)

	v, err := c.GetOrLoad("k", func() (int, error) { return 7, nil })
	require.NoError(t, err)
	assert.Equal(t, 7, v)
}
