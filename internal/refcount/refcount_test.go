package refcount_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/npc1054657282/threadpool/internal/refcount"
)

func TestReleaseFiresExactlyOnceAtZero(t *testing.T) {
	fired := 0
	c := refcount.New(3, func() { fired++ })

	assert.False(t, c.Release())
	assert.False(t, c.Release())
	assert.True(t, c.Release())
	assert.Equal(t, 1, fired)
	assert.EqualValues(t, 0, c.Count())
}

func TestReleaseConcurrentFiresOnce(t *testing.T) {
	const n = 64
	fired := 0
	c := refcount.New(n, func() { fired++ })

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.Release()
		}()
	}
	wg.Wait()

	require.Equal(t, 1, fired, "destructor must run exactly once regardless of concurrent releases")
}
