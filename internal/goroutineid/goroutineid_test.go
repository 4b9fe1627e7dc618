package goroutineid_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/npc1054657282/threadpool/internal/goroutineid"
)

func TestIDStableWithinGoroutine(t *testing.T) {
	first := goroutineid.ID()
	second := goroutineid.ID()
	assert.Equal(t, first, second)
}

func TestIDDistinctAcrossGoroutines(t *testing.T) {
	const n = 16
	ids := make([]int64, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ids[i] = goroutineid.ID()
		}(i)
	}
	wg.Wait()

	seen := make(map[int64]struct{}, n)
	for _, id := range ids {
		_, dup := seen[id]
		assert.False(t, dup, "goroutine ids must be unique among concurrently running goroutines")
		seen[id] = struct{}{}
	}
}
