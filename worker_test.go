// Copyright (c) 2025 go-threadpool contributors
//
// Use of this source code is covered by an MIT-style
// license that can be found in the LICENSE file

package threadpool

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWorkerNameTruncatesPrefix(t *testing.T) {
	assert.Equal(t, "short-0", workerName("short", 0))
	assert.Equal(t, "toolon-2a", workerName("toolongprefix", 42))
	assert.Equal(t, "-f", workerName("", 15))
}

func TestWorkerAccessors(t *testing.T) {
	w := &Worker{id: 3, name: "w-3"}
	assert.Equal(t, 3, w.ID())
	assert.Equal(t, "w-3", w.Name())
	assert.Nil(t, w.Context())

	w.SetContext("hello")
	assert.Equal(t, "hello", w.Context())

	w.UnsetContext()
	assert.Nil(t, w.Context())
}

func TestWorkerReleaseCallbackArgIdempotentWithoutRefcount(t *testing.T) {
	w := &Worker{id: 0, name: "w-0", pool: &Pool{}, refHeld: true}
	// No refcount wired on the pool: must not panic, and must still clear refHeld.
	w.ReleaseCallbackArg()
	assert.False(t, w.refHeld)
	w.ReleaseCallbackArg()
}
