// Copyright (c) 2025 go-threadpool contributors
//
// Use of this source code is covered by an MIT-style
// license that can be found in the LICENSE file

// Package goroutineid gives the pool's worker-goroutine re-entrancy guard
// something to key on. Go has no goroutine-local-storage primitive
// analogous to pthread_key_t/pthread_getspecific, so this extracts the
// runtime's own goroutine id out of a stack trace header line -- the same
// trick used by most Go goroutine-local-storage shims, since the runtime
// does not export the id through any supported API.
package goroutineid

import (
	"bytes"
	"runtime"
	"strconv"
)

// ID returns an identifier for the calling goroutine. It is stable for
// the lifetime of the goroutine and unique among currently running
// goroutines, but the runtime gives no guarantee of stability across Go
// versions; callers should treat it as an opaque key, never persist it.
func ID() int64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	return parseGoroutineID(buf[:n])
}

func parseGoroutineID(stack []byte) int64 {
	const prefix = "goroutine "
	stack = bytes.TrimPrefix(stack, []byte(prefix))
	end := bytes.IndexByte(stack, ' ')
	if end < 0 {
		return -1
	}
	id, err := strconv.ParseInt(string(stack[:end]), 10, 64)
	if err != nil {
		return -1
	}
	return id
}
