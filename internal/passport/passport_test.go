package passport_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/npc1054657282/threadpool/internal/passport"
)

func TestBindIsExclusive(t *testing.T) {
	b := passport.New()
	require.Equal(t, passport.Unbind, b.State())
	require.True(t, b.Bind())
	assert.Equal(t, passport.Alive, b.State())
	assert.False(t, b.Bind(), "a second bind on an already-bound passport must fail")
}

func TestRollbackBind(t *testing.T) {
	b := passport.New()
	require.True(t, b.Bind())
	require.True(t, b.RollbackBind())
	assert.Equal(t, passport.Unbind, b.State())
	require.True(t, b.Bind(), "after rollback the passport can be bound again")
}

func TestMonotonicTransitions(t *testing.T) {
	b := passport.New()
	require.True(t, b.Bind())
	require.True(t, b.BeginShutdown())
	require.True(t, b.FinishShutdown())
	require.True(t, b.BeginDestroy())
	require.True(t, b.FinishDestroy())
	assert.Equal(t, passport.Destroyed, b.State())

	assert.False(t, b.Bind())
	assert.False(t, b.BeginShutdown())
	assert.False(t, b.FinishShutdown())
	assert.False(t, b.BeginDestroy())
	assert.False(t, b.FinishDestroy())
}

func TestNumAPIUse(t *testing.T) {
	b := passport.New()
	assert.EqualValues(t, 0, b.NumAPIUse())
	b.BeginCall()
	b.BeginCall()
	assert.EqualValues(t, 2, b.NumAPIUse())
	b.EndCall()
	assert.EqualValues(t, 1, b.NumAPIUse())
	b.EndCall()
	assert.EqualValues(t, 0, b.NumAPIUse())
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "UNBIND", passport.Unbind.String())
	assert.Equal(t, "ALIVE", passport.Alive.String())
	assert.Equal(t, "SHUTTING_DOWN", passport.ShuttingDown.String())
	assert.Equal(t, "SHUTDOWN", passport.Shutdown.String())
	assert.Equal(t, "DESTROYING", passport.Destroying.String())
	assert.Equal(t, "DESTROYED", passport.Destroyed.String())
	assert.Equal(t, "UNKNOWN_STATE", passport.State(99).String())
}
