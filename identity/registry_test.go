package identity

import (
	"testing"

	"github.com/anchor-ecs/anchor/assert"
	"github.com/anchor-ecs/anchor/types"
)

func TestBindAndResolveAreInverses(t *testing.T) {
	reg := NewRegistry()

	assert.NilError(t, reg.Bind(1, 100))
	assert.NilError(t, reg.Bind(2, 200))

	handle, ok := reg.Resolve(1)
	assert.True(t, ok)
	assert.Equal(t, types.LiveHandle(100), handle)

	id, ok := reg.ResolveReverse(200)
	assert.True(t, ok)
	assert.Equal(t, types.StableID(2), id)

	assert.Equal(t, 2, reg.Len())
	assert.Equal(t, types.StableID(2), reg.Highest())
}

func TestResolveUnknownIDReportsAbsent(t *testing.T) {
	reg := NewRegistry()
	_, ok := reg.Resolve(42)
	assert.False(t, ok)
	assert.Equal(t, types.StateUnassigned, reg.State(42))
}

func TestBindRejectsConflicts(t *testing.T) {
	reg := NewRegistry()
	assert.NilError(t, reg.Bind(1, 100))

	// Same id, different handle.
	assert.ErrorIs(t, reg.Bind(1, 999), ErrBindingConflict)
	// Same handle, different id.
	assert.ErrorIs(t, reg.Bind(2, 100), ErrBindingConflict)
	// Rebinding the identical pair is a no-op, not a conflict.
	assert.NilError(t, reg.Bind(1, 100))

	// The failed binds must not have touched either map.
	handle, ok := reg.Resolve(1)
	assert.True(t, ok)
	assert.Equal(t, types.LiveHandle(100), handle)
	_, ok = reg.Resolve(2)
	assert.False(t, ok)
}

func TestBindRejectsZeroID(t *testing.T) {
	reg := NewRegistry()
	err := reg.Bind(types.NoStableID, 100)
	assert.Assert(t, err != nil)
}

func TestUnbindMovesIDToStale(t *testing.T) {
	reg := NewRegistry()
	assert.NilError(t, reg.Bind(7, 70))
	assert.NilError(t, reg.Unbind(7))

	_, ok := reg.Resolve(7)
	assert.False(t, ok)
	_, ok = reg.ResolveReverse(70)
	assert.False(t, ok)
	assert.Equal(t, types.StateStale, reg.State(7))
	assert.DeepEqual(t, []types.StableID{7}, reg.StaleIDs())

	assert.ErrorIs(t, reg.Unbind(7), ErrNotBound)
}

func TestStaleIDRebindsToNewHandle(t *testing.T) {
	reg := NewRegistry()
	assert.NilError(t, reg.Bind(7, 70))
	assert.NilError(t, reg.Unbind(7))

	// The rollback recovery transition: same id, new handle.
	assert.NilError(t, reg.Bind(7, 71))
	assert.Equal(t, types.StateLive, reg.State(7))
	assert.Len(t, reg.StaleIDs(), 0)
}

func TestAgeStaleRetiresAfterWindow(t *testing.T) {
	reg := NewRegistry()
	assert.NilError(t, reg.Bind(7, 70))
	assert.NilError(t, reg.Unbind(7))

	// Window of 2: survives two full passes, retires on the third.
	assert.Len(t, reg.ageStale(2), 0)
	assert.Len(t, reg.ageStale(2), 0)
	retired := reg.ageStale(2)
	assert.DeepEqual(t, []types.StableID{7}, retired)
	assert.Equal(t, types.StateRetired, reg.State(7))
}

func TestZeroWindowRetiresImmediately(t *testing.T) {
	reg := NewRegistry()
	assert.NilError(t, reg.Bind(7, 70))
	assert.NilError(t, reg.Unbind(7))
	assert.DeepEqual(t, []types.StableID{7}, reg.ageStale(0))
}

func TestRetiredIDCanBeReadmitted(t *testing.T) {
	reg := NewRegistry()
	assert.NilError(t, reg.Bind(7, 70))
	assert.NilError(t, reg.Unbind(7))
	reg.ageStale(0)
	assert.Equal(t, types.StateRetired, reg.State(7))

	// A restore older than the retirement window brought the id back.
	assert.NilError(t, reg.Bind(7, 71))
	assert.Equal(t, types.StateLive, reg.State(7))
}

func TestBoundIDsAreSorted(t *testing.T) {
	reg := NewRegistry()
	assert.NilError(t, reg.Bind(30, 3))
	assert.NilError(t, reg.Bind(10, 1))
	assert.NilError(t, reg.Bind(20, 2))
	assert.DeepEqual(t, []types.StableID{10, 20, 30}, reg.BoundIDs())
}
