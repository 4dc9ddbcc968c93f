package identity_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/anchor-ecs/anchor/assert"
	"github.com/anchor-ecs/anchor/identity"
	"github.com/anchor-ecs/anchor/storage"
	"github.com/anchor-ecs/anchor/types"
)

func newRedisStorageForTest(t *testing.T) *storage.RedisStorage {
	s := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: s.Addr()})
	return storage.NewRedisPrimitiveStorage(client)
}

func TestMaxObservedAllocatorIsStrictlyIncreasing(t *testing.T) {
	ctx := context.Background()
	alloc := identity.NewMaxObservedAllocator()

	var prev types.StableID
	for i := 0; i < 100; i++ {
		id, err := alloc.Allocate(ctx)
		assert.NilError(t, err)
		assert.Assert(t, id > prev, "allocated %d after %d", id, prev)
		prev = id
	}
}

func TestMaxObservedAllocatorRespectsObservedFloor(t *testing.T) {
	ctx := context.Background()
	alloc := identity.NewMaxObservedAllocator()

	assert.NilError(t, alloc.Observe(ctx, 500))
	id, err := alloc.Allocate(ctx)
	assert.NilError(t, err)
	assert.Equal(t, types.StableID(501), id)

	// Observing something below the floor must not lower it.
	assert.NilError(t, alloc.Observe(ctx, 3))
	id, err = alloc.Allocate(ctx)
	assert.NilError(t, err)
	assert.Equal(t, types.StableID(502), id)
}

func TestPersistedAllocatorIsStrictlyIncreasing(t *testing.T) {
	ctx := context.Background()
	alloc := identity.NewPersistedAllocator(newRedisStorageForTest(t), "test")

	var prev types.StableID
	for i := 0; i < 50; i++ {
		id, err := alloc.Allocate(ctx)
		assert.NilError(t, err)
		assert.Assert(t, id > prev)
		prev = id
	}
}

func TestPersistedAllocatorSurvivesRestart(t *testing.T) {
	ctx := context.Background()
	db := newRedisStorageForTest(t)

	alloc := identity.NewPersistedAllocator(db, "test")
	var last types.StableID
	for i := 0; i < 10; i++ {
		id, err := alloc.Allocate(ctx)
		assert.NilError(t, err)
		last = id
	}

	// A new allocator over the same storage must continue, not restart.
	alloc = identity.NewPersistedAllocator(db, "test")
	id, err := alloc.Allocate(ctx)
	assert.NilError(t, err)
	assert.Assert(t, id > last)
}

// A persisted counter that regressed below an id still carried by live
// object data is the one failure mode that can produce duplicate ids.
// Observe must repair the counter before the next allocation.
func TestPersistedAllocatorRecoversFromRegressedCounter(t *testing.T) {
	ctx := context.Background()
	db := newRedisStorageForTest(t)
	alloc := identity.NewPersistedAllocator(db, "test")

	// The counter says 2, but some live object already carries id 900.
	assert.NilError(t, db.Set(ctx, "ANCHOR:test:NEXT-STABLE-ID", uint64(2)))
	assert.NilError(t, alloc.Observe(ctx, 900))

	id, err := alloc.Allocate(ctx)
	assert.NilError(t, err)
	assert.Assert(t, id > 900, "allocated %d, which collides with live data", id)
}

func TestPersistedAllocatorNamespacesAreIsolated(t *testing.T) {
	ctx := context.Background()
	db := newRedisStorageForTest(t)

	allocA := identity.NewPersistedAllocator(db, "sim-a")
	allocB := identity.NewPersistedAllocator(db, "sim-b")

	for i := 0; i < 5; i++ {
		_, err := allocA.Allocate(ctx)
		assert.NilError(t, err)
	}
	id, err := allocB.Allocate(ctx)
	assert.NilError(t, err)
	assert.Equal(t, types.StableID(1), id, "sim-b must start its own id space")
}

func TestAllocatorsNeverReuseAcrossManyAllocations(t *testing.T) {
	ctx := context.Background()
	for name, alloc := range map[string]identity.Allocator{
		"max-observed":      identity.NewMaxObservedAllocator(),
		"persisted-counter": identity.NewPersistedAllocator(newRedisStorageForTest(t), "test"),
	} {
		t.Run(fmt.Sprintf("strategy=%s", name), func(t *testing.T) {
			seen := map[types.StableID]bool{}
			for i := 0; i < 200; i++ {
				id, err := alloc.Allocate(ctx)
				assert.NilError(t, err)
				assert.False(t, seen[id], "id %d issued twice", id)
				seen[id] = true
				if i%17 == 0 {
					assert.NilError(t, alloc.Observe(ctx, id+5))
				}
			}
		})
	}
}
