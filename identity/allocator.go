package identity

import (
	"context"
	"fmt"

	"github.com/rotisserie/eris"

	"github.com/anchor-ecs/anchor/storage"
	"github.com/anchor-ecs/anchor/types"
)

// Allocator issues stable ids. Every value returned by Allocate is strictly
// greater than every value previously returned and every value passed to
// Observe. Gaps are fine; reuse never is, including across a restore.
//
// Observe is the safety valve for the one hazard that can break the no-reuse
// guarantee: a persisted counter that regressed below an id still carried by
// live object data. Each synchronization pass feeds every id it sees back
// through Observe, so the floor can only ever move up.
type Allocator interface {
	Allocate(ctx context.Context) (types.StableID, error)
	Observe(ctx context.Context, id types.StableID) error
}

// maxObservedAllocator derives the next id purely from the maximum id it has
// been shown. It holds no state that needs to survive a restore: as long as
// a pass runs Observe over the live set before the first Allocate, the next
// id is above anything a rollback can bring back.
type maxObservedAllocator struct {
	highest types.StableID
}

func NewMaxObservedAllocator() Allocator {
	return &maxObservedAllocator{}
}

func (a *maxObservedAllocator) Allocate(_ context.Context) (types.StableID, error) {
	a.highest++
	return a.highest, nil
}

func (a *maxObservedAllocator) Observe(_ context.Context, id types.StableID) error {
	if id > a.highest {
		a.highest = id
	}
	return nil
}

// persistedAllocator keeps its counter in durable storage outside the host's
// snapshot boundary, so a restore cannot rewind it. The id space is shared
// by every session using the same namespace and backing store.
type persistedAllocator struct {
	db        storage.PrimitiveStorage[string]
	namespace string
}

func NewPersistedAllocator(db storage.PrimitiveStorage[string], namespace string) Allocator {
	return &persistedAllocator{
		db:        db,
		namespace: namespace,
	}
}

func (a *persistedAllocator) Allocate(ctx context.Context) (types.StableID, error) {
	next, err := a.db.Incr(ctx, a.counterKey())
	if err != nil {
		return types.NoStableID, err
	}
	return types.StableID(next), nil
}

func (a *persistedAllocator) Observe(ctx context.Context, id types.StableID) error {
	current, err := a.db.GetUInt64(ctx, a.counterKey())
	if err != nil {
		if !eris.Is(eris.Cause(err), storage.ErrNotFound) {
			return err
		}
		current = 0
	}
	if uint64(id) <= current {
		return nil
	}
	// The counter regressed below live data (or was never seeded). Raise it
	// so the next Allocate cannot collide.
	return a.db.Set(ctx, a.counterKey(), uint64(id))
}

func (a *persistedAllocator) counterKey() string {
	return fmt.Sprintf("ANCHOR:%s:NEXT-STABLE-ID", a.namespace)
}
