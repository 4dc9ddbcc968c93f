package identity

import (
	"slices"

	"github.com/rotisserie/eris"

	"github.com/anchor-ecs/anchor/storage"
	"github.com/anchor-ecs/anchor/types"
)

// Registry is the bidirectional mapping between stable ids and the live
// handles currently backing them. It is the single source of truth for "what
// live object does this id point at", and it is only valid between the end
// of a synchronization pass and the next batch of host mutations.
//
// Invariant: forward and reverse are exact inverses after a completed pass.
// Bind refuses anything that would break that, so the synchronizer must
// unbind stale entries before binding replacements.
//
// A Registry is plain session state. It is owned by whoever created it and
// must be passed explicitly; there is no ambient global registry, so
// independent simulations and tests get isolated id spaces.
type Registry struct {
	forward storage.VolatileStorage[types.StableID, types.LiveHandle]
	reverse storage.VolatileStorage[types.LiveHandle, types.StableID]

	// stale holds unbound ids pending a possible rebind, with the number of
	// completed passes each has stayed unbound.
	stale   map[types.StableID]int
	retired map[types.StableID]struct{}

	highest types.StableID
}

func NewRegistry() *Registry {
	return &Registry{
		forward: storage.NewMapStorage[types.StableID, types.LiveHandle](),
		reverse: storage.NewMapStorage[types.LiveHandle, types.StableID](),
		stale:   map[types.StableID]int{},
		retired: map[types.StableID]struct{}{},
	}
}

// Resolve returns the live handle currently bound to id. Safe to call for
// any id; an unknown, stale, or retired id simply reports false.
func (r *Registry) Resolve(id types.StableID) (types.LiveHandle, bool) {
	handle, err := r.forward.Get(id)
	if err != nil {
		return types.NoLiveHandle, false
	}
	return handle, true
}

// ResolveReverse returns the stable id bound to the given live handle.
func (r *Registry) ResolveReverse(handle types.LiveHandle) (types.StableID, bool) {
	id, err := r.reverse.Get(handle)
	if err != nil {
		return types.NoStableID, false
	}
	return id, true
}

// Bind records id <-> handle. It fails with ErrBindingConflict if either
// side is already bound to something else; overwriting would silently alias
// two identities. Binding a stale id is the rollback recovery transition
// (Stale -> Live); binding a retired id re-admits it, which happens when a
// restore reaches back past the retirement window.
func (r *Registry) Bind(id types.StableID, handle types.LiveHandle) error {
	if id == types.NoStableID {
		return eris.New("cannot bind the zero stable id")
	}
	if existing, ok := r.Resolve(id); ok {
		if existing == handle {
			return nil
		}
		return eris.Wrapf(ErrBindingConflict, "id %d is bound to handle %d", id, existing)
	}
	if occupant, ok := r.ResolveReverse(handle); ok {
		return eris.Wrapf(ErrBindingConflict, "handle %d is bound to id %d", handle, occupant)
	}
	if err := r.forward.Set(id, handle); err != nil {
		return err
	}
	if err := r.reverse.Set(handle, id); err != nil {
		return err
	}
	delete(r.stale, id)
	delete(r.retired, id)
	if id > r.highest {
		r.highest = id
	}
	return nil
}

// Unbind removes the binding for id and marks the id stale, pending either a
// rebind on a later pass or retirement.
func (r *Registry) Unbind(id types.StableID) error {
	handle, ok := r.Resolve(id)
	if !ok {
		return eris.Wrapf(ErrNotBound, "id %d", id)
	}
	if err := r.forward.Delete(id); err != nil {
		return err
	}
	if err := r.reverse.Delete(handle); err != nil {
		return err
	}
	r.stale[id] = 0
	return nil
}

// State reports where id currently is in its lifecycle.
func (r *Registry) State(id types.StableID) types.IdentityState {
	if _, ok := r.Resolve(id); ok {
		return types.StateLive
	}
	if _, ok := r.stale[id]; ok {
		return types.StateStale
	}
	if _, ok := r.retired[id]; ok {
		return types.StateRetired
	}
	return types.StateUnassigned
}

// Highest returns the largest stable id the registry has ever bound.
func (r *Registry) Highest() types.StableID {
	return r.highest
}

// Len returns the number of currently-bound ids.
func (r *Registry) Len() int {
	return r.forward.Len()
}

// BoundIDs returns all currently-bound ids in ascending order. The ordering
// carries no meaning beyond making iteration deterministic.
func (r *Registry) BoundIDs() []types.StableID {
	ids, err := r.forward.Keys()
	if err != nil {
		return nil
	}
	slices.Sort(ids)
	return ids
}

// StaleIDs returns all ids pending rebind, in ascending order.
func (r *Registry) StaleIDs() []types.StableID {
	ids := make([]types.StableID, 0, len(r.stale))
	for id := range r.stale {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// ageStale advances the pass counter for every stale id and retires the ones
// that have waited at least window full passes. Returns the retired ids.
func (r *Registry) ageStale(window int) []types.StableID {
	var retired []types.StableID
	for id, passes := range r.stale {
		if passes >= window {
			delete(r.stale, id)
			r.retired[id] = struct{}{}
			retired = append(retired, id)
			continue
		}
		r.stale[id] = passes + 1
	}
	slices.Sort(retired)
	return retired
}
