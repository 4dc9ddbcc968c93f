package hierarchy

import (
	"slices"

	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"

	"github.com/anchor-ecs/anchor/types"
)

// Store is the slice of the host object store the graph needs: read and
// write the hierarchy component of a live object, destroy an object, and
// check liveness of a handle.
type Store interface {
	Component(handle types.LiveHandle) (Component, error)
	SetComponent(handle types.LiveHandle, comp Component) error
	Remove(handle types.LiveHandle) error
	IsLive(handle types.LiveHandle) bool
}

// Resolver translates stable ids to current live handles. It is implemented
// by identity.Registry. The graph never caches a LiveHandle across calls;
// every operation resolves through the registry as it was left by the most
// recent synchronization pass.
type Resolver interface {
	Resolve(id types.StableID) (types.LiveHandle, bool)
	State(id types.StableID) types.IdentityState
}

// Graph is the query/mutation API over hierarchy components. All methods are
// synchronous and must not interleave with a synchronization pass.
type Graph struct {
	store  Store
	ids    Resolver
	logger zerolog.Logger
}

func NewGraph(store Store, ids Resolver, logger zerolog.Logger) *Graph {
	return &Graph{
		store:  store,
		ids:    ids,
		logger: logger,
	}
}

// Parent returns the stable id of the object's parent. The second return is
// false if the id itself is currently absent, the object is a root, or the
// recorded parent has been retired. A merely stale parent is still reported;
// it may rebind on a later pass.
func (g *Graph) Parent(id types.StableID) (types.StableID, bool) {
	comp, ok := g.component(id)
	if !ok || comp.Parent == types.NoStableID {
		return types.NoStableID, false
	}
	if g.ids.State(comp.Parent) == types.StateRetired {
		return types.NoStableID, false
	}
	return comp.Parent, true
}

// Children returns the object's children in insertion order, filtered to
// entries that currently resolve to a live object. Dangling entries are
// invisible here, not an error; they stay in the stored sequence until a
// mutation or Prune removes them.
func (g *Graph) Children(id types.StableID) []types.StableID {
	comp, ok := g.component(id)
	if !ok {
		return nil
	}
	children := make([]types.StableID, 0, len(comp.Children))
	for _, child := range comp.Children {
		if _, live := g.resolve(child); live {
			children = append(children, child)
		}
	}
	return children
}

// SetParent reparents child under parent, removing it from its previous
// parent's children sequence and appending it to the new parent's. Passing
// types.NoStableID as the parent detaches the child. Self-parenting and
// cycles are rejected with ErrCycle. Both ends and the ancestry are checked
// before the first write, so a rejected mutation leaves every relationship
// unchanged.
func (g *Graph) SetParent(child, parent types.StableID) error {
	childHandle, ok := g.resolve(child)
	if !ok {
		return eris.Wrapf(ErrNotResolved, "child %d", child)
	}
	var parentHandle types.LiveHandle
	if parent != types.NoStableID {
		parentHandle, ok = g.resolve(parent)
		if !ok {
			return eris.Wrapf(ErrNotResolved, "parent %d", parent)
		}
		if err := g.checkCycle(child, parent); err != nil {
			return err
		}
	}

	childComp, err := g.store.Component(childHandle)
	if err != nil {
		return err
	}
	if childComp.Parent == parent {
		return nil
	}

	if prev := childComp.Parent; prev != types.NoStableID {
		if err := g.removeFromChildren(prev, child); err != nil {
			return err
		}
	}
	if parent != types.NoStableID {
		if err := g.appendToChildren(parentHandle, child); err != nil {
			return err
		}
	}

	childComp.Parent = parent
	if err := g.store.SetComponent(childHandle, childComp); err != nil {
		return err
	}
	g.logger.Debug().
		Uint64("child", uint64(child)).
		Uint64("parent", uint64(parent)).
		Msg("reparented")
	return nil
}

// Detach removes the object from its parent, making it a root.
func (g *Graph) Detach(id types.StableID) error {
	return g.SetParent(id, types.NoStableID)
}

// Prune removes every entry in the object's children sequence that does not
// currently resolve to a live object, and returns how many were removed.
// This discards stale entries too, so callers should only prune once they no
// longer expect a rollback to resurrect the missing children.
func (g *Graph) Prune(id types.StableID) (int, error) {
	handle, ok := g.resolve(id)
	if !ok {
		return 0, eris.Wrapf(ErrNotResolved, "id %d", id)
	}
	comp, err := g.store.Component(handle)
	if err != nil {
		return 0, err
	}
	kept := comp.Children[:0]
	for _, child := range comp.Children {
		if _, live := g.resolve(child); live {
			kept = append(kept, child)
		}
	}
	removed := len(comp.Children) - len(kept)
	if removed == 0 {
		return 0, nil
	}
	comp.Children = kept
	return removed, g.store.SetComponent(handle, comp)
}

// DestroyRecursive removes the object and every currently-resolvable
// descendant from the host store, detaching the subtree root from its parent
// first. Registry entries for the destroyed ids go stale and are retired by
// later synchronization passes.
func (g *Graph) DestroyRecursive(id types.StableID) error {
	if _, ok := g.resolve(id); !ok {
		return eris.Wrapf(ErrNotResolved, "id %d", id)
	}
	if parent, ok := g.Parent(id); ok {
		if err := g.removeFromChildren(parent, id); err != nil {
			return err
		}
	}

	destroyed := 0
	stack := []types.StableID{id}
	for len(stack) > 0 {
		at := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		handle, ok := g.resolve(at)
		if !ok {
			continue
		}
		comp, err := g.store.Component(handle)
		if err != nil {
			return err
		}
		stack = append(stack, comp.Children...)
		if err := g.store.Remove(handle); err != nil {
			return err
		}
		destroyed++
	}
	g.logger.Debug().
		Uint64("root", uint64(id)).
		Int("destroyed", destroyed).
		Msg("destroyed subtree")
	return nil
}

// resolve returns the live handle for an id, double-checking liveness with
// the store. Between a destroy and the next synchronization pass the
// registry still carries the old binding; the liveness check keeps that
// window from leaking dead handles to callers.
func (g *Graph) resolve(id types.StableID) (types.LiveHandle, bool) {
	if id == types.NoStableID {
		return types.NoLiveHandle, false
	}
	handle, ok := g.ids.Resolve(id)
	if !ok || !g.store.IsLive(handle) {
		return types.NoLiveHandle, false
	}
	return handle, true
}

func (g *Graph) component(id types.StableID) (Component, bool) {
	handle, ok := g.resolve(id)
	if !ok {
		return Component{}, false
	}
	comp, err := g.store.Component(handle)
	if err != nil {
		return Component{}, false
	}
	return comp, true
}

// checkCycle walks up from candidate through parent links and rejects the
// mutation if child is found on the path. The walk stops at roots and at
// ancestors that are retired or unknown. A stale ancestor blocks the
// mutation: its parent chain cannot be read until it rebinds, so acyclicity
// cannot be verified, and a rebind after an unverified reparent would
// reintroduce the cycle into stored data. The visited set bounds the walk
// even if stored ancestry is already cyclic.
func (g *Graph) checkCycle(child, candidate types.StableID) error {
	visited := map[types.StableID]struct{}{}
	for at := candidate; at != types.NoStableID; {
		if at == child {
			return eris.Wrapf(ErrCycle, "%d is an ancestor of %d", child, candidate)
		}
		if _, seen := visited[at]; seen {
			return eris.Wrapf(ErrCycle, "ancestry of %d is already cyclic at %d", candidate, at)
		}
		visited[at] = struct{}{}
		comp, ok := g.component(at)
		if !ok {
			if g.ids.State(at) == types.StateStale {
				return eris.Wrapf(ErrNotResolved, "ancestor %d is stale and may rebind", at)
			}
			break
		}
		at = comp.Parent
	}
	return nil
}

// removeFromChildren drops child from parent's children sequence. While the
// sequence is being rewritten anyway, retired entries are dropped with it;
// stale entries are kept since they may still rebind.
func (g *Graph) removeFromChildren(parent, child types.StableID) error {
	handle, ok := g.resolve(parent)
	if !ok {
		// The parent itself is gone; the child's entry in it is already
		// unreachable, so there is nothing to rewrite.
		return nil
	}
	comp, err := g.store.Component(handle)
	if err != nil {
		return err
	}
	kept := comp.Children[:0]
	for _, c := range comp.Children {
		if c == child || g.ids.State(c) == types.StateRetired {
			continue
		}
		kept = append(kept, c)
	}
	comp.Children = kept
	return g.store.SetComponent(handle, comp)
}

// appendToChildren appends child to the children sequence of the object at
// handle, keeping the sequence duplicate-free and dropping retired entries
// along the way. The caller resolves the parent before mutating anything.
func (g *Graph) appendToChildren(handle types.LiveHandle, child types.StableID) error {
	comp, err := g.store.Component(handle)
	if err != nil {
		return err
	}
	if slices.Contains(comp.Children, child) {
		return nil
	}
	kept := comp.Children[:0]
	for _, c := range comp.Children {
		if g.ids.State(c) == types.StateRetired {
			continue
		}
		kept = append(kept, c)
	}
	comp.Children = append(kept, child)
	return g.store.SetComponent(handle, comp)
}
