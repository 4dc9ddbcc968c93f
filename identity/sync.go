package identity

import (
	"context"

	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"

	"github.com/anchor-ecs/anchor/hierarchy"
	"github.com/anchor-ecs/anchor/types"
)

// Store is the slice of the host object store the synchronizer needs:
// enumerate the live objects that carry a hierarchy component, and write a
// freshly assigned id back onto an object so the id travels with the
// object's data through snapshot and restore.
type Store interface {
	Enumerate() ([]Entry, error)
	SetIdentity(handle types.LiveHandle, id types.StableID) error
}

// Entry is one live object as seen during enumeration.
type Entry struct {
	Handle    types.LiveHandle
	Component hierarchy.Component
}

// Binding pairs a stable id with the live handle it should be bound to.
type Binding struct {
	ID     types.StableID
	Handle types.LiveHandle
}

// Plan is the set of registry actions that reconciles the registry with a
// live set. Within each action slice, order follows enumeration order.
type Plan struct {
	// Assign holds handles of objects with no identity yet; each gets a
	// fresh id allocated, bound, and written back onto the object.
	Assign []types.LiveHandle
	// Rebind holds ids whose object data survived but whose binding is
	// missing or points at the wrong handle. This is the rollback case: same
	// id, new handle issued by the object store.
	Rebind []Binding
	// Release holds bound ids with no live object behind them this pass.
	Release []types.StableID
}

// IsEmpty reports whether the plan changes nothing.
func (p *Plan) IsEmpty() bool {
	return len(p.Assign) == 0 && len(p.Rebind) == 0 && len(p.Release) == 0
}

// BuildPlan computes the actions that bring reg in line with the given live
// set. It is a pure function of its inputs (reg is only read), so the
// reconciliation logic can be tested without a real object store.
//
// Two live objects carrying the same stable id is upstream data corruption;
// BuildPlan fails with ErrBindingConflict before any action is produced.
func BuildPlan(entries []Entry, reg *Registry) (Plan, error) {
	var plan Plan
	seen := make(map[types.StableID]types.LiveHandle, len(entries))
	for _, e := range entries {
		id := e.Component.ID
		if id == types.NoStableID {
			plan.Assign = append(plan.Assign, e.Handle)
			continue
		}
		if other, dup := seen[id]; dup {
			return Plan{}, eris.Wrapf(ErrBindingConflict,
				"stable id %d appears on live handles %d and %d", id, other, e.Handle)
		}
		seen[id] = e.Handle

		current, bound := reg.Resolve(id)
		if bound && current == e.Handle {
			continue
		}
		plan.Rebind = append(plan.Rebind, Binding{ID: id, Handle: e.Handle})
	}
	for _, id := range reg.BoundIDs() {
		if _, live := seen[id]; !live {
			plan.Release = append(plan.Release, id)
		}
	}
	return plan, nil
}

// Synchronizer reconciles the registry against the host object store. It is
// the registry's single writer: RunPass must run exactly once per simulation
// step, after the host applied that step's creations, destructions, and
// restores, and before any hierarchy-consuming logic.
type Synchronizer struct {
	store  Store
	reg    *Registry
	alloc  Allocator
	window int
	pass   uint64
	logger zerolog.Logger
}

// PassSummary describes what one synchronization pass did.
type PassSummary struct {
	Pass     uint64
	Entries  int
	Assigned int
	Rebound  int
	Released int
	Retired  []types.StableID
}

// NewSynchronizer wires a synchronizer over the given store, registry, and
// allocator. window is the retirement policy: an id released in some pass is
// retired at the end of that pass plus window later passes if it never
// rebinds; zero retires immediately.
func NewSynchronizer(store Store, reg *Registry, alloc Allocator, window int, logger zerolog.Logger) *Synchronizer {
	return &Synchronizer{
		store:  store,
		reg:    reg,
		alloc:  alloc,
		window: window,
		logger: logger,
	}
}

// RunPass runs one synchronization pass. On a binding conflict the pass is
// aborted and the error surfaced; the host must treat the registry as stale
// and not run hierarchy-consuming logic until the corruption is corrected.
func (s *Synchronizer) RunPass(ctx context.Context) (PassSummary, error) {
	s.pass++
	summary := PassSummary{Pass: s.pass}

	entries, err := s.store.Enumerate()
	if err != nil {
		return summary, err
	}
	summary.Entries = len(entries)

	plan, err := BuildPlan(entries, s.reg)
	if err != nil {
		return summary, err
	}

	// Raise the allocator floor before any allocation so a restored counter
	// that regressed below live data cannot hand out a duplicate.
	var maxSeen types.StableID
	for _, e := range entries {
		if e.Component.ID > maxSeen {
			maxSeen = e.Component.ID
		}
	}
	if maxSeen != types.NoStableID {
		if err := s.alloc.Observe(ctx, maxSeen); err != nil {
			return summary, err
		}
	}

	// Releases and rebind-unbinds free both sides of every pair that moves,
	// so the bind phase below cannot trip over entries it is replacing.
	for _, id := range plan.Release {
		if err := s.reg.Unbind(id); err != nil {
			return summary, err
		}
	}
	summary.Released = len(plan.Release)

	for _, b := range plan.Rebind {
		if _, bound := s.reg.Resolve(b.ID); bound {
			if err := s.reg.Unbind(b.ID); err != nil {
				return summary, err
			}
		}
	}
	for _, b := range plan.Rebind {
		if err := s.reg.Bind(b.ID, b.Handle); err != nil {
			return summary, err
		}
	}
	summary.Rebound = len(plan.Rebind)

	for _, handle := range plan.Assign {
		id, err := s.alloc.Allocate(ctx)
		if err != nil {
			return summary, err
		}
		if err := s.reg.Bind(id, handle); err != nil {
			return summary, err
		}
		if err := s.store.SetIdentity(handle, id); err != nil {
			return summary, err
		}
	}
	summary.Assigned = len(plan.Assign)

	summary.Retired = s.reg.ageStale(s.window)
	s.logPass(summary)
	return summary, nil
}

// Pass returns the number of completed passes.
func (s *Synchronizer) Pass() uint64 {
	return s.pass
}

func (s *Synchronizer) logPass(summary PassSummary) {
	evt := s.logger.Debug()
	if summary.Assigned > 0 || summary.Released > 0 || len(summary.Retired) > 0 {
		evt = s.logger.Info()
	}
	evt.Uint64("pass", summary.Pass).
		Int("entries", summary.Entries).
		Int("assigned", summary.Assigned).
		Int("rebound", summary.Rebound).
		Int("released", summary.Released).
		Int("retired", len(summary.Retired)).
		Msg("synchronization pass complete")
}
