// Package memstore is an in-memory host object store implementing the call
// contract the identity and hierarchy packages expect from a host. It exists
// for tests and as a working example of the contract, and deliberately
// reproduces the property that makes stable identities necessary: a restore
// brings object data back by value but issues brand-new live handles.
package memstore

import (
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"

	"github.com/anchor-ecs/anchor/codec"
	"github.com/anchor-ecs/anchor/hierarchy"
	"github.com/anchor-ecs/anchor/identity"
	"github.com/anchor-ecs/anchor/types"
)

var ErrNotLive = eris.New("live handle does not refer to a live object")

type Store struct {
	nextHandle uint64
	comps      map[types.LiveHandle]hierarchy.Component
	order      []types.LiveHandle
}

// Snapshot is a captured copy of the whole object table. Restoring it
// replaces every live object with the captured data under fresh handles.
type Snapshot struct {
	ID    uuid.UUID
	Taken time.Time
	state []byte
}

func New() *Store {
	return &Store{
		comps: map[types.LiveHandle]hierarchy.Component{},
	}
}

// Create adds a new live object carrying the given hierarchy component and
// returns its handle. Handles are issued sequentially and never reused
// within a store's lifetime, but carry no meaning beyond "currently alive".
func (s *Store) Create(comp hierarchy.Component) types.LiveHandle {
	s.nextHandle++
	handle := types.LiveHandle(s.nextHandle)
	s.comps[handle] = cloneComponent(comp)
	s.order = append(s.order, handle)
	return handle
}

// Remove destroys a live object.
func (s *Store) Remove(handle types.LiveHandle) error {
	if !s.IsLive(handle) {
		return eris.Wrapf(ErrNotLive, "handle %d", handle)
	}
	delete(s.comps, handle)
	for i, h := range s.order {
		if h == handle {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}

func (s *Store) IsLive(handle types.LiveHandle) bool {
	_, ok := s.comps[handle]
	return ok
}

// Len returns the number of live objects.
func (s *Store) Len() int {
	return len(s.comps)
}

func (s *Store) Component(handle types.LiveHandle) (hierarchy.Component, error) {
	comp, ok := s.comps[handle]
	if !ok {
		return hierarchy.Component{}, eris.Wrapf(ErrNotLive, "handle %d", handle)
	}
	return cloneComponent(comp), nil
}

func (s *Store) SetComponent(handle types.LiveHandle, comp hierarchy.Component) error {
	if !s.IsLive(handle) {
		return eris.Wrapf(ErrNotLive, "handle %d", handle)
	}
	s.comps[handle] = cloneComponent(comp)
	return nil
}

// SetIdentity writes an assigned stable id onto the object's own component
// data, where it participates in snapshot and restore like any other field.
func (s *Store) SetIdentity(handle types.LiveHandle, id types.StableID) error {
	comp, ok := s.comps[handle]
	if !ok {
		return eris.Wrapf(ErrNotLive, "handle %d", handle)
	}
	comp.ID = id
	s.comps[handle] = comp
	return nil
}

// Enumerate returns every live object in creation order. Deterministic
// ordering keeps synchronization passes reproducible across runs.
func (s *Store) Enumerate() ([]identity.Entry, error) {
	entries := make([]identity.Entry, 0, len(s.order))
	for _, handle := range s.order {
		entries = append(entries, identity.Entry{
			Handle:    handle,
			Component: cloneComponent(s.comps[handle]),
		})
	}
	return entries, nil
}

// Snapshot captures the object table by value.
func (s *Store) Snapshot() (*Snapshot, error) {
	comps := make([]hierarchy.Component, 0, len(s.order))
	for _, handle := range s.order {
		comps = append(comps, s.comps[handle])
	}
	bz, err := codec.EncodeSnapshot(comps)
	if err != nil {
		return nil, err
	}
	return &Snapshot{
		ID:    uuid.New(),
		Taken: time.Now(),
		state: bz,
	}, nil
}

// Restore discards every live object and reintroduces the snapshot's data.
// Each restored object gets a fresh handle: the handle counter is not
// rewound, so nothing that recorded a pre-snapshot handle stays valid. This
// is the renumbering a real rollback engine produces.
func (s *Store) Restore(snap *Snapshot) error {
	comps, err := codec.DecodeSnapshot(snap.state)
	if err != nil {
		return err
	}
	s.comps = make(map[types.LiveHandle]hierarchy.Component, len(comps))
	s.order = s.order[:0]
	for _, comp := range comps {
		s.Create(comp)
	}
	return nil
}

func cloneComponent(comp hierarchy.Component) hierarchy.Component {
	if comp.Children != nil {
		comp.Children = append([]types.StableID(nil), comp.Children...)
	}
	return comp
}
