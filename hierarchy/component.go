package hierarchy

import (
	"slices"

	"github.com/anchor-ecs/anchor/types"
)

// Component is the hierarchy data attached by value to a host object. It is
// ordinary object data: the host includes it verbatim in snapshots, which is
// why relationships expressed through it survive a restore. Only the
// registry's StableID-to-LiveHandle mapping needs re-derivation afterwards.
//
// ID is the object's own persisted stable identity. It must live on the
// object itself, not only in the registry; a restore that reintroduces the
// object's data brings its original identity back with it. A zero ID marks
// an object that has not been assigned an identity yet.
type Component struct {
	ID       types.StableID   `json:"id"`
	Parent   types.StableID   `json:"parent,omitempty"`
	Children []types.StableID `json:"children,omitempty"`
}

func (Component) Name() string {
	return "hierarchy"
}

// HasChild reports whether id is present in the children sequence.
func (c *Component) HasChild(id types.StableID) bool {
	return slices.Contains(c.Children, id)
}
