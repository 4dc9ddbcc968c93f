package hierarchy

import (
	"github.com/rotisserie/eris"
)

var (
	// ErrCycle is returned when a mutation would make an object its own
	// ancestor (including a direct self-parent). The mutation is rejected
	// with no state change.
	ErrCycle = eris.New("operation would create a hierarchy cycle")

	// ErrNotResolved is returned by mutations that target a StableID with no
	// live object behind it. Queries never return this; an absent id simply
	// yields an empty result.
	ErrNotResolved = eris.New("stable id does not resolve to a live object")
)
