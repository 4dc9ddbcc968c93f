package identity

import (
	"github.com/rotisserie/eris"
)

var (
	// ErrBindingConflict means a bind would break the registry bijection: the
	// stable id or the live handle is already bound to something else, or two
	// live objects carry the same stable id (cloned object data upstream).
	// This is fatal for the synchronization pass that detects it; no
	// resolution is attempted since any guess risks misattributing identity.
	ErrBindingConflict = eris.New("stable id binding conflict")

	// ErrNotBound means the stable id has no registry entry to unbind.
	ErrNotBound = eris.New("stable id is not bound")
)
