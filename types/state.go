package types

// IdentityState is the lifecycle state of a StableID as tracked by the
// registry.
type IdentityState int

const (
	// StateUnassigned means the registry has never seen this id.
	StateUnassigned IdentityState = iota
	// StateLive means the id is currently bound to a live handle.
	StateLive
	// StateStale means the id was bound but its object disappeared; it may
	// rebind on a later pass (the rollback recovery case).
	StateStale
	// StateRetired means the id was stale for longer than the retirement
	// window and its registry entry has been freed. The id is never reissued.
	StateRetired
)

func (s IdentityState) String() string {
	switch s {
	case StateUnassigned:
		return "unassigned"
	case StateLive:
		return "live"
	case StateStale:
		return "stale"
	case StateRetired:
		return "retired"
	}
	return "unknown"
}
