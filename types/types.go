package types

// StableID is the permanent logical identifier for an object. A StableID is
// never reissued, even after the object it identified is destroyed, and it is
// independent of where (or whether) the object currently lives in the host
// object store. Relationship data must only ever record StableIDs.
type StableID uint64

// NoStableID marks the absence of an identity: an object that has not been
// seen by a synchronization pass yet, or a component field with no value.
const NoStableID StableID = 0

// LiveHandle is the volatile identifier the host object store uses for a
// currently-live object. A restore may renumber every live handle, and the
// host may reuse a handle for an unrelated object after a destroy. A
// LiveHandle must never be persisted inside data that survives rollback.
type LiveHandle uint64

// NoLiveHandle marks the absence of a live object.
const NoLiveHandle LiveHandle = 0
