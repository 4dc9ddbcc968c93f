package storage

import (
	"context"

	"github.com/rotisserie/eris"
)

// ErrNotFound is returned by every storage implementation when a key has no
// value. Callers should test with eris.Is(eris.Cause(err), ErrNotFound) so
// the backend-specific miss (redis.Nil, map miss) never leaks upward.
var ErrNotFound = eris.New("key not found")

// PrimitiveStorage is a durable key/value store that lives outside the host's
// snapshot boundary. It backs the persisted-counter allocator seed strategy:
// values written here are never rewound by a restore.
type PrimitiveStorage[K comparable] interface {
	GetUInt64(ctx context.Context, key K) (uint64, error)
	GetBytes(ctx context.Context, key K) ([]byte, error)
	Set(ctx context.Context, key K, value any) error
	// Incr atomically increments the value at key and returns the new value.
	// A missing key is treated as zero.
	Incr(ctx context.Context, key K) (uint64, error)
	Delete(ctx context.Context, key K) error
	Close(ctx context.Context) error
}

// VolatileStorage is an in-memory mapping that is rebuilt rather than
// restored; the identity registry keeps its forward and reverse maps here.
type VolatileStorage[K comparable, V any] interface {
	Get(key K) (V, error)
	Set(key K, value V) error
	Delete(key K) error
	Keys() ([]K, error)
	Len() int
	Clear() error
}
