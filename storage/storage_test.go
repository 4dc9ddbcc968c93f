package storage_test

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/anchor-ecs/anchor/assert"
	"github.com/anchor-ecs/anchor/storage"
)

func newRedisClientForTest(t *testing.T) *redis.Client {
	s := miniredis.RunT(t)
	return redis.NewClient(&redis.Options{Addr: s.Addr()})
}

func TestMapStorageRoundTrip(t *testing.T) {
	m := storage.NewMapStorage[string, int]()
	assert.NilError(t, m.Set("a", 1))
	assert.NilError(t, m.Set("b", 2))

	v, err := m.Get("a")
	assert.NilError(t, err)
	assert.Equal(t, 1, v)
	assert.Equal(t, 2, m.Len())

	keys, err := m.Keys()
	assert.NilError(t, err)
	assert.Len(t, keys, 2)

	assert.NilError(t, m.Delete("a"))
	_, err = m.Get("a")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	assert.NilError(t, m.Clear())
	assert.Equal(t, 0, m.Len())
}

func TestRedisStorageRoundTrip(t *testing.T) {
	ctx := context.Background()
	db := storage.NewRedisPrimitiveStorage(newRedisClientForTest(t))

	assert.NilError(t, db.Set(ctx, "counter", uint64(41)))
	v, err := db.GetUInt64(ctx, "counter")
	assert.NilError(t, err)
	assert.Equal(t, uint64(41), v)

	next, err := db.Incr(ctx, "counter")
	assert.NilError(t, err)
	assert.Equal(t, uint64(42), next)

	assert.NilError(t, db.Delete(ctx, "counter"))
	_, err = db.GetUInt64(ctx, "counter")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestRedisStorageIncrTreatsMissingKeyAsZero(t *testing.T) {
	ctx := context.Background()
	db := storage.NewRedisPrimitiveStorage(newRedisClientForTest(t))

	next, err := db.Incr(ctx, "fresh")
	assert.NilError(t, err)
	assert.Equal(t, uint64(1), next)
}

func TestRedisStorageMissReportsNotFound(t *testing.T) {
	ctx := context.Background()
	db := storage.NewRedisPrimitiveStorage(newRedisClientForTest(t))

	_, err := db.GetBytes(ctx, "nope")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestSchemaStorageValidate(t *testing.T) {
	ctx := context.Background()
	client := newRedisClientForTest(t)
	schemas := storage.NewSchemaStorage(client)

	_, err := schemas.GetSchema(ctx, "ns", "hierarchy")
	assert.ErrorIs(t, err, storage.ErrNoSchemaFound)

	// First validation stores the schema.
	assert.NilError(t, schemas.ValidateSchema(ctx, "ns", "hierarchy", []byte(`{"v":1}`)))
	stored, err := schemas.GetSchema(ctx, "ns", "hierarchy")
	assert.NilError(t, err)
	assert.DeepEqual(t, []byte(`{"v":1}`), stored)

	// Same schema validates, a different one does not.
	assert.NilError(t, schemas.ValidateSchema(ctx, "ns", "hierarchy", []byte(`{"v":1}`)))
	assert.ErrorIs(t, schemas.ValidateSchema(ctx, "ns", "hierarchy", []byte(`{"v":2}`)), storage.ErrSchemaMismatch)

	// Namespaces do not share schemas.
	assert.NilError(t, schemas.ValidateSchema(ctx, "other", "hierarchy", []byte(`{"v":2}`)))
}
