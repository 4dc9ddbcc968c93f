package storage

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"
	"github.com/rotisserie/eris"
)

var _ PrimitiveStorage[string] = &RedisStorage{}

type RedisStorage struct {
	currentClient redis.Cmdable
}

func NewRedisPrimitiveStorage(client redis.Cmdable) *RedisStorage {
	return &RedisStorage{
		currentClient: client,
	}
}

func (r *RedisStorage) GetUInt64(ctx context.Context, key string) (uint64, error) {
	res, err := r.currentClient.Get(ctx, key).Uint64()
	if err != nil {
		return 0, wrapRedisErr(err)
	}
	return res, nil
}

func (r *RedisStorage) GetBytes(ctx context.Context, key string) ([]byte, error) {
	bz, err := r.currentClient.Get(ctx, key).Bytes()
	if err != nil {
		return nil, wrapRedisErr(err)
	}
	return bz, nil
}

func (r *RedisStorage) Set(ctx context.Context, key string, value any) error {
	return eris.Wrap(r.currentClient.Set(ctx, key, value, 0).Err(), "")
}

func (r *RedisStorage) Incr(ctx context.Context, key string) (uint64, error) {
	res, err := r.currentClient.Incr(ctx, key).Result()
	if err != nil {
		return 0, eris.Wrap(err, "")
	}
	return uint64(res), nil
}

func (r *RedisStorage) Delete(ctx context.Context, key string) error {
	return eris.Wrap(r.currentClient.Del(ctx, key).Err(), "")
}

func (r *RedisStorage) Close(_ context.Context) error {
	client, ok := r.currentClient.(*redis.Client)
	if !ok {
		return nil
	}
	err := client.Close()
	if errors.Is(err, redis.ErrClosed) {
		// Another shutdown pathway got to the connection first.
		return nil
	}
	return eris.Wrap(err, "")
}

// wrapRedisErr normalizes a redis key miss to ErrNotFound.
func wrapRedisErr(err error) error {
	if errors.Is(err, redis.Nil) {
		return eris.Wrap(ErrNotFound, "")
	}
	return eris.Wrap(err, "")
}
