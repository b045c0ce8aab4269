package repository

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"
)

type redisKV struct {
	rdb    *redis.Client
	prefix string
}

// NewRedisKV stores every key under prefix. Entries never expire: the mirror
// must survive as long as the terminal does.
func NewRedisKV(rdb *redis.Client, prefix string) KV {
	if prefix == "" {
		prefix = "caja:"
	}
	return &redisKV{rdb: rdb, prefix: prefix}
}

func (r *redisKV) Get(ctx context.Context, key string) ([]byte, bool, error) {
	v, err := r.rdb.Get(ctx, r.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return v, true, nil
}

func (r *redisKV) Set(ctx context.Context, key string, value []byte) error {
	return r.rdb.Set(ctx, r.prefix+key, value, 0).Err()
}

func (r *redisKV) Remove(ctx context.Context, key string) error {
	return r.rdb.Del(ctx, r.prefix+key).Err()
}
