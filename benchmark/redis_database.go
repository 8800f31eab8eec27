package benchmark

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisDatabase implements the Database interface for Redis, storing each
// document as a JSON string under "<collection>:<id>"
type RedisDatabase struct {
	client *redis.Client
	prefix string
	keys   *KeyRegistry
}

// NewRedisDatabase connects to Redis and deletes every key of the target collection
func NewRedisDatabase(ctx context.Context, cfg DatabaseConfig) (*RedisDatabase, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}

	r := &RedisDatabase{
		client: client,
		prefix: cfg.Collection + ":",
		keys:   NewKeyRegistry(cfg.KeyRegistrySize),
	}
	if err := r.reset(ctx); err != nil {
		_ = client.Close()
		return nil, err
	}
	return r, nil
}

func (r *RedisDatabase) reset(ctx context.Context) error {
	var batch []string
	iter := r.client.Scan(ctx, 0, r.prefix+"*", 1000).Iterator()
	for iter.Next(ctx) {
		batch = append(batch, iter.Val())
		if len(batch) == 1000 {
			if err := r.client.Del(ctx, batch...).Err(); err != nil {
				return err
			}
			batch = batch[:0]
		}
	}
	if err := iter.Err(); err != nil {
		return err
	}
	if len(batch) > 0 {
		return r.client.Del(ctx, batch...).Err()
	}
	return nil
}

// Insert implements Database.Insert for Redis
func (r *RedisDatabase) Insert(ctx context.Context, doc Document) error {
	value, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	key := r.prefix + doc.ID
	if err := r.client.Set(ctx, key, value, 0).Err(); err != nil {
		return err
	}
	r.keys.Add(key)
	return nil
}

// Read implements Database.Read for Redis
func (r *RedisDatabase) Read(ctx context.Context) error {
	key, ok := r.keys.Random()
	if !ok {
		return ErrKeyNotFound
	}
	err := r.client.Get(ctx, key).Err()
	if errors.Is(err, redis.Nil) {
		return fmt.Errorf("%w: %s", ErrKeyNotFound, key)
	}
	return err
}

// Close implements Database.Close for Redis
func (r *RedisDatabase) Close() error {
	return r.client.Close()
}
