package store

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/redis/go-redis/v9"
)

// RedisClient is the subset of Redis operations the slot store needs.
// Get must return ErrNotFound for a missing key.
type RedisClient interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Del(ctx context.Context, keys ...string) error
	Keys(ctx context.Context, pattern string) ([]string, error)
}

// RedisStore keeps slots as plain Redis strings without expiry.
type RedisStore struct {
	client RedisClient
	prefix string
}

// RedisStoreOption configures a RedisStore.
type RedisStoreOption func(*RedisStore)

// WithPrefix sets the key prefix for slot keys.
func WithPrefix(prefix string) RedisStoreOption {
	return func(s *RedisStore) { s.prefix = prefix }
}

// NewRedisStore creates a Redis-backed slot store.
func NewRedisStore(client RedisClient, opts ...RedisStoreOption) *RedisStore {
	s := &RedisStore{
		client: client,
		prefix: "nutriinfo:slot:",
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *RedisStore) key(name string) string {
	return s.prefix + name
}

// Get returns the value of a slot, or ErrNotFound.
func (s *RedisStore) Get(ctx context.Context, name string) ([]byte, error) {
	value, err := s.client.Get(ctx, s.key(name))
	if errors.Is(err, ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis get %s: %w", name, err)
	}
	return value, nil
}

// Put overwrites the value of a slot.
func (s *RedisStore) Put(ctx context.Context, name string, value []byte) error {
	if err := s.client.Set(ctx, s.key(name), value); err != nil {
		return fmt.Errorf("redis set %s: %w", name, err)
	}
	return nil
}

// Delete removes a slot.
func (s *RedisStore) Delete(ctx context.Context, name string) error {
	if err := s.client.Del(ctx, s.key(name)); err != nil {
		return fmt.Errorf("redis del %s: %w", name, err)
	}
	return nil
}

// List returns slot names and sizes. Redis keeps no write time, so
// UpdatedAt is left zero.
func (s *RedisStore) List(ctx context.Context) ([]Slot, error) {
	keys, err := s.client.Keys(ctx, s.prefix+"*")
	if err != nil {
		return nil, fmt.Errorf("redis keys: %w", err)
	}
	sort.Strings(keys)

	slots := make([]Slot, 0, len(keys))
	for _, key := range keys {
		value, err := s.client.Get(ctx, key)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("redis get %s: %w", key, err)
		}
		slots = append(slots, Slot{
			Name: strings.TrimPrefix(key, s.prefix),
			Size: len(value),
		})
	}
	return slots, nil
}

// Close is a no-op; the caller owns the Redis client.
func (s *RedisStore) Close() error {
	return nil
}

// GoRedisClient adapts a go-redis client to RedisClient.
type GoRedisClient struct {
	rdb *redis.Client
}

// NewGoRedisClient connects to the Redis server at addr.
func NewGoRedisClient(addr, password string, db int) *GoRedisClient {
	return &GoRedisClient{
		rdb: redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: password,
			DB:       db,
		}),
	}
}

// Ping checks connectivity.
func (c *GoRedisClient) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

func (c *GoRedisClient) Get(ctx context.Context, key string) ([]byte, error) {
	value, err := c.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	return value, err
}

func (c *GoRedisClient) Set(ctx context.Context, key string, value []byte) error {
	return c.rdb.Set(ctx, key, value, 0).Err()
}

func (c *GoRedisClient) Del(ctx context.Context, keys ...string) error {
	return c.rdb.Del(ctx, keys...).Err()
}

func (c *GoRedisClient) Keys(ctx context.Context, pattern string) ([]string, error) {
	var keys []string
	iter := c.rdb.Scan(ctx, 0, pattern, 100).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	return keys, iter.Err()
}

// Close closes the underlying connection pool.
func (c *GoRedisClient) Close() error {
	return c.rdb.Close()
}
