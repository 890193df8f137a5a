// Package redis stores snapshots in Redis string keys.
package redis

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/go-redis/redis/v8"

	"github.com/xenking/storefront/internal/persist"
)

var (
	_ persist.Slot   = (*Slot)(nil)
	_ persist.Pinger = (*Slot)(nil)
)

// Options configures the Redis connection.
type Options struct {
	Addr     string
	Password string
	DB       int
	// Prefix is prepended to every slot key.
	Prefix string
}

// Slot is a persist.Slot backed by Redis GET/SET/DEL.
type Slot struct {
	client redis.UniversalClient
	prefix string
}

// New connects to Redis with opts.
func New(opts Options) *Slot {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
	return NewWithClient(client, opts.Prefix)
}

// NewWithClient wraps an existing client.
func NewWithClient(client redis.UniversalClient, prefix string) *Slot {
	return &Slot{client: client, prefix: prefix}
}

// Get returns the value stored under key.
func (s *Slot) Get(ctx context.Context, key string) ([]byte, error) {
	value, err := s.client.Get(ctx, s.prefix+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, persist.ErrSlotEmpty
		}
		return nil, errors.Wrapf(err, "get %q", key)
	}
	return value, nil
}

// Put stores value under key without expiry.
func (s *Slot) Put(ctx context.Context, key string, value []byte) error {
	if err := s.client.Set(ctx, s.prefix+key, value, 0).Err(); err != nil {
		return errors.Wrapf(err, "set %q", key)
	}
	return nil
}

// Delete removes key.
func (s *Slot) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.prefix+key).Err(); err != nil {
		return errors.Wrapf(err, "del %q", key)
	}
	return nil
}

// Ping checks the Redis connection.
func (s *Slot) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close closes the client.
func (s *Slot) Close() error {
	return s.client.Close()
}
