package cache

import (
	"context"
	"errors"
	"time"
)

var (
	ErrNotFound     = errors.New("key not found in cache")
	ErrInvalidValue = errors.New("invalid value for cache")
	ErrClosed       = errors.New("cache is closed")
	ErrInvalidKey   = errors.New("invalid cache key")
)

// Cache stores opaque values under string keys. Values passed to Set must
// implement encoding.BinaryMarshaler or be a string or []byte; Get decodes
// into a *string, *[]byte or encoding.BinaryUnmarshaler.
type Cache interface {
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error

	Get(ctx context.Context, key string, value interface{}) error

	Delete(ctx context.Context, key string) error

	// Clear removes every key this cache owns.
	Clear(ctx context.Context) error

	Close() error
}

type Options struct {
	DefaultTTL time.Duration

	// KeyPrefix namespaces every key so Clear never touches foreign data.
	KeyPrefix string

	RedisAddr string

	RedisPassword string

	RedisDB int

	// MemoryCapacity bounds the in-process cache; zero means unbounded.
	MemoryCapacity uint64
}

func DefaultOptions() Options {
	return Options{
		DefaultTTL: 24 * time.Hour,
		KeyPrefix:  "starschema:",
	}
}
