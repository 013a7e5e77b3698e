package memory

import (
	"context"
	"encoding"
	"sync/atomic"
	"time"

	"github.com/jellydator/ttlcache/v3"

	"shenanigigs/common/cache"
)

// Cache keeps values in process. It serves when no Redis is configured, so a
// long-running instance still skips work it has already done.
type Cache struct {
	items  *ttlcache.Cache[string, []byte]
	opts   cache.Options
	closed atomic.Bool
}

func New(opts cache.Options) *Cache {
	if opts.DefaultTTL == 0 {
		opts.DefaultTTL = cache.DefaultOptions().DefaultTTL
	}

	options := []ttlcache.Option[string, []byte]{
		ttlcache.WithTTL[string, []byte](opts.DefaultTTL),
	}
	if opts.MemoryCapacity > 0 {
		options = append(options, ttlcache.WithCapacity[string, []byte](opts.MemoryCapacity))
	}

	items := ttlcache.New(options...)
	go items.Start()

	return &Cache{items: items, opts: opts}
}

func (c *Cache) key(key string) (string, error) {
	if c.closed.Load() {
		return "", cache.ErrClosed
	}
	if key == "" {
		return "", cache.ErrInvalidKey
	}
	return c.opts.KeyPrefix + key, nil
}

func (c *Cache) Set(_ context.Context, key string, value interface{}, ttl time.Duration) error {
	k, err := c.key(key)
	if err != nil {
		return err
	}

	var data []byte
	switch v := value.(type) {
	case string:
		data = []byte(v)
	case []byte:
		data = append([]byte(nil), v...)
	case encoding.BinaryMarshaler:
		if data, err = v.MarshalBinary(); err != nil {
			return err
		}
	default:
		return cache.ErrInvalidValue
	}

	if ttl == 0 {
		ttl = ttlcache.DefaultTTL
	}
	c.items.Set(k, data, ttl)
	return nil
}

func (c *Cache) Get(_ context.Context, key string, value interface{}) error {
	k, err := c.key(key)
	if err != nil {
		return err
	}

	item := c.items.Get(k)
	if item == nil {
		return cache.ErrNotFound
	}
	val := item.Value()

	switch v := value.(type) {
	case *string:
		*v = string(val)
	case *[]byte:
		*v = append([]byte(nil), val...)
	case encoding.BinaryUnmarshaler:
		return v.UnmarshalBinary(val)
	default:
		return cache.ErrInvalidValue
	}
	return nil
}

func (c *Cache) Delete(_ context.Context, key string) error {
	k, err := c.key(key)
	if err != nil {
		return err
	}
	c.items.Delete(k)
	return nil
}

func (c *Cache) Clear(context.Context) error {
	if c.closed.Load() {
		return cache.ErrClosed
	}
	c.items.DeleteAll()
	return nil
}

func (c *Cache) Len() int {
	return c.items.Len()
}

func (c *Cache) Close() error {
	if c.closed.Swap(true) {
		return nil
	}
	c.items.Stop()
	return nil
}
