package cache

import (
	"time"

	"github.com/karlseguin/ccache/v3"
	"golang.org/x/sync/singleflight"
)

// forever stands in for "no expiry"; ccache items always carry a deadline.
const forever = 100 * 365 * 24 * time.Hour

type ICache[T any] interface {
	Get(key string) (T, bool)
	Set(key string, value T, ttl ...time.Duration)
	// GetOrLoad returns the cached value or runs load once across concurrent callers.
	GetOrLoad(key string, load func() (T, error)) (T, error)
	Delete(key string)
	Clear()
	Len() int
}

type inMemoryCache[T any] struct {
	cache      *ccache.Cache[T]
	group      singleflight.Group
	defaultTTL time.Duration
}

// NewInMemoryCache bounds the cache to size entries. A non-positive ttl keeps entries until evicted.
func NewInMemoryCache[T any](size int64, defaultTTL time.Duration) ICache[T] {
	if defaultTTL <= 0 {
		defaultTTL = forever
	}
	return &inMemoryCache[T]{
		cache:      ccache.New(ccache.Configure[T]().MaxSize(size)),
		defaultTTL: defaultTTL,
	}
}

func (c *inMemoryCache[T]) Get(key string) (T, bool) {
	item := c.cache.Get(key)
	if item == nil || item.Expired() {
		var zero T
		return zero, false
	}
	return item.Value(), true
}

func (c *inMemoryCache[T]) Set(key string, value T, ttl ...time.Duration) {
	expire := c.defaultTTL
	if len(ttl) > 0 && ttl[0] > 0 {
		expire = ttl[0]
	}
	c.cache.Set(key, value, expire)
}

func (c *inMemoryCache[T]) GetOrLoad(key string, load func() (T, error)) (T, error) {
	if v, ok := c.Get(key); ok {
		return v, nil
	}

	v, err, _ := c.group.Do(key, func() (any, error) {
		if v, ok := c.Get(key); ok {
			return v, nil
		}
		loaded, err := load()
		if err != nil {
			return nil, err
		}
		c.Set(key, loaded)
		return loaded, nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return v.(T), nil
}

func (c *inMemoryCache[T]) Delete(key string) {
	c.cache.Delete(key)
}

func (c *inMemoryCache[T]) Clear() {
	c.cache.Clear()
}

func (c *inMemoryCache[T]) Len() int {
	return c.cache.ItemCount()
}
