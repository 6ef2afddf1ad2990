// Package rcache implements the proxy's response cache: a bounded LRU from
// request URL (host+URI) to a stored response, participating in ETag-based
// revalidation.
package rcache

import (
	"sync"

	"github.com/vlakam/ProxyServer/internal/httpmsg"
	"github.com/vlakam/ProxyServer/internal/lru"
)

// DefaultCapacity is the default response cache capacity.
const DefaultCapacity = 10000

// Cache is a URL-keyed store of cacheable responses. Unlike the underlying
// lru.Cache, it takes its own lock: session goroutines hit it concurrently.
type Cache struct {
	mu    sync.Mutex
	store *lru.Cache[string, *httpmsg.Response]
}

// New returns a response cache bounded to capacity entries.
func New(capacity int) *Cache {
	return &Cache{store: lru.New[string, *httpmsg.Response](capacity)}
}

// Exists reports whether key is present.
func (c *Cache) Exists(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.store.Exists(key)
}

// Get returns a clone of the stored response for key, so callers may mutate
// it (e.g. append bytes while streaming) without corrupting the cached
// entry.
func (c *Cache) Get(key string) (*httpmsg.Response, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	resp, ok := c.store.Get(key)
	if !ok {
		return nil, false
	}
	return resp.Clone(), true
}

// Put stores a clone of resp under key, insulating the cached entry from
// later mutation of the caller's copy.
func (c *Cache) Put(key string, resp *httpmsg.Response) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.store.Put(key, resp.Clone())
}

// Size returns the current number of cached entries.
func (c *Cache) Size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.store.Size()
}

// ShouldCache reports whether resp may enter the cache: status 200, a
// non-empty ETag, no Cache-Control no-store/private, and no Authorization
// header on the originating request. Authorization is a request-side concern
// the Response itself can't see, so the caller passes it in.
func ShouldCache(resp *httpmsg.Response, requestHadAuthorization bool) bool {
	if requestHadAuthorization {
		return false
	}
	return resp.IsCacheable()
}
