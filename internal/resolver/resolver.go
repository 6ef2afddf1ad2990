// Package resolver implements the proxy's name resolution subsystem: a
// fixed-size pool of goroutines performing blocking DNS lookups, a bounded
// DNS cache, and resize/shutdown semantics that drain in-flight workers.
//
// Each Resolve call carries its own reply channel, so result correlation is
// per-submission: the calling goroutine is the only possible claimant of its
// result and no broadcast step is needed.
package resolver

import (
	"context"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/vlakam/ProxyServer/internal/lru"
)

// defaultDNSCacheCapacity bounds the DNS cache when no capacity is given.
const defaultDNSCacheCapacity = 500

// defaultTaskQueueCapacity bounds the submission queue; a full queue makes
// Resolve block until a worker frees a slot.
const defaultTaskQueueCapacity = 30

// Resolver is the proxy's name-resolution subsystem.
type Resolver struct {
	tasks  chan task
	lookup LookupFunc
	logger *zap.Logger

	cacheMu sync.Mutex // lru.Cache is unsynchronized; all access goes through this lock
	cache   *lru.Cache[string, Endpoint]

	poolMu sync.Mutex // guards pool lifecycle across Resize/Close
	cancel context.CancelFunc
	group  *errgroup.Group
	closed bool
}

// New returns a Resolver with poolSize worker goroutines performing real DNS
// lookups. dnsCacheCapacity bounds the DNS cache; a non-positive value uses
// the default of 500 entries.
func New(poolSize, dnsCacheCapacity int, logger *zap.Logger) *Resolver {
	return newResolver(poolSize, dnsCacheCapacity, defaultLookup, logger)
}

// NewWithLookup is New, but with a substitutable LookupFunc, used by tests
// to avoid depending on real DNS.
func NewWithLookup(poolSize, dnsCacheCapacity int, lookup LookupFunc, logger *zap.Logger) *Resolver {
	return newResolver(poolSize, dnsCacheCapacity, lookup, logger)
}

func newResolver(poolSize, dnsCacheCapacity int, lookup LookupFunc, logger *zap.Logger) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	if dnsCacheCapacity <= 0 {
		dnsCacheCapacity = defaultDNSCacheCapacity
	}
	r := &Resolver{
		tasks:  make(chan task, defaultTaskQueueCapacity),
		lookup: lookup,
		logger: logger,
		cache:  lru.New[string, Endpoint](dnsCacheCapacity),
	}
	r.startPool(poolSize)
	return r
}

func (r *Resolver) startPool(poolSize int) {
	ctx, cancel := context.WithCancel(context.Background())
	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < poolSize; i++ {
		g.Go(func() error {
			r.worker(gctx)
			return nil
		})
	}
	r.cancel = cancel
	r.group = g
}

// Resolve submits host (optionally "host:port", default port 80) for
// resolution and blocks until a result arrives or ctx is cancelled.
//
// A DNS-cache hit is synthesized and returned without touching the worker
// pool at all.
func (r *Resolver) Resolve(ctx context.Context, hostWithOptionalPort string) (Result, error) {
	r.poolMu.Lock()
	closed := r.closed
	r.poolMu.Unlock()
	if closed {
		return Result{}, ErrClosed
	}

	r.cacheMu.Lock()
	ep, hit := r.cache.Get(hostWithOptionalPort)
	r.cacheMu.Unlock()
	if hit {
		r.logger.Debug("resolver cache hit", zap.String("host", hostWithOptionalPort))
		return Result{Host: hostWithOptionalPort, Endpoint: ep, OK: true}, nil
	}

	reply := make(chan Result, 1)
	select {
	case r.tasks <- task{host: hostWithOptionalPort, reply: reply}:
	case <-ctx.Done():
		return Result{}, ctx.Err()
	}

	select {
	case res := <-reply:
		return res, nil
	case <-ctx.Done():
		return Result{}, ctx.Err()
	}
}

// CacheResolved records a successful resolution in the DNS cache under the
// submitted host string. The owner of the result calls this after consuming
// a successful Resolve; workers never write the cache themselves.
func (r *Resolver) CacheResolved(host string, ep Endpoint) {
	r.cacheMu.Lock()
	defer r.cacheMu.Unlock()
	r.cache.Put(host, ep)
}

// CacheSize returns the current DNS cache occupancy, for diagnostics.
func (r *Resolver) CacheSize() int {
	r.cacheMu.Lock()
	defer r.cacheMu.Unlock()
	return r.cache.Size()
}

// QueueLen returns the number of submissions currently buffered in the task
// queue, waiting for a free worker. Exposed for the resolver_queued_tasks
// gauge.
func (r *Resolver) QueueLen() int {
	return len(r.tasks)
}

// Resize drains all current workers and respawns poolSize new ones.
// Submissions made during a resize are not lost: the task queue is shared
// across pool generations and in-flight replies are delivered to whichever
// generation dequeues them.
func (r *Resolver) Resize(poolSize int) {
	r.poolMu.Lock()
	defer r.poolMu.Unlock()
	if r.closed {
		return
	}
	r.cancel()
	_ = r.group.Wait()
	r.startPool(poolSize)
}

// Close permanently stops the worker pool. Further Resolve calls return
// ErrClosed.
func (r *Resolver) Close() {
	r.poolMu.Lock()
	defer r.poolMu.Unlock()
	if r.closed {
		return
	}
	r.closed = true
	r.cancel()
	_ = r.group.Wait()
}
