// Package proxy implements the proxy session engine: it pairs an inbound
// (client) connection with an outbound (origin) connection, forwards bytes
// between them, enforces idle/connect timeouts, and drives cache
// lookup/validation.
//
// Each inbound connection gets its own goroutine, which reads a request,
// resolves and dials an outbound, then streams the response back before
// reading the next request (one in-flight request per connection, no
// pipelining). Backpressure falls out of blocking net.Conn.Write: a slow
// client blocks the goroutine copying bytes to it, which in turn blocks the
// read from the origin.
package proxy

import (
	"context"
	"net"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/vlakam/ProxyServer/internal/metrics"
	"github.com/vlakam/ProxyServer/internal/rcache"
	"github.com/vlakam/ProxyServer/internal/resolver"
)

// DialFunc opens an outbound connection. It is the seam tests substitute to
// run against an in-process origin instead of a real socket.
type DialFunc func(ctx context.Context, network, address string) (net.Conn, error)

// Config controls the engine's timeouts and dependencies.
type Config struct {
	// IdleTimeout governs the inbound connection: any read or write
	// recharges it; expiry force-disconnects.
	IdleTimeout time.Duration

	// ConnectTimeout bounds dialing the origin. Expiry yields a not-found
	// placeholder to the client.
	ConnectTimeout time.Duration

	// Dial opens the outbound connection. Defaults to net.Dialer.DialContext.
	Dial DialFunc
}

// DefaultConfig returns the engine's default timeouts.
func DefaultConfig() Config {
	return Config{
		IdleTimeout:    3 * time.Minute,
		ConnectTimeout: 10 * time.Second,
		Dial:           (&net.Dialer{}).DialContext,
	}
}

// Engine is the proxy's central session-state machine.
type Engine struct {
	listener net.Listener
	resolver *resolver.Resolver
	cache    *rcache.Cache
	cfg      Config
	logger   *zap.Logger
	metrics  *metrics.Metrics

	mu           sync.Mutex
	inbounds     map[string]*inboundSession
	shuttingDown bool
	drained      sync.WaitGroup
}

// NewEngine constructs an Engine. metrics may be nil.
func NewEngine(ln net.Listener, res *resolver.Resolver, cache *rcache.Cache, cfg Config, logger *zap.Logger, m *metrics.Metrics) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Dial == nil {
		cfg.Dial = (&net.Dialer{}).DialContext
	}
	return &Engine{
		listener: ln,
		resolver: res,
		cache:    cache,
		cfg:      cfg,
		logger:   logger,
		metrics:  m,
		inbounds: make(map[string]*inboundSession),
	}
}

// Serve accepts connections until the listener closes or ctx is cancelled.
// It returns nil on a clean shutdown-triggered close.
func (e *Engine) Serve(ctx context.Context) error {
	go func() {
		<-ctx.Done()
		e.Shutdown()
	}()

	for {
		conn, err := e.listener.Accept()
		if err != nil {
			e.mu.Lock()
			down := e.shuttingDown
			e.mu.Unlock()
			if down {
				return nil
			}
			return err
		}

		e.mu.Lock()
		down := e.shuttingDown
		e.mu.Unlock()
		if down {
			// Late arrivals during shutdown are accepted and immediately
			// force-closed; only in-flight sessions get to drain.
			conn.Close()
			continue
		}

		sess := e.newInboundSession(conn)
		e.drained.Add(1)
		go func() {
			defer e.drained.Done()
			sess.run(ctx)
		}()
	}
}

// Shutdown stops accepting new connections and blocks until every in-flight
// inbound session has drained.
func (e *Engine) Shutdown() {
	e.mu.Lock()
	already := e.shuttingDown
	e.shuttingDown = true
	e.mu.Unlock()

	if !already {
		e.listener.Close()
	}
	e.drained.Wait()
}

func (e *Engine) register(s *inboundSession) {
	e.mu.Lock()
	e.inbounds[s.id] = s
	e.mu.Unlock()
	if e.metrics != nil {
		e.metrics.InboundSessions.Inc()
	}
}

func (e *Engine) unregister(s *inboundSession) {
	e.mu.Lock()
	delete(e.inbounds, s.id)
	e.mu.Unlock()
	if e.metrics != nil {
		e.metrics.InboundSessions.Dec()
	}
}

func (e *Engine) newInboundSession(conn net.Conn) *inboundSession {
	return &inboundSession{
		id:     uuid.NewString(),
		conn:   conn,
		engine: e,
	}
}

// InFlightCount reports the number of inbound sessions currently tracked,
// exposed for tests and diagnostics.
func (e *Engine) InFlightCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.inbounds)
}
