package proxy

import (
	"context"
	"net"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/vlakam/ProxyServer/internal/httpmsg"
	"github.com/vlakam/ProxyServer/internal/rcache"
	"github.com/vlakam/ProxyServer/internal/resolver"
)

// outboundSession owns the connection to the origin for exactly one
// request/response exchange.
type outboundSession struct {
	conn         net.Conn
	inbound      *inboundSession
	engine       *Engine
	log          *zap.Logger
	req          *httpmsg.Request
	cacheKey     string
	cacheHit     bool
	revalidating bool
	cached       *httpmsg.Response
}

// dialOutbound opens the origin connection: dial the resolved endpoint
// under the connect timeout, decide cache-hit/revalidation, inject
// If-None-Match when revalidating, and write the rendered request.
func (e *Engine) dialOutbound(ctx context.Context, s *inboundSession, req *httpmsg.Request, ep resolver.Endpoint, log *zap.Logger) (*outboundSession, error) {
	addr := net.JoinHostPort(ep.IP, strconv.Itoa(int(ep.Port)))

	dialCtx, cancel := context.WithTimeout(ctx, e.cfg.ConnectTimeout)
	defer cancel()
	conn, err := e.cfg.Dial(dialCtx, "tcp", addr)
	if err != nil {
		log.Debug("outbound connect failed", zap.String("addr", addr), zap.Error(err))
		return nil, errDialFailed
	}

	cacheKey := req.CacheKey()
	cacheHit := e.cache.Exists(cacheKey)
	validateRequest := req.IsValidating()
	if e.metrics != nil {
		if cacheHit {
			e.metrics.CacheHits.Inc()
		} else {
			e.metrics.CacheMisses.Inc()
		}
	}

	ob := &outboundSession{
		conn:     conn,
		inbound:  s,
		engine:   e,
		log:      log,
		req:      req,
		cacheKey: cacheKey,
		cacheHit: cacheHit,
	}

	if !validateRequest && cacheHit {
		if cached, ok := e.cache.Get(cacheKey); ok {
			ob.cached = cached
			ob.revalidating = true
			req.SetHeader("If-None-Match", cached.Header("ETag"))
		}
	}

	if err := conn.SetWriteDeadline(deadline(e.cfg.ConnectTimeout)); err != nil {
		conn.Close()
		return nil, err
	}
	if _, err := conn.Write(req.RenderRequest()); err != nil {
		conn.Close()
		log.Debug("outbound write failed", zap.Error(err))
		return nil, errDialFailed
	}

	return ob, nil
}

// stream reads the origin's response and forwards it to the client,
// serving from the cache on a 304 revalidation hit. It returns whether the
// inbound connection should stay open for another request.
func (ob *outboundSession) stream(ctx context.Context) (keepAlive bool, err error) {
	resp := httpmsg.NewResponse()
	buf := getReadBuf()
	defer putReadBuf(buf)
	delivered := false
	// While revalidating, nothing may reach the client until the status line
	// is parsed: if the origin answers 304, the client gets the cached entry
	// instead of the origin's bytes.
	holding := ob.revalidating

	for {
		if err := ob.conn.SetReadDeadline(deadline(ob.engine.cfg.IdleTimeout)); err != nil {
			return false, err
		}
		// Any outbound read recharges the inbound idle timer too.
		_ = ob.inbound.conn.SetDeadline(deadline(ob.engine.cfg.IdleTimeout))

		n, readErr := ob.conn.Read(buf)
		if n > 0 {
			resp.Append(buf[:n])

			switch {
			case holding && resp.State() == httpmsg.StateInit:
				// Status line still incomplete; keep holding.
			case holding && resp.State() == httpmsg.StateFail:
				// Fall through to the failure handling below.
			case holding && resp.Code() == "304":
				if _, werr := ob.inbound.conn.Write(ob.cached.Text()); werr != nil {
					return false, werr
				}
				ob.drainAndClose(resp, buf)
				return keepAliveFor(ob.req, ob.cached), nil
			case holding:
				// Origin says the cached entry is stale; its response
				// replaces it rather than being treated as a hit. Flush
				// everything held back so far and switch to pass-through.
				ob.cacheHit = false
				holding = false
				if _, werr := ob.inbound.conn.Write(resp.Text()); werr != nil {
					return false, werr
				}
				delivered = true
			default:
				if _, werr := ob.inbound.conn.Write(buf[:n]); werr != nil {
					return false, werr
				}
				delivered = true
			}
		}

		if readErr != nil {
			if isTimeout(readErr) {
				if !delivered {
					ob.inbound.writeAndClose(placeholderBadRequest)
				}
				return false, errIdleTimeout
			}
			if isClosedOrEOF(readErr) {
				if resp.State() != httpmsg.StateBodyFull {
					if len(resp.Text()) > 0 {
						ob.log.Warn("origin disconnected with unconsumed bytes",
							zap.Int("bytes", len(resp.Text())), zap.String("state", resp.State().String()))
					}
					if !delivered {
						ob.inbound.writeAndClose(placeholderBadRequest)
					}
					return false, errOriginDisconnected
				}
				break
			}
			return false, readErr
		}

		switch resp.State() {
		case httpmsg.StateBodyFull:
			goto done
		case httpmsg.StateFail:
			if !delivered {
				ob.inbound.writeAndClose(placeholderBadRequest)
			}
			return false, errParseFailed
		}
	}

done:
	ob.tryToCache(resp)
	return keepAliveFor(ob.req, resp), nil
}

// drainAndClose discards the remainder of the origin stream after a 304
// revalidation hit has already been delivered to the client. It returns as
// soon as the response is structurally complete; the caller then closes
// ob.conn rather than leaving it to idle out.
func (ob *outboundSession) drainAndClose(resp *httpmsg.Response, buf []byte) {
	for resp.State() != httpmsg.StateBodyFull && resp.State() != httpmsg.StateFail {
		if err := ob.conn.SetReadDeadline(deadline(ob.engine.cfg.IdleTimeout)); err != nil {
			return
		}
		n, err := ob.conn.Read(buf)
		if n > 0 {
			resp.Append(buf[:n])
		}
		if err != nil {
			return
		}
	}
}

// tryToCache inserts the response only if it is cacheable and cacheHit is
// unset: the cache held no entry for this URL when the request went out, or
// a revalidation found the entry stale. A request that carried its own
// validator against an existing entry is therefore not cached. A 304
// revalidation hit never reaches here; it returns early from stream before
// this call.
func (ob *outboundSession) tryToCache(resp *httpmsg.Response) {
	if ob.cacheHit {
		return
	}
	if !rcache.ShouldCache(resp, ob.req.Header("Authorization") != "") {
		return
	}
	ob.engine.cache.Put(ob.cacheKey, resp)
}

// keepAliveFor applies standard HTTP/1.x persistence defaults: HTTP/1.1
// connections stay open unless either side says Connection: close; HTTP/1.0
// connections close unless either side says Connection: keep-alive.
func keepAliveFor(req *httpmsg.Request, resp *httpmsg.Response) bool {
	respConn := strings.ToLower(resp.Header("Connection"))
	reqConn := strings.ToLower(req.Header("Connection"))

	if req.Version() == "HTTP/1.0" {
		return reqConn == "keep-alive" || respConn == "keep-alive"
	}
	return respConn != "close" && reqConn != "close"
}
