package proxy

import (
	"context"
	"errors"
	"io"
	"net"

	"go.uber.org/zap"

	"github.com/vlakam/ProxyServer/internal/httpmsg"
)

const readChunkSize = 64 * 1024

// inboundSession owns a client connection end to end. The lifecycle of
// receiving a request, resolving, dialing, and streaming the response runs as
// the sequential steps of run's loop body on a dedicated goroutine.
type inboundSession struct {
	id     string
	conn   net.Conn
	engine *Engine
}

// run drives the session until the client disconnects, a placeholder is sent
// and the connection closed, or an idle timeout fires. One request is fully
// handled (response delivered) before the next is read.
func (s *inboundSession) run(ctx context.Context) {
	s.engine.register(s)
	defer s.engine.unregister(s)
	defer s.conn.Close()

	log := s.engine.logger.With(zap.String("session", s.id), zap.String("remote", s.conn.RemoteAddr().String()))

	for {
		req, err := s.receiveRequest()
		if err != nil {
			if errors.Is(err, errParseFailed) {
				s.writeAndClose(placeholderBadRequest)
			} else if !errors.Is(err, errIdleTimeout) && !isClosedOrEOF(err) {
				log.Debug("inbound receive failed", zap.Error(err))
			}
			return
		}

		if req.Method() == httpmsg.MethodCONNECT {
			// CONNECT parses but tunneling is unsupported; reject with a
			// placeholder rather than silently hanging up.
			log.Debug("rejecting CONNECT", zap.String("target", req.URI()))
			s.writeAndClose(placeholderBadRequest)
			return
		}

		keepAlive, err := s.serveOne(ctx, req, log)
		if err != nil || !keepAlive {
			return
		}
	}
}

// receiveRequest reads and parses exactly one request, recharging the idle
// timeout on every read.
func (s *inboundSession) receiveRequest() (*httpmsg.Request, error) {
	req := httpmsg.NewRequest()
	buf := getReadBuf()
	defer putReadBuf(buf)

	for {
		if err := s.conn.SetReadDeadline(deadline(s.engine.cfg.IdleTimeout)); err != nil {
			return nil, err
		}
		n, err := s.conn.Read(buf)
		if n > 0 {
			req.Append(buf[:n])
		}
		if err != nil {
			if isTimeout(err) {
				return nil, errIdleTimeout
			}
			return nil, err
		}

		switch req.State() {
		case httpmsg.StateFail:
			return nil, errParseFailed
		case httpmsg.StateBodyFull:
			return req, nil
		}
	}
}

// serveOne resolves the request's host, streams an origin response back to
// the client, and reports whether the connection should stay open for
// another request.
func (s *inboundSession) serveOne(ctx context.Context, req *httpmsg.Request, log *zap.Logger) (keepAlive bool, err error) {
	host := req.Host()
	if host == "" {
		s.writeAndClose(placeholderBadRequest)
		return false, errParseFailed
	}

	resolveCtx, cancel := context.WithTimeout(ctx, s.engine.cfg.ConnectTimeout)
	res, resolveErr := s.engine.resolver.Resolve(resolveCtx, host)
	cancel()
	if s.engine.metrics != nil {
		s.engine.metrics.ResolverQueued.Set(float64(s.engine.resolver.QueueLen()))
	}
	if resolveErr != nil || !res.OK {
		if s.engine.metrics != nil {
			s.engine.metrics.ResolveFailures.Inc()
		}
		log.Debug("resolve failed", zap.String("host", host), zap.Error(resolveErr))
		s.writeAndClose(placeholderNotFound)
		return false, errors.New("proxy: resolve failed")
	}
	s.engine.resolver.CacheResolved(host, res.Endpoint)

	ob, err := s.engine.dialOutbound(ctx, s, req, res.Endpoint, log)
	if err != nil {
		s.writeAndClose(placeholderNotFound)
		return false, err
	}
	defer ob.conn.Close()

	if s.engine.metrics != nil {
		s.engine.metrics.OutboundSessions.Inc()
		defer s.engine.metrics.OutboundSessions.Dec()
	}

	return ob.stream(ctx)
}

// writeAndClose best-effort delivers a canned placeholder before the caller
// closes the connection; write errors are not actionable here.
func (s *inboundSession) writeAndClose(placeholder []byte) {
	_ = s.conn.SetWriteDeadline(deadline(s.engine.cfg.IdleTimeout))
	_, _ = s.conn.Write(placeholder)
}

func isTimeout(err error) bool {
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

func isClosedOrEOF(err error) bool {
	return errors.Is(err, net.ErrClosed) || errors.Is(err, io.EOF)
}
