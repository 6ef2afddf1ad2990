package proxy

import "errors"

var (
	// errIdleTimeout indicates a read exceeded the idle window. On the
	// inbound side the connection is closed silently; on the origin side the
	// client gets a placeholder if nothing had been delivered yet.
	errIdleTimeout = errors.New("proxy: inbound idle timeout")

	// errParseFailed indicates the parser reached StateFail.
	errParseFailed = errors.New("proxy: message parse failed")

	// errOriginDisconnected indicates the origin connection ended before the
	// response parser reached a terminal state.
	errOriginDisconnected = errors.New("proxy: origin disconnected before response completed")

	// errDialFailed indicates the outbound connect attempt failed or timed
	// out; the client sees the same placeholder as a resolve failure.
	errDialFailed = errors.New("proxy: outbound connect failed")
)
