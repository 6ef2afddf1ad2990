package httpmsg

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestFirstLineThenHeaders(t *testing.T) {
	r := NewRequest()
	r.Append([]byte("GET /a HTTP/1.1\r\n"))
	assert.Equal(t, StateFirstLine, r.State())
	assert.Equal(t, MethodGET, r.Method())
	assert.Equal(t, "/a", r.URI())
	assert.Equal(t, "HTTP/1.1", r.Version())

	r.Append([]byte("Host: h\r\n\r\n"))
	require.Equal(t, StateBodyFull, r.State())
	assert.Equal(t, "h", r.Host())
	assert.Empty(t, r.Body())
}

func TestCRLFSplitAcrossAppends(t *testing.T) {
	r := NewRequest()
	r.Append([]byte("GET /a HTTP/1.1\r"))
	assert.Equal(t, StateInit, r.State())
	r.Append([]byte("\nHost: h\r\n\r\n"))
	assert.Equal(t, StateBodyFull, r.State())
}

func TestHeaderBlockSplitAcrossAppends(t *testing.T) {
	r := NewRequest()
	r.Append([]byte("GET /a HTTP/1.1\r\nHost: h\r\nX-F"))
	assert.Equal(t, StateFirstLine, r.State())
	r.Append([]byte("oo: bar\r\n\r\n"))
	require.Equal(t, StateBodyFull, r.State())
	assert.Equal(t, "bar", r.Header("X-Foo"))
}

func TestContentLengthZeroIsImmediatelyBodyFull(t *testing.T) {
	r := NewRequest()
	r.Append([]byte("POST /a HTTP/1.1\r\nHost: h\r\nContent-Length: 0\r\n\r\n"))
	assert.Equal(t, StateBodyFull, r.State())
	assert.Empty(t, r.Body())
}

func TestContentLengthPartialThenFull(t *testing.T) {
	r := NewRequest()
	r.Append([]byte("POST /a HTTP/1.1\r\nHost: h\r\nContent-Length: 5\r\n\r\nhel"))
	assert.Equal(t, StateBodyPart, r.State())
	r.Append([]byte("lo"))
	assert.Equal(t, StateBodyFull, r.State())
	assert.Equal(t, "hello", string(r.Body()))
}

func TestContentLengthUnparseableFails(t *testing.T) {
	r := NewRequest()
	r.Append([]byte("POST /a HTTP/1.1\r\nHost: h\r\nContent-Length: nope\r\n\r\n"))
	assert.Equal(t, StateFail, r.State())
}

func TestChunkedBodyFullOnlyOnExactTail(t *testing.T) {
	r := NewRequest()
	r.Append([]byte("POST /a HTTP/1.1\r\nHost: h\r\nTransfer-Encoding: chunked\r\n\r\n"))
	assert.Equal(t, StateBodyPart, r.State())
	r.Append([]byte("4\r\nWiki\r\n"))
	assert.Equal(t, StateBodyPart, r.State())
	r.Append([]byte("0\r\n\r\n"))
	assert.Equal(t, StateBodyFull, r.State())
}

func TestMalformedFirstLineFails(t *testing.T) {
	r := NewRequest()
	r.Append([]byte("FOO /a HTTP/1.1\r\n\r\n"))
	assert.Equal(t, StateFail, r.State())
}

func TestFailStateNeverChanges(t *testing.T) {
	r := NewRequest()
	r.Append([]byte("FOO /a HTTP/1.1\r\n\r\n"))
	require.Equal(t, StateFail, r.State())
	r.Append([]byte("more garbage"))
	assert.Equal(t, StateFail, r.State())
}

func TestHostHeaderCaseInsensitiveLookup(t *testing.T) {
	r := NewRequest()
	r.Append([]byte("GET /a HTTP/1.1\r\nhost: h\r\n\r\n"))
	assert.Equal(t, "h", r.Host())
	assert.Equal(t, "h", r.Header("Host"))
	assert.Equal(t, "h", r.Header("HOST"))
}

func TestMultiValuedHeaderCollapsesToLastOccurrence(t *testing.T) {
	r := NewRequest()
	r.Append([]byte("GET /a HTTP/1.1\r\nX-Tag: one\r\nX-Tag: two\r\n\r\n"))
	assert.Equal(t, "two", r.Header("X-Tag"))
}

func TestIsValidating(t *testing.T) {
	r := NewRequest()
	r.Append([]byte("GET /a HTTP/1.1\r\nHost: h\r\nIf-None-Match: \"x\"\r\n\r\n"))
	assert.True(t, r.IsValidating())

	r2 := NewRequest()
	r2.Append([]byte("GET /a HTTP/1.1\r\nHost: h\r\n\r\n"))
	assert.False(t, r2.IsValidating())
}

func TestConnectUsesRequestLineAsHost(t *testing.T) {
	r := NewRequest()
	r.Append([]byte("CONNECT example.com:443 HTTP/1.1\r\n\r\n"))
	assert.Equal(t, "example.com:443", r.Host())
}

func TestResponseParsing(t *testing.T) {
	r := NewResponse()
	r.Append([]byte("HTTP/1.1 200 OK\r\nContent-Length: 2\r\n\r\nhi"))
	assert.Equal(t, StateBodyFull, r.State())
	assert.Equal(t, "200", r.Code())
	assert.False(t, r.IsCacheable()) // no ETag
}

func TestResponseCacheablePredicate(t *testing.T) {
	r := NewResponse()
	r.Append([]byte("HTTP/1.1 200 OK\r\nContent-Length: 2\r\nETag: \"x\"\r\n\r\nhi"))
	assert.True(t, r.IsCacheable())

	r2 := NewResponse()
	r2.Append([]byte("HTTP/1.1 200 OK\r\nContent-Length: 2\r\nETag: \"x\"\r\nCache-Control: no-store\r\n\r\nhi"))
	assert.False(t, r2.IsCacheable())
}

func TestRenderRequestRoundTrip(t *testing.T) {
	r := NewRequest()
	r.Append([]byte("GET /a HTTP/1.1\r\nHost: h\r\nConnection: keep-alive\r\nProxy-Connection: keep-alive\r\n\r\n"))
	rendered := r.RenderRequest()

	r2 := NewRequest()
	r2.Append(rendered)
	require.Equal(t, StateBodyFull, r2.State())
	assert.Equal(t, r.Method(), r2.Method())
	assert.Equal(t, r.NormalizedURI(), r2.URI())
	assert.Equal(t, r.Version(), r2.Version())
	assert.Equal(t, "h", r2.Host())
	// Hop-by-hop headers must not survive rendering.
	assert.Empty(t, r2.Header("Connection"))
	assert.Empty(t, r2.Header("Proxy-Connection"))
}

func TestNormalizedURIStripsSchemeAndHost(t *testing.T) {
	r := NewRequest()
	r.Append([]byte("GET http://h/a HTTP/1.1\r\nHost: h\r\n\r\n"))
	assert.Equal(t, "/a", r.NormalizedURI())
}

func TestResponseClone(t *testing.T) {
	r := NewResponse()
	r.Append([]byte("HTTP/1.1 200 OK\r\nContent-Length: 2\r\nETag: \"x\"\r\n\r\nhi"))
	clone := r.Clone()
	assert.Equal(t, r.Text(), clone.Text())
	assert.Equal(t, r.Code(), clone.Code())
	assert.Equal(t, r.Header("ETag"), clone.Header("ETag"))

	// Mutating the clone must not affect the original.
	clone.SetHeader("ETag", "\"y\"")
	assert.Equal(t, "\"x\"", r.Header("ETag"))
}
