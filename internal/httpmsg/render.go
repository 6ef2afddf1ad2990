package httpmsg

import (
	"bytes"
	"strings"
)

// NormalizedURI returns the request-target in origin-form: if the raw URI
// carries a scheme+host prefix (as sent by browsers talking to a forward
// proxy), that prefix is stripped.
func (r *Request) NormalizedURI() string {
	uri := r.uri
	host := r.Host()
	if host == "" {
		return uri
	}
	for _, scheme := range []string{"http://", "https://"} {
		prefix := scheme + host
		if strings.HasPrefix(uri, prefix) {
			rest := uri[len(prefix):]
			if rest == "" {
				return "/"
			}
			return rest
		}
	}
	return uri
}

// CacheKey returns the response-cache key for this request: host + origin-
// form URI.
func (r *Request) CacheKey() string {
	return r.Host() + r.NormalizedURI()
}

// RenderRequest serializes the request for forwarding to the origin:
// request line with the normalized origin-form URI, every header except the
// hop-by-hop set, a blank line, then the body.
func (r *Request) RenderRequest() []byte {
	var buf bytes.Buffer
	buf.WriteString(string(r.method))
	buf.WriteByte(' ')
	buf.WriteString(r.NormalizedURI())
	buf.WriteByte(' ')
	buf.WriteString(r.version)
	buf.Write(crlf)

	skip := r.hopByHopSet()
	for _, name := range r.headerNamesInOrder() {
		if skip[lower(name)] {
			continue
		}
		f := r.headers[lower(name)]
		buf.WriteString(f.name)
		buf.WriteString(": ")
		buf.WriteString(f.value)
		buf.Write(crlf)
	}
	buf.Write(crlf)
	buf.Write(r.Body())
	return buf.Bytes()
}
