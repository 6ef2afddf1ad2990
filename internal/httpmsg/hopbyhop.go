package httpmsg

import "strings"

// hopByHop is the RFC 7230 section 6.1 hop-by-hop header set, stripped
// before forwarding.
var hopByHop = map[string]bool{
	"connection":          true,
	"keep-alive":          true,
	"proxy-connection":    true,
	"proxy-authenticate":  true,
	"proxy-authorization": true,
	"te":                  true,
	"trailer":             true,
	"transfer-encoding":   true,
	"upgrade":             true,
}

// hopByHopSet returns the hop-by-hop set for this message: the fixed list
// plus anything named in the message's own Connection header value.
func (b *base) hopByHopSet() map[string]bool {
	set := hopByHop
	conn := b.Header("Connection")
	if conn == "" {
		return set
	}
	extended := make(map[string]bool, len(set)+2)
	for k := range set {
		extended[k] = true
	}
	for _, tok := range strings.Split(conn, ",") {
		tok = strings.ToLower(strings.TrimSpace(tok))
		if tok != "" {
			extended[tok] = true
		}
	}
	return extended
}
