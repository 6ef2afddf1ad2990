package resolver

import (
	"context"
	"net"
	"strconv"
	"strings"
)

// LookupFunc resolves name to a numeric IPv4 string. It is the seam tests
// substitute to avoid depending on real DNS.
type LookupFunc func(ctx context.Context, name string) (ip string, err error)

// defaultLookup resolves via the standard resolver, picking the first IPv4
// address returned.
func defaultLookup(ctx context.Context, name string) (string, error) {
	ips, err := net.DefaultResolver.LookupIP(ctx, "ip4", name)
	if err != nil {
		return "", err
	}
	if len(ips) == 0 {
		return "", errNoAddresses
	}
	return ips[0].String(), nil
}

// splitHostPort parses the "host[:port]" submission form, defaulting to
// port 80 when no suffix is present.
func splitHostPort(hostWithOptionalPort string) (name, port string) {
	idx := strings.LastIndex(hostWithOptionalPort, ":")
	if idx < 0 {
		return hostWithOptionalPort, "80"
	}
	return hostWithOptionalPort[:idx], hostWithOptionalPort[idx+1:]
}

// worker is the blocking resolution loop run on each pool goroutine. It
// drains r.tasks until ctx is cancelled (pool shutdown or resize).
func (r *Resolver) worker(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case t, ok := <-r.tasks:
			if !ok {
				return
			}
			t.reply <- r.resolveOne(ctx, t.host)
		}
	}
}

func (r *Resolver) resolveOne(ctx context.Context, input string) Result {
	name, portStr := splitHostPort(input)

	port, err := strconv.ParseUint(portStr, 10, 16)
	if err != nil {
		return Result{Host: input, OK: false}
	}

	ip, err := r.lookup(ctx, name)
	if err != nil {
		return Result{Host: input, OK: false}
	}

	return Result{
		Host:     input,
		Endpoint: Endpoint{IP: ip, Port: uint16(port)},
		OK:       true,
	}
}
