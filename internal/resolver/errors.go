package resolver

import "errors"

var (
	// errNoAddresses indicates the lookup succeeded but returned zero
	// addresses.
	errNoAddresses = errors.New("resolver: no addresses returned")

	// ErrClosed is returned by Resolve once the resolver has been closed.
	ErrClosed = errors.New("resolver: closed")
)
