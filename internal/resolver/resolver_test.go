package resolver

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fakeLookup(result string, err error) LookupFunc {
	return func(ctx context.Context, name string) (string, error) {
		return result, err
	}
}

func TestResolveSuccess(t *testing.T) {
	r := NewWithLookup(2, 0, fakeLookup("127.0.0.1", nil), nil)
	defer r.Close()

	res, err := r.Resolve(context.Background(), "example.com")
	require.NoError(t, err)
	assert.True(t, res.OK)
	assert.Equal(t, "127.0.0.1", res.Endpoint.IP)
	assert.Equal(t, uint16(80), res.Endpoint.Port)
}

func TestResolveWithExplicitPort(t *testing.T) {
	r := NewWithLookup(2, 0, fakeLookup("10.0.0.1", nil), nil)
	defer r.Close()

	res, err := r.Resolve(context.Background(), "example.com:8080")
	require.NoError(t, err)
	assert.True(t, res.OK)
	assert.Equal(t, uint16(8080), res.Endpoint.Port)
}

func TestResolveInvalidPortFails(t *testing.T) {
	r := NewWithLookup(2, 0, fakeLookup("10.0.0.1", nil), nil)
	defer r.Close()

	res, err := r.Resolve(context.Background(), "example.com:notaport")
	require.NoError(t, err)
	assert.False(t, res.OK)
}

func TestResolveLookupFailureYieldsNotOK(t *testing.T) {
	r := NewWithLookup(2, 0, fakeLookup("", errors.New("nxdomain")), nil)
	defer r.Close()

	res, err := r.Resolve(context.Background(), "nonexistent")
	require.NoError(t, err) // lookup failures surface as !OK results, not errors
	assert.False(t, res.OK)
}

func TestCacheHitSkipsLookup(t *testing.T) {
	calls := 0
	lookup := func(ctx context.Context, name string) (string, error) {
		calls++
		return "1.2.3.4", nil
	}
	r := NewWithLookup(1, 0, lookup, nil)
	defer r.Close()

	_, err := r.Resolve(context.Background(), "h")
	require.NoError(t, err)
	r.CacheResolved("h", Endpoint{IP: "1.2.3.4", Port: 80})

	res, err := r.Resolve(context.Background(), "h")
	require.NoError(t, err)
	assert.True(t, res.OK)
	assert.Equal(t, 1, calls) // second Resolve served from cache, not the workers
}

func TestResolveRespectsContextCancellation(t *testing.T) {
	blocked := make(chan struct{})
	lookup := func(ctx context.Context, name string) (string, error) {
		<-blocked
		return "1.2.3.4", nil
	}
	r := NewWithLookup(1, 0, lookup, nil)
	defer func() {
		close(blocked)
		r.Close()
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := r.Resolve(ctx, "slow-host")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestResizeDrainsAndRespawnsWorkers(t *testing.T) {
	r := NewWithLookup(2, 0, fakeLookup("1.2.3.4", nil), nil)
	defer r.Close()

	r.Resize(4)

	res, err := r.Resolve(context.Background(), "h")
	require.NoError(t, err)
	assert.True(t, res.OK)
}

func TestResolveAfterCloseReturnsErrClosed(t *testing.T) {
	r := NewWithLookup(1, 0, fakeLookup("1.2.3.4", nil), nil)
	r.Close()

	_, err := r.Resolve(context.Background(), "h")
	assert.ErrorIs(t, err, ErrClosed)
}
