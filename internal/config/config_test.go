package config

import (
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultValidates(t *testing.T) {
	assert.NoError(t, Default().Validate())
}

func TestBindFlagsOverridesDefaults(t *testing.T) {
	cfg := Default()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	cfg.BindFlags(fs)

	err := fs.Parse([]string{
		"--listen", "0.0.0.0:3128",
		"--resolver-threads", "8",
		"--dns-cache-size", "100",
	})
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:3128", cfg.ListenAddr)
	assert.Equal(t, 8, cfg.ResolverPool)
	assert.Equal(t, 100, cfg.DNSCacheSize)
	assert.NoError(t, cfg.Validate())
}

func TestValidateRejectsBadValues(t *testing.T) {
	cfg := Default()
	cfg.ResolverPool = 0
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.ListenAddr = ""
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.ResponseCache = -1
	assert.Error(t, cfg.Validate())
}
