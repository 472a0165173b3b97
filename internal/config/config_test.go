package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 30, cfg.RateLimit.Holder.Max)
	assert.Equal(t, 5, cfg.RateLimit.Regular.Max)
	assert.Equal(t, 24*time.Hour, cfg.RateLimit.Holder.Window)
	require.Len(t, cfg.Networks, 1)
	assert.Equal(t, uint64(8453), cfg.Networks[0].ChainID)
	assert.Equal(t, "https://mainnet.base.org", cfg.Networks[0].RPCURLs[0])
	assert.Equal(t, 10*time.Second, cfg.Networks[0].Timeout)
}

func TestLoadYAMLOverlay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nftgate.yaml")
	yml := `
listen: ":8088"
session:
  format: delimited
rate_limit:
  holder:
    max: 50
    window: 1h
networks:
  - name: Base Sepolia
    chain_id: 84532
    contract: "0x0000000000000000000000000000000000000001"
    rpc_urls: ["https://sepolia.base.org"]
    timeout: 3s
`
	require.NoError(t, os.WriteFile(path, []byte(yml), 0o600))
	t.Setenv("OSINT_SESSION_SECRET", "s3cret")
	t.Setenv("OSINT_UPSTREAM_URL", "http://osint.internal:8080")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":8088", cfg.Listen)
	assert.Equal(t, TokenFormatDelimited, cfg.Session.Format)
	assert.Equal(t, "s3cret", cfg.Session.Secret)
	assert.Equal(t, 50, cfg.RateLimit.Holder.Max)
	assert.Equal(t, time.Hour, cfg.RateLimit.Holder.Window)
	assert.Equal(t, 5, cfg.RateLimit.Regular.Max)
	require.Len(t, cfg.Networks, 1)
	assert.Equal(t, "Base Sepolia", cfg.Networks[0].Name)
	assert.Equal(t, 3*time.Second, cfg.Networks[0].Timeout)
	assert.Equal(t, "http://osint.internal:8080", cfg.OSINT.UpstreamURL)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestValidateRejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty listen", func(c *Config) { c.Listen = "" }},
		{"unknown format", func(c *Config) { c.Session.Format = "paseto" }},
		{"no networks", func(c *Config) { c.Networks = nil }},
		{"bad contract", func(c *Config) { c.Networks[0].Contract = "0x12" }},
		{"no rpc", func(c *Config) { c.Networks[0].RPCURLs = nil }},
		{"bad rpc scheme", func(c *Config) { c.Networks[0].RPCURLs = []string{"ws://node"} }},
		{"zero quota", func(c *Config) { c.RateLimit.Regular.Max = 0 }},
		{"bad upstream", func(c *Config) { c.OSINT.UpstreamURL = "not a url" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestMissingSecretIsNotFatal(t *testing.T) {
	cfg := Default()
	cfg.Session.Secret = ""
	assert.NoError(t, cfg.Validate())
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		"REDIS_URL":         "redis://cache:6379/1",
		"NFTGATE_LISTEN":    ":7000",
		"NFTGATE_LOG_LEVEL": "debug",
	}
	cfg := Default()
	cfg.applyEnv(func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	})

	assert.Equal(t, "redis://cache:6379/1", cfg.Redis.URL)
	assert.Equal(t, ":7000", cfg.Listen)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Empty(t, cfg.Session.Secret)
}
