// Package config loads the gate configuration: defaults, then an optional
// YAML file, then environment overrides.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/layer-3/nftgate/core"
	"gopkg.in/yaml.v3"
)

const (
	TokenFormatJWT       = "jwt"
	TokenFormatDelimited = "delimited"
)

// LogConfig holds logging settings.
type LogConfig struct {
	Level      string `yaml:"level"`
	JSON       bool   `yaml:"json"`
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
}

// SessionConfig holds token issuance settings.
type SessionConfig struct {
	Secret string        `yaml:"secret"`
	Format string        `yaml:"format"`
	Issuer string        `yaml:"issuer"`
	TTL    time.Duration `yaml:"ttl"`
}

// NetworkConfig describes one chain and the NFT contract checked on it.
// RPCURLs are tried in order, the first one is the primary.
type NetworkConfig struct {
	Name     string        `yaml:"name"`
	ChainID  uint64        `yaml:"chain_id"`
	Contract string        `yaml:"contract"`
	Decimals int32         `yaml:"decimals"`
	RPCURLs  []string      `yaml:"rpc_urls"`
	Timeout  time.Duration `yaml:"timeout"`
}

// QuotaConfig is a fixed-window quota.
type QuotaConfig struct {
	Max    int           `yaml:"max"`
	Window time.Duration `yaml:"window"`
}

func (q QuotaConfig) RateLimit() core.RateLimit {
	return core.RateLimit{Max: q.Max, Window: q.Window}
}

// RateLimitConfig holds per-class quotas.
type RateLimitConfig struct {
	Holder        QuotaConfig   `yaml:"holder"`
	Regular       QuotaConfig   `yaml:"regular"`
	SweepInterval time.Duration `yaml:"sweep_interval"`
}

// RedisConfig enables the shared rate-limit store and the event stream.
type RedisConfig struct {
	URL    string `yaml:"url"`
	Prefix string `yaml:"prefix"`
}

// EventsConfig controls login event publishing.
type EventsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Topic   string `yaml:"topic"`
}

// OSINTConfig points at the upstream OSINT API guarded by the gate.
type OSINTConfig struct {
	UpstreamURL string `yaml:"upstream_url"`
}

// MetricsConfig controls the prometheus endpoint.
type MetricsConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Namespace string `yaml:"namespace"`
}

// AccountAssociation is the signed domain association of the mini app.
type AccountAssociation struct {
	Header    string `yaml:"header" json:"header"`
	Payload   string `yaml:"payload" json:"payload"`
	Signature string `yaml:"signature" json:"signature"`
}

// FrameConfig is the application descriptor served in the manifest.
type FrameConfig struct {
	Version        string `yaml:"version" json:"version"`
	Name           string `yaml:"name" json:"name"`
	HomeURL        string `yaml:"home_url" json:"homeUrl"`
	IconURL        string `yaml:"icon_url" json:"iconUrl"`
	SplashImageURL string `yaml:"splash_image_url" json:"splashImageUrl"`
	WebhookURL     string `yaml:"webhook_url" json:"webhookUrl"`
}

// ManifestConfig is served verbatim at /.well-known/farcaster.json.
type ManifestConfig struct {
	AccountAssociation AccountAssociation `yaml:"account_association" json:"accountAssociation"`
	Frame              FrameConfig        `yaml:"frame" json:"frame"`
}

// Config holds runtime settings for the gate.
type Config struct {
	Listen          string          `yaml:"listen"`
	ReadTimeout     time.Duration   `yaml:"read_timeout"`
	WriteTimeout    time.Duration   `yaml:"write_timeout"`
	ShutdownTimeout time.Duration   `yaml:"shutdown_timeout"`
	Log             LogConfig       `yaml:"log"`
	Session         SessionConfig   `yaml:"session"`
	Networks        []NetworkConfig `yaml:"networks"`
	RateLimit       RateLimitConfig `yaml:"rate_limit"`
	Redis           RedisConfig     `yaml:"redis"`
	Events          EventsConfig    `yaml:"events"`
	OSINT           OSINTConfig     `yaml:"osint"`
	Metrics         MetricsConfig   `yaml:"metrics"`
	Manifest        ManifestConfig  `yaml:"manifest"`
}

// Default returns a config that checks the OSINT HUB collection on Base mainnet.
func Default() *Config {
	return &Config{
		Listen:          ":9000",
		ReadTimeout:     15 * time.Second,
		WriteTimeout:    60 * time.Second,
		ShutdownTimeout: 10 * time.Second,
		Log:             LogConfig{Level: "info", MaxSizeMB: 100, MaxBackups: 5, MaxAgeDays: 28},
		Session: SessionConfig{
			Format: TokenFormatJWT,
			Issuer: "nftgate",
			TTL:    24 * time.Hour,
		},
		Networks: []NetworkConfig{{
			Name:     "Base Mainnet",
			ChainID:  8453,
			Contract: "0x8cf392D33050F96cF6D0748486490d3dEae52564",
			RPCURLs: []string{
				"https://mainnet.base.org",
				"https://base-mainnet.public.blastapi.io",
				"https://base.gateway.tenderly.co",
				"https://base-rpc.publicnode.com",
			},
			Timeout: 10 * time.Second,
		}},
		RateLimit: RateLimitConfig{
			Holder:        QuotaConfig{Max: 30, Window: 24 * time.Hour},
			Regular:       QuotaConfig{Max: 5, Window: 24 * time.Hour},
			SweepInterval: 5 * time.Minute,
		},
		Redis:   RedisConfig{Prefix: "nftgate:"},
		Events:  EventsConfig{Enabled: true, Topic: "nftgate.login"},
		Metrics: MetricsConfig{Enabled: true, Namespace: "nftgate"},
		Manifest: ManifestConfig{
			Frame: FrameConfig{
				Version:        "1",
				Name:           "OSINT Mini",
				HomeURL:        "https://osint-mini.vercel.app",
				IconURL:        "https://osint-mini.vercel.app/favicon.ico",
				SplashImageURL: "https://osint-mini.vercel.app/images/screenshot.png",
				WebhookURL:     "https://osint-mini.vercel.app/api/webhook",
			},
		},
	}
}

// Load builds a Config from defaults, the YAML file at path (optional) and
// the environment, then validates it.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}
	cfg.applyEnv(os.LookupEnv)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) {
	if v, ok := lookup("OSINT_SESSION_SECRET"); ok {
		c.Session.Secret = v
	}
	if v, ok := lookup("REDIS_URL"); ok {
		c.Redis.URL = v
	}
	if v, ok := lookup("NFTGATE_LISTEN"); ok && v != "" {
		c.Listen = v
	}
	if v, ok := lookup("NFTGATE_LOG_LEVEL"); ok && v != "" {
		c.Log.Level = v
	}
	if v, ok := lookup("OSINT_UPSTREAM_URL"); ok {
		c.OSINT.UpstreamURL = v
	}
}

// Validate checks the settings the gate cannot start without. A missing
// session secret is not fatal: authentication answers with a configuration
// error instead.
func (c *Config) Validate() error {
	if c.Listen == "" {
		return errors.New("listen address is required")
	}
	switch c.Session.Format {
	case TokenFormatJWT, TokenFormatDelimited:
	default:
		return fmt.Errorf("unknown session token format %q", c.Session.Format)
	}
	if c.Session.Format == TokenFormatJWT && c.Session.TTL <= 0 {
		return errors.New("session ttl must be positive")
	}
	if len(c.Networks) == 0 {
		return errors.New("at least one network is required")
	}
	for i, n := range c.Networks {
		if strings.TrimSpace(n.Name) == "" {
			return fmt.Errorf("networks[%d]: name is required", i)
		}
		if !core.IsAddress(n.Contract) {
			return fmt.Errorf("networks[%d]: invalid contract address %q", i, n.Contract)
		}
		if len(n.RPCURLs) == 0 {
			return fmt.Errorf("networks[%d]: at least one rpc url is required", i)
		}
		for _, raw := range n.RPCURLs {
			if err := validateHTTPURL(raw); err != nil {
				return fmt.Errorf("networks[%d]: %w", i, err)
			}
		}
		if n.Decimals < 0 {
			return fmt.Errorf("networks[%d]: decimals must not be negative", i)
		}
	}
	for name, q := range map[string]QuotaConfig{"holder": c.RateLimit.Holder, "regular": c.RateLimit.Regular} {
		if q.Max <= 0 || q.Window <= 0 {
			return fmt.Errorf("rate_limit.%s: max and window must be positive", name)
		}
	}
	if c.OSINT.UpstreamURL != "" {
		if err := validateHTTPURL(c.OSINT.UpstreamURL); err != nil {
			return fmt.Errorf("osint: %w", err)
		}
	}
	return nil
}

func validateHTTPURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid url %q: %w", raw, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("invalid url %q: expected http(s) with host", raw)
	}
	return nil
}
