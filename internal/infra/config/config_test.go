package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadFromFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
http:
  address: ":9090"
toneAnalyzer:
  authMode: basic
  username: file-user
  password: file-pass
  version: "2016-05-19"
stats:
  redis:
    enabled: true
    addr: localhost:6379
`), 0o600))

	t.Setenv("CONFIG_PATH", path)
	t.Setenv("TONE_PASSWORD", "env-pass")
	t.Setenv("TONE_TIMEOUT", "5s")
	t.Setenv("HTTP_SHUTDOWN_TIMEOUT", "3s")
	t.Setenv("HTTP_ALLOWED_ORIGINS", "https://a.example.com, https://b.example.com")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, ":9090", cfg.HTTP.Address)
	require.Equal(t, "basic", cfg.ToneAnalyzer.AuthMode)
	require.Equal(t, "file-user", cfg.ToneAnalyzer.Username)
	require.Equal(t, "env-pass", cfg.ToneAnalyzer.Password)
	require.Equal(t, "2016-05-19", cfg.ToneAnalyzer.Version)
	require.Equal(t, 5*time.Second, cfg.ToneAnalyzer.Timeout)
	require.Equal(t, 3*time.Second, cfg.HTTP.ShutdownTimeout)
	require.Equal(t, []string{"https://a.example.com", "https://b.example.com"}, cfg.HTTP.AllowedOrigins)
	require.True(t, cfg.Stats.Redis.Enabled)
	require.Equal(t, "tone", cfg.Stats.Redis.Prefix)
	require.Equal(t, "https://gateway.watsonplatform.net/tone-analyzer-beta/api", cfg.ToneAnalyzer.ServiceURL)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		cfg := defaultConfig()
		cfg.ToneAnalyzer.Username = "user"
		cfg.ToneAnalyzer.Password = "pass"
		return cfg
	}
	require.NoError(t, valid().Validate())

	cases := map[string]func(*Config){
		"missing credentials": func(c *Config) { c.ToneAnalyzer.Password = "" },
		"missing token url":   func(c *Config) { c.ToneAnalyzer.TokenURL = "" },
		"bad version":         func(c *Config) { c.ToneAnalyzer.Version = "Feb 2016" },
		"unknown auth":        func(c *Config) { c.ToneAnalyzer.AuthMode = "kerberos" },
		"bearer without key":  func(c *Config) { c.ToneAnalyzer.AuthMode = "bearer" },
		"redis without addr":  func(c *Config) { c.Stats.Redis.Enabled = true },
		"archive no endpoint": func(c *Config) { c.Archive.Enabled = true },
		"zero rate limit":     func(c *Config) { c.HTTP.RateLimit.RequestsPerMinute = 0 },
		"empty service url":   func(c *Config) { c.ToneAnalyzer.ServiceURL = " " },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := valid()
			mutate(cfg)
			require.Error(t, cfg.Validate())
		})
	}

	bearer := valid()
	bearer.ToneAnalyzer.AuthMode = "bearer"
	bearer.ToneAnalyzer.APIKey = "key"
	require.NoError(t, bearer.Validate())
}
