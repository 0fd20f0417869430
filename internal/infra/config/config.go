package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/yanqian/tone-analyzer/pkg/util"
)

// Config aggregates runtime configuration used across the service.
type Config struct {
	HTTP         HTTPConfig         `yaml:"http"`
	ToneAnalyzer ToneAnalyzerConfig `yaml:"toneAnalyzer"`
	History      HistoryConfig      `yaml:"history"`
	Stats        StatsConfig        `yaml:"stats"`
	Archive      ArchiveConfig      `yaml:"archive"`
}

// HTTPConfig controls server level behavior.
type HTTPConfig struct {
	Address         string          `yaml:"address"`
	ReadTimeout     time.Duration   `yaml:"readTimeout"`
	WriteTimeout    time.Duration   `yaml:"writeTimeout"`
	ShutdownTimeout time.Duration   `yaml:"shutdownTimeout"`
	AllowedOrigins  []string        `yaml:"allowedOrigins"`
	RateLimit       RateLimitConfig `yaml:"rateLimit"`
}

// RateLimitConfig drives the request limiting middleware.
type RateLimitConfig struct {
	Enabled           bool `yaml:"enabled"`
	RequestsPerMinute int  `yaml:"requestsPerMinute"`
	Burst             int  `yaml:"burst"`
}

// ToneAnalyzerConfig holds the Watson Tone Analyzer settings.
type ToneAnalyzerConfig struct {
	ServiceURL   string        `yaml:"serviceUrl"`
	TokenURL     string        `yaml:"tokenUrl"`
	Version      string        `yaml:"version"`
	AuthMode     string        `yaml:"authMode"`
	Username     string        `yaml:"username"`
	Password     string        `yaml:"password"`
	APIKey       string        `yaml:"apiKey"`
	Timeout      time.Duration `yaml:"timeout"`
	MaxTextBytes int           `yaml:"maxTextBytes"`
}

// HistoryConfig controls where analyses are persisted.
type HistoryConfig struct {
	Postgres PostgresConfig `yaml:"postgres"`
}

// PostgresConfig contains DSN and pooling settings.
type PostgresConfig struct {
	DSN      string `yaml:"dsn"`
	MaxConns int32  `yaml:"maxConns"`
	MinConns int32  `yaml:"minConns"`
}

// StatsConfig controls the dominant tone counters.
type StatsConfig struct {
	Redis RedisConfig `yaml:"redis"`
}

// RedisConfig contains connection information for counter storage.
type RedisConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
	Prefix  string `yaml:"prefix"`
}

// ArchiveConfig controls raw payload archiving to R2.
type ArchiveConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"accessKey"`
	SecretKey string `yaml:"secretKey"`
	Bucket    string `yaml:"bucket"`
	Region    string `yaml:"region"`
}

// Load reads configuration from a YAML file and environment variables.
func Load() (*Config, error) {
	cfg := defaultConfig()

	if path := os.Getenv("CONFIG_PATH"); path != "" {
		if err := hydrateFromFile(cfg, path); err != nil {
			return nil, err
		}
	} else if _, err := os.Stat("configs/config.yaml"); err == nil {
		if err := hydrateFromFile(cfg, "configs/config.yaml"); err != nil {
			return nil, err
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

func hydrateFromFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("HTTP_ADDRESS"); v != "" {
		cfg.HTTP.Address = v
	}
	if v := os.Getenv("HTTP_SHUTDOWN_TIMEOUT"); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			cfg.HTTP.ShutdownTimeout = parsed
		}
	}
	if v := os.Getenv("HTTP_ALLOWED_ORIGINS"); v != "" {
		cfg.HTTP.AllowedOrigins = splitList(v)
	}
	if v := os.Getenv("HTTP_RATE_LIMIT_ENABLED"); v != "" {
		cfg.HTTP.RateLimit.Enabled = parseBool(v)
	}
	if v := os.Getenv("HTTP_RATE_LIMIT_RPM"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.HTTP.RateLimit.RequestsPerMinute = parsed
		}
	}
	if v := os.Getenv("HTTP_RATE_LIMIT_BURST"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.HTTP.RateLimit.Burst = parsed
		}
	}
	if v := os.Getenv("TONE_SERVICE_URL"); v != "" {
		cfg.ToneAnalyzer.ServiceURL = v
	}
	if v := os.Getenv("TONE_TOKEN_URL"); v != "" {
		cfg.ToneAnalyzer.TokenURL = v
	}
	if v := os.Getenv("TONE_VERSION"); v != "" {
		cfg.ToneAnalyzer.Version = v
	}
	if v := os.Getenv("TONE_AUTH_MODE"); v != "" {
		cfg.ToneAnalyzer.AuthMode = v
	}
	if v := os.Getenv("TONE_USERNAME"); v != "" {
		cfg.ToneAnalyzer.Username = v
	}
	if v := os.Getenv("TONE_PASSWORD"); v != "" {
		cfg.ToneAnalyzer.Password = v
	}
	if v := os.Getenv("TONE_API_KEY"); v != "" {
		cfg.ToneAnalyzer.APIKey = v
	}
	if v := os.Getenv("TONE_TIMEOUT"); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			cfg.ToneAnalyzer.Timeout = parsed
		}
	}
	if v := os.Getenv("TONE_MAX_TEXT_BYTES"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.ToneAnalyzer.MaxTextBytes = parsed
		}
	}
	if v := os.Getenv("HISTORY_POSTGRES_DSN"); v != "" {
		cfg.History.Postgres.DSN = v
	}
	if v := os.Getenv("HISTORY_POSTGRES_MAX_CONNS"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.History.Postgres.MaxConns = int32(parsed)
		}
	}
	if v := os.Getenv("HISTORY_POSTGRES_MIN_CONNS"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.History.Postgres.MinConns = int32(parsed)
		}
	}
	if v := os.Getenv("STATS_REDIS_ENABLED"); v != "" {
		cfg.Stats.Redis.Enabled = parseBool(v)
	}
	if v := os.Getenv("STATS_REDIS_ADDR"); v != "" {
		cfg.Stats.Redis.Addr = v
	}
	if v := os.Getenv("ARCHIVE_ENABLED"); v != "" {
		cfg.Archive.Enabled = parseBool(v)
	}
	if v := os.Getenv("ARCHIVE_ENDPOINT"); v != "" {
		cfg.Archive.Endpoint = v
	}
	if v := os.Getenv("ARCHIVE_ACCESS_KEY"); v != "" {
		cfg.Archive.AccessKey = v
	}
	if v := os.Getenv("ARCHIVE_SECRET_KEY"); v != "" {
		cfg.Archive.SecretKey = v
	}
	if v := os.Getenv("ARCHIVE_BUCKET"); v != "" {
		cfg.Archive.Bucket = v
	}
	if v := os.Getenv("ARCHIVE_REGION"); v != "" {
		cfg.Archive.Region = v
	}
}

func parseBool(v string) bool {
	return v == "1" || strings.EqualFold(v, "true")
}

func splitList(v string) []string {
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func defaultConfig() *Config {
	return &Config{
		HTTP: HTTPConfig{
			Address:         ":8080",
			ReadTimeout:     5 * time.Second,
			WriteTimeout:    35 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			RateLimit: RateLimitConfig{
				Enabled:           true,
				RequestsPerMinute: 60,
				Burst:             20,
			},
		},
		ToneAnalyzer: ToneAnalyzerConfig{
			ServiceURL:   "https://gateway.watsonplatform.net/tone-analyzer-beta/api",
			TokenURL:     "https://gateway.watsonplatform.net/authorization/api/v1/token",
			Version:      "2016-02-11",
			AuthMode:     "token",
			Timeout:      30 * time.Second,
			MaxTextBytes: 128 << 10,
		},
		History: HistoryConfig{
			Postgres: PostgresConfig{
				MaxConns: 4,
			},
		},
		Stats: StatsConfig{
			Redis: RedisConfig{
				Prefix: "tone",
			},
		},
		Archive: ArchiveConfig{
			Bucket: "tone-payloads",
			Region: "auto",
		},
	}
}

// Validate ensures the configuration is safe to use.
func (c *Config) Validate() error {
	if c.HTTP.Address == "" {
		return errors.New("http.address cannot be empty")
	}
	if strings.TrimSpace(c.ToneAnalyzer.ServiceURL) == "" {
		return errors.New("toneAnalyzer.serviceUrl cannot be empty")
	}
	if strings.TrimSpace(c.ToneAnalyzer.Version) == "" {
		return errors.New("toneAnalyzer.version cannot be empty")
	}
	if _, err := util.ParseAPIVersion(c.ToneAnalyzer.Version); err != nil {
		return fmt.Errorf("toneAnalyzer.%w", err)
	}
	switch strings.ToLower(c.ToneAnalyzer.AuthMode) {
	case "token":
		if strings.TrimSpace(c.ToneAnalyzer.TokenURL) == "" {
			return errors.New("toneAnalyzer.tokenUrl cannot be empty when authMode is token")
		}
		fallthrough
	case "basic":
		if c.ToneAnalyzer.Username == "" || c.ToneAnalyzer.Password == "" {
			return errors.New("toneAnalyzer.username and toneAnalyzer.password are required")
		}
	case "bearer":
		if strings.TrimSpace(c.ToneAnalyzer.APIKey) == "" {
			return errors.New("toneAnalyzer.apiKey is required when authMode is bearer")
		}
	default:
		return fmt.Errorf("toneAnalyzer.authMode %q is not supported", c.ToneAnalyzer.AuthMode)
	}
	if c.ToneAnalyzer.Timeout <= 0 {
		return errors.New("toneAnalyzer.timeout must be positive")
	}
	if c.ToneAnalyzer.MaxTextBytes <= 0 {
		return errors.New("toneAnalyzer.maxTextBytes must be positive")
	}
	if c.Stats.Redis.Enabled && strings.TrimSpace(c.Stats.Redis.Addr) == "" {
		return errors.New("stats.redis.addr cannot be empty when redis is enabled")
	}
	if c.Archive.Enabled {
		if strings.TrimSpace(c.Archive.Endpoint) == "" {
			return errors.New("archive.endpoint cannot be empty when archive is enabled")
		}
		if strings.TrimSpace(c.Archive.Bucket) == "" {
			return errors.New("archive.bucket cannot be empty when archive is enabled")
		}
	}
	if c.HTTP.RateLimit.Enabled {
		if c.HTTP.RateLimit.RequestsPerMinute <= 0 {
			return errors.New("http.rateLimit.requestsPerMinute must be positive")
		}
		if c.HTTP.RateLimit.Burst <= 0 {
			return errors.New("http.rateLimit.burst must be positive")
		}
	}
	return nil
}
