package main

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/valkey-io/valkey-go"

	"github.com/yanqian/tone-analyzer/internal/domain/tone"
	"github.com/yanqian/tone-analyzer/internal/infra/archive"
	"github.com/yanqian/tone-analyzer/internal/infra/config"
	"github.com/yanqian/tone-analyzer/internal/infra/historyrepo"
	"github.com/yanqian/tone-analyzer/internal/infra/tonestats"
	"github.com/yanqian/tone-analyzer/internal/infra/watson/gateway"
	"github.com/yanqian/tone-analyzer/internal/infra/watson/toneanalyzer"
)

func provideToneConfig(cfg *config.Config) tone.Config {
	return tone.Config{
		MaxTextBytes: cfg.ToneAnalyzer.MaxTextBytes,
	}
}

func provideWatsonHTTPClient(cfg *config.Config) *http.Client {
	return &http.Client{Timeout: cfg.ToneAnalyzer.Timeout}
}

func provideAuthStrategy(cfg *config.Config, httpClient *http.Client) (gateway.AuthStrategy, error) {
	return gateway.NewAuthStrategy(gateway.AuthConfig{
		Mode:       cfg.ToneAnalyzer.AuthMode,
		TokenURL:   cfg.ToneAnalyzer.TokenURL,
		ServiceURL: cfg.ToneAnalyzer.ServiceURL,
		Username:   cfg.ToneAnalyzer.Username,
		Password:   cfg.ToneAnalyzer.Password,
		APIKey:     cfg.ToneAnalyzer.APIKey,
	}, httpClient)
}

func provideToneAnalyzerClient(cfg *config.Config, gw gateway.Gateway, auth gateway.AuthStrategy, logger *slog.Logger) *toneanalyzer.Client {
	return toneanalyzer.NewClient(gw, auth, toneanalyzer.Options{
		ServiceURL: cfg.ToneAnalyzer.ServiceURL,
		Version:    cfg.ToneAnalyzer.Version,
	}, logger)
}

func provideDecoder() tone.Decoder {
	return toneanalyzer.Decode
}

func provideHistoryRepository(cfg *config.Config, logger *slog.Logger) (tone.HistoryRepository, func()) {
	fallback := historyrepo.NewMemoryRepository()
	noop := func() {}
	dsn := strings.TrimSpace(cfg.History.Postgres.DSN)
	if dsn == "" {
		logger.Info("history postgres dsn not set, using memory repository")
		return fallback, noop
	}
	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		logger.Error("invalid postgres dsn, using memory repository", "error", err)
		return fallback, noop
	}
	if cfg.History.Postgres.MaxConns > 0 {
		poolConfig.MaxConns = cfg.History.Postgres.MaxConns
	}
	if cfg.History.Postgres.MinConns > 0 {
		poolConfig.MinConns = cfg.History.Postgres.MinConns
	}
	pool, err := pgxpool.NewWithConfig(context.Background(), poolConfig)
	if err != nil {
		logger.Error("failed to initialize postgres pool, using memory repository", "error", err)
		return fallback, noop
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := pool.Ping(ctx); err != nil {
		logger.Error("postgres ping failed, using memory repository", "error", err)
		pool.Close()
		return fallback, noop
	}
	logger.Info("history postgres repository enabled")
	return historyrepo.NewPostgresRepository(pool), pool.Close
}

func provideStatsStore(cfg *config.Config, logger *slog.Logger) (tone.StatsStore, func()) {
	noop := func() {}
	if !cfg.Stats.Redis.Enabled {
		return tonestats.NewMemoryStore(), noop
	}
	opt, err := buildValkeyOptions(cfg.Stats.Redis.Addr)
	if err != nil {
		logger.Error("invalid valkey configuration, falling back to memory store", "error", err)
		return tonestats.NewMemoryStore(), noop
	}
	client, err := valkey.NewClient(opt)
	if err != nil {
		logger.Error("failed to create valkey client, falling back to memory store", "error", err)
		return tonestats.NewMemoryStore(), noop
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Do(ctx, client.B().Ping().Build()).Error(); err != nil {
		logger.Error("valkey ping failed, falling back to memory store", "error", err)
		client.Close()
		return tonestats.NewMemoryStore(), noop
	}
	logger.Info("tone stats valkey store enabled", "addr", cfg.Stats.Redis.Addr)
	return tonestats.NewValkeyStore(client, cfg.Stats.Redis.Prefix), client.Close
}

func buildValkeyOptions(addr string) (valkey.ClientOption, error) {
	if strings.Contains(addr, "://") {
		return valkey.ParseURL(addr)
	}
	return valkey.ClientOption{InitAddress: []string{addr}}, nil
}

func providePayloadArchive(cfg *config.Config, logger *slog.Logger) tone.PayloadArchive {
	if !cfg.Archive.Enabled {
		return archive.NewMemoryArchive()
	}
	r2, err := archive.NewR2Archive(cfg.Archive.Endpoint, cfg.Archive.AccessKey, cfg.Archive.SecretKey, cfg.Archive.Bucket, cfg.Archive.Region, logger)
	if err != nil {
		logger.Error("failed to initialize r2 archive, using memory archive", "error", err)
		return archive.NewMemoryArchive()
	}
	logger.Info("r2 payload archive enabled", "bucket", cfg.Archive.Bucket)
	return r2
}
