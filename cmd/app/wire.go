//go:build wireinject
// +build wireinject

package main

import (
	"github.com/google/wire"

	"github.com/yanqian/tone-analyzer/internal/bootstrap"
	"github.com/yanqian/tone-analyzer/internal/domain/tone"
	"github.com/yanqian/tone-analyzer/internal/infra/config"
	"github.com/yanqian/tone-analyzer/internal/infra/watson/gateway"
	"github.com/yanqian/tone-analyzer/internal/infra/watson/toneanalyzer"
	httpiface "github.com/yanqian/tone-analyzer/internal/interface/http"
	"github.com/yanqian/tone-analyzer/pkg/logger"
)

func initializeApp() (*bootstrap.App, func(), error) {
	wire.Build(
		config.Load,
		logger.New,
		provideToneConfig,
		provideWatsonHTTPClient,
		provideAuthStrategy,
		provideToneAnalyzerClient,
		provideDecoder,
		provideHistoryRepository,
		provideStatsStore,
		providePayloadArchive,
		gateway.NewHTTPGateway,
		tone.NewService,
		wire.Bind(new(gateway.Gateway), new(*gateway.HTTPGateway)),
		wire.Bind(new(tone.Analyzer), new(*toneanalyzer.Client)),
		httpiface.NewHandler,
		httpiface.NewRouter,
		bootstrap.NewApp,
	)
	return nil, nil, nil
}
