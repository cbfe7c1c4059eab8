//go:build wireinject
// +build wireinject

package main

import (
	"github.com/google/wire"

	"github.com/clinscribe/intake/internal/bootstrap"
	"github.com/clinscribe/intake/internal/domain/auth"
	"github.com/clinscribe/intake/internal/domain/intake"
	"github.com/clinscribe/intake/internal/infra/config"
	httpiface "github.com/clinscribe/intake/internal/interface/http"
	"github.com/clinscribe/intake/pkg/logger"
)

func initializeApp() (*bootstrap.App, error) {
	wire.Build(
		config.Load,
		logger.New,
		providePipeline,
		provideIntakeConfig,
		provideChatClient,
		provideFallbackEmbedder,
		provideIntakeRepository,
		provideIntakeStore,
		intake.NewService,
		provideNotesConfig,
		provideNotesRepository,
		provideNotesStorage,
		provideNotesQueue,
		provideNotesService,
		provideAuthConfig,
		provideAuthRepository,
		auth.NewService,
		provideHandler,
		httpiface.NewRouter,
		bootstrap.NewApp,
	)
	return nil, nil
}
