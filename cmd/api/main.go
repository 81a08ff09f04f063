package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"renderhub/internal/gateway"
	"renderhub/internal/http/handlers"
	"renderhub/internal/http/httpapi"
	"renderhub/internal/infra"
	"renderhub/internal/jobclient"
	"renderhub/internal/ledger"
	"renderhub/internal/outpaint"
	provider "renderhub/internal/providers/image"
	"renderhub/internal/storage"
)

func main() {
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	ctx := context.Background()

	jobs := jobclient.New(jobclient.Config{
		BaseURL:      cfg.FluxBaseURL,
		APIKey:       cfg.FluxAPIKey,
		InitialDelay: cfg.PollInitialDelay,
		PollInterval: cfg.PollInterval,
		MaxPolls:     cfg.MaxPolls,
		Logger:       logger,
	})

	registry := gateway.NewRegistry(gateway.Dependencies{
		Jobs:     jobs,
		Outpaint: outpaint.NewCompositor(jobs, nil, logger),
		Turbo:    provider.NewTurboClient(provider.TurboOptions{BaseURL: cfg.TurboBaseURL, APIKey: cfg.TurboAPIKey}),
		OpenAI:   provider.NewOpenAIClient(provider.OpenAIOptions{APIKey: cfg.OpenAIAPIKey, BaseURL: cfg.OpenAIBaseURL, Model: cfg.OpenAIModel}),
		Models:   provider.NewModelRunner(provider.ModelRunnerOptions{BaseURL: cfg.ModelRunnerBaseURL, APIKey: cfg.ModelRunnerAPIKey}),
		Logger:   logger,
	})

	// Metering is optional: no DATABASE_URL, no ledger.
	var credits ledger.Ledger
	if cfg.DatabaseURL != "" {
		pool, err := infra.NewDBPool(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect database")
		}
		defer pool.Close()
		credits = ledger.NewRepo(infra.NewSQLRunner(pool, logger), logger)
	} else {
		logger.Warn().Msg("DATABASE_URL not set, generations will not be metered")
	}

	app := handlers.NewApp(registry, credits, logger)
	if cfg.AssetDir != "" {
		store, err := storage.NewFileStore(cfg.AssetDir)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to open asset directory")
		}
		app.Store = store
	}
	router := httpapi.NewRouter(app, cfg, logger)
	server := infra.NewHTTPServer(cfg, router)

	go func() {
		logger.Info().Msgf("gateway listening on :%s", cfg.Port)
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPIdleTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("failed to shutdown server")
	}
	logger.Info().Msg("server stopped")
}
