// Package main is the entry point for the expense tracking API.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"gitlab.com/yelinaung/expense-api/internal/aggregate"
	"gitlab.com/yelinaung/expense-api/internal/api"
	"gitlab.com/yelinaung/expense-api/internal/config"
	"gitlab.com/yelinaung/expense-api/internal/database"
	"gitlab.com/yelinaung/expense-api/internal/expense"
	"gitlab.com/yelinaung/expense-api/internal/gemini"
	"gitlab.com/yelinaung/expense-api/internal/identity"
	"gitlab.com/yelinaung/expense-api/internal/logger"
	"gitlab.com/yelinaung/expense-api/internal/repository"
	"gitlab.com/yelinaung/expense-api/internal/telemetry"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	if len(os.Args) > 1 && os.Args[1] == "version" {
		fmt.Printf("expense-api %s (commit: %s, built: %s)\n", version, commit, date)
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		logger.Log.Fatal().Err(err).Msg("Failed to load config")
	}

	logger.SetLevel(cfg.LogLevel)
	logger.SetFormat(cfg.LogFormat)
	logger.InitHashSalt()

	shutdownTelemetry, err := telemetry.Setup(ctx, telemetry.Options{
		Exporter:    cfg.OTelExporter,
		ServiceName: cfg.OTelServiceName,
	})
	if err != nil {
		logger.Log.Fatal().Err(err).Msg("Failed to set up telemetry")
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := shutdownTelemetry(flushCtx); err != nil {
			logger.Log.Warn().Err(err).Msg("Failed to flush telemetry")
		}
	}()

	pool, err := database.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer pool.Close()

	if err := database.RunMigrations(ctx, pool); err != nil {
		logger.Log.Fatal().Err(err).Msg("Failed to run migrations")
	}

	logger.Log.Info().Msg("Database initialized successfully")

	advisor := gemini.Disabled()
	if cfg.AIEnabled() {
		advisor, err = gemini.NewClient(ctx, cfg.GeminiAPIKey,
			gemini.WithModel(cfg.GeminiModel),
			gemini.WithTimeout(cfg.GeminiTimeout),
		)
		if err != nil {
			logger.Log.Fatal().Err(err).Msg("Failed to create Gemini client")
		}
		logger.Log.Info().Str("model", advisor.Model()).Msg("AI suggestions enabled")
	} else {
		logger.Log.Info().Msg("GEMINI_API_KEY not set, AI suggestions disabled")
	}

	expenseRepo := repository.NewExpenseRepository(pool)
	categoryRepo := repository.NewCategoryRepository(pool)
	tagRepo := repository.NewTagRepository(pool)
	settingsRepo := repository.NewSettingsRepository(pool)

	svc := expense.NewService(expense.Deps{
		Expenses:   expenseRepo,
		Categories: categoryRepo,
		Tags:       tagRepo,
		Settings:   settingsRepo,
		Aggregator: aggregate.New(expenseRepo),
		Advisor:    advisor,
	}, expense.WithLocation(cfg.Location()))

	var resolver identity.Resolver
	switch cfg.AuthMode {
	case config.AuthModeToken:
		resolver = identity.NewTokenResolver(cfg.APITokens())
	default:
		resolver = identity.NewHeaderResolver(cfg.AuthHeader)
	}

	router := api.NewRouter(api.Deps{
		Expenses:   svc,
		Categories: categoryRepo,
		Tags:       tagRepo,
		Settings:   settingsRepo,
		Health:     pool,
		Identity:   resolver,
	})

	server := api.NewServer(cfg.HTTPAddr, router, cfg.ShutdownTimeout)
	if err := server.Run(ctx); err != nil {
		logger.Log.Error().Err(err).Msg("Server stopped with error")
	}
	logger.Log.Info().Msg("Shutdown complete")
}
