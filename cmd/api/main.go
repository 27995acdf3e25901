package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"aura/internal/enrich"
	"aura/internal/generate"
	"aura/internal/http/handlers"
	httpapi "aura/internal/http/httpapi"
	"aura/internal/infra"
	"aura/internal/replicate"
	"aura/internal/store"
	"aura/internal/vision"
)

func main() {
	_ = godotenv.Load(".env", ".env.local")

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Design history is optional; the pipeline works without a database.
	var history *store.DesignRepo
	if cfg.DatabaseURL != "" {
		pool, err := infra.NewDBPool(ctx, cfg)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect database")
		}
		defer pool.Close()
		history = store.NewDesignRepo(pool)
		if err := history.EnsureSchema(ctx); err != nil {
			logger.Fatal().Err(err).Msg("failed to prepare design history schema")
		}
	} else {
		logger.Warn().Msg("DATABASE_URL not set, design history disabled")
	}

	replicateClient := replicate.NewClient(replicate.Options{
		APIToken: cfg.ReplicateAPIToken,
		BaseURL:  cfg.ReplicateBaseURL,
		Logger:   &logger,
	})
	if !replicateClient.HasCredentials() {
		logger.Warn().Msg("REPLICATE_API_TOKEN not set, generation requests will be rejected")
	}

	orchestrator := generate.NewOrchestrator(generate.Options{
		Client:          replicateClient,
		Logger:          &logger,
		PollInterval:    cfg.GenerationPollInterval,
		MaxPollAttempts: cfg.GenerationMaxPollRetries,
	})

	analyzer := vision.NewAnalyzer(vision.Options{
		APIKey:  cfg.GeminiAPIKey,
		Model:   cfg.GeminiModel,
		BaseURL: cfg.GeminiBaseURL,
		Logger:  &logger,
	})
	if !analyzer.Enabled() {
		logger.Warn().Msg("GEMINI_API_KEY not set, products will come from the rule-based fallback")
	}

	coordinator := enrich.NewCoordinator(&logger,
		enrich.NewAnalyzerSource(analyzer),
		enrich.NewFallbackSource(),
	)

	app := handlers.NewApp(cfg, logger, orchestrator, coordinator, history)
	router := httpapi.NewRouter(app)
	server := infra.NewHTTPServer(cfg, router)

	go func() {
		logger.Info().Msgf("API listening on :%s", cfg.Port)
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("failed to shutdown server")
	}
	logger.Info().Msg("server stopped")
}
