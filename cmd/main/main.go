package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"offerte-service/internal/config"
	"offerte-service/internal/offerte/ai"
	offHnd "offerte-service/internal/offerte/handler"
	"offerte-service/internal/offerte/service"
	"offerte-service/internal/offerte/session"
	"offerte-service/internal/offerte/store"
	serverhttp "offerte-service/server/http"
)

func main() {
	cfg := config.Load()
	logger := config.SetupLogger(cfg)

	_ = os.MkdirAll(filepath.Dir(cfg.CatalogDB), 0o755)
	_ = os.MkdirAll(filepath.Dir(cfg.CorrectionsDB), 0o755)

	catalog, err := store.OpenCatalog(cfg.CatalogDB)
	if err != nil {
		logger.Fatal().Err(err).Str("path", cfg.CatalogDB).Msg("open prijzenboek db")
	}
	defer catalog.Close()

	corrections, err := store.OpenCorrections(cfg.CorrectionsDB)
	if err != nil {
		logger.Fatal().Err(err).Str("path", cfg.CorrectionsDB).Msg("open corrections db")
	}
	defer corrections.Close()

	entries, err := catalog.All()
	if err != nil {
		logger.Fatal().Err(err).Msg("load prijzenboek")
	}

	var corrSource service.CorrectionSource
	if cfg.LearningEnabled {
		corrSource = corrections
	}
	matcher := service.NewMatcher(entries, corrSource, service.Config{
		Weights:           service.Weights{Text: cfg.TextScoreWeight, Unit: cfg.UnitScoreWeight},
		TopN:              5,
		Workers:           cfg.MatchWorkers,
		MinCorrectionFreq: cfg.MinCorrectionFrq,
	}, logger)
	logger.Info().Int("entries", len(entries)).Msg("prijzenboek loaded")

	apiKey := ""
	if cfg.AIAvailable() {
		apiKey = cfg.AnthropicAPIKey
	}
	suggester := ai.New(ai.Config{
		APIKey:       apiKey,
		Model:        cfg.AIModel,
		Timeout:      cfg.AITimeout,
		CacheEnabled: cfg.CacheEnabled,
		CacheTTL:     cfg.CacheTTL,
	}, logger)

	sessions := session.NewStore(4 * time.Hour)
	h := offHnd.New(cfg, logger, matcher, catalog, corrections, sessions, suggester)

	r := serverhttp.NewRouter(cfg, logger, h)

	srv := &http.Server{Addr: cfg.Addr(), Handler: r}
	logger.Info().Str("addr", cfg.Addr()).Bool("ai", suggester.Available()).Msg("server starting")

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("listen")
		}
	}()

	// graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit
	logger.Info().Msg("server shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(ctx)
	logger.Info().Msg("bye")
}
