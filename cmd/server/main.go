// Command server runs the Aura assistant backend: a conversational
// e-commerce API backed by SQLite, an in-memory semantic index, and an
// OpenAI-compatible completion service.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/auralabs/go-assistant-backend/internal/config"
	httpapi "github.com/auralabs/go-assistant-backend/internal/http"
	"github.com/auralabs/go-assistant-backend/internal/llm"
	"github.com/auralabs/go-assistant-backend/internal/observability"
	"github.com/auralabs/go-assistant-backend/internal/repo"
	"github.com/auralabs/go-assistant-backend/internal/sysutil"
	"github.com/auralabs/go-assistant-backend/internal/vector"
)

// version is stamped at build time via -ldflags.
var version = "dev"

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	version = sysutil.FirstNonEmpty(os.Getenv("APP_VERSION"), version)

	cfg := config.MustLoad()
	sysutil.SetupLogging(cfg.LogLevel, cfg.LogPretty)

	ctx := context.Background()

	shutdownOTel, err := observability.SetupOTel(ctx, cfg.OTEL, version)
	if err != nil {
		log.Fatal().Err(err).Msg("otel setup failed")
	}
	defer func() {
		shCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownOTel(shCtx); err != nil {
			log.Warn().Err(err).Msg("otel shutdown failed")
		}
	}()

	db, err := repo.OpenSQLite(cfg.DBPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.DBPath).Msg("failed to open database")
	}
	if err := repo.AutoMigrate(db); err != nil {
		log.Fatal().Err(err).Msg("migration failed")
	}

	completer := llm.NewClient(cfg.LLM.BaseURL, cfg.LLM.APIKey, cfg.LLM.Model, cfg.LLM.Timeout)

	gin.SetMode(cfg.GinMode)
	r := gin.New()

	retrieval := httpapi.RegisterRoutes(r, httpapi.Deps{
		DB:       db,
		LLM:      completer,
		Semantic: vector.NewStore(),
		Manuals:  vector.NewStore(),
	}, cfg)

	// Warm the manual index from persisted chunks so semantic retrieval
	// works from the first request.
	if n, err := retrieval.IndexManuals(ctx, db); err != nil {
		log.Warn().Err(err).Msg("manual index warm-up failed")
	} else {
		log.Info().Int("chunks", n).Msg("manual index warmed")
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}

	go func() {
		log.Info().Str("addr", srv.Addr).Str("version", version).Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down")

	shCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}

	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
	log.Info().Msg("bye")
}
