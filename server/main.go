// server/main.go
package main

import (
	"context"
	"net/http"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/rexlx/quill/blog"
)

func main() {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	cfg, err := blog.LoadConfig()
	if err != nil {
		logger.Fatal().Err(err).Msg("could not load configuration")
	}
	if level, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		logger = logger.Level(level)
	}
	if cfg.DatabaseURL == "" {
		logger.Fatal().Msg("BLOG_DATABASE_URL is not set")
	}

	ctx := context.Background()
	db, err := blog.NewDatabase(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("could not initialize database")
	}
	defer db.Close()
	if err := db.CreateTables(ctx); err != nil {
		logger.Fatal().Err(err).Msg("could not apply schema")
	}
	logger.Info().Msg("connected to the database")

	media, err := blog.NewMediaStore(cfg.MediaRoot)
	if err != nil {
		logger.Fatal().Err(err).Msg("could not prepare media root")
	}

	cache := blog.NewFeedCache(cfg.CacheTTL)
	handlers, err := blog.NewHandlers(db, cfg, cache, media, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("could not create handlers")
	}

	svr := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handlers.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	logger.Info().Str("addr", cfg.Addr).Dur("cache_ttl", cfg.CacheTTL).Int("page_size", cfg.PageSize).Msg("starting blog server")
	if err := svr.ListenAndServe(); err != nil {
		logger.Fatal().Err(err).Msg("server failed")
	}
}
