package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"clipscout/config"
	clipscouthttp "clipscout/http"
	"clipscout/internal/retry"
	"clipscout/server"
	"clipscout/storage"
	"clipscout/youtube"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	log := zerolog.New(os.Stderr).Level(level).With().Timestamp().Logger()

	store, err := storage.Open(cfg.DBPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.DBPath).Msg("open storage")
	}
	defer store.Close()

	httpClient := clipscouthttp.New(&clipscouthttp.Config{
		Timeout: cfg.HTTPTimeout,
		Retry: retry.Config{
			MaxRetries:     cfg.MaxRetries,
			InitialBackoff: cfg.InitialBackoff,
			MaxBackoff:     cfg.MaxBackoff,
			Multiplier:     cfg.BackoffMultiplier,
		},
	})

	warn := youtube.NewWarnState()

	var api youtube.DataAPI
	if cfg.APIKey != "" {
		client, err := youtube.NewAPIClient(context.Background(), cfg.APIKey, httpClient, log)
		if err != nil {
			log.Fatal().Err(err).Msg("create data api client")
		}
		api = client
	}

	scraper := youtube.NewHTMLScraper(youtube.NewPageFetcher(httpClient), log)
	feed := youtube.NewFeedClient(httpClient, log)
	captions := youtube.NewCaptionClient(httpClient, log)
	resolver := youtube.NewResolver(api, scraper, warn, log)
	detector := youtube.NewDetector(api, captions, warn, log)
	finder := youtube.NewBroadcastFinder(api, warn, log)
	uploads := youtube.NewUploadFilter(api, feed, warn, log)

	srv := server.New(store, resolver, detector, finder, uploads, log)
	app := srv.App()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-shutdown
		log.Info().Msg("shutting down")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := app.ShutdownWithContext(ctx); err != nil {
			log.Error().Err(err).Msg("shutdown")
		}
	}()

	log.Info().Str("addr", cfg.ListenAddr).Msg("clipscout listening")
	if err := app.Listen(cfg.ListenAddr); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}
