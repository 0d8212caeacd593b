package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Clark-Hu/boxoffice-monthly/internal/config"
	"github.com/Clark-Hu/boxoffice-monthly/internal/genres"
	httpserver "github.com/Clark-Hu/boxoffice-monthly/internal/http"
	"github.com/Clark-Hu/boxoffice-monthly/internal/logging"
	"github.com/Clark-Hu/boxoffice-monthly/internal/ranking"
	"github.com/Clark-Hu/boxoffice-monthly/internal/tmdb"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		bootLogger := logging.New(logging.Options{Name: "boxoffice-api"})
		bootLogger.Error("config error", "error", err)
		os.Exit(1)
	}

	logger := logging.New(logging.Options{
		Name:  "boxoffice-api",
		Level: cfg.LogLevel,
		JSON:  cfg.LogJSON,
	})

	client, err := tmdb.NewHTTPClient(
		cfg.TMDBBaseURL,
		cfg.TMDBAPIKey,
		time.Duration(cfg.TMDBTimeoutSecs)*time.Second,
		logger,
		tmdb.WithLanguage(cfg.TMDBLanguage),
		tmdb.WithWatchRegion(cfg.TMDBWatchRegion),
	)
	if err != nil {
		logger.Error("init tmdb client", "error", err)
		os.Exit(1)
	}

	genreCache := genres.NewCache(client, logger)
	ranker := ranking.NewService(client, genreCache, logger, ranking.Options{
		ImageBaseURL: cfg.TMDBImageBaseURL,
	})
	server := httpserver.New(cfg, ranker, client, logger)

	logger.Info("listening", "port", cfg.Port, "tmdb", cfg.TMDBBaseURL, "region", cfg.TMDBWatchRegion)

	serverErrCh := make(chan error, 1)
	go func() {
		if err := server.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			serverErrCh <- err
			return
		}
		serverErrCh <- nil
	}()

	select {
	case err := <-serverErrCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) && !errors.Is(err, context.Canceled) {
			logger.Error("server error", "error", err)
		}
	case <-ctx.Done():
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("graceful shutdown error", "error", err)
	}
}
