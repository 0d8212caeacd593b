package main

import (
	"io"
	"strings"
	"sync"
	"time"

	"github.com/hashicorp/go-hclog"

	"github.com/Clark-Hu/boxoffice-monthly/internal/config"
	"github.com/Clark-Hu/boxoffice-monthly/internal/genres"
	"github.com/Clark-Hu/boxoffice-monthly/internal/logging"
	"github.com/Clark-Hu/boxoffice-monthly/internal/ranking"
	"github.com/Clark-Hu/boxoffice-monthly/internal/tmdb"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     config.Config
	configErr  error
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) ensureConfig() (config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		if path == "" {
			c.config, c.configErr = config.Load()
			return
		}
		c.config, c.configErr = config.LoadFile(path)
	})
	return c.config, c.configErr
}

// pipeline is the ranking stack built from the loaded configuration.
type pipeline struct {
	cfg     config.Config
	logger  hclog.Logger
	client  *tmdb.HTTPClient
	genres  *genres.Cache
	ranking *ranking.Service
}

// newPipeline logs to stderr so stdout stays clean for table, CSV and JSON
// output.
func (c *commandContext) newPipeline(stderr io.Writer) (*pipeline, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	level := cfg.LogLevel
	if strings.EqualFold(level, "info") {
		level = "warn"
	}
	logger := logging.New(logging.Options{
		Name:   "boxoffice",
		Level:  level,
		JSON:   cfg.LogJSON,
		Output: stderr,
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
		return nil, err
	}
	cache := genres.NewCache(client, logger)
	return &pipeline{
		cfg:    cfg,
		logger: logger,
		client: client,
		genres: cache,
		ranking: ranking.NewService(client, cache, logger, ranking.Options{
			ImageBaseURL: cfg.TMDBImageBaseURL,
		}),
	}, nil
}
