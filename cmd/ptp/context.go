package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"ptpkit/internal/catalog"
	"ptpkit/internal/config"
	"ptpkit/internal/logging"
	"ptpkit/internal/ratelimit"
	"ptpkit/internal/seedclient"
	"ptpkit/internal/tracker"
)

type commandContext struct {
	configFlag   *string
	logLevelFlag *string
	runID        string

	configOnce sync.Once
	config     *config.Config
	configErr  error

	loggerOnce sync.Once
	logger     *slog.Logger
	loggerErr  error

	// fetcher and loader replace the tracker transport and the download
	// client in tests.
	fetcher catalog.Fetcher
	loader  seedclient.Loader
}

func newCommandContext(configFlag, logLevelFlag *string) *commandContext {
	return &commandContext{
		configFlag:   configFlag,
		logLevelFlag: logLevelFlag,
		runID:        uuid.NewString(),
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if c.logLevelFlag != nil && strings.TrimSpace(*c.logLevelFlag) != "" {
			cfg.Logging.Level = strings.TrimSpace(*c.logLevelFlag)
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) ensureLogger() (*slog.Logger, error) {
	c.loggerOnce.Do(func() {
		cfg, err := c.ensureConfig()
		if err != nil {
			c.loggerErr = err
			return
		}
		logger, err := logging.NewFromConfig(cfg)
		if err != nil {
			c.loggerErr = err
			return
		}
		c.logger = logger
	})
	return c.logger, c.loggerErr
}

// session is everything a tracker-facing command needs.
type session struct {
	ctx     context.Context
	cfg     *config.Config
	logger  *slog.Logger
	catalog *catalog.Catalog
	limiter *ratelimit.Limiter
}

// withCatalog builds the tracker transport and catalog, runs fn and logs the
// tokens the run consumed.
func (c *commandContext) withCatalog(cmd *cobra.Command, fn func(*session) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	base, err := c.ensureLogger()
	if err != nil {
		return err
	}
	ctx := logging.WithCorrelationID(cmd.Context(), c.runID)
	logger := logging.WithContext(ctx, base)

	s := &session{ctx: ctx, cfg: cfg, logger: logger}
	fetcher := c.fetcher
	if fetcher == nil {
		if err := cfg.RequireCredentials(); err != nil {
			return err
		}
		s.limiter = ratelimit.New(cfg.RateLimit.Tokens, cfg.RateLimit.FillRate,
			ratelimit.WithWaitInterval(time.Duration(cfg.RateLimit.WaitSeconds)*time.Second),
			ratelimit.WithLogger(logger),
		)
		opts := []tracker.Option{
			tracker.WithCredentials(cfg.Tracker.APIUser, cfg.Tracker.APIKey),
			tracker.WithUserAgent(cfg.Tracker.UserAgent),
			tracker.WithLimiter(s.limiter),
			tracker.WithHTTPClient(&http.Client{Timeout: time.Duration(cfg.Tracker.TimeoutSeconds) * time.Second}),
			tracker.WithLogger(logger),
		}
		if cfg.Tracker.Retry {
			opts = append(opts, tracker.WithRetry(tracker.DefaultRetryPolicy))
		}
		client, err := tracker.New(cfg.Tracker.BaseURL, opts...)
		if err != nil {
			return fmt.Errorf("create tracker client: %w", err)
		}
		fetcher = client
	}
	s.catalog = catalog.New(fetcher, cfg.Tracker.BaseURL, logger)

	defer func() {
		if s.limiter != nil {
			logger.Debug("session tokens consumed", logging.Int64("tokens", s.limiter.Consumed()))
		}
	}()
	return fn(s)
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}
