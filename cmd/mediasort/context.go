package main

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"

	"github.com/gofrs/flock"
	"github.com/spf13/cobra"

	"mediasort/internal/checksum"
	"mediasort/internal/config"
	"mediasort/internal/geocache"
	"mediasort/internal/logging"
	"mediasort/internal/pathing"
	"mediasort/internal/sessionlog"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error

	loggerOnce sync.Once
	logger     *slog.Logger
	loggerErr  error
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
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
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

// ensureLogger builds the process logger: configured format to stderr plus
// a persistent file in the log directory.
func (c *commandContext) ensureLogger() (*slog.Logger, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	c.loggerOnce.Do(func() {
		c.logger, c.loggerErr = logging.New(logging.Options{
			Level:  cfg.Logging.Level,
			Format: cfg.Logging.Format,
			OutputPaths: []string{
				"stderr",
				filepath.Join(cfg.Paths.LogDir, "mediasort.log"),
			},
		})
	})
	return c.logger, c.loggerErr
}

func (c *commandContext) deriver() (*pathing.Deriver, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	return pathing.NewDeriver(pathing.Options{
		Segments:        cfg.Folders.Segments,
		DateFormat:      cfg.Folders.DateFormat,
		UnknownDate:     cfg.Folders.UnknownDate,
		UnknownLocation: cfg.Folders.UnknownLocation,
	}), nil
}

func (c *commandContext) openHashes() (*checksum.Store, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	return checksum.Open(cfg.HashStorePath())
}

func (c *commandContext) openPlaces() (*geocache.Cache, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	return geocache.Open(cfg.LocationStorePath())
}

func (c *commandContext) openSessionStore() (*sessionlog.Store, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	return sessionlog.OpenStore(cfg.SessionDBPath())
}

// acquireBatchLock takes the cross-process batch lock. The returned release
// function is safe to call exactly once.
func (c *commandContext) acquireBatchLock() (func(), error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	lock := flock.New(cfg.LockPath())
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire batch lock: %w", err)
	}
	if !ok {
		return nil, errors.New("another mediasort batch is already running")
	}
	return func() { _ = lock.Unlock() }, nil
}

// resolveDestination picks the destination root: flag value when set,
// configured default otherwise.
func (c *commandContext) resolveDestination(flagValue string) (string, error) {
	if trimmed := strings.TrimSpace(flagValue); trimmed != "" {
		return config.ExpandPath(trimmed)
	}
	cfg, err := c.ensureConfig()
	if err != nil {
		return "", err
	}
	if cfg.Import.Destination == "" {
		return "", errors.New("no destination configured; set import.destination or pass --destination")
	}
	return cfg.Import.Destination, nil
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}
