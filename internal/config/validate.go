package config

import (
	"errors"
	"fmt"
	"regexp"
)

var knownSegments = map[string]struct{}{
	"date":   {},
	"place":  {},
	"album":  {},
	"camera": {},
}

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateFolders(); err != nil {
		return err
	}
	if err := c.validateImport(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateFolders() error {
	for _, segment := range c.Folders.Segments {
		if _, ok := knownSegments[segment]; !ok {
			return fmt.Errorf("folders.segments: unknown segment %q (supported: date, place, album, camera)", segment)
		}
	}
	return nil
}

func (c *Config) validateImport() error {
	if c.Import.Workers < 0 {
		return errors.New("import.workers must not be negative")
	}
	for _, pattern := range c.Import.Exclusions {
		if _, err := regexp.Compile(pattern); err != nil {
			return fmt.Errorf("import.exclusions: invalid pattern %q: %w", pattern, err)
		}
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn, or error, got %q", c.Logging.Level)
	}
	return nil
}
