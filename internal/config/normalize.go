package config

import (
	"fmt"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeFolders()
	c.normalizeGeocode()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		c.Paths.DataDir = defaultDataDir
	}
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if strings.TrimSpace(c.Import.Destination) != "" {
		if c.Import.Destination, err = expandPath(c.Import.Destination); err != nil {
			return fmt.Errorf("import.destination: %w", err)
		}
	}
	return nil
}

func (c *Config) normalizeFolders() {
	segments := make([]string, 0, len(c.Folders.Segments))
	for _, segment := range c.Folders.Segments {
		segment = strings.ToLower(strings.TrimSpace(segment))
		if segment != "" {
			segments = append(segments, segment)
		}
	}
	if len(segments) == 0 {
		segments = []string{"date", "place"}
	}
	c.Folders.Segments = segments

	if strings.TrimSpace(c.Folders.DateFormat) == "" {
		c.Folders.DateFormat = defaultDateFormat
	}
	if strings.TrimSpace(c.Folders.UnknownDate) == "" {
		c.Folders.UnknownDate = defaultUnknownDate
	}
	if strings.TrimSpace(c.Folders.UnknownLocation) == "" {
		c.Folders.UnknownLocation = defaultUnknownLocation
	}
}

func (c *Config) normalizeGeocode() {
	if c.Geocode.RadiusMeters <= 0 {
		c.Geocode.RadiusMeters = defaultGeocodeRadius
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
