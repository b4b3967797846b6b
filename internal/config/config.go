package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	// DataDir holds the persistent stores (hashes.json, locations.json,
	// sessions.db) and the batch lock file.
	DataDir string `toml:"data_dir"`
	LogDir  string `toml:"log_dir"`
}

// Import contains defaults for the import pipeline. Command-line flags
// override every field.
type Import struct {
	Destination     string   `toml:"destination"`
	Workers         int      `toml:"workers"`
	AllowDuplicates bool     `toml:"allow_duplicates"`
	Trash           bool     `toml:"trash"`
	AlbumFromFolder bool     `toml:"album_from_folder"`
	Exclusions      []string `toml:"exclusions"`
}

// Folders controls the derived destination hierarchy.
type Folders struct {
	// Segments is the ordered list of path-segment templates. Supported
	// values: "date", "place", "album", "camera".
	Segments        []string `toml:"segments"`
	DateFormat      string   `toml:"date_format"`
	UnknownDate     string   `toml:"unknown_date"`
	UnknownLocation string   `toml:"unknown_location"`
}

// Geocode contains reverse-geocoding cache settings.
type Geocode struct {
	// RadiusMeters is the distance within which a cached place matches a
	// queried coordinate.
	RadiusMeters float64 `toml:"radius_meters"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for mediasort.
type Config struct {
	Paths   Paths   `toml:"paths"`
	Import  Import  `toml:"import"`
	Folders Folders `toml:"folders"`
	Geocode Geocode `toml:"geocode"`
	Logging Logging `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration
// file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/mediasort/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned
// config has all path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}
	projectPath, err := filepath.Abs("mediasort.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}
	return defaultPath, false, nil
}

// EnsureDirectories creates the data and log directories.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.DataDir, c.Paths.LogDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// HashStorePath returns the location of the checksum store document.
func (c *Config) HashStorePath() string {
	return filepath.Join(c.Paths.DataDir, "hashes.json")
}

// LocationStorePath returns the location of the place cache document.
func (c *Config) LocationStorePath() string {
	return filepath.Join(c.Paths.DataDir, "locations.json")
}

// SessionDBPath returns the location of the session history database.
func (c *Config) SessionDBPath() string {
	return filepath.Join(c.Paths.DataDir, "sessions.db")
}

// LockPath returns the cross-process batch lock file.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.DataDir, "mediasort.lock")
}

// CompiledExclusions compiles the import exclusion patterns. Validate has
// already rejected invalid patterns, so compilation errors are unexpected.
func (c *Config) CompiledExclusions() ([]*regexp.Regexp, error) {
	patterns := make([]*regexp.Regexp, 0, len(c.Import.Exclusions))
	for _, raw := range c.Import.Exclusions {
		pattern, err := regexp.Compile(raw)
		if err != nil {
			return nil, fmt.Errorf("compile exclusion %q: %w", raw, err)
		}
		patterns = append(patterns, pattern)
	}
	return patterns, nil
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
