package config

const (
	defaultDataDir         = "~/.local/share/mediasort"
	defaultLogDir          = "~/.local/share/mediasort/logs"
	defaultDateFormat      = "2006-01"
	defaultUnknownDate     = "Unknown Date"
	defaultUnknownLocation = "Unknown Location"
	defaultGeocodeRadius   = 3000.0
	defaultLogFormat       = "console"
	defaultLogLevel        = "info"
	// defaultMaxWorkers caps the pool when no worker count is configured.
	defaultMaxWorkers = 8
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
			LogDir:  defaultLogDir,
		},
		Import: Import{
			Workers: 0, // resolved against CPU count at batch time
		},
		Folders: Folders{
			Segments:        []string{"date", "place"},
			DateFormat:      defaultDateFormat,
			UnknownDate:     defaultUnknownDate,
			UnknownLocation: defaultUnknownLocation,
		},
		Geocode: Geocode{
			RadiusMeters: defaultGeocodeRadius,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}

// MaxDefaultWorkers returns the cap applied when the worker count is left
// unset.
func MaxDefaultWorkers() int {
	return defaultMaxWorkers
}
