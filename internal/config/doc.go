// Package config loads and validates the mediasort TOML configuration.
//
// Load resolves the config file (explicit path, ~/.config/mediasort/config.toml,
// or ./mediasort.toml), decodes it over the repository defaults, expands and
// normalizes every path field, and validates the result. A missing file is
// not an error: defaults apply.
package config
