// Package logging constructs the slog loggers used across mediasort.
//
// Two output formats are supported: a human-oriented console format that
// pulls the "component" attribute into a prefix, and line-delimited JSON
// for machine consumption. Helper constructors mirror the slog attr
// functions so call sites never import log/slog directly.
package logging
