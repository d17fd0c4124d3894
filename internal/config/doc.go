// Package config loads, normalizes, and validates clipbeat configuration.
//
// Configuration lives in a TOML file (~/.config/clipbeat/config.toml by
// default, or ./clipbeat.toml in the working directory). Values omitted from
// the file fall back to repository defaults, and all path fields are expanded
// and made absolute during load.
package config
