// Package config loads, normalizes, and validates sortbot configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours the SORTBOT_ROOT environment
// override. The Config type centralizes the organized root, the category
// rule table, watcher and mover timing, and logging options so the CLI can
// discover everything in one pass.
//
// Always obtain settings through this package so downstream code receives
// absolute paths, title-cased category labels, and clear validation errors.
package config
