// Package config provides YAML-based configuration for the Callisto
// telemetry hub with defaults, validation and CALLISTO_* environment
// variable overrides.
//
// Loading sequence:
//
//  1. Read YAML from file (a missing file falls back to pure defaults)
//  2. Apply default values
//  3. Apply environment variable overrides
//  4. Validate the final configuration
//
// When watch_config is enabled, a fsnotify-based Watcher reloads the
// file on change so runtime-adjustable settings (freshness threshold,
// keepalive interval) take effect without a restart.
package config
