// Package config loads, validates, and normalizes the colorforge TOML
// configuration.
package config
