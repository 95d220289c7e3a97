// Package config loads, normalizes, and validates worker configuration from
// a TOML file with environment overrides for secrets.
package config
