// Package config loads, normalizes, and validates cardvault configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks for the
// secrets that should not live on disk (CARDVAULT_ADMIN_PASSWORD,
// CARDVAULT_JWT_SECRET, CARDVAULT_BLOB_TOKEN). The Config type centralizes
// every knob the server and CLI need, so storage backends, index location,
// and catalog defaults are discovered in one pass.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical backend names, and clear validation errors.
package config
