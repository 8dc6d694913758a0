// Package config loads, normalizes, and validates vietscribe configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// VIETSCRIBE_API_KEY. The Config type centralizes every knob the server and
// CLI need, allowing data/work directories, upload limits, and engine
// credentials to be discovered in one pass.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
