// Package config loads, normalizes, and validates speechcorpus configuration.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// SPEECHCORPUS_FETCH_USER. The Config type centralizes every knob the CLI
// needs so alignment, media, and output directories are discovered in one
// pass.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
