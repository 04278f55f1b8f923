// Package config loads, normalizes, and validates downyoutube configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, overlays optional .env files, and honours
// environment fallbacks such as DOWNYOUTUBE_API_TOKEN and YTDLP_PATH. The
// Config type centralizes every knob the daemon and CLI need so download,
// log, and state directories are discovered in one pass.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
