// Package file loads and persists medcode configuration as TOML.
//
// The effective configuration is layered: compiled-in defaults, then the
// config file (~/.medcode/config.toml unless overridden), then MEDCODE_*
// environment variables. Durations are written as strings like "10s".
package file
