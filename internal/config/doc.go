// Package config provides configuration management for autotagger.
//
// Configuration is populated from CLI flags, optionally seeded by a
// YAML defaults file (.autotagger in the current or home directory),
// validated once up front, and then passed through the application via
// dependency injection rather than global state.
package config
