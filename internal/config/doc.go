// Package config provides configuration management for wikimirror.
// It defines defaults, CLI-facing options, per-wiki overrides loaded from
// a YAML file, and wiki credentials loaded from a separate TOML file.
package config
