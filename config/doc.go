// Package config loads and validates the application configuration.
//
// Configuration is a single JSON file layered over built-in defaults,
// with GRAPHCFG_* environment variables taking final precedence for
// the settings that change between deployments.
package config
