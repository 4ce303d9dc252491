// Package config loads runtime configuration for the rk CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional config file, JSON or YAML, selected via -c/--config or
//     RECONKEEPER_CONFIG.
//  3. Environment variables: RECONKEEPER_ plus the upper-cased key with
//     dashes replaced by underscores (RECONKEEPER_FETCH_CONCURRENCY).
//  4. Command-line flags, which override everything else.
//
// Config file keys match the flag names:
//
//	api-endpoint: http://127.0.0.1:8000
//	store-mode: s3
//	s3-bucket: reconstruction
//	request-timeout: 2m
//	fetch-concurrency: 16
//
// Durations accept Go duration strings ("90s", "1h").
package config
