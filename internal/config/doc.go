// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading and management for queryosity.
//
// Configuration is TOML, with sensible defaults, .env support,
// environment variable overrides, and validation.
//
// # Key Types
//
//   - Config: Main configuration structure with all settings
//   - ServerConfig: Backend origin, request timeout and rate limit
//   - SessionConfig: Credential storage backend and location
//   - UIConfig: Theme and display toggles
//
// # Configuration Precedence
//
// Configuration is loaded from (in order of precedence):
//   - Environment variables (QUERYOSITY_*)
//   - .env in the working directory
//   - ~/.queryosity/config.toml
//   - Built-in defaults
//
// # Usage
//
// Load configuration:
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// Access settings:
//
//	base := cfg.Server.BaseURL
//	timeout := cfg.Server.Timeout()
package config
