// Package config loads guarddash configuration from a TOML file.
//
// # Configuration Discovery
//
// The Load function follows this resolution order:
//
//  1. If a path is explicitly provided, use it
//  2. Otherwise, use ~/.config/guarddash/config.toml (default)
//  3. If the config file doesn't exist, fall back to hardcoded defaults
//  4. If the file exists but fields are missing/empty, use defaults
//  5. GUARDDASH_API_BASE_URL, when set, wins over the file
//
// # Default Values
//
//   - API base URL: http://localhost:8000
//   - Request timeout: 30s
//   - Theme: Dracula
//   - State file: ~/.config/guarddash/state.toml
//
// # Example
//
//	api_base_url = "https://panel.example.com/backend"
//	request_timeout = "10s"
//	theme = "Slate"
//
// Invalid values (a relative or non-http base URL, an unparsable timeout)
// are reported as go-errors bad input errors so callers can surface the
// offending field from the error metadata.
package config
