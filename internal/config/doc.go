// Package config loads the ParkHub client configuration.
//
// # Resolution Order
//
// Later sources override earlier ones:
//
//  1. Built-in defaults
//  2. The TOML file (explicit path, or ~/.config/parkhub/config.toml)
//  3. A .env file in the working directory
//  4. PARKHUB_* environment variables
//
// A missing config file or .env file is not an error.
//
// # Default Values
//
//   - api_url: http://127.0.0.1:8000
//   - page_size: 10 (1..100)
//   - poll_seconds: 0 (active sessions refresh only on demand)
//   - request_timeout: 10s
//   - state_path: ~/.config/parkhub/state.toml
//   - log_level: info (debug, info, warn, error)
//   - log_format: json (json, console)
//   - log_file: ~/.local/state/parkhub/parkhub.log
//
// # TOML Format
//
//	api_url = "https://api.parkhub.example"
//	page_size = 20
//	poll_seconds = 15
//	request_timeout = "5s"
//	log_level = "debug"
//
// Tilde expansion is performed for state_path and log_file.
//
// # Environment
//
// PARKHUB_API_URL, PARKHUB_PAGE_SIZE, PARKHUB_POLL_SECONDS,
// PARKHUB_REQUEST_TIMEOUT, PARKHUB_STATE_PATH, PARKHUB_LOG_LEVEL,
// PARKHUB_LOG_FORMAT and PARKHUB_LOG_FILE, read from .env first and then from
// the process environment.
//
// # Error Handling
//
// Load returns errors for unreadable or unparsable files, malformed numbers or
// durations in the environment, and values outside their allowed range.
package config
