// Package app is the composition root of the ParkHub terminal client.
//
// # Overview
//
// Run loads the configuration, applies command-line overrides and hands a
// fully wired ui.Options to the Bubble Tea program. Build does the wiring and
// is exported so it can be exercised without a terminal.
//
// # Wiring
//
//	┌──────────────┐
//	│   Run()      │
//	└──────┬───────┘
//	       │
//	       ├─────> config.Load()        TOML file, .env, environment
//	       ├─────> ApplyOverrides()     -poll, -log-level
//	       ├─────> logging.New()        zerolog to the log file
//	       ├─────> kv.OpenFile()        theme and profile type
//	       ├─────> auth.NewSession()    token in memory, expiry channel
//	       ├─────> parkhub.NewClient()  bearer token, 401 handler
//	       └─────> ui.Run()             TUI (blocks)
//
// # Session Storage
//
// The access token lives in memory only and is gone when the program exits.
// The profile type and the theme are kept in the state file so the next login
// screen starts on the same profile.
//
// # Error Handling
//
// Configuration, logging, state file and client setup errors are returned
// from Run. API failures after startup are shown in the UI and logged.
package app
