// Package ui provides the Bubble Tea terminal interface for the ParkHub client.
//
// # Screens
//
//   - Login: e-mail, password and profile (driver or company)
//   - Main: tabs for the signed-in profile
//   - Lot: a company's lot with its prices and the vehicles parked now
//   - Logs: the tail of the application log file
//
// Drivers see the lots available, their vehicles and where they are parked
// right now. Companies see their lots and today's entries, and register
// entries, exits and prices from the lot screen.
//
// # Data Flow
//
// Paged lists are backed by a loader.Loader. The row after the last item acts
// as the sentinel: when it enters the visible window after a load, a scroll or
// a resize, the next page is requested. A failed page is not retried until
// the user presses r or scrolls.
//
// Lists of what is active right now are backed by a poll.Poller. They load on
// first activation, on r and, when a poll interval is configured, in the
// background. The model reads snapshots on render; a one-second tick keeps the
// Brasília clock and elapsed times current and checks token expiry.
//
// # Session Expiry
//
// When the API rejects the token the session drops it and signals on the
// Options.Expired channel. The model waits on that channel and returns to the
// login screen with a notice.
package ui
