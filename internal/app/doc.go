// Package app is the composition root of guarddash.
//
// # Overview
//
// Run loads the config, opens the state file, builds the GuardCore client
// and hands everything to the terminal UI. Wire does the client half of that
// work on its own so tests can drive a session against a fake backend
// without a terminal.
//
// # Startup
//
//	Run()
//	  ├─> config.Load()          read ~/.config/guarddash/config.toml
//	  ├─> prefs.Open()           credentials, theme and refresh interval
//	  ├─> toast.New(ui.Feed)     rate limited notifications
//	  ├─> Wire()                 client, router, session
//	  ├─> NewPoller().Start()    per-view refresh controllers
//	  └─> ui.Run()               blocks until quit
//
// # Error Hooks
//
// Every failed request reaches two hooks on the client, in this order:
//
//   - A 401 calls Session.HandleUnauthorized, which shows "Session Expired",
//     drops both credentials and the cached data and navigates to /login.
//   - Reporter.HandleAPIError shows an error toast titled with the method and
//     endpoint. GET failures of the background endpoints (/api/stats,
//     /api/subscriptions/stats, /api/admins/current) are only logged.
//
// # Polling
//
// Poller creates one refresh.Controller per data view the first time the
// view is shown. A controller only ticks while its own view is current, so
// leaving a view pauses its polling and coming back resumes it. The
// interval is shared and persisted through prefs.
//
// # Session
//
// Session caches the signed-in admin, nodes and services and only refetches
// them when asked to force. The first subscriptions page and the total
// count are fetched together; a second caller while that fetch is running
// gets the cached data back.
package app
