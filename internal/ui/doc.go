// Package ui provides the guarddash terminal dashboard built on Bubble Tea.
//
// # Architecture Overview
//
// Model is a single Bubble Tea model. It never calls the API directly from
// Update: data arrives through a state.Store written by the per-view refresh
// controllers, and user actions run as tea.Cmd functions against a Session.
// A short tick re-reads the store and the router so changes made on other
// goroutines (a background refresh, a logout after an expired session)
// reach the screen without extra plumbing.
//
// # Views
//
//   - /login: username, password and optional TOTP form, or an API key (ctrl+k)
//   - /: statistics dashboard with usage rankings
//   - /admins, /nodes, /services, /subscriptions: bubbles/table listings
//
// Navigation goes through route.Router, so the auth guard decides where a
// key press actually lands.
//
// # Toasts
//
// Feed is the Notifier at the end of the toast limiter. It buffers toasts
// raised on any goroutine and the model drains it with a blocking command.
// Each toast stays on screen for its Duration, four seconds when unset.
//
// # Key Bindings
//
//	1-5, tab      switch views
//	r             refresh the current view now
//	+ / -         slower / faster auto refresh (persisted)
//	e / d         enable / disable the selected admin, node or subscription
//	b             export the backup archive
//	L             logout
//	T             cycle theme (persisted)
//	h / ?         help
//	q, ctrl+c     quit
package ui
