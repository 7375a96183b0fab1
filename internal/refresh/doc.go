// Package refresh runs periodic data refreshes for dashboard views.
//
// A Controller owns one ticker and one handler. Ticks start the handler in the
// background; a tick that arrives while the previous run is still in flight is
// dropped, never queued. Handler errors and panics are logged and the timer
// keeps running.
//
// Controllers are scoped to the view they were created on. Leaving that view
// suspends the ticker and returning resumes it, as long as Start was called
// and Stop was not.
//
// The period is persisted in milliseconds under prefs.KeyRefreshInterval and
// reused by later controllers unless Options.Interval overrides it.
//
//	c := refresh.New(ctx, loadNodes, refresh.Options{
//		Storage: store,
//		Routes:  router,
//		Logger:  logger,
//	})
//	c.StartWith(true)
//	defer c.Close()
package refresh
