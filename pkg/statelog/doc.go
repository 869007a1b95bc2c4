// Package statelog forwards component state changes and log events to a logger.
//
// A Forwarder consumes two independent streams per component: the state
// stream published by a lifecycle.Component and a channel of log Events. Both
// are normalized into Records and written through a log.Logger. Each stream
// keeps its own Counters, and repeated identical mapping errors are suppressed
// for a window that grows with backoff until a different error or a
// successful record resets it.
//
//	fwd := statelog.NewForwarder(logger)
//	sub := fwd.WatchState(root)
//	defer sub.Unsubscribe()
//	go fwd.WatchLogs(ctx, "worker", events)
//
// # Version
//
// Current version: 1.0.0
// Minimum compatible version: 1.0.0
package statelog
