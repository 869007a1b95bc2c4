// Package lifecycle turns long-lived units into managed components with a
// startup/shutdown state machine and an observable, hierarchical health state.
//
// A component reports one of seven states. Components compose into trees: a
// parent publishes the worst state among itself and all its subcomponents,
// together with a reason such as "OK: 2/3, FAILED: 1/3, Worst: cache - dial tcp: refused".
//
// # Usage
//
// Embed a Controller and hand it the component's own work as hooks:
//
//	type Store struct {
//	    *lifecycle.Controller
//	    db *sql.DB
//	}
//
//	func NewStore(dsn string) *Store {
//	    s := &Store{}
//	    s.Controller = lifecycle.New("store",
//	        lifecycle.WithInitHook(s.open),
//	        lifecycle.WithShutdownHook(s.close),
//	    )
//	    return s
//	}
//
// Group components under a Composite and drive the whole tree from the root:
//
//	root := lifecycle.NewComposite("app")
//	_ = root.Register(NewStore(dsn))
//	_ = root.Register(cache)
//
//	if err := root.Initialize(ctx); err != nil {
//	    // root.State() already reports FAILED with the failing member
//	}
//	defer root.Shutdown(ctx)
//
// # State Machine
//
// Valid state transitions:
//   - UNINITIALIZED -> INITIALIZING -> OK | FAILED
//   - any state but SHUT_DOWN -> SHUTTING_DOWN -> SHUT_DOWN | FAILED
//   - OK <-> DEGRADED, through Degrade and Recover
//
// Initialize is a no-op unless the component is UNINITIALIZED, so a second call
// after SHUT_DOWN or FAILED returns nil without running hooks.
//
// # Ordering
//
// Publishing a state returns only after every subscriber has received it, so
// by the time Initialize or Shutdown returns every observer has seen the
// transition. Concurrent Initialize (or Shutdown) calls share a single run.
//
// # Version
//
// Current version: 1.0.0
// Minimum compatible version: 1.0.0
//
// See version.go for version constants that can be used programmatically.
package lifecycle
