// Package snapshot persists the aggregate health of a component tree.
//
// A Recorder subscribes to the root of a tree and saves a Snapshot after every
// published state, so the last known health survives the process and can be
// inspected later (healthtree status).
//
//	repo := snapshot.NewFileRepository("/var/lib/healthtree")
//	rec := snapshot.NewRecorder(repo, logger)
//	sub := rec.Watch(root)
//	defer sub.Unsubscribe()
//
// # Storage
//
// FileRepository writes status.json with a temp file and rename so a crash
// never leaves a partially written snapshot.
//
// # Version
//
// Current version: 1.0.0
// Minimum compatible version: 1.0.0
//
// See version.go for version constants that can be used programmatically.
package snapshot
