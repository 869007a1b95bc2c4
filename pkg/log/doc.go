// Package log is the logging port used by healthtree components.
//
// Components log through the Logger interface so that the lifecycle core does
// not depend on a concrete logging library. A zerolog adapter is provided for
// applications and a no-op logger for tests and library defaults.
//
// # Usage
//
//	logger := log.NewZerologAdapter(os.Stderr, log.Options{Level: "debug", Console: true})
//	svc := lifecycle.New("db", lifecycle.WithLogger(logger.With(log.String("tree", "api"))))
//
// # Version
//
// Current version: 1.1.0
// Minimum compatible version: 1.0.0
//
// See version.go for version constants that can be used programmatically.
package log
