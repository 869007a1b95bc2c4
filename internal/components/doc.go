// Package components provides concrete managed components and builds
// component trees from configuration.
//
// Every component embeds *lifecycle.Controller and supplies its work through
// init and shutdown hooks:
//
//   - Static: a leaf that succeeds or fails with a fixed message
//   - HTTPProbe: GETs a URL on init with backoff between attempts
//   - FileWatch: requires a file on init and degrades while it is missing
//
// Groups are either a plain lifecycle.Controller, which honours the configured
// strategies, or a lifecycle.Composite, which fans out concurrently.
package components
