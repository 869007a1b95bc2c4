// Package ports defines the interfaces that connect healthtree components to
// infrastructure they do not own.
//
//   - [HTTPClient]: HTTP request abstraction, satisfied by *http.Client
//
// Components in internal/components depend only on these interfaces so tests
// can substitute fakes or httptest servers.
package ports
