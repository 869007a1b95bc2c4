package ports

import "net/http"

// HTTPClient sends probe requests. The standard *http.Client satisfies it.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}
