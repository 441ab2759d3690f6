// Package httpserver builds the *http.Server shared by the portal binaries.
package httpserver

import (
	"net/http"
	"time"
)

// New returns a server for the given listen address. Per-request deadlines
// live in the router's timeout middleware, so only the header read and idle
// keep-alives are bounded here; a write timeout would cut off large
// document streams.
func New(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
}
