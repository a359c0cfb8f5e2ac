// Package router is the HTTP routing layer: httprouter underneath, JSON
// envelopes for success and error bodies, and a fixed middleware stack
// (panic recovery, client IP, correlation id, telemetry, maintenance switch,
// authentication).
package router

import "net/http"

// Middleware wraps an http.Handler.
type Middleware func(next http.Handler) http.Handler

// Chain wraps h so that mws[0] runs first.
func Chain(h http.Handler, mws ...Middleware) http.Handler {
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}

	return h
}
