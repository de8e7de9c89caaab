package httpx

import "net/http"

// Middleware wraps a handler with extra behaviour.
type Middleware func(http.Handler) http.Handler

// Chain wraps h with the given middleware. The first middleware in the list
// is the outermost, so it sees the request first and the response last.
func Chain(h http.Handler, m ...Middleware) http.Handler {
	for i := len(m) - 1; i >= 0; i-- {
		if m[i] == nil {
			continue
		}
		h = m[i](h)
	}
	return h
}

// ChainFunc is Chain for a plain handler function.
func ChainFunc(fn http.HandlerFunc, m ...Middleware) http.Handler {
	return Chain(fn, m...)
}
