// middleware/sizelimit.go
package middleware

import (
	"net/http"
)

// LimitBodySize returns a middleware that caps the request body at
// maxBytes. If maxBytes <= 0, it is a no-op and does not wrap the body.
//
// Apply it early in the chain so transform handlers never decode an
// oversized step list.
func LimitBodySize(maxBytes int64) func(next http.Handler) http.Handler {
	if maxBytes <= 0 {
		return identity
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
			next.ServeHTTP(w, r)
		})
	}
}

func identity(next http.Handler) http.Handler { return next }
