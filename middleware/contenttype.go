// middleware/contenttype.go
package middleware

import (
	"mime"
	"net/http"
	"strings"

	apperr "github.com/dalemusser/urlkit/errors"
)

// RequireJSON returns a middleware that rejects requests whose
// Content-Type is not "application/json" or a "+json" type with 415 and a
// JSON error body. Requests without a body (GET, HEAD) pass through.
func RequireJSON() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodGet || r.Method == http.MethodHead {
				next.ServeHTTP(w, r)
				return
			}
			if !isJSONContentType(r.Header.Get("Content-Type")) {
				apperr.Write(w, apperr.New("unsupported_media_type",
					"Content-Type must be application/json", http.StatusUnsupportedMediaType))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func isJSONContentType(ct string) bool {
	mt, _, err := mime.ParseMediaType(strings.TrimSpace(ct))
	if err != nil {
		return false
	}
	return mt == "application/json" || strings.HasSuffix(mt, "+json")
}
