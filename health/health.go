// health/health.go
package health

import (
	"context"
	"net/http"
	"sort"

	"github.com/dalemusser/urlkit/httputil"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// Check represents a single health probe. It returns nil if the dependency
// is healthy. The ctx passed in is derived from the incoming request.
type Check func(ctx context.Context) error

// Response is the JSON structure returned by the health handler.
type Response struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// Handler returns an http.Handler that runs checks on each request.
// With no checks it is a plain liveness probe answering {"status":"ok"}.
// Any failing check turns the answer into 503 with {"status":"error"} and
// the per-check results.
func Handler(checks map[string]Check, logger *zap.Logger) http.Handler {
	names := make([]string, 0, len(checks))
	for name := range checks {
		names = append(names, name)
	}
	sort.Strings(names)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if len(names) == 0 {
			httputil.WriteJSON(w, http.StatusOK, Response{Status: "ok"})
			return
		}

		results := make(map[string]string, len(names))
		status := http.StatusOK
		for _, name := range names {
			check := checks[name]
			if check == nil {
				results[name] = "ok"
				continue
			}
			if err := check(r.Context()); err != nil {
				status = http.StatusServiceUnavailable
				results[name] = "error: " + err.Error()
				if logger != nil {
					logger.Warn("health check failed", zap.String("check", name), zap.Error(err))
				}
				continue
			}
			results[name] = "ok"
		}

		resp := Response{Status: "ok", Checks: results}
		if status != http.StatusOK {
			resp.Status = "error"
		}
		httputil.WriteJSON(w, status, resp)
	})
}

// Mount attaches a /health route to the given chi.Router.
func Mount(r chi.Router, checks map[string]Check, logger *zap.Logger) {
	r.Method(http.MethodGet, "/health", Handler(checks, logger))
}
