// router/router.go
package router

import (
	"github.com/dalemusser/urlkit/config"
	"github.com/dalemusser/urlkit/logging"
	"github.com/dalemusser/urlkit/metrics"
	"github.com/dalemusser/urlkit/middleware"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// New creates a chi.Router pre-wired with the standard middleware stack:
// - RequestID
// - RealIP
// - Recoverer (panic → 500 JSON)
// - security headers, CORS and compression as configured
// - body size limit (MaxRequestBodyBytes)
// - metrics HTTP middleware
// - request logging
// - NotFound / MethodNotAllowed JSON handlers
// It does NOT mount any routes; see api.Mount, health.Mount and version.Mount.
func New(coreCfg *config.CoreConfig, logger *zap.Logger) chi.Router {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(logging.Recoverer(logger))

	r.Use(middleware.SecurityHeadersFromConfig(coreCfg))
	r.Use(middleware.CORSFromConfig(coreCfg))
	r.Use(middleware.CompressFromConfig(coreCfg))

	var maxBody int64
	if coreCfg != nil {
		maxBody = coreCfg.MaxRequestBodyBytes
	}
	r.Use(middleware.LimitBodySize(maxBody))

	r.Use(metrics.HTTPMetrics)
	r.Use(logging.RequestLogger(logger))

	r.NotFound(middleware.NotFoundHandler(logger))
	r.MethodNotAllowed(middleware.MethodNotAllowedHandler(logger))

	return r
}
