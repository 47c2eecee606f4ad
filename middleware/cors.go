// middleware/cors.go
package middleware

import (
	"net/http"

	"github.com/dalemusser/urlkit/config"
	"github.com/go-chi/cors"
)

// CORSFromConfig returns a middleware that applies CORS behavior based on
// the given CoreConfig's CORS section.
//
// If CORS is disabled it returns an identity middleware, so it is safe to
// call unconditionally:
//
//	r.Use(middleware.CORSFromConfig(coreCfg))
func CORSFromConfig(coreCfg *config.CoreConfig) func(next http.Handler) http.Handler {
	if coreCfg == nil || !coreCfg.CORS.EnableCORS {
		return identity
	}

	c := coreCfg.CORS
	return cors.Handler(cors.Options{
		AllowedOrigins:   c.CORSAllowedOrigins,
		AllowedMethods:   c.CORSAllowedMethods,
		AllowedHeaders:   c.CORSAllowedHeaders,
		ExposedHeaders:   c.CORSExposedHeaders,
		AllowCredentials: c.CORSAllowCredentials,
		MaxAge:           c.CORSMaxAge,
	})
}
