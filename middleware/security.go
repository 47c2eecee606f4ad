// middleware/security.go
package middleware

import (
	"net/http"
	"strconv"

	"github.com/dalemusser/urlkit/config"
)

// SecurityHeadersOptions configures the security headers middleware.
// Empty strings (or zero HSTSMaxAge) disable the corresponding header.
type SecurityHeadersOptions struct {
	// XContentTypeOptions prevents MIME type sniffing. Default: "nosniff".
	XContentTypeOptions string

	// ReferrerPolicy controls referrer leakage. URLs in responses can carry
	// query parameters, so the default is "no-referrer".
	ReferrerPolicy string

	// CacheControl is set on every response. Default: "no-store".
	CacheControl string

	// HSTSMaxAge sets the Strict-Transport-Security max-age in seconds.
	// Only sent when the request is over HTTPS.
	HSTSMaxAge int

	// HSTSIncludeSubDomains adds includeSubDomains to the HSTS header.
	HSTSIncludeSubDomains bool
}

// DefaultSecurityHeadersOptions returns options suitable for a JSON API.
func DefaultSecurityHeadersOptions() SecurityHeadersOptions {
	return SecurityHeadersOptions{
		XContentTypeOptions:   "nosniff",
		ReferrerPolicy:        "no-referrer",
		CacheControl:          "no-store",
		HSTSMaxAge:            31536000, // 1 year
		HSTSIncludeSubDomains: true,
	}
}

// SecurityHeaders returns middleware that sets the headers described by opts.
func SecurityHeaders(opts SecurityHeadersOptions) func(next http.Handler) http.Handler {
	var hsts string
	if opts.HSTSMaxAge > 0 {
		hsts = "max-age=" + strconv.Itoa(opts.HSTSMaxAge)
		if opts.HSTSIncludeSubDomains {
			hsts += "; includeSubDomains"
		}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			if opts.XContentTypeOptions != "" {
				h.Set("X-Content-Type-Options", opts.XContentTypeOptions)
			}
			if opts.ReferrerPolicy != "" {
				h.Set("Referrer-Policy", opts.ReferrerPolicy)
			}
			if opts.CacheControl != "" {
				h.Set("Cache-Control", opts.CacheControl)
			}
			// HSTS over plain HTTP is ignored by browsers and confuses dev setups.
			if hsts != "" && r.TLS != nil {
				h.Set("Strict-Transport-Security", hsts)
			}
			next.ServeHTTP(w, r)
		})
	}
}

// SecurityHeadersFromConfig returns middleware configured from CoreConfig,
// or a no-op when enable_security_headers is false.
func SecurityHeadersFromConfig(coreCfg *config.CoreConfig) func(next http.Handler) http.Handler {
	if coreCfg == nil || !coreCfg.Security.EnableSecurityHeaders {
		return identity
	}
	opts := DefaultSecurityHeadersOptions()
	opts.HSTSMaxAge = coreCfg.Security.HSTSMaxAge
	return SecurityHeaders(opts)
}
