// middleware/compress.go
package middleware

import (
	"net/http"

	"github.com/dalemusser/urlkit/config"
	"github.com/go-chi/chi/v5/middleware"
)

// compressibleTypes are the content types the service actually emits.
var compressibleTypes = []string{
	"application/json",
	"application/yaml",
	"text/plain",
}

// CompressFromConfig returns a compression middleware based on the
// CoreConfig. When compression is disabled (or the level is out of range,
// which config validation rejects) it is an identity middleware.
func CompressFromConfig(coreCfg *config.CoreConfig) func(next http.Handler) http.Handler {
	if coreCfg == nil || !coreCfg.Compression.EnableCompression {
		return identity
	}
	level := coreCfg.Compression.CompressionLevel
	if level < 1 || level > 9 {
		return identity
	}
	return middleware.Compress(level, compressibleTypes...)
}
