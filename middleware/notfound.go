package middleware

import (
	"net/http"

	apperr "github.com/dalemusser/urlkit/errors"
	"go.uber.org/zap"
)

// NotFoundHandler returns a handler that logs a 404 and returns a JSON error body.
// It is designed to be passed directly to chi.Router.NotFound(..).
func NotFoundHandler(logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logRouteMiss(logger, "not_found", r)
		apperr.Write(w, apperr.NotFound("The requested resource was not found"))
	}
}

// MethodNotAllowedHandler returns a handler that logs a 405 and returns a JSON error body.
// It is designed to be passed directly to chi.Router.MethodNotAllowed(..).
func MethodNotAllowedHandler(logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logRouteMiss(logger, "method_not_allowed", r)
		apperr.Write(w, apperr.MethodNotAllowed("The requested HTTP method is not allowed for this resource"))
	}
}

func logRouteMiss(logger *zap.Logger, msg string, r *http.Request) {
	if logger == nil {
		return
	}
	logger.Info(msg,
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
		zap.String("remote_ip", r.RemoteAddr),
	)
}
