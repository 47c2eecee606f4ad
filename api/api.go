// Package api exposes URL handles over HTTP: a transform endpoint that
// runs a list of handle operations against one URL, and an endpoint
// describing the request's own URL.
package api

import (
	"net/http"
	"reflect"
	"strings"

	"github.com/dalemusser/urlkit/config"
	apperr "github.com/dalemusser/urlkit/errors"
	"github.com/dalemusser/urlkit/middleware"
	"github.com/dalemusser/urlkit/urlhandle"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

// Handler serves the /v1 routes.
type Handler struct {
	urlCfg   config.URLConfig
	logger   *zap.Logger
	observer urlhandle.Observer
	validate *validator.Validate
}

// New creates a Handler. observer may be nil.
func New(urlCfg config.URLConfig, logger *zap.Logger, observer urlhandle.Observer) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	v := validator.New(validator.WithRequiredStructEnabled())
	// Report JSON names, not Go field names.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return &Handler{urlCfg: urlCfg, logger: logger, observer: observer, validate: v}
}

// Mount attaches the /v1 routes to r.
func (h *Handler) Mount(r chi.Router) {
	r.Route("/v1", func(r chi.Router) {
		r.With(middleware.RequireJSON()).Method(http.MethodPost, "/transform",
			apperr.WrapWithLogger(h.transform, h.logger))
		r.Method(http.MethodGet, "/current", apperr.WrapWithLogger(h.current, h.logger))
	})
}

// handleOptions returns the options every handle built for r shares.
func (h *Handler) handleOptions(r *http.Request) []urlhandle.Option {
	loc := urlhandle.RequestLocation(r)
	if d := strings.TrimSpace(h.urlCfg.DefaultLocation); d != "" {
		loc = urlhandle.StaticLocation(d)
	}
	opts := []urlhandle.Option{
		urlhandle.WithLogger(h.logger),
		urlhandle.WithLocation(loc),
	}
	if h.observer != nil {
		opts = append(opts, urlhandle.WithObserver(h.observer))
	}
	return opts
}
