// Command urlkitd serves URL handle transforms over HTTP.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"

	"github.com/dalemusser/urlkit/api"
	"github.com/dalemusser/urlkit/app"
	"github.com/dalemusser/urlkit/config"
	"github.com/dalemusser/urlkit/health"
	"github.com/dalemusser/urlkit/httputil"
	"github.com/dalemusser/urlkit/metrics"
	"github.com/dalemusser/urlkit/router"
	"github.com/dalemusser/urlkit/urlhandle"
	"github.com/dalemusser/urlkit/version"
	"go.uber.org/zap"
)

func main() {
	err := app.Run(context.Background(), app.Hooks{
		Name:         "urlkitd",
		LoadConfig:   config.Load,
		BuildHandler: buildHandler,
	})
	if err != nil {
		os.Exit(1)
	}
}

func buildHandler(core *config.CoreConfig, logger *zap.Logger) (http.Handler, error) {
	httputil.SetJSONLogger(logger)
	if logger.Core().Enabled(zap.DebugLevel) {
		logger.Debug("effective config", zap.String("config", core.Dump()))
	}

	r := router.New(core, logger)

	checks := map[string]health.Check{}
	if loc := core.URL.DefaultLocation; loc != "" {
		checks["default_location"] = func(context.Context) error {
			if _, err := urlhandle.FromLocation(urlhandle.StaticLocation(loc)); err != nil {
				return errors.New("default_location is not an absolute URL")
			}
			return nil
		}
	}
	health.Mount(r, checks, logger)
	version.Mount(r)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	api.New(core.URL, logger, metrics.HandleObserver{}).Mount(r)

	logger.Info("routes mounted",
		zap.String("version", version.String()),
		zap.Int("max_steps", core.URL.MaxSteps),
		zap.Bool("default_location", core.URL.DefaultLocation != ""),
	)
	return r, nil
}
