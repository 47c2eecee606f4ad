// app/app.go
package app

import (
	"context"
	"fmt"
	"net/http"

	"github.com/dalemusser/urlkit/config"
	"github.com/dalemusser/urlkit/logging"
	"github.com/dalemusser/urlkit/metrics"
	"github.com/dalemusser/urlkit/server"
	"go.uber.org/zap"
)

// Hooks defines the integration points a service provides to Run.
type Hooks struct {
	// Name is used only for logging/diagnostics.
	Name string

	// LoadConfig returns the core config, typically via config.Load.
	LoadConfig func(logger *zap.Logger) (*config.CoreConfig, error)

	// BuildHandler constructs the final http.Handler: router, middleware
	// and routes.
	BuildHandler func(core *config.CoreConfig, logger *zap.Logger) (http.Handler, error)

	// Serve runs the handler until ctx is canceled. Nil means
	// server.ListenAndServeWithContext.
	Serve func(ctx context.Context, core *config.CoreConfig, handler http.Handler, logger *zap.Logger) error
}

// Run executes the standard startup sequence:
//
//  1. Bootstrap logger
//  2. Load config (Hooks.LoadConfig)
//  3. Build final logger based on config
//  4. Register default metrics
//  5. Wire shutdown signals to a context
//  6. Build the HTTP handler (Hooks.BuildHandler)
//  7. Serve until shutdown
func Run(ctx context.Context, hooks Hooks) error {
	bootstrap := logging.BootstrapLogger()
	defer bootstrap.Sync()
	bootstrap.Info("bootstrap logger initialized", zap.String("app", hooks.Name))

	if hooks.LoadConfig == nil || hooks.BuildHandler == nil {
		return fmt.Errorf("app %q: LoadConfig and BuildHandler are required", hooks.Name)
	}

	coreCfg, err := hooks.LoadConfig(bootstrap)
	if err != nil {
		bootstrap.Error("config load failed", zap.Error(err))
		return fmt.Errorf("load config: %w", err)
	}
	bootstrap.Info("config loaded",
		zap.String("env", coreCfg.Env),
		zap.String("log_level", coreCfg.LogLevel),
	)

	logger, err := logging.BuildLogger(coreCfg.LogLevel, coreCfg.Env)
	if err != nil {
		bootstrap.Error("logger build failed", zap.Error(err))
		return fmt.Errorf("build logger: %w", err)
	}
	defer logger.Sync()
	logger.Info("logger initialized", zap.String("app", hooks.Name))

	metrics.RegisterDefault(logger)

	ctx, cancel := server.WithShutdownSignals(ctx, logger)
	defer cancel()

	handler, err := hooks.BuildHandler(coreCfg, logger)
	if err != nil {
		logger.Error("handler build failed", zap.Error(err))
		return fmt.Errorf("build handler: %w", err)
	}

	serve := hooks.Serve
	if serve == nil {
		serve = server.ListenAndServeWithContext
	}
	if err := serve(ctx, coreCfg, handler, logger); err != nil {
		logger.Error("server exited with error", zap.Error(err))
		return err
	}
	logger.Info("server stopped")
	return nil
}
