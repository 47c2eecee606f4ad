// server/server.go
package server

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"strconv"
	"syscall"

	"github.com/dalemusser/urlkit/config"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// errPermissiveKey marks a TLS key readable by group or others.
var errPermissiveKey = errors.New("overly permissive permissions")

// WithShutdownSignals returns a context that is canceled when the process
// receives SIGINT or SIGTERM. The returned cancel function also cleans up
// the signal handler.
func WithShutdownSignals(parent context.Context, logger *zap.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	go func() {
		select {
		case sig := <-sigCh:
			if logger != nil {
				logger.Info("shutdown signal received", zap.Any("signal", sig))
			}
			cancel()
		case <-ctx.Done():
		}
		// sigCh is left open; nothing reads it after Stop.
		signal.Stop(sigCh)
	}()

	return ctx, cancel
}

// ListenAndServeWithContext binds cfg.HTTP.HTTPPort, serving plain HTTP or,
// with use_https, TLS from cert_file/key_file, and blocks until ctx is
// canceled or the server fails.
//
// It does NOT wire any routes itself; callers provide a fully configured
// http.Handler (e.g., the router from router.New).
func ListenAndServeWithContext(
	ctx context.Context,
	cfg *config.CoreConfig,
	handler http.Handler,
	logger *zap.Logger,
) error {
	if cfg == nil {
		return fmt.Errorf("ListenAndServeWithContext: cfg is nil")
	}
	addr := ":" + strconv.Itoa(cfg.HTTP.HTTPPort)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", addr, err)
	}
	return Serve(ctx, cfg, ln, handler, logger)
}

// Serve is ListenAndServeWithContext on an existing listener. Serve takes
// ownership of ln and closes it before returning.
func Serve(
	ctx context.Context,
	cfg *config.CoreConfig,
	ln net.Listener,
	handler http.Handler,
	logger *zap.Logger,
) error {
	if cfg == nil {
		_ = ln.Close()
		return fmt.Errorf("Serve: cfg is nil")
	}
	if handler == nil {
		_ = ln.Close()
		return fmt.Errorf("Serve: handler is nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	srv := &http.Server{
		Handler:           handler,
		ReadTimeout:       cfg.HTTP.ReadTimeout,
		ReadHeaderTimeout: cfg.HTTP.ReadHeaderTimeout,
		WriteTimeout:      cfg.HTTP.WriteTimeout,
		IdleTimeout:       cfg.HTTP.IdleTimeout,
	}

	// Route stdlib error logs into zap at Warn level.
	if stdlog, err := zap.NewStdLogAt(logger, zapcore.WarnLevel); err == nil {
		srv.ErrorLog = stdlog
	} else {
		logger.Warn("failed to attach stdlib error logger", zap.Error(err))
	}

	if cfg.HTTP.UseHTTPS {
		tlsCfg, err := loadTLS(cfg, logger)
		if err != nil {
			_ = ln.Close()
			return err
		}
		srv.TLSConfig = tlsCfg
		ln = tls.NewListener(ln, tlsCfg)
		logger.Info("HTTPS server (manual TLS) listening",
			zap.String("addr", ln.Addr().String()),
			zap.String("cert_file", cfg.TLS.CertFile))
	} else {
		logger.Info("HTTP server listening", zap.String("addr", ln.Addr().String()))
	}

	serveErr := make(chan error, 1)
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
			return
		}
		serveErr <- nil
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutting down server…")
		// ctx is already canceled; the shutdown window is independent of it.
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown: %w", err)
		}
		logger.Info("server stopped gracefully")
		return nil

	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	}
}

func loadTLS(cfg *config.CoreConfig, logger *zap.Logger) (*tls.Config, error) {
	if cfg.TLS.CertFile == "" || cfg.TLS.KeyFile == "" {
		return nil, fmt.Errorf("use_https set but cert_file / key_file not provided")
	}
	if err := validateTLSFiles(cfg.TLS.CertFile, cfg.TLS.KeyFile); err != nil {
		if !errors.Is(err, errPermissiveKey) {
			return nil, err
		}
		if cfg.Env == "prod" {
			return nil, fmt.Errorf("production security: %w", err)
		}
		logger.Warn("TLS key file security warning (would block in prod)", zap.Error(err))
	}

	cert, err := tls.LoadX509KeyPair(cfg.TLS.CertFile, cfg.TLS.KeyFile)
	if err != nil {
		return nil, fmt.Errorf("load TLS cert/key: %w", err)
	}
	return &tls.Config{
		MinVersion:   tls.VersionTLS12,
		Certificates: []tls.Certificate{cert},
	}, nil
}

// validateTLSFiles checks that the certificate and key files exist, are
// regular files, and that the key is not readable by group or others.
func validateTLSFiles(certFile, keyFile string) error {
	if _, err := statFile("certificate", certFile); err != nil {
		return err
	}
	keyInfo, err := statFile("key", keyFile)
	if err != nil {
		return err
	}

	// Unix permission bits are meaningless on Windows.
	if runtime.GOOS != "windows" && keyInfo.Mode().Perm()&0o077 != 0 {
		return fmt.Errorf("TLS key file %s has %w %o (recommended: 0600)", keyFile, errPermissiveKey, keyInfo.Mode().Perm())
	}
	return nil
}

func statFile(kind, path string) (os.FileInfo, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("TLS %s file does not exist: %s", kind, path)
		}
		return nil, fmt.Errorf("cannot access TLS %s file %s: %w", kind, path, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("TLS %s path is a directory, not a file: %s", kind, path)
	}
	return info, nil
}
