package server

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/dalemusser/urlkit/config"
	"go.uber.org/zap/zaptest"
)

func testConfig() *config.CoreConfig {
	cfg := &config.CoreConfig{Env: "dev"}
	cfg.HTTP.ReadTimeout = 5 * time.Second
	cfg.HTTP.ReadHeaderTimeout = 5 * time.Second
	cfg.HTTP.WriteTimeout = 5 * time.Second
	cfg.HTTP.IdleTimeout = 5 * time.Second
	cfg.HTTP.ShutdownTimeout = 5 * time.Second
	return cfg
}

func TestServe_ServesUntilCanceled(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	addr := ln.Addr().String()

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "ok")
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- Serve(ctx, testConfig(), ln, handler, zaptest.NewLogger(t)) }()

	resp, err := http.Get("http://" + addr + "/")
	if err != nil {
		cancel()
		t.Fatalf("GET: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if string(body) != "ok" {
		t.Errorf("body = %q, want ok", body)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Serve returned %v, want nil", err)
		}
	case <-time.After(10 * time.Second):
		t.Fatal("Serve did not return after cancel")
	}
}

func TestServe_RejectsNilHandler(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	if err := Serve(context.Background(), testConfig(), ln, nil, nil); err == nil {
		t.Error("Serve(nil handler) = nil, want error")
	}
}

func TestServe_HTTPSWithoutCerts(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	cfg := testConfig()
	cfg.HTTP.UseHTTPS = true
	if err := Serve(context.Background(), cfg, ln, http.NotFoundHandler(), nil); err == nil {
		t.Error("Serve(https without certs) = nil, want error")
	}
}

func TestValidateTLSFiles(t *testing.T) {
	dir := t.TempDir()
	cert := filepath.Join(dir, "cert.pem")
	key := filepath.Join(dir, "key.pem")
	if err := os.WriteFile(cert, []byte("cert"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(key, []byte("key"), 0o600); err != nil {
		t.Fatal(err)
	}

	if err := validateTLSFiles(cert, key); err != nil {
		t.Errorf("valid files: %v", err)
	}
	if err := validateTLSFiles(filepath.Join(dir, "missing.pem"), key); err == nil {
		t.Error("missing cert: want error")
	}
	if err := validateTLSFiles(cert, dir); err == nil {
		t.Error("key is a directory: want error")
	}

	if runtime.GOOS != "windows" {
		if err := os.Chmod(key, 0o644); err != nil {
			t.Fatal(err)
		}
		if err := validateTLSFiles(cert, key); !errors.Is(err, errPermissiveKey) {
			t.Errorf("permissive key: err = %v, want errPermissiveKey", err)
		}
	}
}
