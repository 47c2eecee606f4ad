package app

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/dalemusser/urlkit/config"
	"go.uber.org/zap"
)

func TestRun_Sequence(t *testing.T) {
	var served bool
	hooks := Hooks{
		Name: "test",
		LoadConfig: func(*zap.Logger) (*config.CoreConfig, error) {
			return &config.CoreConfig{Env: "dev", LogLevel: "error"}, nil
		},
		BuildHandler: func(*config.CoreConfig, *zap.Logger) (http.Handler, error) {
			return http.NotFoundHandler(), nil
		},
		Serve: func(ctx context.Context, core *config.CoreConfig, h http.Handler, _ *zap.Logger) error {
			served = h != nil && core.LogLevel == "error"
			return nil
		},
	}
	if err := Run(context.Background(), hooks); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !served {
		t.Error("Serve was not called with the built handler and loaded config")
	}
}

func TestRun_ConfigError(t *testing.T) {
	boom := errors.New("boom")
	hooks := Hooks{
		LoadConfig: func(*zap.Logger) (*config.CoreConfig, error) { return nil, boom },
		BuildHandler: func(*config.CoreConfig, *zap.Logger) (http.Handler, error) {
			t.Error("BuildHandler called after config failure")
			return nil, nil
		},
	}
	if err := Run(context.Background(), hooks); !errors.Is(err, boom) {
		t.Errorf("Run error = %v, want wrapping boom", err)
	}
}

func TestRun_MissingHooks(t *testing.T) {
	if err := Run(context.Background(), Hooks{Name: "empty"}); err == nil {
		t.Error("Run with no hooks = nil, want error")
	}
}
