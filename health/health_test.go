package health

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/dalemusser/urlkit/testutil"
	"github.com/go-chi/chi/v5"
)

func TestHandler_Liveness(t *testing.T) {
	r := chi.NewRouter()
	Mount(r, nil, nil)

	testutil.NewRecorder(t, r).Get("/health").Do().
		StatusOK().
		JSONPathEquals("status", "ok")
}

func TestHandler_Checks(t *testing.T) {
	checks := map[string]Check{
		"ok":     func(context.Context) error { return nil },
		"broken": func(context.Context) error { return errors.New("bad location") },
	}
	logger, logs := testutil.ObservedLogger(0)

	testutil.NewRecorder(t, Handler(checks, logger)).Get("/health").Do().
		Status(http.StatusServiceUnavailable).
		JSONPathEquals("status", "error").
		JSONPathEquals("checks.ok", "ok").
		JSONPathEquals("checks.broken", "error: bad location")

	if logs.FilterMessage("health check failed").Len() != 1 {
		t.Errorf("expected one health check failure log, got %d", logs.Len())
	}
}
