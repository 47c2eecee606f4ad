package version

import (
	"runtime"
	"testing"

	"github.com/dalemusser/urlkit/testutil"
	"github.com/go-chi/chi/v5"
)

func TestHandler(t *testing.T) {
	r := chi.NewRouter()
	Mount(r)

	testutil.NewRecorder(t, r).Get("/version").Do().
		StatusOK().
		ContentTypeJSON().
		JSONPathEquals("version", Version).
		JSONPathEquals("go_version", runtime.Version())
}

func TestString(t *testing.T) {
	v, c, b := Version, Commit, BuildTime
	t.Cleanup(func() { Version, Commit, BuildTime = v, c, b })

	Version = "dev"
	if got := String(); got != "dev" {
		t.Errorf("String() = %q, want dev", got)
	}

	Version, Commit, BuildTime = "1.2.3", "abc123", "2026-01-15T10:30:00Z"
	if got, want := String(), "1.2.3 (abc123, built 2026-01-15T10:30:00Z)"; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}
