package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/dalemusser/urlkit/urlhandle"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
)

func TestHandleObserver_CountsByResult(t *testing.T) {
	okBefore := testutil.ToFloat64(handleOps.WithLabelValues(urlhandle.OpAdd, "ok"))
	badBefore := testutil.ToFloat64(handleOps.WithLabelValues(urlhandle.OpAdd, "invalid_parameter_set"))
	newBefore := testutil.ToFloat64(handleOps.WithLabelValues(urlhandle.OpNew, "ok"))

	h, err := urlhandle.New("https://example.com/?a=1", urlhandle.WithObserver(HandleObserver{}))
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	h.Add(urlhandle.P("b", "2"))
	h.Add(nil)

	if got := testutil.ToFloat64(handleOps.WithLabelValues(urlhandle.OpNew, "ok")) - newBefore; got != 1 {
		t.Errorf("new/ok delta = %v, want 1", got)
	}
	if got := testutil.ToFloat64(handleOps.WithLabelValues(urlhandle.OpAdd, "ok")) - okBefore; got != 1 {
		t.Errorf("add/ok delta = %v, want 1", got)
	}
	if got := testutil.ToFloat64(handleOps.WithLabelValues(urlhandle.OpAdd, "invalid_parameter_set")) - badBefore; got != 1 {
		t.Errorf("add/invalid_parameter_set delta = %v, want 1", got)
	}
}

func TestHandleObserver_UncodedError(t *testing.T) {
	before := testutil.ToFloat64(handleOps.WithLabelValues("build", "internal_error"))
	HandleObserver{}.Observe("build", errors.New("boom"))
	if got := testutil.ToFloat64(handleOps.WithLabelValues("build", "internal_error")) - before; got != 1 {
		t.Errorf("delta = %v, want 1", got)
	}
}

func TestHTTPMetrics_UsesRoutePattern(t *testing.T) {
	r := chi.NewRouter()
	r.Use(HTTPMetrics)
	r.Get("/items/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	before := histogramCount(t, "/items/{id}", "GET", "418")
	req := httptest.NewRequest(http.MethodGet, "/items/42", nil)
	r.ServeHTTP(httptest.NewRecorder(), req)

	if got := histogramCount(t, "/items/{id}", "GET", "418") - before; got != 1 {
		t.Errorf("sample count delta = %d, want 1", got)
	}
	if got := histogramCount(t, "/items/42", "GET", "418"); got != 0 {
		t.Errorf("raw path recorded %d samples", got)
	}
}

func histogramCount(t *testing.T, labels ...string) uint64 {
	t.Helper()
	var m dto.Metric
	if err := reqDuration.WithLabelValues(labels...).(prometheus.Metric).Write(&m); err != nil {
		t.Fatalf("write metric: %v", err)
	}
	return m.GetHistogram().GetSampleCount()
}

func TestTruncateUTF8(t *testing.T) {
	tests := []struct {
		in   string
		max  int
		want string
	}{
		{"hello", 10, "hello"},
		{"hello", 3, "hel"},
		{"héllo", 2, "h"},
		{"abc", 0, ""},
	}
	for _, tt := range tests {
		if got := truncateUTF8(tt.in, tt.max); got != tt.want {
			t.Errorf("truncateUTF8(%q, %d) = %q, want %q", tt.in, tt.max, got, tt.want)
		}
	}
	if long := strings.Repeat("a", 300); len(truncateUTF8(long, maxPathLabelLength-3)) != maxPathLabelLength-3 {
		t.Error("long path not truncated")
	}
}
