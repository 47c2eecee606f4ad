package api

import (
	"net/http"
	"testing"

	"github.com/dalemusser/urlkit/config"
	"github.com/dalemusser/urlkit/router"
	"github.com/dalemusser/urlkit/testutil"
	"github.com/dalemusser/urlkit/urlhandle"
)

func newTestRecorder(t *testing.T, urlCfg config.URLConfig, obs urlhandle.Observer) *testutil.Recorder {
	t.Helper()
	if urlCfg.MaxSteps == 0 {
		urlCfg.MaxSteps = 8
	}
	cfg := &config.CoreConfig{URL: urlCfg, MaxRequestBodyBytes: 1 << 16}
	r := router.New(cfg, testutil.TestLogger())
	New(urlCfg, testutil.TestLogger(), obs).Mount(r)
	return testutil.NewRecorder(t, r)
}

func TestTransform_SpecExamples(t *testing.T) {
	rec := newTestRecorder(t, config.URLConfig{}, nil)

	tests := []struct {
		name string
		body string
		want string
	}{
		{
			name: "remove then add",
			body: `{"url":"https://example.com/search?x=1","steps":[
				{"op":"remove","names":["x"]},
				{"op":"add","params":{"y":"2"}}]}`,
			want: "https://example.com/search?y=2",
		},
		{
			name: "add appends repeats",
			body: `{"url":"https://example.com/?a=1","steps":[{"op":"add","params":{"a":"2"}}]}`,
			want: "https://example.com/?a=1&a=2",
		},
		{
			name: "change keeps position",
			body: `{"url":"https://example.com/?a=1&b=2&a=3","steps":[{"op":"change","params":{"a":"x","c":"y"}}]}`,
			want: "https://example.com/?a=x&b=2&c=y",
		},
		{
			name: "replace",
			body: `{"url":"https://example.com/?a=1&b=2","steps":[{"op":"replace","names":["a","b"],"params":{"c":"3"}}]}`,
			want: "https://example.com/?c=3",
		},
		{
			name: "clean keeps fragment",
			body: `{"url":"https://example.com/p?a=1#top","steps":[{"op":"clean"}]}`,
			want: "https://example.com/p#top",
		},
		{
			name: "params keep object order",
			body: `{"url":"https://example.com/","steps":[{"op":"add","params":{"z":"1","a":"2","m":3}}]}`,
			want: "https://example.com/?z=1&a=2&m=3",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec.Post("/v1/transform").JSONString(tt.body).Do().
				StatusOK().
				ContentTypeJSON().
				JSONPathEquals("url", tt.want)
		})
	}
}

func TestTransform_GetAndBuildResults(t *testing.T) {
	rec := newTestRecorder(t, config.URLConfig{}, nil)

	resp := rec.Post("/v1/transform").JSONString(`{
		"url": "https://u:p@example.com/s?q=go&page=2#frag",
		"steps": [
			{"op": "get", "names": ["page", "missing", "q"]},
			{"op": "build", "params": {"q": "rust", "page": "1"}}
		]}`).Do().StatusOK()

	resp.JSONPathEquals("results.0.op", "get").
		JSONPathEquals("results.0.values.0.value", "2").
		JSONPathEquals("results.0.values.1.found", "false").
		JSONPathEquals("results.0.values.2.name", "q").
		JSONPathEquals("results.1.url", "https://example.com/s?q=rust&page=1").
		JSONPathEquals("url", "https://u:p@example.com/s?q=go&page=2#frag")
}

func TestTransform_URLFromRequest(t *testing.T) {
	rec := newTestRecorder(t, config.URLConfig{}, nil)

	rec.Post("https://api.example/v1/transform?keep=1").
		JSONString(`{"steps":[{"op":"add","params":{"x":"1"}}]}`).
		Do().StatusOK().
		JSONPathEquals("url", "https://api.example/v1/transform?keep=1&x=1")
}

func TestTransform_DefaultLocation(t *testing.T) {
	rec := newTestRecorder(t, config.URLConfig{DefaultLocation: "https://home.example/start?a=1"}, nil)

	rec.Post("/v1/transform").
		JSONString(`{"url":null,"steps":[{"op":"remove","names":["a"]}]}`).
		Do().StatusOK().
		JSONPathEquals("url", "https://home.example/start")
}

func TestTransform_Errors(t *testing.T) {
	rec := newTestRecorder(t, config.URLConfig{MaxSteps: 2}, nil)

	tests := []struct {
		name   string
		body   string
		status int
		code   string
	}{
		{"relative url", `{"url":"/path?x=1","steps":[{"op":"clean"}]}`, http.StatusBadRequest, "invalid_url"},
		{"number url", `{"url":123,"steps":[{"op":"clean"}]}`, http.StatusBadRequest, "invalid_url"},
		{"missing params", `{"url":"https://e.x/","steps":[{"op":"add"}]}`, http.StatusBadRequest, "invalid_parameter_set"},
		{"params array", `{"url":"https://e.x/","steps":[{"op":"add","params":[["a","1"]]}]}`, http.StatusBadRequest, "invalid_parameter_set"},
		{"names object", `{"url":"https://e.x/","steps":[{"op":"remove","names":{"a":1}}]}`, http.StatusBadRequest, "invalid_input"},
		{"unknown op", `{"url":"https://e.x/","steps":[{"op":"explode"}]}`, http.StatusBadRequest, "validation_failed"},
		{"no steps", `{"url":"https://e.x/","steps":[]}`, http.StatusBadRequest, "validation_failed"},
		{"too many steps", `{"url":"https://e.x/","steps":[{"op":"clean"},{"op":"clean"},{"op":"clean"}]}`, http.StatusBadRequest, "validation_failed"},
		{"unknown field", `{"url":"https://e.x/","steps":[{"op":"clean"}],"extra":1}`, http.StatusBadRequest, "bad_request"},
		{"malformed", `{"url":`, http.StatusBadRequest, "bad_request"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec.Post("/v1/transform").JSONString(tt.body).Do().
				Status(tt.status).
				ErrorCode(tt.code)
		})
	}
}

func TestTransform_ErrorDetails(t *testing.T) {
	rec := newTestRecorder(t, config.URLConfig{}, nil)

	rec.Post("/v1/transform").
		JSONString(`{"url":123,"steps":[{"op":"clean"}]}`).
		Do().StatusBadRequest().
		JSONPathEquals("error.details.variable", "url").
		JSONPathEquals("error.details.type", "number").
		JSONPathEquals("error.details.value", "123")

	rec.Post("/v1/transform").
		JSONString(`{"url":"https://e.x/","steps":[{"op":"clean"},{"op":"change"}]}`).
		Do().StatusBadRequest().
		ErrorCode("invalid_parameter_set").
		JSONPathEquals("error.details.step", "1").
		JSONPathEquals("error.details.op", "change")

	rec.Post("/v1/transform").
		JSONString(`{"url":"https://e.x/","steps":[{"op":"explode"}]}`).
		Do().StatusBadRequest().
		JSONPathEquals("error.details.errors.0.field", "steps[0].op").
		JSONPathEquals("error.details.errors.0.code", "oneof")
}

func TestTransform_RequiresJSON(t *testing.T) {
	rec := newTestRecorder(t, config.URLConfig{}, nil)

	rec.Post("/v1/transform").
		Header("Content-Type", "text/plain").
		BodyString(`{"steps":[{"op":"clean"}]}`).
		Do().Status(http.StatusUnsupportedMediaType).
		ErrorCode("unsupported_media_type")
}

func TestTransform_Observer(t *testing.T) {
	var ops []string
	obs := urlhandle.ObserverFunc(func(op string, err error) {
		if err == nil {
			ops = append(ops, op)
		}
	})
	rec := newTestRecorder(t, config.URLConfig{}, obs)

	rec.Post("/v1/transform").
		JSONString(`{"url":"https://e.x/?a=1","steps":[{"op":"remove","names":["a"]},{"op":"build","params":{}}]}`).
		Do().StatusOK()

	want := []string{urlhandle.OpNew, urlhandle.OpRemove, urlhandle.OpBuild}
	if len(ops) != len(want) {
		t.Fatalf("observed %v, want %v", ops, want)
	}
	for i := range want {
		if ops[i] != want[i] {
			t.Errorf("op %d = %q, want %q", i, ops[i], want[i])
		}
	}
}

func TestCurrent(t *testing.T) {
	rec := newTestRecorder(t, config.URLConfig{DefaultLocation: "https://ignored.example/"}, nil)

	resp := rec.Get("https://app.example/v1/current?b=2&a=1&drop=b&utm=x&drop=utm").Do().StatusOK()
	resp.JSONPathEquals("url", "https://app.example/v1/current?a=1").
		JSONPathEquals("params.0.0", "a").
		JSONPathEquals("params.0.1", "1").
		JSONPathEquals("clean", "https://app.example/v1/current")
	if n := len(resp.JSONPath("params").Array()); n != 1 {
		t.Errorf("params has %d entries, want 1", n)
	}
}

func TestCurrent_UntouchedQueryIsVerbatim(t *testing.T) {
	rec := newTestRecorder(t, config.URLConfig{}, nil)

	rec.Get("http://app.example/v1/current?q=a%20b&z=1").Do().StatusOK().
		JSONPathEquals("url", "http://app.example/v1/current?q=a%20b&z=1").
		JSONPathEquals("params.0.1", "a b")
}

func TestUnknownRoute(t *testing.T) {
	rec := newTestRecorder(t, config.URLConfig{}, nil)

	rec.Get("/v1/nope").Do().Status(http.StatusNotFound).ErrorCode("not_found")
	rec.Request(http.MethodDelete, "/v1/current").Do().Status(http.StatusMethodNotAllowed).ErrorCode("method_not_allowed")
}
