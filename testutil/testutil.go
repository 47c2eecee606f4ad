// Package testutil provides request builders and response assertions for
// handler tests. Query strings are kept verbatim because parameter order
// is significant to urlkit.
package testutil

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/tidwall/gjson"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// TestLogger returns a no-op logger.
func TestLogger() *zap.Logger {
	return zap.NewNop()
}

// ObservedLogger returns a logger recording entries at level and above,
// together with the recorded logs.
func ObservedLogger(level zapcore.Level) (*zap.Logger, *observer.ObservedLogs) {
	core, logs := observer.New(level)
	return zap.New(core), logs
}

// Recorder runs requests against a handler without starting a server.
type Recorder struct {
	t       *testing.T
	handler http.Handler
}

// NewRecorder creates a Recorder for handler.
func NewRecorder(t *testing.T, handler http.Handler) *Recorder {
	return &Recorder{t: t, handler: handler}
}

// Request starts a request. target may carry a query string and an
// absolute URL, e.g. "https://example.com/v1/current?b=2&a=1".
func (rec *Recorder) Request(method, target string) *Request {
	return &Request{rec: rec, method: method, target: target, header: make(http.Header)}
}

// Get creates a GET request.
func (rec *Recorder) Get(target string) *Request {
	return rec.Request(http.MethodGet, target)
}

// Post creates a POST request.
func (rec *Recorder) Post(target string) *Request {
	return rec.Request(http.MethodPost, target)
}

// Request builds one request.
type Request struct {
	rec    *Recorder
	method string
	target string
	header http.Header
	body   io.Reader
}

// Header sets a request header.
func (r *Request) Header(key, value string) *Request {
	r.header.Set(key, value)
	return r
}

// BodyString sets a raw body.
func (r *Request) BodyString(body string) *Request {
	r.body = strings.NewReader(body)
	return r
}

// JSONString sets a raw JSON body and its Content-Type. Raw text keeps
// object key order exactly as written.
func (r *Request) JSONString(body string) *Request {
	r.header.Set("Content-Type", "application/json")
	return r.BodyString(body)
}

// JSON marshals v as the body and sets the Content-Type.
func (r *Request) JSON(v any) *Request {
	r.rec.t.Helper()
	b, err := json.Marshal(v)
	if err != nil {
		r.rec.t.Fatalf("failed to marshal JSON: %v", err)
	}
	r.header.Set("Content-Type", "application/json")
	r.body = bytes.NewReader(b)
	return r
}

// Build creates the http.Request without executing it.
func (r *Request) Build() *http.Request {
	req := httptest.NewRequest(r.method, r.target, r.body)
	for k, v := range r.header {
		req.Header[k] = v
	}
	return req
}

// Do executes the request and returns the response.
func (r *Request) Do() *Response {
	t := r.rec.t
	t.Helper()

	w := httptest.NewRecorder()
	r.rec.handler.ServeHTTP(w, r.Build())

	resp := w.Result()
	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		t.Fatalf("failed to read response body: %v", err)
	}
	return &Response{Response: resp, Body: body, t: t}
}

// Response wraps http.Response with assertion methods.
type Response struct {
	*http.Response
	Body []byte
	t    *testing.T
}

// Status asserts the response status code.
func (r *Response) Status(code int) *Response {
	r.t.Helper()
	if r.StatusCode != code {
		r.t.Errorf("expected status %d, got %d\nBody: %s", code, r.StatusCode, r.Body)
	}
	return r
}

// StatusOK asserts 200 OK.
func (r *Response) StatusOK() *Response {
	return r.Status(http.StatusOK)
}

// StatusBadRequest asserts 400 Bad Request.
func (r *Response) StatusBadRequest() *Response {
	return r.Status(http.StatusBadRequest)
}

// HeaderContains asserts a header contains a substring.
func (r *Response) HeaderContains(key, substr string) *Response {
	r.t.Helper()
	if actual := r.Header.Get(key); !strings.Contains(actual, substr) {
		r.t.Errorf("expected header %s to contain %q, got %q", key, substr, actual)
	}
	return r
}

// ContentTypeJSON asserts Content-Type is application/json.
func (r *Response) ContentTypeJSON() *Response {
	return r.HeaderContains("Content-Type", "application/json")
}

// BodyContains asserts the body contains a substring.
func (r *Response) BodyContains(substr string) *Response {
	r.t.Helper()
	if !strings.Contains(string(r.Body), substr) {
		r.t.Errorf("expected body to contain %q, got %q", substr, r.Body)
	}
	return r
}

// JSONPath returns the value at a gjson path such as "error.code" or
// "results.0.value". Missing paths fail the test.
func (r *Response) JSONPath(path string) gjson.Result {
	r.t.Helper()
	if !gjson.ValidBytes(r.Body) {
		r.t.Fatalf("response body is not valid JSON: %s", r.Body)
	}
	res := gjson.GetBytes(r.Body, path)
	if !res.Exists() {
		r.t.Fatalf("path %q not found in %s", path, r.Body)
	}
	return res
}

// JSONPathEquals asserts the string form of the value at path.
func (r *Response) JSONPathEquals(path, expected string) *Response {
	r.t.Helper()
	if actual := r.JSONPath(path).String(); actual != expected {
		r.t.Errorf("expected %s=%q, got %q", path, expected, actual)
	}
	return r
}

// ErrorCode asserts the code of a JSON error envelope.
func (r *Response) ErrorCode(code string) *Response {
	r.t.Helper()
	return r.JSONPathEquals("error.code", code)
}

// String returns the response body as a string.
func (r *Response) String() string {
	return string(r.Body)
}
