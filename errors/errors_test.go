package errors

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/tidwall/gjson"
)

func TestError_IsMatchesByCode(t *testing.T) {
	sentinel := InvalidURL("invalid url")
	err := fmt.Errorf("wrapped: %w", InvalidURL("url {x: string} invalid").WithDetail("value", "x"))

	if !errors.Is(err, sentinel) {
		t.Error("errors with the same code should match")
	}
	if errors.Is(err, NoLocation("no current location")) {
		t.Error("errors with different codes should not match")
	}
}

func TestFrom(t *testing.T) {
	if From(nil) != nil {
		t.Error("From(nil) should be nil")
	}
	e := From(errors.New("disk on fire"))
	if e.Code != CodeInternalError || e.HTTPStatus() != http.StatusInternalServerError {
		t.Errorf("From(plain) = %+v", e)
	}
	if got := CodeOf(fmt.Errorf("ctx: %w", BadRequest("x"))); got != CodeBadRequest {
		t.Errorf("CodeOf = %q", got)
	}
	if got := CodeOf(errors.New("plain")); got != "" {
		t.Errorf("CodeOf(plain) = %q, want empty", got)
	}
}

func TestError_Unwrap(t *testing.T) {
	cause := errors.New("parse failure")
	e := InvalidURL("bad").Wrap(cause)
	if !errors.Is(e, cause) {
		t.Error("wrapped cause not reachable")
	}
	if got := e.Error(); got != "invalid_url: bad: parse failure" {
		t.Errorf("Error() = %q", got)
	}
}

func TestWrite(t *testing.T) {
	rec := httptest.NewRecorder()
	Write(rec, InvalidParameterSet("params {x: string} is a required object").WithDetail("type", "string"))

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d", rec.Code)
	}
	body := rec.Body.String()
	if gjson.Get(body, "error.code").String() != CodeInvalidParameterSet {
		t.Errorf("body = %s", body)
	}
	if gjson.Get(body, "error.details.type").String() != "string" {
		t.Errorf("details missing: %s", body)
	}
	if gjson.Get(body, "error.status").Exists() {
		t.Errorf("status leaked into JSON: %s", body)
	}
}

func TestValidationErrors(t *testing.T) {
	v := NewValidationErrors()
	if v.ToError() != nil {
		t.Error("empty ValidationErrors should convert to nil")
	}
	v.AddWithCode("steps", "is required", "required")
	e := v.ToError()
	if e.Code != CodeValidationFailed || e.HTTPStatus() != http.StatusBadRequest {
		t.Errorf("ToError = %+v", e)
	}
	if got := v.Error(); got != "validation failed: steps: is required" {
		t.Errorf("Error() = %q", got)
	}
}

func TestWrapWithLogger(t *testing.T) {
	h := WrapWithLogger(func(w http.ResponseWriter, r *http.Request) error {
		return NotFound("nothing here")
	}, nil)

	rec := httptest.NewRecorder()
	h(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}
