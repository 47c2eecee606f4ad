// httputil/json.go
package httputil

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"

	apperr "github.com/dalemusser/urlkit/errors"
	"go.uber.org/zap"
)

// jsonLogger reports encoding failures that happen after headers are sent.
var jsonLogger = zap.NewNop()

// SetJSONLogger configures the logger used for JSON encoding errors.
// This should be called once during application startup.
func SetJSONLogger(logger *zap.Logger) {
	if logger != nil {
		jsonLogger = logger
	}
}

// WriteJSON writes a JSON response with the given status code.
// If encoding fails, the error is logged because headers and status have
// already been sent and we can't send another response.
//
// Invalid status codes (outside 100-599) are clamped to 500.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	if status < 100 || status > 599 {
		status = http.StatusInternalServerError
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		typeName := "nil"
		if v != nil {
			typeName = reflect.TypeOf(v).String()
		}
		jsonLogger.Error("json encoding failed after headers sent",
			zap.String("type", typeName), zap.Error(err))
	}
}

// BindJSON decodes the request body as JSON into v.
//
// Unknown fields, empty bodies, trailing values and malformed JSON are
// reported as *errors.Error with code bad_request. Errors returned by a
// field's UnmarshalJSON that already carry a code (for example
// invalid_parameter_set) are passed through unchanged so the client sees
// the precise failure.
//
// Example:
//
//	var req TransformRequest
//	if err := httputil.BindJSON(r, &req); err != nil {
//	    apperr.Write(w, err)
//	    return
//	}
func BindJSON(r *http.Request, v any) error {
	if r.Body == nil {
		return apperr.BadRequest("request body is empty")
	}
	defer r.Body.Close()

	// ContentLength semantics:
	//   0  = explicitly empty body → reject early
	//  -1  = chunked/unknown length → an empty body fails at decode with EOF
	if r.ContentLength == 0 {
		return apperr.BadRequest("request body is empty")
	}

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(v); err != nil {
		return parseJSONError(err)
	}

	if dec.More() {
		return apperr.BadRequest("request body contains multiple JSON values")
	}
	return nil
}

// parseJSONError converts json decoding errors into client-safe errors.
func parseJSONError(err error) error {
	if err == nil {
		return nil
	}

	// Coded errors raised by custom unmarshalers.
	var coded *apperr.Error
	if errors.As(err, &coded) {
		return coded
	}

	if errors.Is(err, io.EOF) {
		return apperr.BadRequest("request body is empty")
	}

	var syntaxErr *json.SyntaxError
	if errors.As(err, &syntaxErr) {
		return apperr.BadRequest(fmt.Sprintf("malformed JSON at position %d", syntaxErr.Offset))
	}

	if errors.Is(err, io.ErrUnexpectedEOF) {
		return apperr.BadRequest("malformed JSON: unexpected end of body")
	}

	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		return apperr.InvalidInput(fmt.Sprintf("invalid value for field %q: expected %s", typeErr.Field, typeErr.Type.String())).
			WithDetail("field", typeErr.Field).
			WithDetail("type", typeErr.Value)
	}

	// Error format: "json: unknown field \"fieldname\""
	if strings.HasPrefix(err.Error(), "json: unknown field") {
		field := strings.TrimPrefix(err.Error(), "json: unknown field ")
		field = strings.Trim(field, "\"")
		return apperr.BadRequest(fmt.Sprintf("unknown field %q", field)).WithDetail("field", field)
	}

	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		return apperr.New("request_too_large", "request body too large", http.StatusRequestEntityTooLarge)
	}

	return apperr.BadRequest("invalid JSON in request body")
}
