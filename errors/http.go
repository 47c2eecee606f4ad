// errors/http.go
package errors

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"
)

// Response is the JSON structure returned for errors.
type Response struct {
	Error *Error `json:"error"`
}

// Write writes an error as JSON to the response.
// It sets the appropriate HTTP status code and Content-Type header.
func Write(w http.ResponseWriter, err error) {
	writeError(w, From(err))
}

// WriteWithLogger writes an error and logs internal errors.
func WriteWithLogger(w http.ResponseWriter, err error, logger *zap.Logger) {
	e := From(err)

	if e.HTTPStatus() >= 500 && logger != nil {
		logger.Error("internal error",
			zap.String("code", e.Code),
			zap.String("message", e.Message),
			zap.Error(e.Err),
		)
	}

	writeError(w, e)
}

func writeError(w http.ResponseWriter, e *Error) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(e.HTTPStatus())

	_ = json.NewEncoder(w).Encode(Response{Error: e})
}

// ErrorHandlerFunc is a handler function that returns an error.
// If the error is non-nil, it is written as JSON.
type ErrorHandlerFunc func(w http.ResponseWriter, r *http.Request) error

// WrapWithLogger converts an ErrorHandlerFunc to a standard http.HandlerFunc,
// logging internal errors.
func WrapWithLogger(h ErrorHandlerFunc, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := h(w, r); err != nil {
			WriteWithLogger(w, err, logger)
		}
	}
}
