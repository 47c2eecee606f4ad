package urlhandle

import (
	"fmt"

	apperr "github.com/dalemusser/urlkit/errors"
)

// Sentinels for errors.Is. Matching is by code, so any error produced by
// this package with the same code matches regardless of its details.
var (
	ErrInvalidURL          = apperr.InvalidURL("invalid url")
	ErrInvalidParameterSet = apperr.InvalidParameterSet("invalid parameter set")
	ErrNoLocation          = apperr.NoLocation("no current location")
	ErrUnsetHandle         = apperr.UnsetHandle("handle is unset")
)

func invalidURL(value any, typ string, cause error) *apperr.Error {
	e := apperr.InvalidURL(fmt.Sprintf("url {%v: %s} invalid", value, typ)).
		WithDetail("variable", "url").
		WithDetail("expected", "absolute URL string").
		WithDetail("value", fmt.Sprint(value)).
		WithDetail("type", typ)
	if cause != nil {
		e.Wrap(cause)
	}
	return e
}

func invalidParams(variable string, value any, typ string) *apperr.Error {
	return apperr.InvalidParameterSet(fmt.Sprintf("%s {%v: %s} is a required object", variable, value, typ)).
		WithDetail("variable", variable).
		WithDetail("expected", "object").
		WithDetail("value", fmt.Sprint(value)).
		WithDetail("type", typ)
}

func unsetHandle(op string) *apperr.Error {
	return apperr.UnsetHandle(op + ": handle has no URL").WithDetail("op", op)
}
