package urlhandle

import (
	"net/http"
	"strings"
)

// LocationProvider supplies the "current location" used when a handle is
// constructed without an explicit URL.
type LocationProvider interface {
	Location() (string, error)
}

// StaticLocation is a LocationProvider that always returns the same URL.
type StaticLocation string

// Location implements LocationProvider.
func (s StaticLocation) Location() (string, error) {
	if strings.TrimSpace(string(s)) == "" {
		return "", ErrNoLocation
	}
	return string(s), nil
}

// LocationFunc adapts a function to LocationProvider.
type LocationFunc func() (string, error)

// Location implements LocationProvider.
func (f LocationFunc) Location() (string, error) { return f() }

// RequestLocation returns a LocationProvider for the absolute URL of an
// incoming request. The scheme comes from the TLS state or the
// X-Forwarded-Proto header, the host from r.Host.
func RequestLocation(r *http.Request) LocationProvider {
	return LocationFunc(func() (string, error) {
		if r == nil || r.URL == nil {
			return "", ErrNoLocation
		}
		host := r.Host
		if host == "" {
			host = r.URL.Host
		}
		if host == "" {
			return "", ErrNoLocation
		}

		path := r.URL.EscapedPath()
		if path == "" {
			path = "/"
		}
		s := schemeFromRequest(r) + "://" + host + path
		if q := r.URL.RawQuery; q != "" {
			s += "?" + q
		}
		return s, nil
	})
}

func schemeFromRequest(r *http.Request) string {
	if r.TLS != nil {
		return "https"
	}
	if xf := r.Header.Get("X-Forwarded-Proto"); xf != "" {
		// First hop wins when proxies append.
		xf, _, _ = strings.Cut(xf, ",")
		return strings.ToLower(strings.TrimSpace(xf))
	}
	return "http"
}

// FromRequest constructs a handle for the absolute URL of r, the server
// side counterpart of a browser's current location.
func FromRequest(r *http.Request, opts ...Option) (*Handle, error) {
	return FromLocation(RequestLocation(r), opts...)
}
