// Package urlhandle wraps a URL and exposes operations to read, add,
// remove, replace, change and clean its query parameters, and to build
// new URLs from the handle's origin and path.
//
// A Handle is mutated in place and its mutators return the handle so
// calls can be chained:
//
//	h, err := urlhandle.New("https://example.com/search?x=1")
//	if err != nil {
//	    return err
//	}
//	h.Remove("x")
//	if _, err := h.Add(urlhandle.P("y", "2")); err != nil {
//	    return err
//	}
//	h.Value() // "https://example.com/search?y=2"
//
// Handles are not safe for concurrent use; use Clone to hand a copy to
// another goroutine.
package urlhandle

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	apperr "github.com/dalemusser/urlkit/errors"
	"go.uber.org/zap"
)

// Operation names reported to observers and logs.
const (
	OpNew     = "new"
	OpGet     = "get"
	OpAdd     = "add"
	OpRemove  = "remove"
	OpReplace = "replace"
	OpChange  = "change"
	OpBuild   = "build"
	OpClean   = "clean"
)

// Handle tracks one absolute URL and its query parameters.
//
// The zero Handle is the unset state: it holds no URL, reads report
// nothing found, Remove and Clean do nothing, and Add, Change, Replace
// and Build fail with ErrUnsetHandle.
type Handle struct {
	base  *url.URL // query stripped
	query Query

	// rawQuery is the query as parsed; it is emitted verbatim until the
	// first mutation so an untouched handle round-trips its input.
	rawQuery string
	dirty    bool

	logger   *zap.Logger
	observer Observer
}

// Lookup is one result of GetEach.
type Lookup struct {
	Name  string `json:"name"`
	Value string `json:"value"`
	Found bool   `json:"found"`
}

// New parses raw as an absolute URL. An empty raw means "current
// location" and is resolved through the provider given by WithLocation.
func New(raw string, opts ...Option) (*Handle, error) {
	o := buildOptions(opts)
	if raw == "" {
		return fromProvider(o)
	}
	return parse(raw, raw, "string", o)
}

// From constructs a handle from a dynamically typed value, for inputs
// whose type is only known at run time:
//   - nil means "current location", like New("")
//   - string is parsed as in New
//   - *url.URL, url.URL and fmt.Stringer are parsed from their string form
//
// Any other type fails with ErrInvalidURL recording the value and its type.
func From(v any, opts ...Option) (*Handle, error) {
	o := buildOptions(opts)
	switch t := v.(type) {
	case nil:
		return fromProvider(o)
	case string:
		if t == "" {
			return fromProvider(o)
		}
		return parse(t, t, "string", o)
	case *url.URL:
		if t == nil {
			return fromProvider(o)
		}
		return parse(t.String(), t, "*url.URL", o)
	case url.URL:
		s := t.String()
		return parse(s, s, "url.URL", o)
	case fmt.Stringer:
		return parse(t.String(), t, fmt.Sprintf("%T", t), o)
	default:
		return nil, o.fail(OpNew, invalidURL(v, fmt.Sprintf("%T", v), nil))
	}
}

// FromJSON constructs a handle from a raw JSON value. An empty message or
// null means "current location"; a JSON string is parsed as in New; any
// other JSON type fails with ErrInvalidURL naming the JSON type.
func FromJSON(raw json.RawMessage, opts ...Option) (*Handle, error) {
	o := buildOptions(opts)
	text := strings.TrimSpace(string(raw))
	if text == "" || text == "null" {
		return fromProvider(o)
	}

	if text[0] != '"' {
		dec := json.NewDecoder(strings.NewReader(text))
		dec.UseNumber()
		tok, _ := dec.Token()
		return nil, o.fail(OpNew, invalidURL(text, jsonTypeOf(tok), nil))
	}

	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, o.fail(OpNew, invalidURL(text, "string", err))
	}
	if s == "" {
		return fromProvider(o)
	}
	return parse(s, s, "string", o)
}

// FromLocation constructs a handle from the URL a provider reports.
func FromLocation(p LocationProvider, opts ...Option) (*Handle, error) {
	return New("", append(opts, WithLocation(p))...)
}

func fromProvider(o options) (*Handle, error) {
	if o.location == nil {
		return nil, o.fail(OpNew, ErrNoLocation)
	}
	loc, err := o.location.Location()
	if err != nil {
		return nil, o.fail(OpNew, apperr.NoLocation("current location unavailable").Wrap(err))
	}
	return parse(loc, loc, "location", o)
}

func parse(raw string, orig any, typ string, o options) (*Handle, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return nil, o.fail(OpNew, invalidURL(orig, typ, err))
	}
	if !isAbsolute(u) {
		return nil, o.fail(OpNew, invalidURL(orig, typ, nil))
	}

	h := &Handle{
		query:    ParseQuery(u.RawQuery),
		rawQuery: u.RawQuery,
		logger:   o.logger,
		observer: o.observer,
	}
	u.RawQuery = ""
	u.ForceQuery = false
	h.base = u

	h.observe(OpNew, nil)
	return h, nil
}

// schemes whose URLs are meaningless without a host
var hostRequired = map[string]bool{
	"http": true, "https": true, "ws": true, "wss": true, "ftp": true,
}

func isAbsolute(u *url.URL) bool {
	if u.Scheme == "" {
		return false
	}
	if hostRequired[strings.ToLower(u.Scheme)] {
		return u.Host != ""
	}
	return u.Opaque != "" || u.Host != "" || u.Path != ""
}

// Valid reports whether the handle holds a URL.
func (h *Handle) Valid() bool {
	return h != nil && h.base != nil
}

// Get returns the first value bound to name.
func (h *Handle) Get(name string) (string, bool) {
	if !h.Valid() {
		return "", false
	}
	return h.query.Get(name)
}

// GetEach looks up each name in order. The result has one entry per
// input name, in the same order, including repeats and missing names.
func (h *Handle) GetEach(names ...string) []Lookup {
	out := make([]Lookup, len(names))
	for i, n := range names {
		v, ok := h.Get(n)
		out[i] = Lookup{Name: n, Value: v, Found: ok}
	}
	return out
}

// GetAll returns every value bound to name, in order.
func (h *Handle) GetAll(name string) []string {
	if !h.Valid() {
		return nil
	}
	return h.query.GetAll(name)
}

// Has reports whether name is present in the query.
func (h *Handle) Has(name string) bool {
	_, ok := h.Get(name)
	return ok
}

// Params returns a copy of the current query parameters in order.
func (h *Handle) Params() Params {
	if !h.Valid() {
		return Params{}
	}
	return h.query.Params()
}

// Add appends every pair of params to the query. Existing values for the
// same names are kept. A nil params fails with ErrInvalidParameterSet and
// leaves the handle unchanged.
func (h *Handle) Add(params Params) (*Handle, error) {
	return h.add(OpAdd, params)
}

func (h *Handle) add(op string, params Params) (*Handle, error) {
	if !h.Valid() {
		return h, h.fail(op, unsetHandle(op))
	}
	if params == nil {
		return h, h.fail(op, invalidParams("params", "<nil>", "nil"))
	}
	for _, p := range params {
		h.query.Add(p.Name, p.Value)
	}
	h.touch(op, len(params) > 0)
	return h, nil
}

// Remove deletes every value bound to each name. Names that are not
// present are ignored.
func (h *Handle) Remove(names ...string) *Handle {
	h.remove(OpRemove, names)
	return h
}

func (h *Handle) remove(op string, names []string) {
	if !h.Valid() {
		return
	}
	changed := false
	for _, n := range names {
		if h.query.Has(n) {
			h.query.Del(n)
			changed = true
		}
	}
	h.touch(op, changed)
}

// Replace removes names and then adds params, as Remove followed by Add.
// The two steps are not atomic: if params is invalid the removal has
// already been applied when the error is returned.
func (h *Handle) Replace(names []string, params Params) (*Handle, error) {
	if !h.Valid() {
		return h, h.fail(OpReplace, unsetHandle(OpReplace))
	}
	h.remove(OpReplace, names)
	return h.add(OpReplace, params)
}

// Change sets each name in params to its value, replacing all prior
// values for that name. A name already present keeps the position of its
// first occurrence; new names are appended. If params repeats a name the
// last value wins.
func (h *Handle) Change(params Params) (*Handle, error) {
	if !h.Valid() {
		return h, h.fail(OpChange, unsetHandle(OpChange))
	}
	if params == nil {
		return h, h.fail(OpChange, invalidParams("params", "<nil>", "nil"))
	}
	for _, p := range params {
		h.query.Set(p.Name, p.Value)
	}
	h.touch(OpChange, len(params) > 0)
	return h, nil
}

// Clean removes the whole query string. The fragment is kept.
func (h *Handle) Clean() *Handle {
	if !h.Valid() {
		return h
	}
	h.query.Reset()
	h.touch(OpClean, true)
	return h
}

// Build returns a new URL made of the handle's scheme, host and path with
// params as its only query parameters (appended in order). The handle's
// own query, fragment and user info are not carried over and the handle
// is not modified.
func (h *Handle) Build(params Params) (string, error) {
	if !h.Valid() {
		return "", h.fail(OpBuild, unsetHandle(OpBuild))
	}
	if params == nil {
		return "", h.fail(OpBuild, invalidParams("params", "<nil>", "nil"))
	}

	u := &url.URL{
		Scheme:  h.base.Scheme,
		Opaque:  h.base.Opaque,
		Host:    h.base.Host,
		Path:    h.base.Path,
		RawPath: h.base.RawPath,
	}
	if u.Host != "" && u.Path == "" {
		u.Path = "/"
	}

	var q Query
	for _, p := range params {
		q.Add(p.Name, p.Value)
	}
	u.RawQuery = q.Encode()

	h.observe(OpBuild, nil)
	return u.String(), nil
}

// Value returns the current URL with all mutations applied. The unset
// handle returns "".
func (h *Handle) Value() string {
	if !h.Valid() {
		return ""
	}
	u := *h.base
	if h.dirty {
		u.RawQuery = h.query.Encode()
	} else {
		u.RawQuery = h.rawQuery
	}
	return u.String()
}

// String implements fmt.Stringer.
func (h *Handle) String() string { return h.Value() }

// URL returns a parsed copy of the current URL, or nil for the unset handle.
func (h *Handle) URL() *url.URL {
	if !h.Valid() {
		return nil
	}
	u, err := url.Parse(h.Value())
	if err != nil {
		return nil
	}
	return u
}

// Clone returns an independent copy of the handle.
func (h *Handle) Clone() *Handle {
	if h == nil {
		return nil
	}
	c := *h
	if h.base != nil {
		b := *h.base
		if h.base.User != nil {
			ui := *h.base.User
			b.User = &ui
		}
		c.base = &b
	}
	c.query = h.query.clone()
	return &c
}

func (h *Handle) touch(op string, changed bool) {
	if changed {
		h.dirty = true
	}
	h.log().Debug("url handle mutated",
		zap.String("op", op),
		zap.Bool("changed", changed),
		zap.String("url", h.Value()),
	)
	h.observe(op, nil)
}

func (h *Handle) observe(op string, err error) {
	if h != nil && h.observer != nil {
		h.observer.Observe(op, err)
	}
}

func (h *Handle) log() *zap.Logger {
	if h == nil || h.logger == nil {
		return zap.NewNop()
	}
	return h.logger
}

func (h *Handle) fail(op string, err error) error {
	o := options{logger: h.log()}
	if h != nil {
		o.observer = h.observer
	}
	return o.fail(op, err)
}

// fail logs err on the diagnostic channel, notifies the observer and
// returns err unchanged.
func (o options) fail(op string, err error) error {
	fields := []zap.Field{zap.String("op", op), zap.Error(err)}
	if e := apperr.From(err); e != nil {
		fields = append(fields, zap.String("code", e.Code))
		for _, k := range []string{"variable", "expected", "value", "type"} {
			if v, ok := e.Details[k]; ok {
				fields = append(fields, zap.Any(k, v))
			}
		}
	}
	if o.logger != nil {
		o.logger.Warn(op+": "+err.Error(), fields...)
	}
	if o.observer != nil {
		o.observer.Observe(op, err)
	}
	return err
}
