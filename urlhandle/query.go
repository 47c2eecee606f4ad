package urlhandle

import (
	"net/url"
	"strconv"
	"strings"
)

// Query is an ordered, multi-valued set of query parameters. Unlike
// url.Values it keeps the order in which pairs were added, so a URL that
// is parsed and re-encoded keeps its parameters where they were.
//
// The zero value is an empty query ready to use.
type Query struct {
	pairs []Param
}

// ParseQuery parses a raw query string (with or without a leading '?')
// using application/x-www-form-urlencoded rules:
//   - pairs are separated by '&'; empty pairs are skipped
//   - the first '=' separates name from value; a pair without '=' has an empty value
//   - '+' decodes to a space; valid %XX escapes are decoded
//   - malformed escapes are kept literally instead of failing the parse
func ParseQuery(raw string) Query {
	raw = strings.TrimPrefix(raw, "?")

	var q Query
	for raw != "" {
		var pair string
		pair, raw, _ = strings.Cut(raw, "&")
		if pair == "" {
			continue
		}
		name, value, _ := strings.Cut(pair, "=")
		q.pairs = append(q.pairs, Param{Name: decode(name), Value: decode(value)})
	}
	return q
}

// Len returns the number of pairs, counting repeated names.
func (q *Query) Len() int { return len(q.pairs) }

// Get returns the first value bound to name.
func (q *Query) Get(name string) (string, bool) {
	for _, p := range q.pairs {
		if p.Name == name {
			return p.Value, true
		}
	}
	return "", false
}

// GetAll returns every value bound to name, in order.
func (q *Query) GetAll(name string) []string {
	var out []string
	for _, p := range q.pairs {
		if p.Name == name {
			out = append(out, p.Value)
		}
	}
	return out
}

// Has reports whether name is bound at least once.
func (q *Query) Has(name string) bool {
	_, ok := q.Get(name)
	return ok
}

// Add appends a pair, keeping any existing values for name.
func (q *Query) Add(name, value string) {
	q.pairs = append(q.pairs, Param{Name: name, Value: value})
}

// Set binds name to exactly one value. The first existing pair for name
// keeps its position and takes the new value; later pairs for name are
// dropped. If name is absent the pair is appended.
func (q *Query) Set(name, value string) {
	found := false
	out := q.pairs[:0]
	for _, p := range q.pairs {
		if p.Name != name {
			out = append(out, p)
			continue
		}
		if !found {
			found = true
			out = append(out, Param{Name: name, Value: value})
		}
	}
	q.pairs = out
	if !found {
		q.pairs = append(q.pairs, Param{Name: name, Value: value})
	}
}

// Del removes every pair bound to name. Deleting an absent name is a no-op.
func (q *Query) Del(name string) {
	out := q.pairs[:0]
	for _, p := range q.pairs {
		if p.Name != name {
			out = append(out, p)
		}
	}
	q.pairs = out
}

// Reset removes every pair.
func (q *Query) Reset() { q.pairs = nil }

// Params returns a copy of the pairs in order. The result is never nil.
func (q *Query) Params() Params {
	out := make(Params, len(q.pairs))
	copy(out, q.pairs)
	return out
}

// Encode serializes the pairs in order, escaping names and values with
// url.QueryEscape. An empty query encodes to "".
func (q *Query) Encode() string {
	if len(q.pairs) == 0 {
		return ""
	}
	var b strings.Builder
	for i, p := range q.pairs {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(url.QueryEscape(p.Name))
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(p.Value))
	}
	return b.String()
}

func (q *Query) clone() Query {
	return Query{pairs: q.Params()}
}

// decode applies form decoding, falling back to a lenient pass that keeps
// malformed percent escapes as literal text.
func decode(s string) string {
	if d, err := url.QueryUnescape(s); err == nil {
		return d
	}
	return lenientDecode(s)
}

// lenientDecode performs application/x-www-form-urlencoded decoding without failing on malformed escapes.
// '+' -> space; valid %XX hex are decoded; invalid '%' sequences are kept literally.
func lenientDecode(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch c {
		case '+':
			out = append(out, ' ')
		case '%':
			if i+2 < len(s) && isHex(s[i+1]) && isHex(s[i+2]) {
				v, err := strconv.ParseUint(s[i+1:i+3], 16, 8)
				if err != nil {
					out = append(out, '%')
					continue
				}
				out = append(out, byte(v))
				i += 2
			} else {
				out = append(out, '%')
			}
		default:
			out = append(out, c)
		}
	}
	return string(out)
}

func isHex(c byte) bool {
	return ('0' <= c && c <= '9') || ('a' <= c && c <= 'f') || ('A' <= c && c <= 'F')
}
