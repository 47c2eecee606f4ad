package urlhandle

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"

	apperr "github.com/dalemusser/urlkit/errors"
)

// Param is a single name/value pair of a query string.
type Param struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Params is an ordered parameter set used as input to Add, Change,
// Replace and Build. Order is significant: pairs are applied in the
// order they appear.
//
// A nil Params is not a parameter set and is rejected by every
// operation that takes one; an empty non-nil Params is a valid no-op.
type Params []Param

// P builds Params from alternating names and values:
//
//	urlhandle.P("page", "2", "sort", "name")
//
// A trailing name without a value is bound to "". P never returns nil.
func P(kv ...string) Params {
	out := make(Params, 0, (len(kv)+1)/2)
	for i := 0; i < len(kv); i += 2 {
		p := Param{Name: kv[i]}
		if i+1 < len(kv) {
			p.Value = kv[i+1]
		}
		out = append(out, p)
	}
	return out
}

// ParamsFromMap converts a map into Params with keys in sorted order,
// since map iteration order is not stable. A nil map yields nil Params.
func ParamsFromMap(m map[string]string) Params {
	if m == nil {
		return nil
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make(Params, 0, len(keys))
	for _, k := range keys {
		out = append(out, Param{Name: k, Value: m[k]})
	}
	return out
}

// Names returns the parameter names in order, including repeats.
func (ps Params) Names() []string {
	out := make([]string, len(ps))
	for i, p := range ps {
		out[i] = p.Name
	}
	return out
}

// UnmarshalJSON decodes a JSON object into Params, preserving key order.
// Scalar values are kept as their text (strings unquoted, numbers and
// booleans verbatim, null as "null"). Anything that is not an object,
// and objects holding nested objects or arrays, fail with an
// invalid_parameter_set error recording the observed JSON type.
func (ps *Params) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return apperr.InvalidParameterSet("params: malformed JSON").Wrap(err)
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return invalidParams("params", string(bytes.TrimSpace(data)), jsonTypeOf(tok))
	}

	out := make(Params, 0)
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return apperr.InvalidParameterSet("params: malformed JSON").Wrap(err)
		}
		key, _ := keyTok.(string)

		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return apperr.InvalidParameterSet("params: malformed JSON").Wrap(err)
		}
		value, err := scalarText(key, raw)
		if err != nil {
			return err
		}
		out = append(out, Param{Name: key, Value: value})
	}
	if _, err := dec.Token(); err != nil {
		return apperr.InvalidParameterSet("params: malformed JSON").Wrap(err)
	}

	*ps = out
	return nil
}

func scalarText(key string, raw json.RawMessage) (string, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return "", nil
	}
	switch raw[0] {
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return "", apperr.InvalidParameterSet("params: malformed JSON string").Wrap(err)
		}
		return s, nil
	case '{':
		return "", invalidParams("params."+key, string(raw), "object")
	case '[':
		return "", invalidParams("params."+key, string(raw), "array")
	default:
		// numbers, true, false, null
		return string(raw), nil
	}
}

func jsonTypeOf(tok json.Token) string {
	switch t := tok.(type) {
	case nil:
		return "null"
	case json.Delim:
		if t == '[' {
			return "array"
		}
		return "object"
	case string:
		return "string"
	case json.Number, float64:
		return "number"
	case bool:
		return "boolean"
	default:
		return fmt.Sprintf("%T", tok)
	}
}
