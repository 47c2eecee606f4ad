package urlhandle

import (
	"encoding/json"
	"errors"
	"reflect"
	"testing"

	apperr "github.com/dalemusser/urlkit/errors"
)

func TestParseQuery(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want Params
	}{
		{"empty", "", Params{}},
		{"leading question mark", "?x=1&y=2", P("x", "1", "y", "2")},
		{"repeats keep order", "a=1&b=2&a=3", P("a", "1", "b", "2", "a", "3")},
		{"empty pairs skipped", "&&a=1&&", P("a", "1")},
		{"no equals", "flag&x=1", P("flag", "", "x", "1")},
		{"only first equals splits", "a=b=c", P("a", "b=c")},
		{"plus and escapes", "q=%2B+%2520", P("q", "+ %20")},
		{"malformed escape kept", "b=%zz&c=100%", P("b", "%zz", "c", "100%")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := ParseQuery(tt.raw)
			if got := q.Params(); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ParseQuery(%q) = %v, want %v", tt.raw, got, tt.want)
			}
		})
	}
}

func TestQuery_SetDelEncode(t *testing.T) {
	q := ParseQuery("a=1&b=2&a=3")

	q.Set("a", "x")
	if got := q.Encode(); got != "a=x&b=2" {
		t.Errorf("after Set existing: %q", got)
	}
	q.Set("c", "y z")
	if got := q.Encode(); got != "a=x&b=2&c=y+z" {
		t.Errorf("after Set new: %q", got)
	}
	q.Del("b")
	q.Del("missing")
	if got := q.Encode(); got != "a=x&c=y+z" {
		t.Errorf("after Del: %q", got)
	}
	if q.Len() != 2 {
		t.Errorf("Len() = %d, want 2", q.Len())
	}
	q.Reset()
	if got := q.Encode(); got != "" {
		t.Errorf("after Reset: %q", got)
	}
}

func TestQuery_ZeroValue(t *testing.T) {
	var q Query
	if _, ok := q.Get("a"); ok {
		t.Error("zero Query found a value")
	}
	q.Add("a", "1")
	q.Add("a", "2")
	if v, _ := q.Get("a"); v != "1" {
		t.Errorf("Get(a) = %q, want 1", v)
	}
	if !q.Has("a") || q.Has("b") {
		t.Error("Has reported wrong membership")
	}
}

func TestP(t *testing.T) {
	if got := P(); got == nil || len(got) != 0 {
		t.Errorf("P() = %#v, want empty non-nil", got)
	}
	want := Params{{Name: "a", Value: "1"}, {Name: "b", Value: ""}}
	if got := P("a", "1", "b"); !reflect.DeepEqual(got, want) {
		t.Errorf("P(a,1,b) = %v, want %v", got, want)
	}
	if got := want.Names(); !reflect.DeepEqual(got, []string{"a", "b"}) {
		t.Errorf("Names() = %v", got)
	}
}

func TestParamsFromMap(t *testing.T) {
	if ParamsFromMap(nil) != nil {
		t.Error("ParamsFromMap(nil) should be nil")
	}
	got := ParamsFromMap(map[string]string{"b": "2", "a": "1", "c": "3"})
	if want := P("a", "1", "b", "2", "c", "3"); !reflect.DeepEqual(got, want) {
		t.Errorf("ParamsFromMap = %v, want %v", got, want)
	}
}

func TestParams_UnmarshalJSON(t *testing.T) {
	var ps Params
	if err := json.Unmarshal([]byte(`{"b":"1","a":2,"c":true,"d":null,"e":"x y"}`), &ps); err != nil {
		t.Fatalf("Unmarshal error: %v", err)
	}
	want := P("b", "1", "a", "2", "c", "true", "d", "null", "e", "x y")
	if !reflect.DeepEqual(ps, want) {
		t.Errorf("Unmarshal = %v, want %v", ps, want)
	}

	var empty Params
	if err := json.Unmarshal([]byte(`{}`), &empty); err != nil {
		t.Fatalf("Unmarshal({}) error: %v", err)
	}
	if empty == nil || len(empty) != 0 {
		t.Errorf("Unmarshal({}) = %#v, want empty non-nil", empty)
	}
}

func TestParams_UnmarshalJSONRejectsNonObjects(t *testing.T) {
	tests := []struct {
		raw      string
		wantType string
	}{
		{`null`, "null"},
		{`[["a","1"]]`, "array"},
		{`"a=1"`, "string"},
		{`42`, "number"},
		{`false`, "boolean"},
		{`{"a":{"b":1}}`, "object"},
		{`{"a":[1,2]}`, "array"},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			var ps Params
			err := json.Unmarshal([]byte(tt.raw), &ps)
			if !errors.Is(err, ErrInvalidParameterSet) {
				t.Fatalf("error = %v, want ErrInvalidParameterSet", err)
			}
			if got := apperr.From(err).Details["type"]; got != tt.wantType {
				t.Errorf("type = %v, want %s", got, tt.wantType)
			}
		})
	}
}

func TestParams_UnmarshalJSONInStruct(t *testing.T) {
	var body struct {
		Params Params `json:"params"`
	}
	if err := json.Unmarshal([]byte(`{}`), &body); err != nil {
		t.Fatalf("absent field error: %v", err)
	}
	if body.Params != nil {
		t.Errorf("absent field = %v, want nil", body.Params)
	}

	err := json.Unmarshal([]byte(`{"params":null}`), &body)
	if !errors.Is(err, ErrInvalidParameterSet) {
		t.Errorf("null field error = %v, want ErrInvalidParameterSet", err)
	}
}
