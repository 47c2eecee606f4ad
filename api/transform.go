package api

import (
	"encoding/json"
	"maps"
	"net/http"

	apperr "github.com/dalemusser/urlkit/errors"
	"github.com/dalemusser/urlkit/httputil"
	"github.com/dalemusser/urlkit/urlhandle"
	"go.uber.org/zap"
)

// TransformRequest is the body of POST /v1/transform.
type TransformRequest struct {
	// URL is any JSON value. Absent, null or "" means the current
	// location; a non-string value is rejected as invalid_url.
	URL   json.RawMessage `json:"url"`
	Steps []Step          `json:"steps" validate:"required,min=1,dive"`
}

// Step is one handle operation.
type Step struct {
	Op     string           `json:"op" validate:"required,oneof=get add remove replace change clean build"`
	Names  []string         `json:"names,omitempty"`
	Params urlhandle.Params `json:"params,omitempty"`
}

// StepResult reports what one step produced. Mutating steps report the
// URL after the step, build reports the built URL, get reports one
// lookup per requested name.
type StepResult struct {
	Op     string             `json:"op" yaml:"op"`
	URL    string             `json:"url,omitempty" yaml:"url,omitempty"`
	Values []urlhandle.Lookup `json:"values,omitempty" yaml:"values,omitempty"`
}

// TransformResponse is the body answered by POST /v1/transform.
type TransformResponse struct {
	URL     string       `json:"url" yaml:"url"`
	Results []StepResult `json:"results" yaml:"results"`
}

func (h *Handler) transform(w http.ResponseWriter, r *http.Request) error {
	var req TransformRequest
	if err := httputil.BindJSON(r, &req); err != nil {
		return err
	}
	if err := h.validateRequest(&req); err != nil {
		return err
	}

	hd, err := urlhandle.FromJSON(req.URL, h.handleOptions(r)...)
	if err != nil {
		return err
	}

	results := make([]StepResult, 0, len(req.Steps))
	for i, s := range req.Steps {
		res, err := ApplyStep(hd, s)
		if err != nil {
			return withStep(err, i, s.Op)
		}
		results = append(results, res)
	}

	h.logger.Debug("transform applied",
		zap.Int("steps", len(req.Steps)),
		zap.String("url", hd.Value()),
	)
	httputil.WriteJSON(w, http.StatusOK, TransformResponse{URL: hd.Value(), Results: results})
	return nil
}

// ApplyStep runs one step against hd, mutating it in place.
func ApplyStep(hd *urlhandle.Handle, s Step) (StepResult, error) {
	res := StepResult{Op: s.Op}
	var err error

	switch s.Op {
	case urlhandle.OpGet:
		res.Values = hd.GetEach(s.Names...)
		return res, nil
	case urlhandle.OpBuild:
		res.URL, err = hd.Build(s.Params)
		return res, err
	case urlhandle.OpAdd:
		_, err = hd.Add(s.Params)
	case urlhandle.OpRemove:
		hd.Remove(s.Names...)
	case urlhandle.OpReplace:
		_, err = hd.Replace(s.Names, s.Params)
	case urlhandle.OpChange:
		_, err = hd.Change(s.Params)
	case urlhandle.OpClean:
		hd.Clean()
	default:
		return res, apperr.Validation("unknown op").WithDetail("op", s.Op)
	}

	res.URL = hd.Value()
	return res, err
}

// withStep returns a copy of err's *Error annotated with the failing step,
// leaving shared sentinels untouched.
func withStep(err error, index int, op string) error {
	e := apperr.From(err)
	c := *e
	c.Details = maps.Clone(e.Details)
	return c.WithDetail("step", index).WithDetail("op", op)
}
