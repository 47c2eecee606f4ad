package api

import (
	"errors"
	"fmt"
	"strings"

	apperr "github.com/dalemusser/urlkit/errors"
	"github.com/go-playground/validator/v10"
)

// validateRequest runs the struct tags on req and the configured step limit.
func (h *Handler) validateRequest(req *TransformRequest) error {
	verrs := apperr.NewValidationErrors()

	if err := h.validate.Struct(req); err != nil {
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			return apperr.Internal("request validation failed").Wrap(err)
		}
		for _, fe := range fieldErrs {
			verrs.AddWithCode(fieldPath(fe), fieldMessage(fe), fe.Tag())
		}
	}
	if max := h.urlCfg.MaxSteps; max > 0 && len(req.Steps) > max {
		verrs.AddWithCode("steps", fmt.Sprintf("at most %d steps are allowed", max), "max")
	}

	if e := verrs.ToError(); e != nil {
		return e
	}
	return nil
}

// fieldPath turns "TransformRequest.steps[0].op" into "steps[0].op".
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if _, rest, ok := strings.Cut(ns, "."); ok {
		return rest
	}
	return ns
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		return "must have at least " + fe.Param() + " item(s)"
	case "oneof":
		return "must be one of: " + fe.Param()
	default:
		return "failed " + fe.Tag() + " validation"
	}
}
