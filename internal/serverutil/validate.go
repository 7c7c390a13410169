package serverutil

import (
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	seyerrs "github.com/jdholdren/pageturn/internal/errors"
)

// NewValidator returns a validator that names fields after their `query` tag, falling back to
// the `json` tag, so details point at what the caller actually sent.
func NewValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		for _, tag := range []string{"query", "json"} {
			name, _, _ := strings.Cut(f.Tag.Get(tag), ",")
			if name == "-" {
				return ""
			}
			if name != "" {
				return name
			}
		}
		return f.Name
	})

	return v
}

// Validate runs v over s and turns any failures into a 400 with one detail per field.
func Validate(v *validator.Validate, s any) error {
	err := v.Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("error validating: %s", err)
	}

	details := make([]seyerrs.Detail, 0, len(verrs))
	for _, fe := range verrs {
		details = append(details, seyerrs.Detail{Field: fe.Field(), Error: describe(fe)})
	}

	return seyerrs.E(http.StatusBadRequest, "invalid request", details)
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "number":
		return "must be a number"
	case "boolean":
		return "must be true or false"
	case "sortdirections":
		return "must be a comma separated list of 1 or -1"
	case "excluded_with":
		return "cannot be combined with " + strings.ToLower(fe.Param()[:1]) + fe.Param()[1:]
	default:
		if fe.Param() != "" {
			return fmt.Sprintf("failed %s=%s", fe.Tag(), fe.Param())
		}
		return "failed " + fe.Tag()
	}
}
