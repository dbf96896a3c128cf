package schema

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var (
	ErrValidation   = errors.New("schema validation failed")
	ErrUnknownField = errors.New("unknown field")
	ErrMissingField = errors.New("missing required field")
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "" {
			return fld.Name
		}
		return name
	})

	v.RegisterValidation("wellcolor", func(fl validator.FieldLevel) bool {
		_, err := Color(fl.Field().String()).RGBA()
		return err == nil
	})
	v.RegisterValidation("hatch", func(fl validator.FieldLevel) bool {
		return Hatch(fl.Field().String()).Valid()
	})

	return v
}

// Validate checks a record (or a whole WellSchema) against its constraints.
func Validate(rec any) error {
	switch r := rec.(type) {
	case *WellSchema:
		return r.Validate()
	case WellSchema:
		return r.Validate()
	case *Completion:
		return r.Validate()
	case Completion:
		return r.Validate()
	}
	return checkStruct(rec)
}

// Validate checks every record in the tree.
func (w *WellSchema) Validate() error {
	if err := checkStruct(w); err != nil {
		return err
	}
	for i, c := range w.Completion {
		if err := c.Validate(); err != nil {
			return fmt.Errorf("completion[%d] (%s): %w", i, c.Kind, err)
		}
	}
	return nil
}

func checkStruct(rec any) error {
	err := validate.Struct(rec)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fieldMessage(fe))
	}
	return fmt.Errorf("%w: %s", ErrValidation, strings.Join(msgs, "; "))
}

func fieldMessage(fe validator.FieldError) string {
	field := fieldPath(fe.Namespace())
	param := strings.ToLower(fe.Param())

	switch fe.Tag() {
	case "gt":
		return fmt.Sprintf("%s must be greater than %s (got %v)", field, param, fe.Value())
	case "gtefield":
		return fmt.Sprintf("%s must not be above %s (got %v)", field, param, fe.Value())
	case "ltfield":
		return fmt.Sprintf("%s must be less than %s (got %v)", field, param, fe.Value())
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "min":
		return fmt.Sprintf("%s must contain at least %s item(s)", field, param)
	case "wellcolor":
		return fmt.Sprintf("%s: invalid color %q", field, fe.Value())
	case "hatch":
		return fmt.Sprintf("%s: unknown hatch %q", field, fe.Value())
	}
	return fmt.Sprintf("%s failed %s", field, fe.Tag())
}

// fieldPath drops the root type name and embedded Section hops from a
// validator namespace, e.g. "WellSchema.casings[0].Section.bottom" becomes
// "casings[0].bottom".
func fieldPath(ns string) string {
	parts := strings.Split(ns, ".")
	if len(parts) > 1 {
		parts = parts[1:]
	}
	out := parts[:0]
	for _, p := range parts {
		if p != "Section" {
			out = append(out, p)
		}
	}
	return strings.Join(out, ".")
}
