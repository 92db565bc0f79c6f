package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// chatRequest is the body of POST /api/chat. A non-empty Response selects
// the storage path instead of the assistant.
type chatRequest struct {
	Message  string `json:"message" validate:"required"`
	Response string `json:"response" validate:"omitempty,max=20000"`
}

// FieldError is one entry of the "details" array in a 400 response.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type ValidationErrors []FieldError

func (v ValidationErrors) Error() string {
	parts := make([]string, 0, len(v))
	for _, fe := range v {
		parts = append(parts, fe.Message)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// RequestValidator wraps validator/v10 and reports fields by their json names.
type RequestValidator struct {
	validate *validator.Validate
}

func NewRequestValidator() *RequestValidator {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return &RequestValidator{validate: v}
}

// Struct validates s and returns ValidationErrors for field failures.
func (rv *RequestValidator) Struct(s any) error {
	err := rv.validate.Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}

	out := make(ValidationErrors, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		out = append(out, FieldError{Field: fe.Field(), Message: translate(fe)})
	}
	return out
}

// decodeErrors maps a body whose fields have the wrong JSON type to
// ValidationErrors. Syntax errors are not field failures and return false.
func decodeErrors(err error) (ValidationErrors, bool) {
	var typeErr *json.UnmarshalTypeError
	if !errors.As(err, &typeErr) || typeErr.Field == "" {
		return nil, false
	}
	return ValidationErrors{{
		Field:   typeErr.Field,
		Message: fmt.Sprintf("%s must be a %s", capitalize(typeErr.Field), typeErr.Type.Kind()),
	}}, true
}

// storagePath reports whether the body carries a response to store verbatim.
func (r chatRequest) storagePath() bool {
	return r.Response != ""
}

func translate(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", capitalize(fe.Field()))
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", capitalize(fe.Field()), fe.Param())
	default:
		return fmt.Sprintf("%s is invalid", capitalize(fe.Field()))
	}
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
