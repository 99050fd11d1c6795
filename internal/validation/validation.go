package validation

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate *validator.Validate

func init() {
	validate = validator.New(validator.WithRequiredStructEnabled())
	validate.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
}

// FieldError describes one rejected field, named as it appears on the wire.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

// ValidationError carries every rejected field of a request.
type ValidationError struct {
	Details []FieldError
}

func (e *ValidationError) Error() string {
	fields := make([]string, 0, len(e.Details))
	for _, d := range e.Details {
		fields = append(fields, d.Field)
	}
	return "validation failed: " + strings.Join(fields, ", ")
}

// Invalid builds a single-field ValidationError for checks that struct
// tags cannot express.
func Invalid(field, message, code string) *ValidationError {
	return &ValidationError{Details: []FieldError{{Field: field, Message: message, Code: code}}}
}

// Struct validates dst using its validate tags.
func Struct(dst interface{}) error {
	if err := validate.Struct(dst); err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) {
			details := make([]FieldError, 0, len(validationErrors))
			for _, fe := range validationErrors {
				details = append(details, FieldError{
					Field:   fe.Field(),
					Message: message(fe),
					Code:    fe.Tag(),
				})
			}
			return &ValidationError{Details: details}
		}
		return err
	}
	return nil
}

func message(err validator.FieldError) string {
	switch err.Tag() {
	case "required":
		return "This field is required"
	case "email":
		return "Invalid email format"
	default:
		return "Invalid value"
	}
}
