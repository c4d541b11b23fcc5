package errors

import (
	stderrors "errors"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
)

// FieldErrors maps a field name to what is wrong with it.
type FieldErrors map[string]string

func (f FieldErrors) Error() string {
	keys := make([]string, 0, len(f))
	for k := range f {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+f[k])
	}
	return strings.Join(parts, "; ")
}

// FromValidation converts validator errors into a VALIDATION_INVALID_INPUT
// AppError whose cause is the FieldErrors.
func FromValidation(err error) *AppError {
	var verrs validator.ValidationErrors
	if !stderrors.As(err, &verrs) {
		return Wrap(err, ValidationInvalidInput, "Some fields are invalid.")
	}

	fields := FieldErrors{}
	for _, e := range verrs {
		fields[e.Field()] = validationMessage(e)
	}
	return Wrap(fields, ValidationInvalidInput, fields.Error())
}

// Fields returns the per field messages carried by err, if any.
func Fields(err error) FieldErrors {
	var fields FieldErrors
	if stderrors.As(err, &fields) {
		return fields
	}
	return nil
}

func validationMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "This field is required"
	case "email":
		return "Invalid email format"
	case "min":
		if e.Type().Kind() == reflect.String {
			return "Must be at least " + e.Param() + " characters"
		}
		return "Must be at least " + e.Param()
	case "max":
		if e.Type().Kind() == reflect.String {
			return "Must be at most " + e.Param() + " characters"
		}
		return "Must be at most " + e.Param()
	case "eqfield":
		return "Does not match " + e.Param()
	case "oneof":
		return "Must be one of: " + e.Param()
	case "gte":
		return "Must be greater than or equal to " + e.Param()
	case "gt":
		return "Must be greater than " + e.Param()
	default:
		return "Invalid value"
	}
}
