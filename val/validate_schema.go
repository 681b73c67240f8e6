package val

import (
	"errors"
	"fmt"
	"reflect"
	"slices"
	"strings"

	"github.com/code19m/errx"
	"github.com/go-playground/validator/v10"
)

const (
	CodeValidationFailed = "VALIDATION_FAILED"
)

// ValidateSchema validates a struct using its `validate` tags.
//
// On failure it returns an errx validation error whose fields map the path
// of each failing field to a description. Nested fields use dotted paths.
func ValidateSchema(schema any) error {
	err := getValidator().Struct(schema)
	if err == nil {
		return nil
	}

	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		fields := make(errx.M)
		for _, fieldErr := range validationErrors {
			fields[fieldPath(fieldErr)] = describe(fieldErr)
		}

		return errx.New(
			"Validation failed. See fields for details.",
			errx.WithCode(CodeValidationFailed),
			errx.WithType(errx.T_Validation),
			errx.WithFields(fields),
		)
	}

	return errx.New(
		fmt.Sprintf("Unknown validation error: %s", err.Error()),
		errx.WithCode(CodeValidationFailed),
		errx.WithType(errx.T_Validation),
	)
}

// fieldPath returns the dotted path of the failing field below the root
// struct, e.g. "billing.city" or "items[0].name".
func fieldPath(fieldErr validator.FieldError) string {
	ns := fieldErr.Namespace()
	if _, path, ok := strings.Cut(ns, "."); ok {
		return path
	}
	return ns
}

// Messages flattens an error returned by ValidateSchema into
// "field: description" lines sorted by field. Errors without fields yield
// their message.
func Messages(err error) []string {
	if err == nil {
		return nil
	}

	e := errx.AsErrorX(err)
	fields := e.Fields()
	if len(fields) == 0 {
		return []string{err.Error()}
	}

	msgs := make([]string, 0, len(fields))
	for field, desc := range fields {
		msgs = append(msgs, field+": "+desc)
	}
	slices.Sort(msgs)
	return msgs
}

//nolint:gochecknoglobals // static lookup
var plainDescriptions = map[string]string{
	"required":    "This field is required",
	"email":       "Invalid email format",
	"url":         "Must be a valid URL",
	"uuid":        "Must be a valid UUID",
	"alpha":       "Must contain only alphabetic characters",
	"alphanum":    "Must contain only alphanumeric characters",
	"numeric":     "Must be a valid number",
	"ip":          "Must be a valid IP address",
	"json":        "Must be valid JSON",
	"boolean":     "Must be a boolean value",
	"lowercase":   "Must be lowercase",
	"uppercase":   "Must be uppercase",
	"credit_card": "Must be a valid credit card number",
}

//nolint:gochecknoglobals // static lookup
var paramDescriptions = map[string]string{
	"gte":         "Must be greater than or equal to %s",
	"lte":         "Must be less than or equal to %s",
	"gt":          "Must be greater than %s",
	"lt":          "Must be less than %s",
	"containsany": "Must contain at least one of: %s",
	"excludes":    "Must not contain: %s",
	"startswith":  "Must start with: %s",
	"endswith":    "Must end with: %s",
	"datetime":    "Must be a valid datetime in format: %s",
	"eqfield":     "Must be equal to %s",
	"nefield":     "Must not be equal to %s",
}

func describe(fieldErr validator.FieldError) string {
	tag, param := fieldErr.Tag(), fieldErr.Param()
	isString := fieldErr.Kind() == reflect.String

	switch tag {
	case "min":
		if isString {
			return fmt.Sprintf("Must be at least %s characters", param)
		}
		return fmt.Sprintf("Must be at least %s", param)
	case "max":
		if isString {
			return fmt.Sprintf("Must be at most %s characters", param)
		}
		return fmt.Sprintf("Must be at most %s", param)
	case "len":
		if isString {
			return fmt.Sprintf("Must be exactly %s characters", param)
		}
		return fmt.Sprintf("Must have exactly %s items", param)
	case "oneof":
		return fmt.Sprintf("Must be one of: %s", strings.ReplaceAll(param, " ", ", "))
	}

	if desc, ok := plainDescriptions[tag]; ok {
		return desc
	}
	if format, ok := paramDescriptions[tag]; ok {
		return fmt.Sprintf(format, param)
	}
	return fmt.Sprintf("Failed validation: %s", tag)
}
