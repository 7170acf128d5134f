package validate

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
)

// SanitizationPolicy is a policy for sanitizing user input
var SanitizationPolicy = bluemonday.UGCPolicy()

// ValidationMap is a map of field names to their values and validation tags
type ValidationMap map[string]ValField

type ValField struct {
	Value any
	Tag   string
}

func WithTag(value any, tag string) ValField {
	return ValField{Value: value, Tag: tag}
}

// RegisterCustomValidators adds our custom validators to a validator instance
func RegisterCustomValidators(v *validator.Validate) {
	v.RegisterStructValidation(ConnectionPaginationParamsValidator, ConnectionPaginationParams{})
}

// ConnectionPaginationParams are the cursor-pagination inputs validated as a pair
type ConnectionPaginationParams struct {
	First *int
	Last  *int
}

// ConnectionPaginationParamsValidator requires exactly one of first or last
func ConnectionPaginationParamsValidator(sl validator.StructLevel) {
	params := sl.Current().Interface().(ConnectionPaginationParams)

	if params.First == nil && params.Last == nil {
		sl.ReportError(params.First, "First", "first", "firstorlast", "")
	}

	if params.First != nil && params.Last != nil {
		sl.ReportError(params.First, "First", "first", "firstorlast", "")
	}
}

// ValidateFields validates each entry of the map against its tag, returning
// an error that names every failing parameter
func ValidateFields(v *validator.Validate, fields ValidationMap) error {
	var failures []string

	for name, field := range fields {
		if err := v.Var(field.Value, field.Tag); err != nil {
			failures = append(failures, fmt.Sprintf("parameter: %s, reason: %s", name, err))
		}
	}

	if len(failures) > 0 {
		return ErrInvalidFields{Failures: failures}
	}

	return nil
}

// ErrInvalidFields is a validation failure across one or more fields
type ErrInvalidFields struct {
	Failures []string
}

func (e ErrInvalidFields) Error() string {
	return fmt.Sprintf("invalid input:\n    %s", strings.Join(e.Failures, "\n    "))
}
