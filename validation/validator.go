package validation

import (
	"fmt"
	"slices"
	"strings"

	"github.com/google/uuid"

	"github.com/kbukum/iotmarket/errors"
)

// FieldError is one problem found with one field of a record.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e FieldError) String() string { return e.Field + ": " + e.Message }

// Validator collects every field error of a record so they can be reported
// together. Checks chain:
//
//	v := validation.New().Required("name", name).OneOf("connector", c, known)
type Validator struct {
	errs []FieldError
}

// New returns an empty Validator.
func New() *Validator {
	return &Validator{}
}

// AddError records a field error.
func (v *Validator) AddError(field, message string) *Validator {
	v.errs = append(v.errs, FieldError{Field: field, Message: message})
	return v
}

// HasErrors reports whether any check failed.
func (v *Validator) HasErrors() bool { return len(v.errs) > 0 }

// Errors returns the recorded field errors in the order they were found.
func (v *Validator) Errors() []FieldError { return v.errs }

// Required fails when value is empty or blank.
func (v *Validator) Required(field, value string) *Validator {
	if strings.TrimSpace(value) == "" {
		return v.AddError(field, "is required")
	}
	return v
}

// OneOf fails when value is not in allowed. An empty value is left to
// Required.
func (v *Validator) OneOf(field, value string, allowed []string) *Validator {
	if value == "" || slices.Contains(allowed, value) {
		return v
	}
	return v.AddError(field, fmt.Sprintf("%q is not one of: %s", value, strings.Join(allowed, ", ")))
}

// Check records message against field unless ok holds.
func (v *Validator) Check(ok bool, field, message string) *Validator {
	if !ok {
		return v.AddError(field, message)
	}
	return v
}

// Validate folds the recorded errors into one INVALID_INPUT error carrying
// them under the "fields" detail. It returns nil when every check passed.
func (v *Validator) Validate() *errors.AppError {
	if !v.HasErrors() {
		return nil
	}
	parts := make([]string, len(v.errs))
	for i, e := range v.errs {
		parts[i] = e.String()
	}
	return errors.Validation(strings.Join(parts, "; ")).WithDetail("fields", v.errs)
}

// ValidateUUID parses a record id. An empty id is MISSING_FIELD and a
// malformed one INVALID_FORMAT.
func ValidateUUID(field, value string) (uuid.UUID, error) {
	if strings.TrimSpace(value) == "" {
		return uuid.Nil, errors.MissingField(field)
	}
	id, err := uuid.Parse(value)
	if err != nil {
		return uuid.Nil, errors.InvalidFormat(field, "UUID").WithCause(err)
	}
	return id, nil
}
