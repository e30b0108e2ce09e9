// Package validation provides input validation for iotmarket.
//
// Struct tag validation (go-playground/validator) checks configuration
// records such as datasource options. Var checks a single value against a
// tag expression. The programmatic Validator collects field errors for
// payloads whose shape is only known at runtime, like model records.
//
// # Struct Tag Validation
//
//	type Options struct {
//	    Connector string `json:"connector" validate:"required"`
//	}
//	err := validation.Validate(opts)
//
// # Single Values
//
//	err := validation.Var("restApiRoot", root, "startswith=/")
//
// # Programmatic Validation
//
//	v := validation.New()
//	v.Required("name", name).Check(ok, "count", "must be a number")
//	if appErr := v.Validate(); appErr != nil { ... }
package validation
