// Package errors provides unified error handling for iotmarket.
// It implements structured error types with error codes, HTTP status mapping,
// and helpers to classify the two fatal boot failures: validation errors
// and backend registration errors.
package errors
