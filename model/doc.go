// Package model describes data models: their schema, the built-in identity
// models and the record rules applied before a store sees a write.
package model
