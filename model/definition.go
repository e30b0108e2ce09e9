package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cast"

	"github.com/kbukum/iotmarket/validation"
)

// IDField is the primary key every stored record carries. Stores assign it.
const IDField = "id"

// FieldType is the closed set of property types a model may declare.
type FieldType string

const (
	TypeString  FieldType = "string"
	TypeNumber  FieldType = "number"
	TypeBoolean FieldType = "boolean"
	TypeDate    FieldType = "date"
	TypeObject  FieldType = "object"
	TypeArray   FieldType = "array"
)

var fieldTypes = []FieldType{TypeString, TypeNumber, TypeBoolean, TypeDate, TypeObject, TypeArray}

// Valid reports whether t is one of the supported field types.
func (t FieldType) Valid() bool {
	for _, ft := range fieldTypes {
		if t == ft {
			return true
		}
	}
	return false
}

// Field declares one property of a model.
type Field struct {
	Name     string    `json:"name"`
	Type     FieldType `json:"type"`
	Required bool      `json:"required,omitempty"`
	// Hidden fields are stored but never returned over REST.
	Hidden  bool `json:"hidden,omitempty"`
	Default any  `json:"default,omitempty"`
	// DefaultFn computes a default at write time and wins over Default.
	DefaultFn func() any `json:"-"`
}

// Definition is the schema of a model: its name, REST plural and fields.
type Definition struct {
	Name   string  `json:"name"`
	Plural string  `json:"plural"`
	Fields []Field `json:"fields"`
}

// Define builds a definition with the default plural ("feed" -> "feeds",
// "ACL" -> "ACLs").
func Define(name string, fields ...Field) (Definition, error) {
	def := Definition{Name: name, Plural: Pluralize(name), Fields: fields}
	if err := def.Validate(); err != nil {
		return Definition{}, err
	}
	return def, nil
}

// MustDefine is Define for package-level built-ins; it panics on a bad schema.
func MustDefine(name string, fields ...Field) Definition {
	def, err := Define(name, fields...)
	if err != nil {
		panic(err)
	}
	return def
}

// Pluralize returns the REST collection name for a model name.
func Pluralize(name string) string {
	if name == "" {
		return ""
	}
	switch {
	case strings.HasSuffix(name, "s"), strings.HasSuffix(name, "x"), strings.HasSuffix(name, "sh"), strings.HasSuffix(name, "ch"):
		return name + "es"
	case strings.HasSuffix(name, "y") && len(name) > 1 && !strings.ContainsRune("aeiou", rune(name[len(name)-2])):
		return name[:len(name)-1] + "ies"
	}
	return name + "s"
}

// Validate checks the schema itself.
func (d Definition) Validate() error {
	v := validation.New().Required("name", d.Name).Required("plural", d.Plural)
	seen := make(map[string]bool, len(d.Fields))
	for i, f := range d.Fields {
		path := fmt.Sprintf("fields[%d]", i)
		v.Required(path+".name", f.Name)
		v.Check(f.Name != IDField, path+".name", "id is reserved")
		v.Check(!seen[f.Name], path+".name", "duplicate field "+f.Name)
		v.Check(f.Type.Valid(), path+".type", fmt.Sprintf("unsupported type %q", f.Type))
		seen[f.Name] = true
	}
	if appErr := v.Validate(); appErr != nil {
		return appErr.WithDetail("model", d.Name)
	}
	return nil
}

// Field returns the named field.
func (d Definition) Field(name string) (Field, bool) {
	for _, f := range d.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// FieldNames lists the declared fields in declaration order.
func (d Definition) FieldNames() []string {
	names := make([]string, len(d.Fields))
	for i, f := range d.Fields {
		names[i] = f.Name
	}
	return names
}

// Prepare validates an incoming record and returns the value to store:
// undeclared keys (including id) are dropped, defaults filled and dates
// normalised to RFC 3339 text.
func (d Definition) Prepare(record map[string]any) (map[string]any, error) {
	out := make(map[string]any, len(d.Fields))
	v := validation.New()

	for _, f := range d.Fields {
		val, ok := record[f.Name]
		if !ok || val == nil {
			switch {
			case f.DefaultFn != nil:
				val, ok = f.DefaultFn(), true
			case f.Default != nil:
				val, ok = f.Default, true
			}
		}
		if !ok || val == nil {
			v.Check(!f.Required, f.Name, "is required")
			continue
		}
		norm, err := normalize(f.Type, val)
		if err != nil {
			v.AddError(f.Name, err.Error())
			continue
		}
		if f.Required && f.Type == TypeString {
			v.Required(f.Name, norm.(string))
		}
		out[f.Name] = norm
	}

	if appErr := v.Validate(); appErr != nil {
		return nil, appErr.WithDetail("model", d.Name)
	}
	return out, nil
}

// Public returns a copy of record without hidden fields.
func (d Definition) Public(record map[string]any) map[string]any {
	out := make(map[string]any, len(record))
	for k, val := range record {
		if f, ok := d.Field(k); ok && f.Hidden {
			continue
		}
		out[k] = val
	}
	return out
}

func normalize(t FieldType, val any) (any, error) {
	switch t {
	case TypeString:
		if s, ok := val.(string); ok {
			return s, nil
		}
	case TypeNumber:
		if _, isBool := val.(bool); isBool {
			break
		}
		if f, err := cast.ToFloat64E(val); err == nil {
			return f, nil
		}
	case TypeBoolean:
		if b, ok := val.(bool); ok {
			return b, nil
		}
	case TypeDate:
		switch val.(type) {
		case time.Time, string:
			if ts, err := cast.ToTimeE(val); err == nil {
				return ts.UTC().Format(time.RFC3339Nano), nil
			}
		}
	case TypeObject:
		if m, ok := val.(map[string]any); ok {
			return m, nil
		}
	case TypeArray:
		if a, ok := val.([]any); ok {
			return a, nil
		}
	}
	return nil, fmt.Errorf("must be a %s", t)
}
