package model

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/procwise/procwise/fault"
)

// FieldType enumerates the supported dynamic form field kinds.
type FieldType string

const (
	FieldTypeText     FieldType = "text"
	FieldTypeNumber   FieldType = "number"
	FieldTypeDate     FieldType = "date"
	FieldTypeCheckbox FieldType = "checkbox"
	FieldTypeTextarea FieldType = "textarea"
	FieldTypeSelect   FieldType = "select"
)

// dateLayouts accepted for date fields, most specific first.
var dateLayouts = []string{time.RFC3339, "2006-01-02"}

// FieldSpec declares one dynamic form field of a step.
type FieldSpec struct {
	ID       string    `json:"id" yaml:"id"`
	Type     FieldType `json:"type" yaml:"type"`
	Label    string    `json:"label" yaml:"label"`
	Required bool      `json:"required" yaml:"required"`

	// Options is the closed value set for select fields; unused otherwise.
	Options []string `json:"options,omitempty" yaml:"options,omitempty"`
}

// Validate checks the field declaration itself, not a submitted value.
func (f *FieldSpec) Validate() error {
	if f.ID == "" {
		return fault.NewValidation("field id is required")
	}
	if f.Label == "" {
		return fault.NewFieldValidation(f.ID, "field label is required")
	}
	switch f.Type {
	case FieldTypeText, FieldTypeNumber, FieldTypeDate, FieldTypeCheckbox, FieldTypeTextarea:
	case FieldTypeSelect:
		if len(f.Options) == 0 {
			return fault.NewFieldValidation(f.Label, "select field requires options")
		}
	default:
		return fault.NewFieldValidation(f.Label, "unsupported field type %q", f.Type)
	}
	return nil
}

// Normalize coerces and checks one submitted value against the field
// declaration. It returns the canonical representation to persist. A nil
// value with Required=true fails, except for checkbox which is never empty
// and defaults to false.
func (f *FieldSpec) Normalize(value interface{}) (interface{}, error) {
	if f.Type == FieldTypeCheckbox {
		return normalizeBool(f, value)
	}
	if isEmpty(value) {
		if f.Required {
			return nil, fault.NewFieldValidation(f.Label, "value is required")
		}
		return nil, nil
	}
	switch f.Type {
	case FieldTypeText, FieldTypeTextarea:
		s, ok := value.(string)
		if !ok {
			return nil, fault.NewFieldValidation(f.Label, "expected text value")
		}
		return s, nil
	case FieldTypeNumber:
		return normalizeNumber(f, value)
	case FieldTypeDate:
		return normalizeDate(f, value)
	case FieldTypeSelect:
		s, ok := value.(string)
		if !ok {
			return nil, fault.NewFieldValidation(f.Label, "expected option value")
		}
		for _, option := range f.Options {
			if s == option {
				return s, nil
			}
		}
		return nil, fault.NewFieldValidation(f.Label, "value %q is not a valid option", s)
	}
	return nil, fault.NewFieldValidation(f.Label, "unsupported field type %q", f.Type)
}

func normalizeBool(f *FieldSpec, value interface{}) (interface{}, error) {
	switch actual := value.(type) {
	case nil:
		return false, nil
	case bool:
		return actual, nil
	case string:
		parsed, err := strconv.ParseBool(actual)
		if err != nil {
			return nil, fault.NewFieldValidation(f.Label, "expected boolean value")
		}
		return parsed, nil
	}
	return nil, fault.NewFieldValidation(f.Label, "expected boolean value")
}

func normalizeNumber(f *FieldSpec, value interface{}) (interface{}, error) {
	switch actual := value.(type) {
	case float64:
		return actual, nil
	case float32:
		return float64(actual), nil
	case int:
		return float64(actual), nil
	case int64:
		return float64(actual), nil
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(actual), 64)
		if err != nil {
			return nil, fault.NewFieldValidation(f.Label, "value %q is not a number", actual)
		}
		return parsed, nil
	}
	return nil, fault.NewFieldValidation(f.Label, "value is not a number")
}

func normalizeDate(f *FieldSpec, value interface{}) (interface{}, error) {
	s, ok := value.(string)
	if !ok {
		return nil, fault.NewFieldValidation(f.Label, "expected ISO date string")
	}
	for _, layout := range dateLayouts {
		if _, err := time.Parse(layout, s); err == nil {
			return s, nil
		}
	}
	return nil, fault.NewFieldValidation(f.Label, "value %q is not an ISO date", s)
}

// isEmpty reports whether a submitted value counts as missing for required
// field checks.
func isEmpty(value interface{}) bool {
	switch actual := value.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(actual) == ""
	}
	return false
}

// NormalizeFormData validates the whole submission against the given fields
// and returns the canonical map to persist. Unknown keys are rejected so a
// submission cannot smuggle data past the schema. The error, if any, names
// the first offending field label; nothing is partially normalized.
func NormalizeFormData(fields []*FieldSpec, formData map[string]interface{}) (map[string]interface{}, error) {
	known := make(map[string]bool, len(fields))
	out := make(map[string]interface{}, len(fields))
	for _, field := range fields {
		known[field.ID] = true
		normalized, err := field.Normalize(formData[field.ID])
		if err != nil {
			return nil, err
		}
		if normalized != nil {
			out[field.ID] = normalized
		}
	}
	for key := range formData {
		if !known[key] {
			return nil, fault.NewFieldValidation(key, "unknown form field")
		}
	}
	return out, nil
}

func (t FieldType) String() string { return string(t) }

// ParseFieldType converts a raw string into a FieldType.
func ParseFieldType(raw string) (FieldType, error) {
	t := FieldType(raw)
	switch t {
	case FieldTypeText, FieldTypeNumber, FieldTypeDate, FieldTypeCheckbox, FieldTypeTextarea, FieldTypeSelect:
		return t, nil
	}
	return "", fmt.Errorf("unsupported field type %q", raw)
}
