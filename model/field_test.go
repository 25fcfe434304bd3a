package model

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/procwise/procwise/fault"
)

func TestFieldSpec_Normalize(t *testing.T) {
	testCases := []struct {
		name      string
		field     *FieldSpec
		value     interface{}
		expected  interface{}
		expectErr bool
	}{
		{
			name:     "text value",
			field:    &FieldSpec{ID: "title", Type: FieldTypeText, Label: "Título"},
			value:    "quarterly review",
			expected: "quarterly review",
		},
		{
			name:      "text rejects non-string",
			field:     &FieldSpec{ID: "title", Type: FieldTypeText, Label: "Título"},
			value:     42,
			expectErr: true,
		},
		{
			name:     "number from json float",
			field:    &FieldSpec{ID: "amount", Type: FieldTypeNumber, Label: "Valor"},
			value:    float64(1500.5),
			expected: float64(1500.5),
		},
		{
			name:     "number from string",
			field:    &FieldSpec{ID: "amount", Type: FieldTypeNumber, Label: "Valor"},
			value:    " 42 ",
			expected: float64(42),
		},
		{
			name:      "number rejects text",
			field:     &FieldSpec{ID: "amount", Type: FieldTypeNumber, Label: "Valor"},
			value:     "abc",
			expectErr: true,
		},
		{
			name:     "date plain layout",
			field:    &FieldSpec{ID: "due", Type: FieldTypeDate, Label: "Prazo"},
			value:    "2026-08-28",
			expected: "2026-08-28",
		},
		{
			name:     "date rfc3339",
			field:    &FieldSpec{ID: "due", Type: FieldTypeDate, Label: "Prazo"},
			value:    "2026-08-28T10:30:00Z",
			expected: "2026-08-28T10:30:00Z",
		},
		{
			name:      "date rejects garbage",
			field:     &FieldSpec{ID: "due", Type: FieldTypeDate, Label: "Prazo"},
			value:     "28/08/2026",
			expectErr: true,
		},
		{
			name:     "checkbox defaults to false",
			field:    &FieldSpec{ID: "urgent", Type: FieldTypeCheckbox, Label: "Urgente", Required: true},
			value:    nil,
			expected: false,
		},
		{
			name:     "checkbox true",
			field:    &FieldSpec{ID: "urgent", Type: FieldTypeCheckbox, Label: "Urgente"},
			value:    true,
			expected: true,
		},
		{
			name:     "select within options",
			field:    &FieldSpec{ID: "category", Type: FieldTypeSelect, Label: "Categoria", Options: []string{"viagem", "material"}},
			value:    "viagem",
			expected: "viagem",
		},
		{
			name:      "select outside options",
			field:     &FieldSpec{ID: "category", Type: FieldTypeSelect, Label: "Categoria", Options: []string{"viagem", "material"}},
			value:     "outro",
			expectErr: true,
		},
		{
			name:      "required missing",
			field:     &FieldSpec{ID: "title", Type: FieldTypeText, Label: "Título", Required: true},
			value:     nil,
			expectErr: true,
		},
		{
			name:      "required blank string",
			field:     &FieldSpec{ID: "title", Type: FieldTypeText, Label: "Título", Required: true},
			value:     "   ",
			expectErr: true,
		},
		{
			name:     "optional missing",
			field:    &FieldSpec{ID: "notes", Type: FieldTypeTextarea, Label: "Observações"},
			value:    nil,
			expected: nil,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			actual, err := tc.field.Normalize(tc.value)
			if tc.expectErr {
				var validation *fault.ValidationError
				assert.ErrorAs(t, err, &validation)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tc.expected, actual)
		})
	}
}

func TestNormalizeFormData(t *testing.T) {
	fields := []*FieldSpec{
		{ID: "amount", Type: FieldTypeNumber, Label: "Valor", Required: true},
		{ID: "urgent", Type: FieldTypeCheckbox, Label: "Urgente"},
		{ID: "notes", Type: FieldTypeTextarea, Label: "Observações"},
	}

	t.Run("canonical output", func(t *testing.T) {
		out, err := NormalizeFormData(fields, map[string]interface{}{
			"amount": "100",
			"urgent": true,
		})
		assert.NoError(t, err)
		assert.Equal(t, map[string]interface{}{"amount": float64(100), "urgent": true}, out)
	})

	t.Run("unknown key rejected", func(t *testing.T) {
		_, err := NormalizeFormData(fields, map[string]interface{}{
			"amount":  10,
			"smuggle": "x",
		})
		var validation *fault.ValidationError
		assert.ErrorAs(t, err, &validation)
		assert.Equal(t, "smuggle", validation.Field)
	})

	t.Run("missing required names the label", func(t *testing.T) {
		_, err := NormalizeFormData(fields, map[string]interface{}{})
		var validation *fault.ValidationError
		assert.ErrorAs(t, err, &validation)
		assert.Equal(t, "Valor", validation.Field)
	})
}

func TestFieldSpec_Validate(t *testing.T) {
	assert.Error(t, (&FieldSpec{Type: FieldTypeText, Label: "x"}).Validate())
	assert.Error(t, (&FieldSpec{ID: "f", Type: FieldTypeText}).Validate())
	assert.Error(t, (&FieldSpec{ID: "f", Type: FieldTypeSelect, Label: "x"}).Validate())
	assert.Error(t, (&FieldSpec{ID: "f", Type: "radio", Label: "x"}).Validate())
	assert.NoError(t, (&FieldSpec{ID: "f", Type: FieldTypeSelect, Label: "x", Options: []string{"a"}}).Validate())
}

func TestParseFieldType(t *testing.T) {
	parsed, err := ParseFieldType("number")
	assert.NoError(t, err)
	assert.Equal(t, FieldTypeNumber, parsed)

	_, err = ParseFieldType("radio")
	assert.Error(t, err)
}
