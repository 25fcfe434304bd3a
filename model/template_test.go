package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func testTemplate() *Template {
	return &Template{
		ID:   "tpl-1",
		Name: "Aprovação de Despesas",
		Steps: []*Step{
			{ID: "s2", TemplateID: "tpl-1", Name: "Aprovação", Order: 2, ResponsibleUserID: "u2"},
			{ID: "s1", TemplateID: "tpl-1", Name: "Solicitação", Order: 1, ResponsibleUserID: "u1",
				FormFields: []*FieldSpec{{ID: "amount", Type: FieldTypeNumber, Label: "Valor", Required: true}}},
		},
	}
}

func TestTemplate_Validate(t *testing.T) {
	testCases := []struct {
		name      string
		mutate    func(*Template)
		expectErr bool
	}{
		{
			name:   "valid",
			mutate: func(*Template) {},
		},
		{
			name:      "missing name",
			mutate:    func(tpl *Template) { tpl.Name = "" },
			expectErr: true,
		},
		{
			name:      "no steps",
			mutate:    func(tpl *Template) { tpl.Steps = nil },
			expectErr: true,
		},
		{
			name:      "missing step name",
			mutate:    func(tpl *Template) { tpl.Steps[0].Name = "" },
			expectErr: true,
		},
		{
			name:      "missing responsible user",
			mutate:    func(tpl *Template) { tpl.Steps[1].ResponsibleUserID = "" },
			expectErr: true,
		},
		{
			name:      "order gap",
			mutate:    func(tpl *Template) { tpl.Steps[0].Order = 3 },
			expectErr: true,
		},
		{
			name:      "duplicate order",
			mutate:    func(tpl *Template) { tpl.Steps[0].Order = 1 },
			expectErr: true,
		},
		{
			name:      "order below one",
			mutate:    func(tpl *Template) { tpl.Steps[1].Order = 0 },
			expectErr: true,
		},
		{
			name:      "bad field spec",
			mutate:    func(tpl *Template) { tpl.Steps[1].FormFields[0].Label = "" },
			expectErr: true,
		},
		{
			name: "duplicate field id",
			mutate: func(tpl *Template) {
				tpl.Steps[1].FormFields = append(tpl.Steps[1].FormFields,
					&FieldSpec{ID: "amount", Type: FieldTypeText, Label: "Outro"})
			},
			expectErr: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			tpl := testTemplate()
			tc.mutate(tpl)
			err := tpl.Validate()
			if tc.expectErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestTemplate_OrderedSteps(t *testing.T) {
	tpl := testTemplate()
	ordered := tpl.OrderedSteps()
	assert.Equal(t, []string{"s1", "s2"}, []string{ordered[0].ID, ordered[1].ID})
	// The template's own slice keeps its declaration order.
	assert.Equal(t, "s2", tpl.Steps[0].ID)
}

func TestTemplate_StepByID(t *testing.T) {
	tpl := testTemplate()
	assert.Equal(t, "Solicitação", tpl.StepByID("s1").Name)
	assert.Nil(t, tpl.StepByID("missing"))
}

func TestTemplate_Clone(t *testing.T) {
	tpl := testTemplate()
	cloned := tpl.Clone()
	cloned.Steps[1].FormFields[0].Label = "changed"
	cloned.Steps[0].Name = "changed"
	assert.Equal(t, "Valor", tpl.Steps[1].FormFields[0].Label)
	assert.Equal(t, "Aprovação", tpl.Steps[0].Name)
}
