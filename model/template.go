package model

import (
	"time"

	"github.com/procwise/procwise/fault"
)

// Template is a reusable definition of a multi-step process. It owns its
// ordered step list; steps never exist outside a template.
type Template struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	CreatedBy   string    `json:"createdBy"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
	Steps       []*Step   `json:"steps"`
}

// Step is one ordered stage within a template. Order is 1-based and
// contiguous within the owning template.
type Step struct {
	ID                string       `json:"id"`
	TemplateID        string       `json:"templateId"`
	Name              string       `json:"name"`
	Description       string       `json:"description,omitempty"`
	Order             int          `json:"order"`
	ResponsibleUserID string       `json:"responsibleUserId"`
	FormFields        []*FieldSpec `json:"formFields,omitempty"`
}

// Validate checks the structural invariants of the template: at least one
// step, non-empty names, a responsible user per step, sound field specs and
// a contiguous 1..N order sequence.
func (t *Template) Validate() error {
	if t.Name == "" {
		return fault.NewValidation("template name is required")
	}
	if len(t.Steps) == 0 {
		return fault.NewValidation("template requires at least one step")
	}
	seen := make(map[int]bool, len(t.Steps))
	for _, step := range t.Steps {
		if step.Name == "" {
			return fault.NewValidation("step name is required")
		}
		if step.ResponsibleUserID == "" {
			return fault.NewFieldValidation(step.Name, "responsible user is required")
		}
		if step.Order < 1 || step.Order > len(t.Steps) {
			return fault.NewFieldValidation(step.Name, "step order %d out of range 1..%d", step.Order, len(t.Steps))
		}
		if seen[step.Order] {
			return fault.NewFieldValidation(step.Name, "duplicate step order %d", step.Order)
		}
		seen[step.Order] = true
		fieldIDs := make(map[string]bool, len(step.FormFields))
		for _, field := range step.FormFields {
			if err := field.Validate(); err != nil {
				return err
			}
			if fieldIDs[field.ID] {
				return fault.NewFieldValidation(field.Label, "duplicate field id %q", field.ID)
			}
			fieldIDs[field.ID] = true
		}
	}
	return nil
}

// OrderedSteps returns the steps sorted ascending by Order without mutating
// the template.
func (t *Template) OrderedSteps() []*Step {
	out := make([]*Step, len(t.Steps))
	copy(out, t.Steps)
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j-1].Order > out[j].Order; j-- {
			out[j-1], out[j] = out[j], out[j-1]
		}
	}
	return out
}

// StepByID returns the step with the given id or nil.
func (t *Template) StepByID(id string) *Step {
	for _, step := range t.Steps {
		if step.ID == id {
			return step
		}
	}
	return nil
}

// Clone creates a deep copy so stores can hand out templates without
// aliasing the persisted value.
func (t *Template) Clone() *Template {
	if t == nil {
		return nil
	}
	out := *t
	out.Steps = make([]*Step, len(t.Steps))
	for i, step := range t.Steps {
		s := *step
		s.FormFields = make([]*FieldSpec, len(step.FormFields))
		for j, field := range step.FormFields {
			f := *field
			f.Options = append([]string(nil), field.Options...)
			s.FormFields[j] = &f
		}
		out.Steps[i] = &s
	}
	return &out
}
