package sqlstore

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/uptrace/bun"

	"github.com/procwise/procwise/model"
	"github.com/procwise/procwise/runtime/execution"
)

// ── Template model ──────────────────────────────────────────────

// templateModel stores the template row with the whole step list as JSONB.
// Updates replace the step list wholesale, which matches the diff-free
// update semantics of the template store.
type templateModel struct {
	bun.BaseModel `bun:"table:procwise_templates"`

	ID          string    `bun:"id,pk"`
	Name        string    `bun:"name,notnull"`
	Description string    `bun:"description"`
	CreatedBy   string    `bun:"created_by,notnull"`
	Steps       []byte    `bun:"steps,notnull,type:jsonb"`
	CreatedAt   time.Time `bun:"created_at,notnull,default:current_timestamp"`
	UpdatedAt   time.Time `bun:"updated_at,notnull,default:current_timestamp"`
}

func toTemplateModel(t *model.Template) (*templateModel, error) {
	steps, err := json.Marshal(t.Steps)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: marshal steps: %w", err)
	}
	return &templateModel{
		ID:          t.ID,
		Name:        t.Name,
		Description: t.Description,
		CreatedBy:   t.CreatedBy,
		Steps:       steps,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}, nil
}

func fromTemplateModel(m *templateModel) (*model.Template, error) {
	t := &model.Template{
		ID:          m.ID,
		Name:        m.Name,
		Description: m.Description,
		CreatedBy:   m.CreatedBy,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
	if len(m.Steps) > 0 {
		if err := json.Unmarshal(m.Steps, &t.Steps); err != nil {
			return nil, fmt.Errorf("sqlstore: unmarshal steps: %w", err)
		}
	}
	return t, nil
}

// ── Process model ───────────────────────────────────────────────

type processModel struct {
	bun.BaseModel `bun:"table:procwise_processes"`

	ID          string     `bun:"id,pk"`
	TemplateID  string     `bun:"template_id,notnull"`
	ClientID    string     `bun:"client_id,notnull"`
	Name        string     `bun:"name,notnull"`
	Number      int64      `bun:"number,notnull,unique"`
	Status      string     `bun:"status,notnull"`
	CurrentStep string     `bun:"current_step"`
	StartedBy   string     `bun:"started_by,notnull"`
	StartedAt   time.Time  `bun:"started_at,notnull"`
	CompletedAt *time.Time `bun:"completed_at"`
	Version     int        `bun:"version,notnull"`
}

func toProcessModel(p *execution.Process) *processModel {
	return &processModel{
		ID:          p.ID,
		TemplateID:  p.TemplateID,
		ClientID:    p.ClientID,
		Name:        p.Name,
		Number:      p.Number,
		Status:      p.Status,
		CurrentStep: p.CurrentStep,
		StartedBy:   p.StartedBy,
		StartedAt:   p.StartedAt,
		CompletedAt: p.CompletedAt,
		Version:     p.Version,
	}
}

func fromProcessModel(m *processModel) *execution.Process {
	return &execution.Process{
		ID:          m.ID,
		TemplateID:  m.TemplateID,
		ClientID:    m.ClientID,
		Name:        m.Name,
		Number:      m.Number,
		Status:      m.Status,
		CurrentStep: m.CurrentStep,
		StartedBy:   m.StartedBy,
		StartedAt:   m.StartedAt,
		CompletedAt: m.CompletedAt,
		Version:     m.Version,
	}
}

// ── Step execution model ────────────────────────────────────────

type stepModel struct {
	bun.BaseModel `bun:"table:procwise_step_executions"`

	ID             string     `bun:"id,pk"`
	ProcessID      string     `bun:"process_id,notnull"`
	StepID         string     `bun:"step_id,notnull"`
	StepOrder      int        `bun:"step_order,notnull"`
	Status         string     `bun:"status,notnull"`
	AssignedUserID string     `bun:"assigned_user_id,notnull"`
	FormData       []byte     `bun:"form_data,type:jsonb"`
	StartedAt      *time.Time `bun:"started_at"`
	CompletedAt    *time.Time `bun:"completed_at"`
	Notes          string     `bun:"notes"`
}

func toStepModel(s *execution.StepExecution) (*stepModel, error) {
	var formData []byte
	if s.FormData != nil {
		var err error
		if formData, err = json.Marshal(s.FormData); err != nil {
			return nil, fmt.Errorf("sqlstore: marshal form data: %w", err)
		}
	}
	return &stepModel{
		ID:             s.ID,
		ProcessID:      s.ProcessID,
		StepID:         s.StepID,
		StepOrder:      s.Order,
		Status:         s.Status,
		AssignedUserID: s.AssignedUserID,
		FormData:       formData,
		StartedAt:      s.StartedAt,
		CompletedAt:    s.CompletedAt,
		Notes:          s.Notes,
	}, nil
}

func fromStepModel(m *stepModel) (*execution.StepExecution, error) {
	s := &execution.StepExecution{
		ID:             m.ID,
		ProcessID:      m.ProcessID,
		StepID:         m.StepID,
		Order:          m.StepOrder,
		Status:         m.Status,
		AssignedUserID: m.AssignedUserID,
		StartedAt:      m.StartedAt,
		CompletedAt:    m.CompletedAt,
		Notes:          m.Notes,
	}
	if len(m.FormData) > 0 {
		if err := json.Unmarshal(m.FormData, &s.FormData); err != nil {
			return nil, fmt.Errorf("sqlstore: unmarshal form data: %w", err)
		}
	}
	return s, nil
}

// ── ACL model ───────────────────────────────────────────────────

type grantModel struct {
	bun.BaseModel `bun:"table:procwise_template_grants"`

	TemplateID string    `bun:"template_id,pk"`
	UserID     string    `bun:"user_id,pk"`
	CreatedAt  time.Time `bun:"created_at,notnull,default:current_timestamp"`
}
