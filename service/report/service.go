// Package report assembles the read-only, point-in-time rendering of a
// process instance: instance metadata joined with directory names plus the
// full ordered step trail with submitted form data.
package report

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/procwise/procwise/auth"
	"github.com/procwise/procwise/fault"
	"github.com/procwise/procwise/model"
	"github.com/procwise/procwise/runtime/execution"
	"github.com/procwise/procwise/service/acl"
	"github.com/procwise/procwise/service/dao"
	"github.com/procwise/procwise/service/directory"
)

// Placeholder labels shown when a related directory entity was deleted.
const (
	PlaceholderUser   = "Usuário removido"
	PlaceholderClient = "Cliente removido"
)

// Report is the full snapshot of one process instance.
type Report struct {
	ProcessInfo ProcessInfo  `json:"processInfo"`
	Steps       []StepReport `json:"steps"`
}

// ProcessInfo carries the instance fields joined with display names.
type ProcessInfo struct {
	ID            string     `json:"id"`
	ProcessNumber string     `json:"processNumber"`
	Name          string     `json:"name"`
	Status        string     `json:"status"`
	TemplateName  string     `json:"templateName"`
	ClientName    string     `json:"clientName"`
	StartedByName string     `json:"startedByName"`
	StartedAt     time.Time  `json:"startedAt"`
	CompletedAt   *time.Time `json:"completedAt,omitempty"`
}

// StepReport is one step of the trail.
type StepReport struct {
	StepName         string                 `json:"stepName"`
	StepDescription  string                 `json:"stepDescription,omitempty"`
	StepOrder        int                    `json:"stepOrder"`
	Status           string                 `json:"status"`
	AssignedUserName string                 `json:"assignedUserName"`
	FormFields       []*model.FieldSpec     `json:"formFields,omitempty"`
	FormData         map[string]interface{} `json:"formData,omitempty"`
	StartedAt        *time.Time             `json:"startedAt,omitempty"`
	CompletedAt      *time.Time             `json:"completedAt,omitempty"`
	Notes            string                 `json:"notes,omitempty"`
}

// Service is the report builder. It performs pure reads; nothing is mutated.
type Service struct {
	templates dao.Service[string, model.Template]
	processes dao.Service[string, execution.Process]
	steps     dao.Service[string, execution.StepExecution]
	acl       acl.Service
	directory directory.Service
}

// New creates a report builder.
func New(templates dao.Service[string, model.Template], processes dao.Service[string, execution.Process], steps dao.Service[string, execution.StepExecution], aclService acl.Service, directoryService directory.Service) *Service {
	return &Service{
		templates: templates,
		processes: processes,
		steps:     steps,
		acl:       aclService,
		directory: directoryService,
	}
}

// Build renders the report for a process. The caller needs template access,
// admin rights or an assignment on one of the process steps. Deleted users
// and clients degrade to placeholder labels rather than failing the report.
func (s *Service) Build(ctx context.Context, caller auth.Caller, processID string) (*Report, error) {
	aProcess, err := s.processes.Load(ctx, processID)
	if err != nil {
		if errors.Is(err, dao.ErrNotFound) {
			return nil, fault.NewNotFound("process", processID)
		}
		return nil, fmt.Errorf("failed to load process: %w", err)
	}
	stepExecutions, err := s.steps.List(ctx, dao.NewParameter(dao.ParamProcessID, processID))
	if err != nil {
		return nil, fmt.Errorf("failed to list step executions: %w", err)
	}
	sort.Slice(stepExecutions, func(i, j int) bool {
		return stepExecutions[i].Order < stepExecutions[j].Order
	})
	if err = s.authorize(ctx, caller, aProcess, stepExecutions); err != nil {
		return nil, err
	}

	templateName := ""
	var aTemplate *model.Template
	if aTemplate, err = s.templates.Load(ctx, aProcess.TemplateID); err == nil {
		templateName = aTemplate.Name
	} else if !errors.Is(err, dao.ErrNotFound) {
		return nil, fmt.Errorf("failed to load template: %w", err)
	}

	ret := &Report{
		ProcessInfo: ProcessInfo{
			ID:            aProcess.ID,
			ProcessNumber: aProcess.FormattedNumber(),
			Name:          aProcess.Name,
			Status:        aProcess.Status,
			TemplateName:  templateName,
			ClientName:    s.clientName(ctx, aProcess.ClientID),
			StartedByName: s.userName(ctx, aProcess.StartedBy),
			StartedAt:     aProcess.StartedAt,
			CompletedAt:   aProcess.CompletedAt,
		},
	}
	for _, stepExecution := range stepExecutions {
		entry := StepReport{
			StepOrder:        stepExecution.Order,
			Status:           stepExecution.Status,
			AssignedUserName: s.userName(ctx, stepExecution.AssignedUserID),
			FormData:         stepExecution.FormData,
			StartedAt:        stepExecution.StartedAt,
			CompletedAt:      stepExecution.CompletedAt,
			Notes:            stepExecution.Notes,
		}
		if aTemplate != nil {
			if step := aTemplate.StepByID(stepExecution.StepID); step != nil {
				entry.StepName = step.Name
				entry.StepDescription = step.Description
				entry.FormFields = step.FormFields
			}
		}
		ret.Steps = append(ret.Steps, entry)
	}
	return ret, nil
}

func (s *Service) authorize(ctx context.Context, caller auth.Caller, aProcess *execution.Process, stepExecutions []*execution.StepExecution) error {
	allowed, err := s.acl.CanAccess(ctx, caller, aProcess.TemplateID)
	if err != nil {
		return err
	}
	if allowed || aProcess.StartedBy == caller.UserID {
		return nil
	}
	for _, stepExecution := range stepExecutions {
		if stepExecution.AssignedUserID == caller.UserID {
			return nil
		}
	}
	return fault.NewAuthorization("no access to process report")
}

func (s *Service) userName(ctx context.Context, id string) string {
	user, err := s.directory.User(ctx, id)
	if err != nil {
		return PlaceholderUser
	}
	return user.Name
}

func (s *Service) clientName(ctx context.Context, id string) string {
	client, err := s.directory.Client(ctx, id)
	if err != nil {
		return PlaceholderClient
	}
	return client.Name
}
