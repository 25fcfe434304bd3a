// Package template implements the template store: CRUD for process
// templates and their ordered step definitions, with ownership and ACL
// enforcement.
package template

import (
	"context"
	"errors"
	"fmt"

	"github.com/procwise/procwise/auth"
	"github.com/procwise/procwise/fault"
	"github.com/procwise/procwise/internal/clock"
	"github.com/procwise/procwise/internal/idgen"
	"github.com/procwise/procwise/model"
	"github.com/procwise/procwise/runtime/execution"
	"github.com/procwise/procwise/service/acl"
	"github.com/procwise/procwise/service/dao"
	"github.com/procwise/procwise/service/directory"
	"github.com/procwise/procwise/service/event"
)

// DeletePolicy governs what happens when a template with existing process
// instances is deleted.
type DeletePolicy string

const (
	// DeletePolicyReject refuses deletion while any instance of the template
	// exists.
	DeletePolicyReject DeletePolicy = "reject"
	// DeletePolicyCascade deletes the template together with all of its
	// instances and their step executions.
	DeletePolicyCascade DeletePolicy = "cascade"
)

// Input is the caller-supplied template definition.
type Input struct {
	Name        string       `json:"name"`
	Description string       `json:"description,omitempty"`
	Steps       []*StepInput `json:"steps"`
}

// StepInput is one step of a template definition. Order is optional; when
// zero the position in the slice (1-based) is used.
type StepInput struct {
	Name              string             `json:"name"`
	Description       string             `json:"description,omitempty"`
	Order             int                `json:"order,omitempty"`
	ResponsibleUserID string             `json:"responsibleUserId"`
	FormFields        []*model.FieldSpec `json:"formFields,omitempty"`
}

// Service is the template store.
type Service struct {
	templates    dao.Service[string, model.Template]
	processes    dao.Service[string, execution.Process]
	steps        dao.Service[string, execution.StepExecution]
	acl          acl.Service
	directory    directory.Service
	events       *event.Service
	deletePolicy DeletePolicy
}

// New creates a template store. The process and step DAOs are only touched
// on deletion, to enforce the configured policy.
func New(templates dao.Service[string, model.Template], processes dao.Service[string, execution.Process], steps dao.Service[string, execution.StepExecution], aclService acl.Service, directoryService directory.Service, events *event.Service, deletePolicy DeletePolicy) *Service {
	if deletePolicy == "" {
		deletePolicy = DeletePolicyReject
	}
	return &Service{
		templates:    templates,
		processes:    processes,
		steps:        steps,
		acl:          aclService,
		directory:    directoryService,
		events:       events,
		deletePolicy: deletePolicy,
	}
}

// Create validates and persists a new template owned by the caller. The
// caller is automatically granted access to it.
func (s *Service) Create(ctx context.Context, caller auth.Caller, input *Input) (*model.Template, error) {
	aTemplate, err := s.build(ctx, input, caller.UserID)
	if err != nil {
		return nil, err
	}
	err = dao.InTx(ctx, s.templates, func(txCtx context.Context) error {
		if saveErr := s.templates.Save(txCtx, aTemplate); saveErr != nil {
			return fmt.Errorf("failed to save template: %w", saveErr)
		}
		if grantErr := s.acl.Grant(txCtx, aTemplate.ID, caller.UserID); grantErr != nil {
			return fmt.Errorf("failed to grant creator access: %w", grantErr)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return aTemplate, nil
}

// Update replaces name, description and the whole step list of a template.
// Only the creator or an admin may update.
func (s *Service) Update(ctx context.Context, caller auth.Caller, id string, input *Input) (*model.Template, error) {
	existing, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !caller.IsAdmin && existing.CreatedBy != caller.UserID {
		return nil, fault.NewAuthorization("only the template creator or an admin may update it")
	}
	updated, err := s.build(ctx, input, existing.CreatedBy)
	if err != nil {
		return nil, err
	}
	updated.ID = existing.ID
	updated.CreatedAt = existing.CreatedAt
	updated.UpdatedAt = clock.Now()
	// Steps keep the ID held by the same order slot before the update, so
	// step executions of in-flight instances still resolve their step
	// definition. Only steps added beyond the old list get fresh IDs.
	existingByOrder := make(map[int]string, len(existing.Steps))
	for _, step := range existing.Steps {
		existingByOrder[step.Order] = step.ID
	}
	for _, step := range updated.Steps {
		step.TemplateID = existing.ID
		if previousID, ok := existingByOrder[step.Order]; ok {
			step.ID = previousID
		}
	}
	if err = s.templates.Save(ctx, updated); err != nil {
		return nil, fmt.Errorf("failed to update template: %w", err)
	}
	return updated, nil
}

// Delete removes a template. Admin only. Depending on the configured policy
// existing instances either block the deletion or are deleted with it; the
// store never orphans instances.
func (s *Service) Delete(ctx context.Context, caller auth.Caller, id string) error {
	if !caller.IsAdmin {
		return fault.NewAuthorization("only admins may delete templates")
	}
	if _, err := s.load(ctx, id); err != nil {
		return err
	}
	instances, err := s.processes.List(ctx, dao.NewParameter(dao.ParamTemplateID, id))
	if err != nil {
		return fmt.Errorf("failed to list template instances: %w", err)
	}
	if len(instances) > 0 && s.deletePolicy == DeletePolicyReject {
		return fault.NewInvalidState(fmt.Sprintf("template has %d instances", len(instances)))
	}
	err = dao.InTx(ctx, s.templates, func(txCtx context.Context) error {
		for _, instance := range instances {
			if delErr := s.deleteInstance(txCtx, instance.ID); delErr != nil {
				return delErr
			}
		}
		if delErr := s.templates.Delete(txCtx, id); delErr != nil {
			return fmt.Errorf("failed to delete template: %w", delErr)
		}
		return s.acl.Drop(txCtx, id)
	})
	if err != nil {
		return err
	}
	if s.events != nil {
		s.events.Publish(ctx, event.Event{Type: event.TypeTemplateDeleted, TemplateID: id, ActorID: caller.UserID})
	}
	return nil
}

func (s *Service) deleteInstance(ctx context.Context, processID string) error {
	stepExecutions, err := s.steps.List(ctx, dao.NewParameter(dao.ParamProcessID, processID))
	if err != nil {
		return fmt.Errorf("failed to list step executions: %w", err)
	}
	for _, stepExecution := range stepExecutions {
		if err = s.steps.Delete(ctx, stepExecution.ID); err != nil {
			return fmt.Errorf("failed to delete step execution: %w", err)
		}
	}
	if err = s.processes.Delete(ctx, processID); err != nil {
		return fmt.Errorf("failed to delete process: %w", err)
	}
	return nil
}

// Get returns a template the caller may see: admins, ACL members and users
// assigned to one of its steps.
func (s *Service) Get(ctx context.Context, caller auth.Caller, id string) (*model.Template, error) {
	aTemplate, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	allowed, err := s.acl.CanAccess(ctx, caller, id)
	if err != nil {
		return nil, err
	}
	if !allowed && !assignedTo(aTemplate, caller.UserID) {
		return nil, fault.NewAuthorization("no access to template")
	}
	return aTemplate, nil
}

// ListAccessible returns the templates visible to the caller: all of them
// for admins, otherwise those the caller is granted on.
func (s *Service) ListAccessible(ctx context.Context, caller auth.Caller) ([]*model.Template, error) {
	templates, err := s.templates.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list templates: %w", err)
	}
	if caller.IsAdmin {
		return templates, nil
	}
	out := make([]*model.Template, 0, len(templates))
	for _, aTemplate := range templates {
		allowed, accessErr := s.acl.CanAccess(ctx, caller, aTemplate.ID)
		if accessErr != nil {
			return nil, accessErr
		}
		if allowed {
			out = append(out, aTemplate)
		}
	}
	return out, nil
}

func (s *Service) load(ctx context.Context, id string) (*model.Template, error) {
	aTemplate, err := s.templates.Load(ctx, id)
	if err != nil {
		if errors.Is(err, dao.ErrNotFound) {
			return nil, fault.NewNotFound("template", id)
		}
		return nil, fmt.Errorf("failed to load template: %w", err)
	}
	return aTemplate, nil
}

// build assembles and validates a template from caller input. Step order
// defaults to slice position; explicit orders must form 1..N.
func (s *Service) build(ctx context.Context, input *Input, createdBy string) (*model.Template, error) {
	if input == nil {
		return nil, fault.NewValidation("template definition is required")
	}
	now := clock.Now()
	aTemplate := &model.Template{
		ID:          idgen.New(),
		Name:        input.Name,
		Description: input.Description,
		CreatedBy:   createdBy,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	for i, stepInput := range input.Steps {
		order := stepInput.Order
		if order == 0 {
			order = i + 1
		}
		aTemplate.Steps = append(aTemplate.Steps, &model.Step{
			ID:                idgen.New(),
			TemplateID:        aTemplate.ID,
			Name:              stepInput.Name,
			Description:       stepInput.Description,
			Order:             order,
			ResponsibleUserID: stepInput.ResponsibleUserID,
			FormFields:        stepInput.FormFields,
		})
	}
	if err := aTemplate.Validate(); err != nil {
		return nil, err
	}
	for _, step := range aTemplate.Steps {
		if _, err := s.directory.User(ctx, step.ResponsibleUserID); err != nil {
			if errors.Is(err, directory.ErrNotFound) {
				return nil, fault.NewFieldValidation(step.Name, "responsible user %q does not exist", step.ResponsibleUserID)
			}
			return nil, fmt.Errorf("failed to resolve responsible user: %w", err)
		}
	}
	return aTemplate, nil
}

func assignedTo(t *model.Template, userID string) bool {
	for _, step := range t.Steps {
		if step.ResponsibleUserID == userID {
			return true
		}
	}
	return false
}
