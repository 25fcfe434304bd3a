// Package processor implements the instance engine: the sequential state
// machine that creates process instances from templates, gates step
// execution by order and advances the current step pointer.
package processor

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/procwise/procwise/auth"
	"github.com/procwise/procwise/fault"
	"github.com/procwise/procwise/internal/clock"
	"github.com/procwise/procwise/internal/idgen"
	"github.com/procwise/procwise/model"
	"github.com/procwise/procwise/runtime/execution"
	"github.com/procwise/procwise/service/acl"
	"github.com/procwise/procwise/service/allocator"
	"github.com/procwise/procwise/service/dao"
	"github.com/procwise/procwise/service/directory"
	"github.com/procwise/procwise/service/event"
	"github.com/procwise/procwise/tracing"
)

// Service is the instance engine.
type Service struct {
	templates dao.Service[string, model.Template]
	processes dao.Service[string, execution.Process]
	steps     dao.Service[string, execution.StepExecution]
	acl       acl.Service
	directory directory.Service
	sequence  allocator.Sequence
	events    *event.Service

	// Per-process locks serialize mutations within this engine process;
	// the SQL store's version check covers cross-process races.
	locksMu sync.Mutex
	locks   map[string]*sync.Mutex
}

// New creates an instance engine over the given collaborators.
func New(templates dao.Service[string, model.Template], processes dao.Service[string, execution.Process], steps dao.Service[string, execution.StepExecution], aclService acl.Service, directoryService directory.Service, sequence allocator.Sequence, events *event.Service) *Service {
	return &Service{
		templates: templates,
		processes: processes,
		steps:     steps,
		acl:       aclService,
		directory: directoryService,
		sequence:  sequence,
		events:    events,
		locks:     map[string]*sync.Mutex{},
	}
}

func (s *Service) lockProcess(processID string) func() {
	s.locksMu.Lock()
	lock, ok := s.locks[processID]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[processID] = lock
	}
	s.locksMu.Unlock()
	lock.Lock()
	return lock.Unlock
}

// Start creates a process instance of the template against a client. The
// caller needs template access; the allocated process number is unique even
// under concurrent starts.
func (s *Service) Start(ctx context.Context, caller auth.Caller, templateID, clientID string) (*execution.Process, error) {
	ctx, span := tracing.StartSpan(ctx, "processor.Start")
	var err error
	defer func() { tracing.EndSpan(span, err) }()

	allowed, err := s.acl.CanAccess(ctx, caller, templateID)
	if err != nil {
		return nil, err
	}
	if !allowed {
		err = fault.NewAuthorization("no access to template")
		return nil, err
	}
	aTemplate, err := s.loadTemplate(ctx, templateID)
	if err != nil {
		return nil, err
	}
	if _, err = s.directory.Client(ctx, clientID); err != nil {
		if errors.Is(err, directory.ErrNotFound) {
			err = fault.NewValidation("client %q does not exist", clientID)
			return nil, err
		}
		return nil, fmt.Errorf("failed to resolve client: %w", err)
	}

	number, err := s.sequence.Next(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to allocate process number: %w", err)
	}
	now := clock.Now()
	name := fmt.Sprintf("%s %s", aTemplate.Name, execution.FormatNumber(number))
	aProcess := execution.NewProcess(idgen.New(), aTemplate.ID, clientID, name, number, caller.UserID, now)

	stepExecutions := make([]*execution.StepExecution, 0, len(aTemplate.Steps))
	for _, step := range aTemplate.OrderedSteps() {
		stepExecutions = append(stepExecutions, execution.NewStepExecution(idgen.New(), aProcess.ID, step.ID, step.Order, step.ResponsibleUserID))
	}
	aProcess.CurrentStep = stepExecutions[0].ID

	err = dao.InTx(ctx, s.processes, func(txCtx context.Context) error {
		if saveErr := s.processes.Save(txCtx, aProcess); saveErr != nil {
			return fmt.Errorf("failed to save process: %w", saveErr)
		}
		for _, stepExecution := range stepExecutions {
			if saveErr := s.steps.Save(txCtx, stepExecution); saveErr != nil {
				return fmt.Errorf("failed to save step execution: %w", saveErr)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.publish(ctx, event.Event{Type: event.TypeProcessStarted, ProcessID: aProcess.ID, TemplateID: aTemplate.ID, ActorID: caller.UserID})
	return aProcess, nil
}

// ExecuteStep validates and persists a form submission for the step
// execution and advances the owning process. Only the assignee or an admin
// may execute; gating and double-execution violations surface as
// InvalidStateError and nothing is persisted.
func (s *Service) ExecuteStep(ctx context.Context, caller auth.Caller, stepExecutionID string, formData map[string]interface{}, notes string) (*execution.StepExecution, error) {
	ctx, span := tracing.StartSpan(ctx, "processor.ExecuteStep")
	var err error
	defer func() { tracing.EndSpan(span, err) }()

	stale, err := s.loadStep(ctx, stepExecutionID)
	if err != nil {
		return nil, err
	}
	unlock := s.lockProcess(stale.ProcessID)
	defer unlock()

	// Reload under the lock; a racing execution may have finished it.
	stepExecution, err := s.loadStep(ctx, stepExecutionID)
	if err != nil {
		return nil, err
	}
	if !caller.IsAdmin && stepExecution.AssignedUserID != caller.UserID {
		err = fault.NewAuthorization("step is assigned to another user")
		return nil, err
	}
	if err = executable(stepExecution); err != nil {
		return nil, err
	}
	aProcess, err := s.loadProcess(ctx, stepExecution.ProcessID)
	if err != nil {
		return nil, err
	}
	if !aProcess.Active() {
		err = fault.NewInvalidState("process is not active")
		return nil, err
	}
	aTemplate, err := s.loadTemplate(ctx, aProcess.TemplateID)
	if err != nil {
		return nil, err
	}
	step := aTemplate.StepByID(stepExecution.StepID)
	if step == nil {
		err = fault.NewNotFound("step", stepExecution.StepID)
		return nil, err
	}
	normalized, err := model.NormalizeFormData(step.FormFields, formData)
	if err != nil {
		return nil, err
	}

	now := clock.Now()
	stepExecution.Complete(normalized, notes, now)
	// One transaction covers the process row, the promoted step and the
	// completed step, so a mid-sequence failure cannot leave the process
	// advanced with the executed step still pending.
	err = dao.InTx(ctx, s.processes, func(txCtx context.Context) error {
		if advErr := s.advance(txCtx, aProcess, stepExecution, now); advErr != nil {
			return advErr
		}
		if saveErr := s.steps.Save(txCtx, stepExecution); saveErr != nil {
			return fmt.Errorf("failed to save step execution: %w", saveErr)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.publish(ctx, event.Event{Type: event.TypeStepCompleted, ProcessID: aProcess.ID, TemplateID: aProcess.TemplateID, StepID: stepExecution.StepID, ActorID: caller.UserID})
	if !aProcess.Active() {
		s.publish(ctx, event.Event{Type: event.TypeProcessCompleted, ProcessID: aProcess.ID, TemplateID: aProcess.TemplateID, ActorID: caller.UserID})
	}
	return stepExecution, nil
}

// SkipStep is the administrative override that closes a pending step without
// form data and advances the process.
func (s *Service) SkipStep(ctx context.Context, caller auth.Caller, stepExecutionID string) (*execution.StepExecution, error) {
	if !caller.IsAdmin {
		return nil, fault.NewAuthorization("only admins may skip steps")
	}
	stale, err := s.loadStep(ctx, stepExecutionID)
	if err != nil {
		return nil, err
	}
	unlock := s.lockProcess(stale.ProcessID)
	defer unlock()

	stepExecution, err := s.loadStep(ctx, stepExecutionID)
	if err != nil {
		return nil, err
	}
	if stepExecution.Status != execution.StepStatusPending {
		return nil, stateError(stepExecution)
	}
	aProcess, err := s.loadProcess(ctx, stepExecution.ProcessID)
	if err != nil {
		return nil, err
	}
	if !aProcess.Active() {
		return nil, fault.NewInvalidState("process is not active")
	}
	now := clock.Now()
	stepExecution.Skip(now)
	err = dao.InTx(ctx, s.processes, func(txCtx context.Context) error {
		if advErr := s.advance(txCtx, aProcess, stepExecution, now); advErr != nil {
			return advErr
		}
		if saveErr := s.steps.Save(txCtx, stepExecution); saveErr != nil {
			return fmt.Errorf("failed to save step execution: %w", saveErr)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.publish(ctx, event.Event{Type: event.TypeStepSkipped, ProcessID: aProcess.ID, TemplateID: aProcess.TemplateID, StepID: stepExecution.StepID, ActorID: caller.UserID})
	if !aProcess.Active() {
		s.publish(ctx, event.Event{Type: event.TypeProcessCompleted, ProcessID: aProcess.ID, TemplateID: aProcess.TemplateID, ActorID: caller.UserID})
	}
	return stepExecution, nil
}

// advance promotes the next waiting step or completes the process. The
// process row is persisted first and is the cross-process serialization
// point: an optimistic-version loser fails here, before any step write.
// Callers run advance and the finished-step write in one dao.InTx unit.
func (s *Service) advance(ctx context.Context, aProcess *execution.Process, finished *execution.StepExecution, now time.Time) error {
	stepExecutions, err := s.steps.List(ctx, dao.NewParameter(dao.ParamProcessID, aProcess.ID))
	if err != nil {
		return fmt.Errorf("failed to list step executions: %w", err)
	}
	var next *execution.StepExecution
	for _, candidate := range stepExecutions {
		if candidate.Order <= finished.Order || candidate.Status != execution.StepStatusWaiting {
			continue
		}
		if next == nil || candidate.Order < next.Order {
			next = candidate
		}
	}
	if next != nil {
		next.Promote()
		aProcess.CurrentStep = next.ID
	} else {
		aProcess.Complete(now)
	}
	aProcess.Version++
	if err = s.processes.Save(ctx, aProcess); err != nil {
		if errors.Is(err, dao.ErrConflict) {
			return fault.NewInvalidState(fault.ReasonAlreadyExecuted)
		}
		return fmt.Errorf("failed to save process: %w", err)
	}
	if next != nil {
		if err = s.steps.Save(ctx, next); err != nil {
			return fmt.Errorf("failed to save step execution: %w", err)
		}
	}
	return nil
}

// Delete removes a process and its step executions. Admin only.
func (s *Service) Delete(ctx context.Context, caller auth.Caller, processID string) error {
	if !caller.IsAdmin {
		return fault.NewAuthorization("only admins may delete process instances")
	}
	unlock := s.lockProcess(processID)
	defer unlock()

	aProcess, err := s.loadProcess(ctx, processID)
	if err != nil {
		return err
	}
	err = dao.InTx(ctx, s.processes, func(txCtx context.Context) error {
		stepExecutions, listErr := s.steps.List(txCtx, dao.NewParameter(dao.ParamProcessID, processID))
		if listErr != nil {
			return fmt.Errorf("failed to list step executions: %w", listErr)
		}
		for _, stepExecution := range stepExecutions {
			if delErr := s.steps.Delete(txCtx, stepExecution.ID); delErr != nil {
				return fmt.Errorf("failed to delete step execution: %w", delErr)
			}
		}
		if delErr := s.processes.Delete(txCtx, processID); delErr != nil {
			return fmt.Errorf("failed to delete process: %w", delErr)
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.publish(ctx, event.Event{Type: event.TypeProcessDeleted, ProcessID: processID, TemplateID: aProcess.TemplateID, ActorID: caller.UserID})
	return nil
}

// ByNumber finds a process by its sequential number.
func (s *Service) ByNumber(ctx context.Context, number int64) (*execution.Process, error) {
	processes, err := s.processes.List(ctx, dao.NewParameter(dao.ParamNumber, number))
	if err != nil {
		return nil, fmt.Errorf("failed to list processes: %w", err)
	}
	if len(processes) == 0 {
		return nil, fault.NewNotFound("process", execution.FormatNumber(number))
	}
	return processes[0], nil
}

// Steps returns the step executions of a process in order.
func (s *Service) Steps(ctx context.Context, processID string) ([]*execution.StepExecution, error) {
	if _, err := s.loadProcess(ctx, processID); err != nil {
		return nil, err
	}
	stepExecutions, err := s.steps.List(ctx, dao.NewParameter(dao.ParamProcessID, processID))
	if err != nil {
		return nil, fmt.Errorf("failed to list step executions: %w", err)
	}
	sort.Slice(stepExecutions, func(i, j int) bool {
		return stepExecutions[i].Order < stepExecutions[j].Order
	})
	return stepExecutions, nil
}

// MyTasks returns the caller's unfinished step executions belonging to
// active processes, waiting ones included.
func (s *Service) MyTasks(ctx context.Context, caller auth.Caller) ([]*execution.StepExecution, error) {
	stepExecutions, err := s.steps.List(ctx, dao.NewParameter(dao.ParamAssignedUserID, caller.UserID))
	if err != nil {
		return nil, fmt.Errorf("failed to list step executions: %w", err)
	}
	out := make([]*execution.StepExecution, 0, len(stepExecutions))
	for _, stepExecution := range stepExecutions {
		if stepExecution.Finished() {
			continue
		}
		aProcess, loadErr := s.loadProcess(ctx, stepExecution.ProcessID)
		if loadErr != nil {
			if isNotFound(loadErr) {
				continue
			}
			return nil, loadErr
		}
		if !aProcess.Active() {
			continue
		}
		out = append(out, stepExecution)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].ProcessID != out[j].ProcessID {
			return out[i].ProcessID < out[j].ProcessID
		}
		return out[i].Order < out[j].Order
	})
	return out, nil
}

func (s *Service) publish(ctx context.Context, anEvent event.Event) {
	if s.events != nil {
		s.events.Publish(ctx, anEvent)
	}
}

func (s *Service) loadTemplate(ctx context.Context, id string) (*model.Template, error) {
	aTemplate, err := s.templates.Load(ctx, id)
	if err != nil {
		if errors.Is(err, dao.ErrNotFound) {
			return nil, fault.NewNotFound("template", id)
		}
		return nil, fmt.Errorf("failed to load template: %w", err)
	}
	return aTemplate, nil
}

func (s *Service) loadProcess(ctx context.Context, id string) (*execution.Process, error) {
	aProcess, err := s.processes.Load(ctx, id)
	if err != nil {
		if errors.Is(err, dao.ErrNotFound) {
			return nil, fault.NewNotFound("process", id)
		}
		return nil, fmt.Errorf("failed to load process: %w", err)
	}
	return aProcess, nil
}

func (s *Service) loadStep(ctx context.Context, id string) (*execution.StepExecution, error) {
	stepExecution, err := s.steps.Load(ctx, id)
	if err != nil {
		if errors.Is(err, dao.ErrNotFound) {
			return nil, fault.NewNotFound("step execution", id)
		}
		return nil, fmt.Errorf("failed to load step execution: %w", err)
	}
	return stepExecution, nil
}

// executable enforces the gating rules on a step submission.
func executable(stepExecution *execution.StepExecution) error {
	if stepExecution.Executable() {
		return nil
	}
	return stateError(stepExecution)
}

func stateError(stepExecution *execution.StepExecution) error {
	if stepExecution.Status == execution.StepStatusWaiting {
		return fault.NewInvalidState(fault.ReasonWaitingPredecessor)
	}
	return fault.NewInvalidState(fault.ReasonAlreadyExecuted)
}

func isNotFound(err error) bool {
	var notFound *fault.NotFoundError
	return errors.As(err, &notFound)
}
