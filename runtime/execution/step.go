package execution

import "time"

// Step execution status constants.
const (
	StepStatusPending    = "pending"
	StepStatusInProgress = "in_progress"
	StepStatusWaiting    = "waiting"
	StepStatusCompleted  = "completed"
	StepStatusSkipped    = "skipped"
)

// StepExecution is the runtime record of one template step within one
// process. Exactly one step execution per active process is pending or
// in_progress; predecessors are completed or skipped, successors waiting.
type StepExecution struct {
	ID             string                 `json:"id"`
	ProcessID      string                 `json:"processInstanceId"`
	StepID         string                 `json:"stepId"`
	Order          int                    `json:"order"`
	Status         string                 `json:"status"`
	AssignedUserID string                 `json:"assignedUserId"`
	FormData       map[string]interface{} `json:"formData,omitempty"`
	StartedAt      *time.Time             `json:"startedAt,omitempty"`
	CompletedAt    *time.Time             `json:"completedAt,omitempty"`
	Notes          string                 `json:"notes,omitempty"`
}

// Executable reports whether the step may accept a form submission in its
// current status.
func (s *StepExecution) Executable() bool {
	return s.Status == StepStatusPending || s.Status == StepStatusInProgress
}

// Finished reports whether the step reached a terminal status.
func (s *StepExecution) Finished() bool {
	return s.Status == StepStatusCompleted || s.Status == StepStatusSkipped
}

// Start marks the step as picked up by its assignee.
func (s *StepExecution) Start(now time.Time) {
	s.StartedAt = &now
	s.Status = StepStatusInProgress
}

// Complete records the validated form data and closes the step.
func (s *StepExecution) Complete(formData map[string]interface{}, notes string, now time.Time) {
	if s.StartedAt == nil {
		s.StartedAt = &now
	}
	s.FormData = formData
	s.Notes = notes
	s.CompletedAt = &now
	s.Status = StepStatusCompleted
}

// Skip closes the step without form data.
func (s *StepExecution) Skip(now time.Time) {
	s.CompletedAt = &now
	s.Status = StepStatusSkipped
}

// Promote moves a waiting step to pending when its predecessor finishes.
func (s *StepExecution) Promote() {
	s.Status = StepStatusPending
}

// Clone creates a deep copy including the form data map.
func (s *StepExecution) Clone() *StepExecution {
	if s == nil {
		return nil
	}
	out := *s
	if s.FormData != nil {
		out.FormData = make(map[string]interface{}, len(s.FormData))
		for k, v := range s.FormData {
			out.FormData[k] = v
		}
	}
	if s.StartedAt != nil {
		started := *s.StartedAt
		out.StartedAt = &started
	}
	if s.CompletedAt != nil {
		completed := *s.CompletedAt
		out.CompletedAt = &completed
	}
	return &out
}

// NewStepExecution creates the runtime record for one template step. The
// first step of a process starts pending, every later one waiting.
func NewStepExecution(id, processID, stepID string, order int, assignedUserID string) *StepExecution {
	status := StepStatusWaiting
	if order == 1 {
		status = StepStatusPending
	}
	return &StepExecution{
		ID:             id,
		ProcessID:      processID,
		StepID:         stepID,
		Order:          order,
		Status:         status,
		AssignedUserID: assignedUserID,
	}
}
