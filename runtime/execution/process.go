// Package execution holds the runtime state of in-flight processes: the
// Process instance created from a template and the per-step execution
// records that carry submitted form data.
package execution

import (
	"fmt"
	"time"
)

// Process status constants.
const (
	StatusActive    = "active"
	StatusCompleted = "completed"
	StatusCancelled = "cancelled"
)

// Process represents one concrete execution of a template against a client.
type Process struct {
	ID          string     `json:"id"`
	TemplateID  string     `json:"templateId"`
	ClientID    string     `json:"clientId"`
	Name        string     `json:"name"`
	Number      int64      `json:"processNumber"`
	Status      string     `json:"status"`
	CurrentStep string     `json:"currentStepId,omitempty"`
	StartedBy   string     `json:"startedBy"`
	StartedAt   time.Time  `json:"startedAt"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`

	// Version is bumped on every mutation; stores use it for optimistic
	// concurrency so two racing executions cannot both win.
	Version int `json:"version"`
}

// FormattedNumber renders the human-readable process number.
func (p *Process) FormattedNumber() string {
	return FormatNumber(p.Number)
}

// FormatNumber renders a process number the way it is shown to users and
// accepted by the search-by-number lookup.
func FormatNumber(number int64) string {
	return fmt.Sprintf("PROC-%06d", number)
}

// Complete marks the process as finished at the given time and clears the
// current step pointer.
func (p *Process) Complete(now time.Time) {
	p.Status = StatusCompleted
	p.CompletedAt = &now
	p.CurrentStep = ""
}

// Active reports whether the process still accepts step executions.
func (p *Process) Active() bool {
	return p.Status == StatusActive
}

// Clone creates a copy safe to hand to callers without aliasing store state.
func (p *Process) Clone() *Process {
	if p == nil {
		return nil
	}
	out := *p
	if p.CompletedAt != nil {
		completed := *p.CompletedAt
		out.CompletedAt = &completed
	}
	return &out
}

// CopyFrom updates mutable fields from src; identity fields are preserved.
func (p *Process) CopyFrom(src *Process) {
	if src == nil || src == p {
		return
	}
	p.Status = src.Status
	p.CurrentStep = src.CurrentStep
	p.CompletedAt = src.CompletedAt
	p.Version = src.Version
}

// NewProcess creates an active process in its initial state. The caller
// supplies identity, the allocated number and the creation time.
func NewProcess(id, templateID, clientID, name string, number int64, startedBy string, now time.Time) *Process {
	return &Process{
		ID:         id,
		TemplateID: templateID,
		ClientID:   clientID,
		Name:       name,
		Number:     number,
		Status:     StatusActive,
		StartedBy:  startedBy,
		StartedAt:  now,
		Version:    1,
	}
}
