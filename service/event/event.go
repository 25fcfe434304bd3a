// Package event publishes workflow lifecycle notifications on a messaging
// queue. Consumers such as the audit log subscribe through a Listener; the
// engine itself never blocks on event delivery beyond queue capacity.
package event

import (
	"time"
)

// Event types emitted by the engine.
const (
	TypeProcessStarted   = "process.started"
	TypeProcessCompleted = "process.completed"
	TypeProcessDeleted   = "process.deleted"
	TypeStepCompleted    = "step.completed"
	TypeStepSkipped      = "step.skipped"
	TypeTemplateDeleted  = "template.deleted"
)

// Event is one lifecycle notification.
type Event struct {
	Type       string    `json:"type"`
	ProcessID  string    `json:"processId,omitempty"`
	TemplateID string    `json:"templateId,omitempty"`
	StepID     string    `json:"stepId,omitempty"`
	ActorID    string    `json:"actorId,omitempty"`
	At         time.Time `json:"at"`
}
