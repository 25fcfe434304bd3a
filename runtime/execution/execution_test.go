package execution

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFormatNumber(t *testing.T) {
	assert.Equal(t, "PROC-000001", FormatNumber(1))
	assert.Equal(t, "PROC-000123", FormatNumber(123))
	assert.Equal(t, "PROC-1000000", FormatNumber(1000000))
}

func TestProcess_Lifecycle(t *testing.T) {
	now := time.Date(2026, 8, 28, 10, 0, 0, 0, time.UTC)
	aProcess := NewProcess("p1", "tpl-1", "c1", "Aprovação PROC-000001", 1, "u1", now)

	assert.Equal(t, StatusActive, aProcess.Status)
	assert.True(t, aProcess.Active())
	assert.Equal(t, 1, aProcess.Version)
	assert.Nil(t, aProcess.CompletedAt)

	done := now.Add(time.Hour)
	aProcess.CurrentStep = "se1"
	aProcess.Complete(done)
	assert.Equal(t, StatusCompleted, aProcess.Status)
	assert.False(t, aProcess.Active())
	assert.Empty(t, aProcess.CurrentStep)
	assert.Equal(t, done, *aProcess.CompletedAt)
}

func TestProcess_Clone(t *testing.T) {
	now := time.Now()
	aProcess := NewProcess("p1", "tpl-1", "c1", "n", 1, "u1", now)
	aProcess.Complete(now)

	cloned := aProcess.Clone()
	later := now.Add(time.Hour)
	cloned.CompletedAt = &later
	cloned.Status = StatusCancelled
	assert.Equal(t, now, *aProcess.CompletedAt)
	assert.Equal(t, StatusCompleted, aProcess.Status)
}

func TestNewStepExecution_InitialStatus(t *testing.T) {
	first := NewStepExecution("se1", "p1", "s1", 1, "u1")
	second := NewStepExecution("se2", "p1", "s2", 2, "u2")
	assert.Equal(t, StepStatusPending, first.Status)
	assert.Equal(t, StepStatusWaiting, second.Status)
}

func TestStepExecution_Transitions(t *testing.T) {
	now := time.Now()
	step := NewStepExecution("se1", "p1", "s1", 1, "u1")
	assert.True(t, step.Executable())
	assert.False(t, step.Finished())

	step.Start(now)
	assert.Equal(t, StepStatusInProgress, step.Status)
	assert.True(t, step.Executable())

	step.Complete(map[string]interface{}{"amount": float64(10)}, "ok", now)
	assert.Equal(t, StepStatusCompleted, step.Status)
	assert.False(t, step.Executable())
	assert.True(t, step.Finished())
	assert.Equal(t, "ok", step.Notes)

	waiting := NewStepExecution("se2", "p1", "s2", 2, "u2")
	assert.False(t, waiting.Executable())
	waiting.Promote()
	assert.Equal(t, StepStatusPending, waiting.Status)

	skipped := NewStepExecution("se3", "p1", "s3", 1, "u3")
	skipped.Skip(now)
	assert.Equal(t, StepStatusSkipped, skipped.Status)
	assert.True(t, skipped.Finished())
}

func TestStepExecution_CompleteStampsStart(t *testing.T) {
	now := time.Now()
	step := NewStepExecution("se1", "p1", "s1", 1, "u1")
	step.Complete(nil, "", now)
	assert.NotNil(t, step.StartedAt)
	assert.Equal(t, now, *step.StartedAt)
}

func TestStepExecution_Clone(t *testing.T) {
	now := time.Now()
	step := NewStepExecution("se1", "p1", "s1", 1, "u1")
	step.Complete(map[string]interface{}{"amount": float64(10)}, "", now)

	cloned := step.Clone()
	cloned.FormData["amount"] = float64(99)
	assert.Equal(t, float64(10), step.FormData["amount"])
}
