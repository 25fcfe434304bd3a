// Package fault defines the error taxonomy shared by all engine services.
// Callers are expected to classify failures with errors.As rather than by
// inspecting message text.
package fault

import "fmt"

// Human-readable reasons for illegal step transitions, kept in the product
// language used by the original deployment.
const (
	ReasonWaitingPredecessor = "aguardando etapa anterior"
	ReasonAlreadyExecuted    = "já executada"
)

// ValidationError indicates malformed input: a bad template definition or a
// form submission that does not satisfy the step's field schema.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// NewValidation creates a ValidationError without a field reference.
func NewValidation(format string, args ...interface{}) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// NewFieldValidation creates a ValidationError naming the offending field
// label.
func NewFieldValidation(field, format string, args ...interface{}) *ValidationError {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// NotFoundError indicates that the referenced entity does not exist.
type NotFoundError struct {
	Kind string
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Kind, e.ID)
}

// NewNotFound creates a NotFoundError for the given entity kind and id.
func NewNotFound(kind, id string) *NotFoundError {
	return &NotFoundError{Kind: kind, ID: id}
}

// AuthorizationError indicates the caller lacks the role or template ACL
// entry required by the operation.
type AuthorizationError struct {
	Message string
}

func (e *AuthorizationError) Error() string { return e.Message }

// NewAuthorization creates an AuthorizationError.
func NewAuthorization(format string, args ...interface{}) *AuthorizationError {
	return &AuthorizationError{Message: fmt.Sprintf(format, args...)}
}

// InvalidStateError indicates that a step execution is not executable in its
// current status, or that a lifecycle operation conflicts with current state.
type InvalidStateError struct {
	Reason string
}

func (e *InvalidStateError) Error() string { return e.Reason }

// NewInvalidState creates an InvalidStateError with a human-readable reason.
func NewInvalidState(reason string) *InvalidStateError {
	return &InvalidStateError{Reason: reason}
}
