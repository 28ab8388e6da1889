package persistence

import (
	"errors"
	"fmt"
	"strings"
)

// Standard persistence error types that all implementations should use.
var (
	// ErrWorkflowNotFound indicates a workflow was not found by the given identifier.
	ErrWorkflowNotFound = errors.New("workflow not found")

	// ErrTemplateNotFound indicates an activity template was not found by the given identifier.
	ErrTemplateNotFound = errors.New("activity template not found")
)

// Verbs and nouns of storage operations, as shown to the user.
const (
	VerbLoad   = "load"
	VerbCreate = "create"
	VerbUpdate = "update"
	VerbDelete = "delete"

	NounTemplate  = "template"
	NounTemplates = "templates"
	NounWorkflow  = "workflow"
	NounWorkflows = "workflows"
)

// OperationError wraps a failed storage call. Its message is the user-facing
// "Failed to <verb> <noun>"; the cause stays reachable through Unwrap.
type OperationError struct {
	Verb string
	Noun string
	ID   string
	Err  error
}

func (e *OperationError) Error() string {
	return e.Message()
}

// Message returns the banner text for the failure.
func (e *OperationError) Message() string {
	return fmt.Sprintf("Failed to %s %s", e.Verb, e.Noun)
}

// Detail includes the id and cause, for logs.
func (e *OperationError) Detail() string {
	var b strings.Builder

	b.WriteString(e.Message())

	if e.ID != "" {
		b.WriteString(" " + e.ID)
	}

	if e.Err != nil {
		b.WriteString(": " + e.Err.Error())
	}

	return b.String()
}

func (e *OperationError) Unwrap() error {
	return e.Err
}

// Is implements error comparison for operation errors.
func (e *OperationError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// NewOperationError creates a new operation error with context.
func NewOperationError(verb, noun, id string, err error) *OperationError {
	return &OperationError{Verb: verb, Noun: noun, ID: id, Err: err}
}

// IsWorkflowNotFound checks if an error indicates a workflow was not found.
func IsWorkflowNotFound(err error) bool {
	return errors.Is(err, ErrWorkflowNotFound)
}

// IsTemplateNotFound checks if an error indicates a template was not found.
func IsTemplateNotFound(err error) bool {
	return errors.Is(err, ErrTemplateNotFound)
}

// Banner returns the user-facing message of a storage failure, or the error text
// when err is not an OperationError.
func Banner(err error) string {
	var opErr *OperationError
	if errors.As(err, &opErr) {
		return opErr.Message()
	}

	return err.Error()
}
