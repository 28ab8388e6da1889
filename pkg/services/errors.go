// Package services provides the console store and standardized error types for
// service layer operations.
package services

import (
	"errors"
	"fmt"

	"github.com/dukex/flowbuilder/pkg/elementtree"
	"github.com/dukex/flowbuilder/pkg/materializer"
	"github.com/dukex/flowbuilder/pkg/models"
	"github.com/dukex/flowbuilder/pkg/persistence"
	"github.com/dukex/flowbuilder/pkg/workflow"
)

// Business Logic Errors - These indicate client errors (4xx responses).
var (
	// Validation Errors (400 Bad Request).
	ErrInvalidRequest       = errors.New("invalid request")
	ErrInvalidTemplate      = errors.New("invalid activity template")
	ErrTemplateNameRequired = errors.New("template name is required")
	ErrWorkflowNameRequired = errors.New("workflow name is required")

	// Not Found Errors (404 Not Found).
	ErrWorkflowNotFound = persistence.ErrWorkflowNotFound
	ErrTemplateNotFound = persistence.ErrTemplateNotFound
)

// ServiceError wraps service-level errors with additional context.
type ServiceError struct {
	Op      string // Operation name
	Code    string // Error code for API responses
	Message string // Human-readable message
	Err     error  // Underlying error
}

func (e *ServiceError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Op, e.Message)
	}

	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

func (e *ServiceError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// IsValidationError checks if an error is a validation error that should return HTTP 400.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidRequest) ||
		errors.Is(err, ErrInvalidTemplate) ||
		errors.Is(err, ErrTemplateNameRequired) ||
		errors.Is(err, ErrWorkflowNameRequired) ||
		errors.Is(err, workflow.ErrInvalidBranchName) ||
		errors.Is(err, workflow.ErrUnknownBranch) ||
		errors.Is(err, workflow.ErrNotConditionNode) ||
		errors.Is(err, workflow.ErrUseBranchCommands) ||
		errors.Is(err, models.ErrValueKindMismatch) ||
		errors.Is(err, models.ErrInvalidElement) ||
		errors.Is(err, models.ErrInvalidElementType) ||
		errors.Is(err, models.ErrDuplicateElementID) ||
		errors.Is(err, models.ErrFollowUpUnsupported) ||
		errors.Is(err, models.ErrUnknownIcon) ||
		errors.Is(err, materializer.ErrNotMaterializing) ||
		errors.Is(err, elementtree.ErrDuplicateID) ||
		errors.Is(err, elementtree.ErrInvalidPosition)
}

// IsNotFoundError checks if an error should return HTTP 404.
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrWorkflowNotFound) ||
		errors.Is(err, ErrTemplateNotFound) ||
		workflow.IsNotFound(err) ||
		errors.Is(err, elementtree.ErrFollowUpNotFound)
}

// IsConflictError checks if an error is a business logic conflict that should return HTTP 409.
func IsConflictError(err error) bool {
	return workflow.IsConflict(err)
}

// NewValidationError creates a new validation error with context.
func NewValidationError(op, code, message string, err error) *ServiceError {
	return &ServiceError{
		Op:      op,
		Code:    code,
		Message: message,
		Err:     err,
	}
}
