package domain

import (
	"errors"
	"fmt"
)

// ErrNotAuthenticated is returned when no authenticated principal is
// attached to the request context.
var ErrNotAuthenticated = errors.New("not authenticated")

// ValidationError represents an error that occurs due to invalid input or parameters
type ValidationError struct {
	Message string
}

// Error implements the error interface
func (e ValidationError) Error() string {
	return fmt.Sprintf("validation error: %s", e.Message)
}

// NewValidationError creates a new validation error with the given message
func NewValidationError(message string) error {
	return ValidationError{
		Message: message,
	}
}

// ErrPermissionDenied is returned when the authenticated user lacks a permission
type ErrPermissionDenied struct {
	Permission string
}

func (e *ErrPermissionDenied) Error() string {
	return fmt.Sprintf("permission denied: %s is required", e.Permission)
}

// ErrPipelineNotFound is returned when a pipeline is not found
type ErrPipelineNotFound struct {
	Message string
}

func (e *ErrPipelineNotFound) Error() string {
	return e.Message
}

// ErrPipelineHasLeads is returned when deleting a pipeline that still has live leads
type ErrPipelineHasLeads struct {
	PipelineID string
	LeadCount  int
}

func (e *ErrPipelineHasLeads) Error() string {
	return fmt.Sprintf("pipeline %s still has %d active leads", e.PipelineID, e.LeadCount)
}

// ErrLeadNotFound is returned when a lead is not found
type ErrLeadNotFound struct {
	Message string
}

func (e *ErrLeadNotFound) Error() string {
	return e.Message
}

// ErrLeadStaleWrite is returned when an update carries an updated_at
// precondition that no longer matches the stored row.
type ErrLeadStaleWrite struct {
	LeadID string
}

func (e *ErrLeadStaleWrite) Error() string {
	return fmt.Sprintf("lead %s was modified by another session, refresh and retry", e.LeadID)
}
