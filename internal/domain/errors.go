package domain

import "fmt"

// Error types for consistent error handling across the engine.

// ErrNotFound indicates a resource was not found.
type ErrNotFound struct {
	Resource string
	ID       string
}

func (e *ErrNotFound) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

// ErrValidation indicates a validation error (bad input).
type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	return fmt.Sprintf("validation error on '%s': %s", e.Field, e.Message)
}

// ErrInvalidStateTransition indicates an approve/reject attempt on an
// application that is no longer Pending.
type ErrInvalidStateTransition struct {
	ApplicationID string
	From          ApplicationStatus
	To            ApplicationStatus
}

func (e *ErrInvalidStateTransition) Error() string {
	return fmt.Sprintf("application %s: cannot transition %s -> %s", e.ApplicationID, e.From, e.To)
}

// ErrIncompleteDocuments indicates approval was attempted before all
// required documents were registered.
type ErrIncompleteDocuments struct {
	ApplicationID string
	Missing       []DocumentType
}

func (e *ErrIncompleteDocuments) Error() string {
	return fmt.Sprintf("application %s: missing required documents %v", e.ApplicationID, e.Missing)
}

// ErrConfigurationUnavailable indicates the configuration provider failed
// to return an interest configuration.
type ErrConfigurationUnavailable struct {
	Err error
}

func (e *ErrConfigurationUnavailable) Error() string {
	return fmt.Sprintf("interest configuration unavailable: %v", e.Err)
}

func (e *ErrConfigurationUnavailable) Unwrap() error {
	return e.Err
}

// ErrExternalService indicates a failure in an external service call.
type ErrExternalService struct {
	Service string
	Err     error
}

func (e *ErrExternalService) Error() string {
	return fmt.Sprintf("external service error [%s]: %v", e.Service, e.Err)
}

func (e *ErrExternalService) Unwrap() error {
	return e.Err
}

// ErrTimeout indicates an operation exceeded its deadline.
type ErrTimeout struct {
	Operation string
}

func (e *ErrTimeout) Error() string {
	return fmt.Sprintf("operation timed out: %s", e.Operation)
}

// ErrCircuitOpen indicates the circuit breaker is open.
type ErrCircuitOpen struct {
	Service string
}

func (e *ErrCircuitOpen) Error() string {
	return fmt.Sprintf("circuit breaker open for service: %s", e.Service)
}
