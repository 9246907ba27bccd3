package domain

import "fmt"

// Error types for consistent error handling across the ledger core.

// ErrNotFound indicates a resource was not found.
type ErrNotFound struct {
	Resource string
	ID       string
}

func (e *ErrNotFound) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

// ErrValidation indicates a validation error (bad input). Validation
// errors are raised before any write occurs.
type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	return fmt.Sprintf("validation error on '%s': %s", e.Field, e.Message)
}

// ErrPersistence indicates a storage operation failed. It is propagated,
// never swallowed.
type ErrPersistence struct {
	Op  string
	Err error
}

func (e *ErrPersistence) Error() string {
	return fmt.Sprintf("persistence error [%s]: %v", e.Op, e.Err)
}

func (e *ErrPersistence) Unwrap() error {
	return e.Err
}

// ErrRollbackFailed indicates a compensating delete failed after a
// mid-sequence persistence error, leaving the store inconsistent.
// It is surfaced as its own kind so callers can alert on it.
type ErrRollbackFailed struct {
	Op          string
	EntityID    string
	Cause       error
	RollbackErr error
}

func (e *ErrRollbackFailed) Error() string {
	return fmt.Sprintf("rollback failed [%s] for %s: %v (original error: %v)", e.Op, e.EntityID, e.RollbackErr, e.Cause)
}

func (e *ErrRollbackFailed) Unwrap() error {
	return e.RollbackErr
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

// ErrCircuitOpen indicates the circuit breaker is open.
type ErrCircuitOpen struct {
	Service string
}

func (e *ErrCircuitOpen) Error() string {
	return fmt.Sprintf("circuit breaker open for service: %s", e.Service)
}

// ErrConflict indicates a state conflict, e.g. converting a transaction
// that is already split.
type ErrConflict struct {
	Message string
}

func (e *ErrConflict) Error() string {
	return e.Message
}
