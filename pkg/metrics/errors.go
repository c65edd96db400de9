package metrics

import (
	"errors"
	"fmt"
)

// Sentinel reasons for validation failures. Use errors.Is against a
// *ValidationError's Reason via Is.
var (
	// ErrMissingService indicates the payload had no usable service name.
	ErrMissingService = errors.New("service is required")

	// ErrBadField indicates a numeric field could not be parsed.
	ErrBadField = errors.New("field is not a valid non-negative integer")
)

// ValidationError represents a rejected ingestion payload. It is always
// surfaced to the ingestion caller and nothing is persisted.
type ValidationError struct {
	Field  string // Payload field that failed ("service", "uptime", ...)
	Reason error  // One of ErrMissingService, ErrBadField
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid sample [field=%s]: %v", e.Field, e.Reason)
}

// Unwrap returns the sentinel reason, so callers can use errors.Is.
func (e *ValidationError) Unwrap() error {
	return e.Reason
}

// NewValidationError creates a new ValidationError.
func NewValidationError(field string, reason error) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

// StorageError represents a failure of the backing store. Operations
// that see one retry once after re-ensuring the schema; write paths
// surface it afterwards, read paths degrade to empty results.
type StorageError struct {
	Operation string // Operation that failed ("append", "series", ...)
	Cause     error  // Underlying driver error
}

// Error implements the error interface.
func (e *StorageError) Error() string {
	return fmt.Sprintf("storage error [operation=%s]: %v", e.Operation, e.Cause)
}

// Unwrap returns the underlying cause error.
func (e *StorageError) Unwrap() error {
	return e.Cause
}

// NewStorageError creates a new StorageError.
func NewStorageError(operation string, cause error) *StorageError {
	return &StorageError{Operation: operation, Cause: cause}
}

// IngestError represents a write-path failure after validation passed.
// The sample was not persisted and was not broadcast.
type IngestError struct {
	Service string // Service the rejected sample belonged to
	Cause   error  // Underlying storage error
}

// Error implements the error interface.
func (e *IngestError) Error() string {
	return fmt.Sprintf("ingest failed [service=%s]: %v", e.Service, e.Cause)
}

// Unwrap returns the underlying cause error.
func (e *IngestError) Unwrap() error {
	return e.Cause
}

// NewIngestError creates a new IngestError.
func NewIngestError(service string, cause error) *IngestError {
	return &IngestError{Service: service, Cause: cause}
}
