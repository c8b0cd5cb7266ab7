// Package errors provides custom error types for the beam system.
// These errors enable programmatic error checking and better error
// reporting across the ingestion, sync, and reconciliation paths.
package errors

import (
	"errors"
	"fmt"
)

// New returns an error that formats as the given text.
// It's an alias for the standard library errors.New for convenience.
var New = errors.New

// Is reports whether any error in err's chain matches target.
// It's an alias for the standard library errors.Is for convenience.
var Is = errors.Is

// As finds the first error in err's chain that matches target.
// It's an alias for the standard library errors.As for convenience.
var As = errors.As

// Common sentinel errors for the beam system
var (
	// ErrNotFound indicates that a requested record was not found
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists indicates that a record already exists
	ErrAlreadyExists = errors.New("already exists")

	// ErrInvalidInput indicates that provided input was invalid
	ErrInvalidInput = errors.New("invalid input")

	// ErrRateLimited indicates that an upstream API rate limit was exceeded
	ErrRateLimited = errors.New("rate limited")

	// ErrCanceled indicates that an operation was canceled
	ErrCanceled = errors.New("operation canceled")

	// ErrReadOnly indicates an attempt to modify a read-only store
	ErrReadOnly = errors.New("read only")
)

// NotFoundError represents an error when a record is not found
type NotFoundError struct {
	Resource string
	ID       string
}

// Error implements the error interface
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s with ID %s not found", e.Resource, e.ID)
}

// Is implements errors.Is support
func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// NewNotFoundError creates a new NotFoundError
func NewNotFoundError(resource, id string) *NotFoundError {
	return &NotFoundError{Resource: resource, ID: id}
}

// ValidationError represents a validation failure
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation failed for field %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation failed: %s", e.Message)
}

// Is implements errors.Is support
func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

// NewValidationError creates a new ValidationError
func NewValidationError(field string, value interface{}, message string) *ValidationError {
	return &ValidationError{Field: field, Value: value, Message: message}
}

// StoreError represents a read/write failure against the record store
type StoreError struct {
	Operation string // "find", "insert", "update", "delete"
	Backend   string // "memory", "sqlite", "postgres"
	ID        string
	Err       error
}

// Error implements the error interface
func (e *StoreError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("store %s failed on %s (record %s): %v", e.Operation, e.Backend, e.ID, e.Err)
	}
	return fmt.Sprintf("store %s failed on %s: %v", e.Operation, e.Backend, e.Err)
}

// Unwrap implements errors.Unwrap
func (e *StoreError) Unwrap() error {
	return e.Err
}

// NewStoreError creates a new StoreError
func NewStoreError(operation, backend, id string, err error) *StoreError {
	return &StoreError{Operation: operation, Backend: backend, ID: id, Err: err}
}

// MappingError represents a failure normalizing a single source row
type MappingError struct {
	OrgID  string
	Row    string // best available row identifier
	Reason string
	Err    error
}

// Error implements the error interface
func (e *MappingError) Error() string {
	if e.Row != "" {
		return fmt.Sprintf("mapping row %s for org %s: %s", e.Row, e.OrgID, e.Reason)
	}
	return fmt.Sprintf("mapping row for org %s: %s", e.OrgID, e.Reason)
}

// Unwrap implements errors.Unwrap
func (e *MappingError) Unwrap() error {
	return e.Err
}

// APIError represents an error from an upstream catalog API
type APIError struct {
	Shop       string
	StatusCode int
	Message    string
	Endpoint   string
	Err        error
}

// Error implements the error interface
func (e *APIError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("API error from %s (status %d): %s", e.Shop, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("API error from %s: %s", e.Shop, e.Message)
}

// Unwrap implements errors.Unwrap
func (e *APIError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is support
func (e *APIError) Is(target error) bool {
	return e.StatusCode == 429 && target == ErrRateLimited
}

// NewAPIError creates a new APIError
func NewAPIError(shop string, statusCode int, message string) *APIError {
	return &APIError{Shop: shop, StatusCode: statusCode, Message: message}
}

// ReconcileError represents a failure merging one duplicate group
type ReconcileError struct {
	OrgID     string
	ProductID string // merchant product ID shared by the group
	Err       error
}

// Error implements the error interface
func (e *ReconcileError) Error() string {
	return fmt.Sprintf("reconciling duplicates of product %s for org %s: %v", e.ProductID, e.OrgID, e.Err)
}

// Unwrap implements errors.Unwrap
func (e *ReconcileError) Unwrap() error {
	return e.Err
}

// Helper functions for error checking

// IsNotFound checks if an error is a not found error
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsValidationError checks if an error is a validation error
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}

// IsRateLimited checks if an error is a rate limit error
func IsRateLimited(err error) bool {
	return errors.Is(err, ErrRateLimited)
}

// Helper wrapping functions for common patterns

// WrapStore wraps an error as a StoreError
func WrapStore(operation, backend, id string, err error) error {
	if err == nil {
		return nil
	}
	return NewStoreError(operation, backend, id, err)
}

// WrapMapping wraps an error as a MappingError
func WrapMapping(orgID, row, reason string, err error) error {
	if err == nil {
		return nil
	}
	return &MappingError{OrgID: orgID, Row: row, Reason: reason, Err: err}
}

// WrapAPI wraps an error as an APIError
func WrapAPI(shop string, statusCode int, err error) error {
	if err == nil {
		return nil
	}
	return &APIError{Shop: shop, StatusCode: statusCode, Message: err.Error(), Err: err}
}
