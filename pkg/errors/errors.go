// Package errors provides custom error types for the stonemap pipeline.
// These errors enable programmatic checking of rejection, conflict and
// batch failures while keeping the underlying cause available through
// errors.Unwrap.
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// New returns an error that formats as the given text.
// It's an alias for the standard library errors.New for convenience.
var New = errors.New

// Is and As re-export the standard library helpers so callers need a single import.
var (
	Is = errors.Is
	As = errors.As
)

// Common sentinel errors for the stonemap system.
var (
	// ErrNotFound indicates that a requested resource was not found
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists indicates that a resource already exists
	ErrAlreadyExists = errors.New("already exists")

	// ErrInvalidInput indicates that provided input was invalid
	ErrInvalidInput = errors.New("invalid input")

	// ErrProviderUnavailable indicates that a remote source is temporarily unavailable
	ErrProviderUnavailable = errors.New("provider unavailable")

	// ErrRateLimited indicates that a remote rate limit has been exceeded
	ErrRateLimited = errors.New("rate limited")

	// ErrTimeout indicates that an operation timed out
	ErrTimeout = errors.New("operation timed out")

	// ErrCanceled indicates that an operation was canceled
	ErrCanceled = errors.New("operation canceled")
)

// Pipeline sentinel errors.
var (
	// ErrInvalidCoordinates indicates a record whose coordinates are out of range or non-finite
	ErrInvalidCoordinates = errors.New("invalid coordinates")

	// ErrGarbageContent indicates a record rejected by the lexical spam filter
	ErrGarbageContent = errors.New("garbage content")

	// ErrConflictingMatch indicates a record that qualified against more than one site
	ErrConflictingMatch = errors.New("conflicting match")

	// ErrEnrichmentUnavailable indicates an enrichment lookup failed or timed out
	ErrEnrichmentUnavailable = errors.New("enrichment unavailable")

	// ErrSlugCollisionExhausted indicates no free slug could be found within the attempt budget
	ErrSlugCollisionExhausted = errors.New("slug collision exhausted")

	// ErrMalformedBatch indicates a batch that is structurally unusable
	ErrMalformedBatch = errors.New("malformed batch")
)

// NotFoundError represents an error when a resource is not found
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

// AlreadyExistsError represents an attempt to add a resource twice
type AlreadyExistsError struct {
	Resource string
	ID       string
}

// Error implements the error interface
func (e *AlreadyExistsError) Error() string {
	return fmt.Sprintf("%s with ID %s already exists", e.Resource, e.ID)
}

// Is implements errors.Is support
func (e *AlreadyExistsError) Is(target error) bool {
	return target == ErrAlreadyExists
}

// NewAlreadyExistsError creates a new AlreadyExistsError
func NewAlreadyExistsError(resource, id string) *AlreadyExistsError {
	return &AlreadyExistsError{Resource: resource, ID: id}
}

// ValidationError represents a validation failure
type ValidationError struct {
	Field   string
	Value   any
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
func NewValidationError(field string, value any, message string) *ValidationError {
	return &ValidationError{Field: field, Value: value, Message: message}
}

// RejectionError is returned by the validity filter for a record it refuses.
type RejectionError struct {
	Reason   error // ErrInvalidCoordinates or ErrGarbageContent
	RecordID string
	Detail   string
}

// Error implements the error interface
func (e *RejectionError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("record %s rejected: %v (%s)", e.RecordID, e.Reason, e.Detail)
	}
	return fmt.Sprintf("record %s rejected: %v", e.RecordID, e.Reason)
}

// Is implements errors.Is support
func (e *RejectionError) Is(target error) bool {
	return target == e.Reason
}

// NewRejectionError creates a new RejectionError
func NewRejectionError(reason error, recordID, detail string) *RejectionError {
	return &RejectionError{Reason: reason, RecordID: recordID, Detail: detail}
}

// ConflictError reports a record that matched several distinct sites.
type ConflictError struct {
	RecordID     string
	CandidateIDs []string
}

// Error implements the error interface
func (e *ConflictError) Error() string {
	return fmt.Sprintf("record %s matches multiple sites: %s", e.RecordID, strings.Join(e.CandidateIDs, ", "))
}

// Is implements errors.Is support
func (e *ConflictError) Is(target error) bool {
	return target == ErrConflictingMatch
}

// NewConflictError creates a new ConflictError
func NewConflictError(recordID string, candidateIDs []string) *ConflictError {
	return &ConflictError{RecordID: recordID, CandidateIDs: candidateIDs}
}

// EnrichmentError wraps a failed enrichment lookup. It is never fatal.
type EnrichmentError struct {
	Enhancer string
	RecordID string
	Err      error
}

// Error implements the error interface
func (e *EnrichmentError) Error() string {
	return fmt.Sprintf("enrichment %s failed for %s: %v", e.Enhancer, e.RecordID, e.Err)
}

// Unwrap implements errors.Unwrap
func (e *EnrichmentError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is support
func (e *EnrichmentError) Is(target error) bool {
	return target == ErrEnrichmentUnavailable
}

// NewEnrichmentError creates a new EnrichmentError
func NewEnrichmentError(enhancer, recordID string, err error) *EnrichmentError {
	return &EnrichmentError{Enhancer: enhancer, RecordID: recordID, Err: err}
}

// SlugError is returned when every candidate slug for a base is taken.
type SlugError struct {
	Base     string
	Attempts int
}

// Error implements the error interface
func (e *SlugError) Error() string {
	return fmt.Sprintf("no free slug for %q after %d attempts", e.Base, e.Attempts)
}

// Is implements errors.Is support
func (e *SlugError) Is(target error) bool {
	return target == ErrSlugCollisionExhausted
}

// NewSlugError creates a new SlugError
func NewSlugError(base string, attempts int) *SlugError {
	return &SlugError{Base: base, Attempts: attempts}
}

// BatchError aborts processing of a single batch.
type BatchError struct {
	Batch   string
	Message string
	Err     error
}

// Error implements the error interface
func (e *BatchError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("batch %s: %s: %v", e.Batch, e.Message, e.Err)
	}
	return fmt.Sprintf("batch %s: %s", e.Batch, e.Message)
}

// Unwrap implements errors.Unwrap
func (e *BatchError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is support
func (e *BatchError) Is(target error) bool {
	return target == ErrMalformedBatch
}

// NewBatchError creates a new BatchError
func NewBatchError(batch, message string, err error) *BatchError {
	return &BatchError{Batch: batch, Message: message, Err: err}
}

// APIError represents an error from a remote source API
type APIError struct {
	Provider   string
	StatusCode int
	Message    string
	Endpoint   string
	Err        error
}

// Error implements the error interface
func (e *APIError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("API error from %s (status %d): %s", e.Provider, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("API error from %s: %s", e.Provider, e.Message)
}

// Unwrap implements errors.Unwrap
func (e *APIError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is support
func (e *APIError) Is(target error) bool {
	if e.StatusCode == 429 {
		return target == ErrRateLimited
	}
	if e.StatusCode >= 500 {
		return target == ErrProviderUnavailable
	}
	return false
}

// NewAPIError creates a new APIError
func NewAPIError(provider string, statusCode int, message string) *APIError {
	return &APIError{
		Provider:   provider,
		StatusCode: statusCode,
		Message:    message,
	}
}

// ConfigError represents a configuration error
type ConfigError struct {
	Component string
	Message   string
	Err       error
}

// Error implements the error interface
func (e *ConfigError) Error() string {
	if e.Component != "" {
		return fmt.Sprintf("configuration error in %s: %s", e.Component, e.Message)
	}
	return fmt.Sprintf("configuration error: %s", e.Message)
}

// Unwrap implements errors.Unwrap
func (e *ConfigError) Unwrap() error {
	return e.Err
}

// NewConfigError creates a new ConfigError
func NewConfigError(component, message string, err error) *ConfigError {
	return &ConfigError{
		Component: component,
		Message:   message,
		Err:       err,
	}
}

// ParseError represents an error when parsing data formats
type ParseError struct {
	Format  string // "json", "yaml", "overpass", "sparql"
	File    string
	Message string
	Err     error
}

// Error implements the error interface
func (e *ParseError) Error() string {
	if e.File != "" {
		return fmt.Sprintf("parse error in %s file %s: %s", e.Format, e.File, e.Message)
	}
	return fmt.Sprintf("%s parse error: %s", e.Format, e.Message)
}

// Unwrap implements errors.Unwrap
func (e *ParseError) Unwrap() error {
	return e.Err
}

// NewParseError creates a new ParseError
func NewParseError(format, file string, message string, err error) *ParseError {
	return &ParseError{
		Format:  format,
		File:    file,
		Message: message,
		Err:     err,
	}
}

// IOError represents an error during I/O operations
type IOError struct {
	Operation string // "read", "write", "create", "open", "close"
	Path      string
	Message   string
	Err       error
}

// Error implements the error interface
func (e *IOError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("IO error during %s of %s: %s", e.Operation, e.Path, e.Message)
	}
	return fmt.Sprintf("IO error during %s: %s", e.Operation, e.Message)
}

// Unwrap implements errors.Unwrap
func (e *IOError) Unwrap() error {
	return e.Err
}

// Helper functions for error checking

// IsNotFound checks if an error is a not found error
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsAlreadyExists checks if an error is an already exists error
func IsAlreadyExists(err error) bool {
	return errors.Is(err, ErrAlreadyExists)
}

// IsValidationError checks if an error is a validation error
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}

// IsRateLimited checks if an error is a rate limit error
func IsRateLimited(err error) bool {
	return errors.Is(err, ErrRateLimited)
}

// IsProviderUnavailable checks if an error indicates remote unavailability
func IsProviderUnavailable(err error) bool {
	return errors.Is(err, ErrProviderUnavailable)
}

// IsRejection checks if an error is a validity filter rejection of any kind
func IsRejection(err error) bool {
	return errors.Is(err, ErrInvalidCoordinates) || errors.Is(err, ErrGarbageContent)
}

// IsMalformedBatch checks if an error aborted a batch
func IsMalformedBatch(err error) bool {
	return errors.Is(err, ErrMalformedBatch)
}

// Helper wrapping functions for common patterns

// WrapIO wraps an error as an IOError
func WrapIO(operation, path string, err error) error {
	if err == nil {
		return nil
	}
	return &IOError{
		Operation: operation,
		Path:      path,
		Message:   err.Error(),
		Err:       err,
	}
}

// WrapParse wraps an error as a ParseError
func WrapParse(format, file string, err error) error {
	if err == nil {
		return nil
	}
	return NewParseError(format, file, err.Error(), err)
}

// WrapAPI wraps an error as an APIError
func WrapAPI(provider string, statusCode int, err error) error {
	if err == nil {
		return nil
	}
	return &APIError{
		Provider:   provider,
		StatusCode: statusCode,
		Message:    err.Error(),
		Err:        err,
	}
}
