// internal/services/errors.go
package services

import (
	"errors"
	"fmt"
	"strings"

	"github.com/javajoker/party-props-backend/internal/utils"
)

var (
	ErrAuthRequired        = errors.New("you must be signed in to perform this action")
	ErrNotFound            = errors.New("not found")
	ErrSuperseded          = errors.New("search superseded by a newer query")
	ErrPaymentsUnavailable = errors.New("payments are not configured")
)

// ValidationError is returned before any network call is made.
type ValidationError struct {
	Fields []utils.FieldError
}

func NewValidationError(field, tag, message string) *ValidationError {
	return &ValidationError{Fields: []utils.FieldError{{Field: field, Tag: tag, Message: message}}}
}

// validationFailed converts a validator error into a *ValidationError.
func validationFailed(err error) *ValidationError {
	fields := utils.GetValidationErrors(err)
	if len(fields) == 0 {
		fields = []utils.FieldError{{Field: "request", Tag: "invalid", Message: err.Error()}}
	}
	return &ValidationError{Fields: fields}
}

func (e *ValidationError) add(field, tag, message string) {
	e.Fields = append(e.Fields, utils.FieldError{Field: field, Tag: tag, Message: message})
}

func (e *ValidationError) has(field string) bool {
	for _, f := range e.Fields {
		if f.Field == field {
			return true
		}
	}
	return false
}

func (e *ValidationError) Error() string {
	msgs := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		msgs = append(msgs, f.Message)
	}
	return "validation failed: " + strings.Join(msgs, "; ")
}

// UploadError aborts ingestion; no listing record has been written.
type UploadError struct {
	Index int
	Path  string
	Err   error
}

func (e *UploadError) Error() string {
	return fmt.Sprintf("failed to upload image %d (%s): %v", e.Index, e.Path, e.Err)
}

func (e *UploadError) Unwrap() error {
	return e.Err
}

// PersistenceError means every image was uploaded but the record write failed. The uploaded
// blobs are left in place and listed in Orphaned.
type PersistenceError struct {
	Err      error
	Orphaned []string
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("failed to save listing (%d uploaded images orphaned): %v", len(e.Orphaned), e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// QueryError wraps a failed discovery query.
type QueryError struct {
	Err error
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("search failed: %v", e.Err)
}

func (e *QueryError) Unwrap() error {
	return e.Err
}

// PaymentError means the gateway declined or failed the charge; no order was written.
type PaymentError struct {
	Reference string
	Err       error
}

func (e *PaymentError) Error() string {
	return fmt.Sprintf("payment failed: %v", e.Err)
}

func (e *PaymentError) Unwrap() error {
	return e.Err
}
