package common

import (
	"errors"
	"fmt"
)

// Common application errors
var (
	ErrNotFound     = errors.New("resource not found")
	ErrInvalidInput = errors.New("invalid input")
	ErrInternal     = errors.New("internal error")
)

// ValidationError reports bad input caught before any network call is
// made (size ceiling, type allow list, malformed bulk rows).
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed for field '%s' with value '%v': %s", e.Field, e.Value, e.Message)
}

func NewValidationError(field string, value interface{}, message string) *ValidationError {
	return &ValidationError{Field: field, Value: value, Message: message}
}

// RegistrationError reports a phase-1 (initialize) or phase-3 (confirm)
// failure from the registration service. Rejected distinguishes the
// backend refusing the declared input from a transient/network fault;
// only the latter is worth retrying as-is.
type RegistrationError struct {
	Phase    string // "initialize" or "confirm"
	ItemID   string
	Rejected bool
	Message  string
	Cause    error
}

func (e *RegistrationError) Error() string {
	kind := "transient"
	if e.Rejected {
		kind = "rejected"
	}
	if e.Cause != nil {
		return fmt.Sprintf("registration %s failed (%s) for item %s: %s: %v", e.Phase, kind, e.ItemID, e.Message, e.Cause)
	}
	return fmt.Sprintf("registration %s failed (%s) for item %s: %s", e.Phase, kind, e.ItemID, e.Message)
}

func (e *RegistrationError) Unwrap() error { return e.Cause }

// TransferError reports a phase-2 byte-transfer failure. Recovery always
// restarts from phase 1 since the handle may have expired.
type TransferError struct {
	ItemID string
	Cause  error
}

func (e *TransferError) Error() string {
	return fmt.Sprintf("transfer failed for item %s: %v", e.ItemID, e.Cause)
}

func (e *TransferError) Unwrap() error { return e.Cause }

// ExtractionTimeoutError reports an exhausted poll budget. The job may
// still complete server-side; the job id allows re-polling later.
type ExtractionTimeoutError struct {
	JobID    string
	Attempts int
}

func (e *ExtractionTimeoutError) Error() string {
	return fmt.Sprintf("extraction job %s still processing after %d polls", e.JobID, e.Attempts)
}

// ExtractionFailedError reports a terminal failure from the extraction
// service itself.
type ExtractionFailedError struct {
	JobID   string
	Message string
}

func (e *ExtractionFailedError) Error() string {
	return fmt.Sprintf("extraction job %s failed: %s", e.JobID, e.Message)
}

// ReviewPolicyError reports an approval attempt the review policy
// forbids, e.g. approving a requires-review job with no edits and no
// override.
type ReviewPolicyError struct {
	JobID   string
	Message string
}

func (e *ReviewPolicyError) Error() string {
	return fmt.Sprintf("review policy violation for job %s: %s", e.JobID, e.Message)
}

// Retryable reports whether resubmitting the same request could succeed.
func Retryable(err error) bool {
	var regErr *RegistrationError
	if errors.As(err, &regErr) {
		return !regErr.Rejected
	}
	var timeoutErr *ExtractionTimeoutError
	return errors.As(err, &timeoutErr)
}

func WrapError(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}
