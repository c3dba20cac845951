// Package common provides shared utilities and types used across the application.
package common

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
)

// Common application errors.
var (
	// Remote ERP errors.
	ErrAuth          = errors.New("authentication failed")
	ErrProtocol      = errors.New("unexpected response")
	ErrConfiguration = errors.New("report configuration rejected")
	ErrGeneration    = errors.New("report generation failed")
	ErrDownload      = errors.New("report download failed")

	// Destination errors.
	ErrQuota = errors.New("quota exceeded")

	// Storage errors.
	ErrNotFound = errors.New("not found")

	// Configuration errors.
	ErrInvalidConfig = errors.New("invalid configuration")
)

// StepError describes a failed remote step. Kind is one of the sentinel
// errors above so callers can match with errors.Is.
type StepError struct {
	Kind      error
	Err       error
	Step      string
	Detail    string
	Transient bool
}

func (e *StepError) Error() string {
	msg := fmt.Sprintf("%s: %v", e.Step, e.Kind)
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap exposes both the kind and the underlying cause.
func (e *StepError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// NewStepError creates a step error for a response that was missing an
// expected field. These are treated as transient, the server often recovers
// on the next attempt.
func NewStepError(kind error, step, detail string) *StepError {
	return &StepError{Kind: kind, Step: step, Detail: detail, Transient: true}
}

// NewFatalStepError creates a step error that should never be retried.
func NewFatalStepError(kind error, step, detail string, err error) *StepError {
	return &StepError{Kind: kind, Step: step, Detail: detail, Err: err}
}

// HTTPError is returned when a remote endpoint answers with an unexpected status.
type HTTPError struct {
	URL        string
	Body       string
	StatusCode int
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("%s returned %d %s: %s", e.URL, e.StatusCode, http.StatusText(e.StatusCode), e.Body)
}

// Temporary reports whether the status is worth retrying.
func (e *HTTPError) Temporary() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= http.StatusInternalServerError
}

// UserError represents an error that should be shown to the user.
type UserError struct {
	Err         error
	UserMessage string
}

func (e *UserError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.UserMessage, e.Err)
	}
	return e.UserMessage
}

func (e *UserError) Unwrap() error {
	return e.Err
}

// NewUserError creates a new user-friendly error.
func NewUserError(userMessage string, err error) error {
	return &UserError{
		UserMessage: userMessage,
		Err:         err,
	}
}

// IsTransient reports whether err is a transport failure, a rate limit or an
// explicitly retryable error. Application-level step errors are not included.
func IsTransient(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return false
	}

	var retryableErr *RetryableError
	if errors.As(err, &retryableErr) {
		return retryableErr.Retryable
	}

	if errors.Is(err, ErrQuota) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.Temporary()
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return true
	}

	var netErr net.Error
	return errors.As(err, &netErr)
}

// IsRetryable extends IsTransient with step errors flagged as transient,
// such as a login response without a uid.
func IsRetryable(err error) bool {
	if IsTransient(err) {
		return true
	}
	var stepErr *StepError
	if errors.As(err, &stepErr) {
		return stepErr.Transient
	}
	return false
}
