package common

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		err       error
		name      string
		transient bool
		retryable bool
	}{
		{name: "nil", err: nil},
		{name: "plain error", err: errors.New("boom")},
		{name: "canceled", err: context.Canceled},
		{name: "deadline", err: context.DeadlineExceeded, transient: true, retryable: true},
		{name: "quota", err: fmt.Errorf("write chunk: %w", ErrQuota), transient: true, retryable: true},
		{
			name:      "transport",
			err:       &url.Error{Op: "Post", URL: "https://erp.example.com", Err: errors.New("connection refused")},
			transient: true,
			retryable: true,
		},
		{name: "http 503", err: &HTTPError{StatusCode: 503}, transient: true, retryable: true},
		{name: "http 429", err: &HTTPError{StatusCode: 429}, transient: true, retryable: true},
		{name: "http 404", err: &HTTPError{StatusCode: 404}},
		{name: "missing field", err: NewStepError(ErrAuth, "authenticate", "no uid"), retryable: true},
		{name: "fatal step", err: NewFatalStepError(ErrAuth, "authenticate", "Access Denied", nil)},
		{name: "retryable flag off", err: &RetryableError{Err: ErrQuota, Retryable: false}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.transient, IsTransient(tt.err))
			assert.Equal(t, tt.retryable, IsRetryable(tt.err))
		})
	}
}

func TestStepError_MatchesKindAndCause(t *testing.T) {
	cause := &HTTPError{URL: "https://erp.example.com/report/download", StatusCode: 502}
	err := fmt.Errorf("job zipper: %w", &StepError{
		Kind: ErrDownload,
		Step: "download",
		Err:  cause,
	})

	assert.ErrorIs(t, err, ErrDownload)
	assert.ErrorIs(t, err, cause)
	assert.NotErrorIs(t, err, ErrAuth)
	assert.Contains(t, err.Error(), "download: report download failed")
}

func TestUserError(t *testing.T) {
	err := NewUserError("check your credentials", ErrAuth)
	assert.ErrorIs(t, err, ErrAuth)
	assert.Equal(t, "check your credentials: authentication failed", err.Error())
}
