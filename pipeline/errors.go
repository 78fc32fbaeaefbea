// Copyright 2025 AxonFlow
// SPDX-License-Identifier: BUSL-1.1

package pipeline

import (
	"errors"
	"fmt"

	"axonflow/insights/gateway"
	"axonflow/insights/gateway/store"
)

// Validation failure reasons, surfaced verbatim in client error responses.
const (
	ReasonBadIDFormat      = "bad_id_format"
	ReasonEmptyProjection  = "empty_projection"
	ReasonUnknownQueryKind = "unknown_query_kind"
	ReasonMissingSubjectID = "missing_subject_id"
)

// ValidationError rejects a request descriptor before any fetch happens.
// It is a client error and never retried.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid request: %s", e.Reason)
}

// RetryExhaustedError terminates a request after the attempt cap is
// reached. It carries the last underlying failure and the parser origin
// so callers can tell an uninterpretable request from an unreachable store.
type RetryExhaustedError struct {
	Attempts int
	ParsedBy string
	Last     error
}

func (e *RetryExhaustedError) Error() string {
	return fmt.Sprintf("giving up after %d attempts: %v", e.Attempts, e.Last)
}

func (e *RetryExhaustedError) Unwrap() error {
	return e.Last
}

// ErrorKind labels a pipeline failure for responses and metrics.
type ErrorKind string

const (
	KindValidationError ErrorKind = "validation_error"
	KindNotFound        ErrorKind = "not_found"
	KindGatewayError    ErrorKind = "gateway_error"
	KindRetryExhausted  ErrorKind = "retry_exhausted"
	KindInternalError   ErrorKind = "internal_error"
)

// ClassifyError maps any pipeline error to its kind.
func ClassifyError(err error) ErrorKind {
	var vErr *ValidationError
	var rErr *RetryExhaustedError
	var gErr *gateway.Error
	switch {
	case errors.As(err, &vErr):
		return KindValidationError
	case errors.Is(err, store.ErrNotFound):
		return KindNotFound
	case errors.As(err, &rErr):
		return KindRetryExhausted
	case errors.As(err, &gErr):
		return KindGatewayError
	}
	return KindInternalError
}

// retryable reports whether a failure is worth another pipeline cycle.
// Client errors and authoritative not-found answers are terminal.
func retryable(err error) bool {
	switch ClassifyError(err) {
	case KindValidationError, KindNotFound:
		return false
	}
	return true
}
