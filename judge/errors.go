/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package judge

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
)

var (
	// ErrTransient marks failures worth retrying: timeouts, rate limits,
	// overloaded or unreachable services.
	ErrTransient = errors.New("transient judge failure")

	// ErrUnparseable is returned when judge output matches no known verdict shape.
	ErrUnparseable = errors.New("unparseable verdict")

	// ErrJudging tags every failure that leaves the retrying wrapper.
	ErrJudging = errors.New("judging failed")

	// ErrConfig marks invalid judge configuration. It is never retried.
	ErrConfig = errors.New("invalid judge configuration")
)

// Transient marks err as retryable. It returns nil for a nil error.
func Transient(err error) error {
	if err == nil {
		return nil
	}
	return &transientError{err: err}
}

type transientError struct{ err error }

func (e *transientError) Error() string { return e.err.Error() }
func (e *transientError) Unwrap() error { return e.err }

func (e *transientError) Is(target error) bool { return target == ErrTransient }

// IsRetryable reports whether the retrying wrapper should call again.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrTransient) || errors.Is(err, ErrUnparseable)
}

// transientStatus reports whether an HTTP status code from a judge service
// signals a condition that may clear on its own.
func transientStatus(code int) bool {
	switch {
	case code == 408, code == 409, code == 429:
		return true
	case code >= 500:
		// 529 is Anthropic's "overloaded".
		return true
	default:
		return false
	}
}

// classify marks network timeouts and per-call deadlines as transient,
// leaving every other error untouched. Callers check service status codes
// before falling back to classify.
func classify(ctx context.Context, err error) error {
	if err == nil {
		return nil
	}
	if ctx.Err() != nil {
		// The caller gave up; retrying cannot help.
		return err
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return Transient(err)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return Transient(err)
	}
	return err
}

// ItemError is the failure of one element of a batch.
type ItemError struct {
	Index int
	Err   error
}

func (e ItemError) Error() string { return fmt.Sprintf("item %d: %v", e.Index, e.Err) }
func (e ItemError) Unwrap() error { return e.Err }

// BatchError reports the items of a batch that could not be judged.
// The verdicts returned with it are still full length.
type BatchError struct {
	Judge string
	Size  int
	Items []ItemError
}

func (e *BatchError) Error() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "judge %s: %d of %d verdicts failed", e.Judge, len(e.Items), e.Size)
	if len(e.Items) > 0 {
		fmt.Fprintf(&sb, " (first: %v)", e.Items[0])
	}
	return sb.String()
}

// Unwrap exposes the item failures to errors.Is and errors.As.
func (e *BatchError) Unwrap() []error {
	errs := make([]error, 0, len(e.Items))
	for _, item := range e.Items {
		errs = append(errs, item)
	}
	return errs
}

// Failed reports whether the item at index i failed.
func (e *BatchError) Failed(i int) bool {
	for _, item := range e.Items {
		if item.Index == i {
			return true
		}
	}
	return false
}
