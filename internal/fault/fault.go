// Package fault defines the error taxonomy shared by the quantization
// pipeline.
//
// Errors are plain Go errors that wrap one of four sentinels, so callers can
// classify any failure with errors.Is:
//   - ErrInvalidArgument: bad input detected before any work starts
//   - ErrCanceled: the context was canceled or its deadline passed
//   - ErrInternal: an invariant of the algorithm was violated (a bug)
//   - ErrInvalidOperation: an API was used outside its contract
//
// Canceled errors also wrap the context's own error, so
// errors.Is(err, context.Canceled) and errors.Is(err, context.DeadlineExceeded)
// keep working.
package fault

import (
	"context"
	"errors"
	"fmt"
)

var (
	ErrInvalidArgument  = errors.New("invalid argument")
	ErrCanceled         = errors.New("operation canceled")
	ErrInternal         = errors.New("internal error")
	ErrInvalidOperation = errors.New("invalid operation")
)

// InvalidArgument formats an ErrInvalidArgument error.
func InvalidArgument(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidArgument, fmt.Sprintf(format, args...))
}

// Internal formats an ErrInternal error.
func Internal(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInternal, fmt.Sprintf(format, args...))
}

// InvalidOperation formats an ErrInvalidOperation error.
func InvalidOperation(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidOperation, fmt.Sprintf(format, args...))
}

// Check returns a canceled error if ctx is done and nil otherwise.
func Check(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return Canceled(err)
	}
	return nil
}

// Canceled wraps cause as an ErrCanceled error. A cause that is already
// canceled is returned unchanged.
func Canceled(cause error) error {
	if errors.Is(cause, ErrCanceled) {
		return cause
	}
	return fmt.Errorf("%w: %w", ErrCanceled, cause)
}

// IsCanceled reports whether err represents cancellation, either through
// ErrCanceled or a bare context error.
func IsCanceled(err error) bool {
	return errors.Is(err, ErrCanceled) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded)
}

// Collapse merges the failures of parallel branches into one error. Nil
// entries are ignored. When every failure is a cancellation the first one is
// returned as a single canceled error; mixed failures are joined so none of
// them is lost.
func Collapse(errs []error) error {
	var failures []error
	for _, err := range errs {
		if err != nil {
			failures = append(failures, err)
		}
	}
	if len(failures) == 0 {
		return nil
	}
	for _, err := range failures {
		if !IsCanceled(err) {
			if len(failures) == 1 {
				return err
			}
			return errors.Join(failures...)
		}
	}
	return Canceled(failures[0])
}
