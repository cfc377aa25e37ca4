/*
errors.go - Centralized error taxonomy

PURPOSE:
  All failure categories in one place. Errors are classified, not stringly
  typed, so callers and the HTTP layer can map them without parsing text.

ERROR CATEGORIES:
  1. InvalidRange  - window rejected before any computation (inverted, too long)
  2. InvalidInput  - a single argument violates the caller contract
  3. Collaborator  - an external service failed; its diagnostic detail rides along

PROPAGATION POLICY:
  No partial-result recovery. A failed date inside a window loop aborts the
  whole window, because aggregation assumes a complete contiguous daily
  sequence. Out-of-range inputs are rejected, never silently clamped; the
  min/max rate clamp is a pricing rule, not input sanitation.

USAGE:
  if fiscal.IsInvalidRange(err) {
      // 400 with the violated constraint
  }

SEE ALSO:
  - period.go: DateRange.Validate produces RangeError
  - pricing and cashflow packages: produce InputError
  - pms, planning packages: produce CollaboratorError
*/
package fiscal

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrInvalidRange is returned when a requested window is inverted or
	// exceeds the maximum span. Rejected before any computation begins.
	ErrInvalidRange = errors.New("invalid range")

	// ErrInvalidInput is returned when an argument violates the caller
	// contract (occupancy outside [0,1], negative lead days, bad date).
	ErrInvalidInput = errors.New("invalid input")

	// ErrCollaborator is returned when an external rate, inventory, or
	// ledger service fails. The core never substitutes defaults for it.
	ErrCollaborator = errors.New("collaborator failure")
)

// =============================================================================
// STRUCTURED ERRORS - Carry the violated constraint
// =============================================================================

// InputError reports a contract violation on a single argument.
type InputError struct {
	Field  string
	Value  any
	Reason string
}

func (e *InputError) Error() string {
	return fmt.Sprintf("invalid input: %s=%v (%s)", e.Field, e.Value, e.Reason)
}

func (e *InputError) Unwrap() error { return ErrInvalidInput }

// RangeError reports a window violation.
type RangeError struct {
	Start    Date
	End      Date
	SpanDays int
	MaxDays  int
	Reason   string
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("invalid range %s..%s: %s", e.Start, e.End, e.Reason)
}

func (e *RangeError) Unwrap() error { return ErrInvalidRange }

// CollaboratorError wraps a failure from an external service, keeping the
// service's own diagnostic reachable through errors.Is/As.
type CollaboratorError struct {
	Service string // "pms" or "planning"
	Op      string // the operation that failed
	Err     error
}

func (e *CollaboratorError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Service, e.Op, e.Err)
}

func (e *CollaboratorError) Unwrap() []error { return []error{ErrCollaborator, e.Err} }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsInvalidRange returns true for rejected windows.
func IsInvalidRange(err error) bool { return errors.Is(err, ErrInvalidRange) }

// IsInvalidInput returns true for caller contract violations.
func IsInvalidInput(err error) bool { return errors.Is(err, ErrInvalidInput) }

// IsCollaborator returns true for external service failures.
func IsCollaborator(err error) bool { return errors.Is(err, ErrCollaborator) }

// IsClientError returns true if the error is the caller's to fix.
func IsClientError(err error) bool {
	return IsInvalidRange(err) || IsInvalidInput(err)
}
