package booking

import (
	"errors"
	"fmt"
	"time"
)

// ErrAssignmentNotFound is returned for unknown assignment ids. Kept a
// sentinel: callers only ever branch on it, never inspect it.
var ErrAssignmentNotFound = errors.New("assignment not found")

type InvalidIntervalError struct {
	Start time.Time
	End   time.Time
}

func (e *InvalidIntervalError) Error() string {
	return fmt.Sprintf("invalid interval: start %s must be before end %s",
		e.Start.Format(time.RFC3339), e.End.Format(time.RFC3339))
}

type UnknownResourceError struct {
	Kind       ResourceKind
	ResourceID int64
}

func (e *UnknownResourceError) Error() string {
	return fmt.Sprintf("unknown %s resource %d", e.Kind, e.ResourceID)
}

// ConflictError reports the booking that occupies the requested slot so
// callers can suggest alternatives.
type ConflictError struct {
	Kind       ResourceKind
	ResourceID int64
	With       int64
	Interval   Interval
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s %d is already booked %s (booking %d)",
		e.Kind, e.ResourceID, e.Interval, e.With)
}

// TransitionError reports the booking's current status and the action that
// was not legal from it.
type TransitionError struct {
	BookingID int64
	Current   Status
	Action    string
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("booking %d: cannot %s from %s", e.BookingID, e.Action, e.Current)
}

type NotFoundError struct {
	BookingID int64
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("booking %d not found", e.BookingID)
}

// NotApprovedError: equipment and staff roles are only committed to
// bookings that have cleared approval.
type NotApprovedError struct {
	BookingID int64
	Status    Status
}

func (e *NotApprovedError) Error() string {
	return fmt.Sprintf("booking %d is %s, assignments require approval first", e.BookingID, e.Status)
}

// ValidationError rejects module-specific input (party size vs capacity,
// shift length) before any allocation work happens.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string { return e.Reason }

// ContentionError means the per-resource lock could not be taken in time.
// Safe to retry.
type ContentionError struct {
	Kind       ResourceKind
	ResourceID int64
}

func (e *ContentionError) Error() string {
	return fmt.Sprintf("%s %d is busy, try again", e.Kind, e.ResourceID)
}
