package allocation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/IT24101129/RestaurantEventManagement-sub001/internal/booking"
	"github.com/IT24101129/RestaurantEventManagement-sub001/internal/metrics"
)

// Notifier receives booking status changes after they commit. Implementations
// must not block the request path; failures are the notifier's problem.
type Notifier interface {
	BookingChanged(ctx context.Context, b booking.Booking, previous booking.Status)
}

// Engine runs the booking lifecycle over a Store. It is stateless: one
// instance per process, handed its collaborators at construction.
type Engine struct {
	store  Store
	notify Notifier
}

func NewEngine(store Store, notify Notifier) *Engine {
	return &Engine{store: store, notify: notify}
}

func (e *Engine) notifyChanged(ctx context.Context, b booking.Booking, prev booking.Status) {
	if e.notify != nil {
		e.notify.BookingChanged(ctx, b, prev)
	}
}

// Get loads a booking by id.
func (e *Engine) Get(ctx context.Context, id int64) (booking.Booking, error) {
	return e.store.GetBooking(ctx, id)
}

// Create checks the candidate interval against every live booking of the
// resource and persists a new PENDING booking when the slot is free. Check
// and insert run under the resource's lock.
func (e *Engine) Create(ctx context.Context, kind booking.ResourceKind, resourceID int64, iv booking.Interval, quantity int, note string) (booking.Booking, error) {
	var out booking.Booking
	err := e.store.WithResource(ctx, kind, resourceID, func(tx ResourceTx) error {
		live, err := tx.LiveBookings(ctx, kind, resourceID)
		if err != nil {
			return err
		}
		if c, ok := findConflict(live, iv, 0); ok {
			metrics.IncConflict(string(kind), "create")
			return &booking.ConflictError{Kind: kind, ResourceID: resourceID, With: c.ID, Interval: c.Interval}
		}
		now := time.Now().UTC()
		b := booking.Booking{
			Kind:       kind,
			ResourceID: resourceID,
			Interval:   iv,
			Status:     booking.StatusPending,
			Quantity:   quantity,
			Note:       note,
			CreatedAt:  now,
			UpdatedAt:  now,
		}
		if err := tx.InsertBooking(ctx, &b); err != nil {
			return err
		}
		out = b
		return nil
	})
	if err != nil {
		return booking.Booking{}, err
	}
	metrics.IncBookingCreated(string(kind))
	e.notifyChanged(ctx, out, "")
	return out, nil
}

// Approve moves a PENDING booking to APPROVED. The conflict check runs
// again, excluding the booking itself: a competing booking may have been
// created or approved since this one entered the queue. On conflict the
// booking stays PENDING.
func (e *Engine) Approve(ctx context.Context, id int64) (booking.Booking, error) {
	b, err := e.store.GetBooking(ctx, id)
	if err != nil {
		return booking.Booking{}, err
	}
	var out booking.Booking
	err = e.store.WithResource(ctx, b.Kind, b.ResourceID, func(tx ResourceTx) error {
		cur, err := tx.GetBooking(ctx, id)
		if err != nil {
			return err
		}
		if cur.Status != booking.StatusPending {
			return &booking.TransitionError{BookingID: id, Current: cur.Status, Action: "approve"}
		}
		live, err := tx.LiveBookings(ctx, cur.Kind, cur.ResourceID)
		if err != nil {
			return err
		}
		if c, ok := findConflict(live, cur.Interval, id); ok {
			metrics.IncConflict(string(cur.Kind), "approve")
			return &booking.ConflictError{Kind: cur.Kind, ResourceID: cur.ResourceID, With: c.ID, Interval: c.Interval}
		}
		if err := tx.UpdateBookingStatus(ctx, id, booking.StatusApproved); err != nil {
			return err
		}
		cur.Status = booking.StatusApproved
		out = cur
		return nil
	})
	if err != nil {
		return booking.Booking{}, err
	}
	metrics.IncDecision(string(out.Kind), "approved")
	e.notifyChanged(ctx, out, booking.StatusPending)
	return out, nil
}

// Reject is only legal while the booking is PENDING.
func (e *Engine) Reject(ctx context.Context, id int64) (booking.Booking, error) {
	return e.vacate(ctx, id, booking.StatusRejected, func(cur booking.Booking) error {
		if cur.Status != booking.StatusPending {
			return &booking.TransitionError{BookingID: id, Current: cur.Status, Action: "reject"}
		}
		return nil
	})
}

// Cancel is legal from any non-terminal state.
func (e *Engine) Cancel(ctx context.Context, id int64) (booking.Booking, error) {
	return e.vacate(ctx, id, booking.StatusCancelled, func(cur booking.Booking) error {
		if cur.Status.Terminal() {
			return &booking.TransitionError{BookingID: id, Current: cur.Status, Action: "cancel"}
		}
		return nil
	})
}

// vacate frees the booking's slot and cancels open assignments. No conflict
// check: a vacated resource cannot create a conflict.
func (e *Engine) vacate(ctx context.Context, id int64, to booking.Status, guard func(booking.Booking) error) (booking.Booking, error) {
	b, err := e.store.GetBooking(ctx, id)
	if err != nil {
		return booking.Booking{}, err
	}
	var out booking.Booking
	var prev booking.Status
	err = e.store.WithResource(ctx, b.Kind, b.ResourceID, func(tx ResourceTx) error {
		cur, err := tx.GetBooking(ctx, id)
		if err != nil {
			return err
		}
		if err := guard(cur); err != nil {
			return err
		}
		if err := tx.UpdateBookingStatus(ctx, id, to); err != nil {
			return err
		}
		if err := tx.CancelAssignments(ctx, id); err != nil {
			return err
		}
		prev = cur.Status
		cur.Status = to
		out = cur
		return nil
	})
	if err != nil {
		return booking.Booking{}, err
	}
	metrics.IncDecision(string(out.Kind), string(to))
	e.notifyChanged(ctx, out, prev)
	return out, nil
}

// Complete closes out an APPROVED booking after service.
func (e *Engine) Complete(ctx context.Context, id int64) (booking.Booking, error) {
	return e.settle(ctx, id, booking.StatusCompleted, "complete")
}

// MarkNoShow records that an APPROVED booking was never honored.
func (e *Engine) MarkNoShow(ctx context.Context, id int64) (booking.Booking, error) {
	return e.settle(ctx, id, booking.StatusNoShow, "mark no-show")
}

func (e *Engine) settle(ctx context.Context, id int64, to booking.Status, action string) (booking.Booking, error) {
	b, err := e.store.GetBooking(ctx, id)
	if err != nil {
		return booking.Booking{}, err
	}
	var out booking.Booking
	err = e.store.WithResource(ctx, b.Kind, b.ResourceID, func(tx ResourceTx) error {
		cur, err := tx.GetBooking(ctx, id)
		if err != nil {
			return err
		}
		if cur.Status != booking.StatusApproved {
			return &booking.TransitionError{BookingID: id, Current: cur.Status, Action: action}
		}
		if err := tx.UpdateBookingStatus(ctx, id, to); err != nil {
			return err
		}
		cur.Status = to
		out = cur
		return nil
	})
	if err != nil {
		return booking.Booking{}, err
	}
	metrics.IncDecision(string(out.Kind), string(to))
	e.notifyChanged(ctx, out, booking.StatusApproved)
	return out, nil
}

// Reschedule atomically swaps the interval of a live booking. The conflict
// check excludes the booking itself, so rescheduling onto the same slot is
// always a no-op success. On conflict the old interval stays in place.
func (e *Engine) Reschedule(ctx context.Context, id int64, newIv booking.Interval) (booking.Booking, error) {
	b, err := e.store.GetBooking(ctx, id)
	if err != nil {
		return booking.Booking{}, err
	}
	var out booking.Booking
	err = e.store.WithResource(ctx, b.Kind, b.ResourceID, func(tx ResourceTx) error {
		cur, err := tx.GetBooking(ctx, id)
		if err != nil {
			return err
		}
		if !cur.Status.Live() {
			return &booking.TransitionError{BookingID: id, Current: cur.Status, Action: "reschedule"}
		}
		live, err := tx.LiveBookings(ctx, cur.Kind, cur.ResourceID)
		if err != nil {
			return err
		}
		if c, ok := findConflict(live, newIv, id); ok {
			metrics.IncConflict(string(cur.Kind), "reschedule")
			return &booking.ConflictError{Kind: cur.Kind, ResourceID: cur.ResourceID, With: c.ID, Interval: c.Interval}
		}
		if err := tx.UpdateBookingInterval(ctx, id, newIv); err != nil {
			return err
		}
		cur.Interval = newIv
		out = cur
		return nil
	})
	if err != nil {
		return booking.Booking{}, err
	}
	e.notifyChanged(ctx, out, out.Status)
	return out, nil
}

// Delete hard-deletes a PENDING booking. Anything approved or historical is
// converted to a cancel so the audit trail survives.
func (e *Engine) Delete(ctx context.Context, id int64) error {
	b, err := e.store.GetBooking(ctx, id)
	if err != nil {
		return err
	}
	return e.store.WithResource(ctx, b.Kind, b.ResourceID, func(tx ResourceTx) error {
		cur, err := tx.GetBooking(ctx, id)
		if err != nil {
			return err
		}
		switch {
		case cur.Status == booking.StatusPending:
			return tx.DeleteBooking(ctx, id)
		case cur.Status.Terminal():
			return &booking.TransitionError{BookingID: id, Current: cur.Status, Action: "delete"}
		default:
			if err := tx.UpdateBookingStatus(ctx, id, booking.StatusCancelled); err != nil {
				return err
			}
			return tx.CancelAssignments(ctx, id)
		}
	})
}

// Assign attaches equipment or a staff role to a booking. Gated on
// approval: nothing is committed to a booking that could still be rejected.
func (e *Engine) Assign(ctx context.Context, bookingID int64, kind, detail string) (booking.Assignment, error) {
	b, err := e.store.GetBooking(ctx, bookingID)
	if err != nil {
		return booking.Assignment{}, err
	}
	if b.Status != booking.StatusApproved {
		return booking.Assignment{}, &booking.NotApprovedError{BookingID: bookingID, Status: b.Status}
	}
	now := time.Now().UTC()
	a := booking.Assignment{
		BookingID: bookingID,
		Kind:      kind,
		Detail:    detail,
		Status:    booking.AssignmentRequested,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := e.store.InsertAssignment(ctx, &a); err != nil {
		return booking.Assignment{}, err
	}
	return a, nil
}

// IssueAssignment marks a requested assignment as handed out.
func (e *Engine) IssueAssignment(ctx context.Context, assignmentID int64) error {
	return e.advanceAssignment(ctx, assignmentID, booking.AssignmentRequested, booking.AssignmentIssued)
}

// ReturnAssignment closes an issued assignment.
func (e *Engine) ReturnAssignment(ctx context.Context, assignmentID int64) error {
	return e.advanceAssignment(ctx, assignmentID, booking.AssignmentIssued, booking.AssignmentReturned)
}

func (e *Engine) advanceAssignment(ctx context.Context, id int64, from, to booking.AssignmentStatus) error {
	as, err := e.store.Assignment(ctx, id)
	if err != nil {
		return err
	}
	if as.Status != from {
		return fmt.Errorf("assignment %d is %s, expected %s", id, as.Status, from)
	}
	return e.store.UpdateAssignmentStatus(ctx, id, to)
}

// Unassign cancels one assignment. Allowed in any booking state and
// idempotent, so cleanup paths can call it blindly.
func (e *Engine) Unassign(ctx context.Context, assignmentID int64) error {
	as, err := e.store.Assignment(ctx, assignmentID)
	if err != nil {
		if errors.Is(err, booking.ErrAssignmentNotFound) {
			return nil
		}
		return err
	}
	if as.Status.Closed() {
		return nil
	}
	return e.store.UpdateAssignmentStatus(ctx, assignmentID, booking.AssignmentCancelled)
}

// ClearAssignments cancels every open assignment of a booking.
func (e *Engine) ClearAssignments(ctx context.Context, bookingID int64) error {
	return e.store.CancelAssignments(ctx, bookingID)
}

// Assignments lists a booking's assignments.
func (e *Engine) Assignments(ctx context.Context, bookingID int64) ([]booking.Assignment, error) {
	return e.store.Assignments(ctx, bookingID)
}

// CheckAvailability answers whether the interval is free right now. Pure
// read; callers wanting a guarantee must go through Create.
func (e *Engine) CheckAvailability(ctx context.Context, kind booking.ResourceKind, resourceID int64, iv booking.Interval) (bool, error) {
	live, err := e.store.LiveBookings(ctx, kind, resourceID)
	if err != nil {
		return false, err
	}
	_, conflict := findConflict(live, iv, 0)
	return !conflict, nil
}
