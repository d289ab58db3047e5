package allocation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/IT24101129/RestaurantEventManagement-sub001/internal/booking"
	"github.com/IT24101129/RestaurantEventManagement-sub001/internal/metrics"
)

const (
	defaultRetryAttempts = 3
	defaultRetryBackoff  = 50 * time.Millisecond

	maxShift = 12 * time.Hour
)

// Desk is the per-module entry point: the engine bound to one resource
// kind, plus that module's own validation on top. Controllers only ever
// talk to a Desk.
type Desk struct {
	kind     booking.ResourceKind
	engine   *Engine
	registry Registry
	validate func(res booking.Resource, iv booking.Interval, quantity int) error

	attempts int
	backoff  time.Duration
}

// NewTableDesk books restaurant tables: party size must fit the table.
func NewTableDesk(engine *Engine, registry Registry) *Desk {
	return newDesk(booking.KindTable, engine, registry, func(res booking.Resource, _ booking.Interval, quantity int) error {
		if quantity < 1 {
			return &booking.ValidationError{Reason: "party size must be at least 1"}
		}
		if quantity > res.Capacity {
			return &booking.ValidationError{Reason: fmt.Sprintf("party of %d does not fit table %q (seats %d)", quantity, res.Name, res.Capacity)}
		}
		return nil
	})
}

// NewHallDesk books banquet halls: guest count must fit the hall.
func NewHallDesk(engine *Engine, registry Registry) *Desk {
	return newDesk(booking.KindHall, engine, registry, func(res booking.Resource, _ booking.Interval, quantity int) error {
		if quantity < 1 {
			return &booking.ValidationError{Reason: "guest count must be at least 1"}
		}
		if quantity > res.Capacity {
			return &booking.ValidationError{Reason: fmt.Sprintf("%d guests exceed hall %q capacity %d", quantity, res.Name, res.Capacity)}
		}
		return nil
	})
}

// NewShiftDesk schedules staff: a single shift is capped in length,
// quantity is not used.
func NewShiftDesk(engine *Engine, registry Registry) *Desk {
	return newDesk(booking.KindStaff, engine, registry, func(res booking.Resource, iv booking.Interval, _ int) error {
		if iv.Duration() > maxShift {
			return &booking.ValidationError{Reason: fmt.Sprintf("shift longer than %s for %q", maxShift, res.Name)}
		}
		return nil
	})
}

func newDesk(kind booking.ResourceKind, engine *Engine, registry Registry, validate func(booking.Resource, booking.Interval, int) error) *Desk {
	return &Desk{
		kind:     kind,
		engine:   engine,
		registry: registry,
		validate: validate,
		attempts: defaultRetryAttempts,
		backoff:  defaultRetryBackoff,
	}
}

func (d *Desk) Kind() booking.ResourceKind { return d.kind }

// resource resolves and validates the target resource once per call.
func (d *Desk) resource(ctx context.Context, resourceID int64) (booking.Resource, error) {
	res, err := d.registry.Resource(ctx, d.kind, resourceID)
	if err != nil {
		return booking.Resource{}, err
	}
	if !res.Active {
		return booking.Resource{}, &booking.UnknownResourceError{Kind: d.kind, ResourceID: resourceID}
	}
	return res, nil
}

// guard ensures a booking id handed to this desk belongs to this desk's
// resource kind; ids from other modules read as not found.
func (d *Desk) guard(ctx context.Context, bookingID int64) error {
	b, err := d.engine.Get(ctx, bookingID)
	if err != nil {
		return err
	}
	if b.Kind != d.kind {
		return &booking.NotFoundError{BookingID: bookingID}
	}
	return nil
}

// withRetry retries lock contention a bounded number of times before
// surfacing it. Every other error propagates unmodified.
func (d *Desk) withRetry(ctx context.Context, fn func() error) error {
	var last error
	for attempt := 0; attempt < d.attempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(d.backoff * time.Duration(attempt)):
			}
		}
		err := fn()
		var busy *booking.ContentionError
		if err != nil && errors.As(err, &busy) {
			metrics.IncContention(string(d.kind))
			last = err
			continue
		}
		return err
	}
	return last
}

func (d *Desk) Create(ctx context.Context, resourceID int64, start, end time.Time, quantity int, note string) (booking.Booking, error) {
	iv, err := booking.NewInterval(start, end)
	if err != nil {
		return booking.Booking{}, err
	}
	res, err := d.resource(ctx, resourceID)
	if err != nil {
		return booking.Booking{}, err
	}
	if err := d.validate(res, iv, quantity); err != nil {
		return booking.Booking{}, err
	}
	var out booking.Booking
	err = d.withRetry(ctx, func() error {
		b, err := d.engine.Create(ctx, d.kind, resourceID, iv, quantity, note)
		if err != nil {
			return err
		}
		out = b
		return nil
	})
	return out, err
}

func (d *Desk) Approve(ctx context.Context, bookingID int64) (booking.Booking, error) {
	if err := d.guard(ctx, bookingID); err != nil {
		return booking.Booking{}, err
	}
	var out booking.Booking
	err := d.withRetry(ctx, func() error {
		b, err := d.engine.Approve(ctx, bookingID)
		if err != nil {
			return err
		}
		out = b
		return nil
	})
	return out, err
}

func (d *Desk) Reject(ctx context.Context, bookingID int64) (booking.Booking, error) {
	if err := d.guard(ctx, bookingID); err != nil {
		return booking.Booking{}, err
	}
	return d.engine.Reject(ctx, bookingID)
}

func (d *Desk) Cancel(ctx context.Context, bookingID int64) (booking.Booking, error) {
	if err := d.guard(ctx, bookingID); err != nil {
		return booking.Booking{}, err
	}
	return d.engine.Cancel(ctx, bookingID)
}

func (d *Desk) Complete(ctx context.Context, bookingID int64) (booking.Booking, error) {
	if err := d.guard(ctx, bookingID); err != nil {
		return booking.Booking{}, err
	}
	return d.engine.Complete(ctx, bookingID)
}

func (d *Desk) MarkNoShow(ctx context.Context, bookingID int64) (booking.Booking, error) {
	if err := d.guard(ctx, bookingID); err != nil {
		return booking.Booking{}, err
	}
	return d.engine.MarkNoShow(ctx, bookingID)
}

func (d *Desk) Reschedule(ctx context.Context, bookingID int64, start, end time.Time) (booking.Booking, error) {
	iv, err := booking.NewInterval(start, end)
	if err != nil {
		return booking.Booking{}, err
	}
	if err := d.guard(ctx, bookingID); err != nil {
		return booking.Booking{}, err
	}
	var out booking.Booking
	err = d.withRetry(ctx, func() error {
		b, err := d.engine.Reschedule(ctx, bookingID, iv)
		if err != nil {
			return err
		}
		out = b
		return nil
	})
	return out, err
}

func (d *Desk) Delete(ctx context.Context, bookingID int64) error {
	if err := d.guard(ctx, bookingID); err != nil {
		return err
	}
	return d.engine.Delete(ctx, bookingID)
}

func (d *Desk) Get(ctx context.Context, bookingID int64) (booking.Booking, error) {
	b, err := d.engine.Get(ctx, bookingID)
	if err != nil {
		return booking.Booking{}, err
	}
	if b.Kind != d.kind {
		return booking.Booking{}, &booking.NotFoundError{BookingID: bookingID}
	}
	return b, nil
}

func (d *Desk) Assign(ctx context.Context, bookingID int64, kind, detail string) (booking.Assignment, error) {
	if err := d.guard(ctx, bookingID); err != nil {
		return booking.Assignment{}, err
	}
	return d.engine.Assign(ctx, bookingID, kind, detail)
}

func (d *Desk) Unassign(ctx context.Context, assignmentID int64) error {
	return d.engine.Unassign(ctx, assignmentID)
}

func (d *Desk) Assignments(ctx context.Context, bookingID int64) ([]booking.Assignment, error) {
	if err := d.guard(ctx, bookingID); err != nil {
		return nil, err
	}
	return d.engine.Assignments(ctx, bookingID)
}

func (d *Desk) CheckAvailability(ctx context.Context, resourceID int64, start, end time.Time) (bool, error) {
	iv, err := booking.NewInterval(start, end)
	if err != nil {
		return false, err
	}
	if _, err := d.resource(ctx, resourceID); err != nil {
		return false, err
	}
	return d.engine.CheckAvailability(ctx, d.kind, resourceID, iv)
}
