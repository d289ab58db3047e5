package allocation

import (
	"context"

	"github.com/IT24101129/RestaurantEventManagement-sub001/internal/booking"
)

// Reader is the read-only booking surface shared by the store and its
// per-resource transaction view.
type Reader interface {
	GetBooking(ctx context.Context, id int64) (booking.Booking, error)
	LiveBookings(ctx context.Context, kind booking.ResourceKind, resourceID int64) ([]booking.Booking, error)
}

// ResourceTx is the view handed to the engine while it holds a resource's
// lock. Everything written through it commits together with the check that
// preceded it.
type ResourceTx interface {
	Reader
	InsertBooking(ctx context.Context, b *booking.Booking) error
	UpdateBookingStatus(ctx context.Context, id int64, status booking.Status) error
	UpdateBookingInterval(ctx context.Context, id int64, iv booking.Interval) error
	DeleteBooking(ctx context.Context, id int64) error
	CancelAssignments(ctx context.Context, bookingID int64) error
}

// Store is the persistence collaborator. WithResource must be mutually
// exclusive per (kind, resourceID): two overlapping create calls for the
// same resource serialize, calls for different resources run in parallel.
// A lock that cannot be taken surfaces as *booking.ContentionError.
type Store interface {
	Reader
	WithResource(ctx context.Context, kind booking.ResourceKind, resourceID int64, fn func(ResourceTx) error) error

	Assignments(ctx context.Context, bookingID int64) ([]booking.Assignment, error)
	Assignment(ctx context.Context, id int64) (booking.Assignment, error)
	InsertAssignment(ctx context.Context, a *booking.Assignment) error
	UpdateAssignmentStatus(ctx context.Context, id int64, status booking.AssignmentStatus) error
	CancelAssignments(ctx context.Context, bookingID int64) error
}

// Registry answers existence of concrete resources. Validation happens at
// the desks, once per call, not inside the engine.
type Registry interface {
	Resource(ctx context.Context, kind booking.ResourceKind, id int64) (booking.Resource, error)
}

// findConflict applies the overlap predicate over a live snapshot.
// excludeID (0 = none) skips the booking being re-validated so an update
// never conflicts with itself.
func findConflict(live []booking.Booking, candidate booking.Interval, excludeID int64) (booking.Booking, bool) {
	for _, b := range live {
		if excludeID != 0 && b.ID == excludeID {
			continue
		}
		if !b.Status.Live() {
			continue
		}
		if b.Interval.Overlaps(candidate) {
			return b, true
		}
	}
	return booking.Booking{}, false
}
