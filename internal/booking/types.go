package booking

import "time"

// ResourceKind names the pool a booking draws from. Bookings of different
// kinds never conflict with each other.
type ResourceKind string

const (
	KindTable ResourceKind = "table"
	KindHall  ResourceKind = "hall"
	KindStaff ResourceKind = "staff"
)

func (k ResourceKind) Valid() bool {
	switch k {
	case KindTable, KindHall, KindStaff:
		return true
	}
	return false
}

type Status string

const (
	StatusPending   Status = "PENDING"
	StatusApproved  Status = "APPROVED"
	StatusRejected  Status = "REJECTED"
	StatusCancelled Status = "CANCELLED"
	StatusCompleted Status = "COMPLETED"
	StatusNoShow    Status = "NO_SHOW"
)

// Live reports whether the booking occupies its resource for conflict
// purposes. Pending bookings hold their slot until a decision is made.
func (s Status) Live() bool {
	return s == StatusPending || s == StatusApproved
}

func (s Status) Terminal() bool {
	switch s {
	case StatusRejected, StatusCancelled, StatusCompleted, StatusNoShow:
		return true
	}
	return false
}

type Booking struct {
	ID         int64
	Kind       ResourceKind
	ResourceID int64
	Interval   Interval
	Status     Status

	// Quantity is module specific: party size for tables, guest count for
	// halls, unused for staff shifts. The allocation logic ignores it.
	Quantity int
	Note     string

	CreatedAt time.Time
	UpdatedAt time.Time
}

type AssignmentStatus string

const (
	AssignmentRequested AssignmentStatus = "REQUESTED"
	AssignmentIssued    AssignmentStatus = "ISSUED"
	AssignmentReturned  AssignmentStatus = "RETURNED"
	AssignmentCancelled AssignmentStatus = "CANCELLED"
)

func (s AssignmentStatus) Closed() bool {
	return s == AssignmentReturned || s == AssignmentCancelled
}

// Assignment attaches a secondary resource (equipment, a staff role) to an
// approved booking. Its lifecycle is independent of the booking's except
// that cancelling or rejecting the booking cancels open assignments.
type Assignment struct {
	ID        int64
	BookingID int64
	Kind      string
	Detail    string
	Status    AssignmentStatus
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Resource is a registry entry for one concrete bookable thing.
type Resource struct {
	ID       int64
	Kind     ResourceKind
	Name     string
	Capacity int
	Active   bool
}
