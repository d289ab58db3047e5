package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/IT24101129/RestaurantEventManagement-sub001/internal/allocation"
	"github.com/IT24101129/RestaurantEventManagement-sub001/internal/booking"
)

const defaultLockWait = 3 * time.Second

type resourceKey struct {
	kind booking.ResourceKind
	id   int64
}

// Memory keeps everything in maps. Used by tests and by `server --dev`
// runs without a database. Per-resource mutual exclusion comes from one
// buffered channel per resource; a lock wait past lockWait surfaces as
// *booking.ContentionError, same contract as the Postgres store.
type Memory struct {
	mu          sync.Mutex
	seq         int64
	assignSeq   int64
	resourceSeq int64
	bookings    map[int64]booking.Booking
	assignments map[int64]booking.Assignment
	resources   map[resourceKey]booking.Resource

	locks    map[resourceKey]chan struct{}
	lockWait time.Duration
}

func NewMemory() *Memory {
	return &Memory{
		bookings:    map[int64]booking.Booking{},
		assignments: map[int64]booking.Assignment{},
		resources:   map[resourceKey]booking.Resource{},
		locks:       map[resourceKey]chan struct{}{},
		lockWait:    defaultLockWait,
	}
}

// SetLockWait shortens the lock wait; tests use it to force contention
// errors quickly.
func (m *Memory) SetLockWait(d time.Duration) { m.lockWait = d }

func (m *Memory) lock(key resourceKey) chan struct{} {
	m.mu.Lock()
	defer m.mu.Unlock()
	lk, ok := m.locks[key]
	if !ok {
		lk = make(chan struct{}, 1)
		m.locks[key] = lk
	}
	return lk
}

func (m *Memory) WithResource(ctx context.Context, kind booking.ResourceKind, resourceID int64, fn func(allocation.ResourceTx) error) error {
	key := resourceKey{kind, resourceID}
	lk := m.lock(key)
	select {
	case lk <- struct{}{}:
	case <-time.After(m.lockWait):
		return &booking.ContentionError{Kind: kind, ResourceID: resourceID}
	case <-ctx.Done():
		return ctx.Err()
	}
	defer func() { <-lk }()
	return fn(memTx{m})
}

func (m *Memory) GetBooking(ctx context.Context, id int64) (booking.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.bookings[id]
	if !ok {
		return booking.Booking{}, &booking.NotFoundError{BookingID: id}
	}
	return b, nil
}

func (m *Memory) LiveBookings(ctx context.Context, kind booking.ResourceKind, resourceID int64) ([]booking.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []booking.Booking
	for _, b := range m.bookings {
		if b.Kind == kind && b.ResourceID == resourceID && b.Status.Live() {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Interval.Start.Before(out[j].Interval.Start) })
	return out, nil
}

// memTx reuses the parent's maps; every engine mutation is a single final
// write, so there is nothing to roll back.
type memTx struct{ m *Memory }

func (t memTx) GetBooking(ctx context.Context, id int64) (booking.Booking, error) {
	return t.m.GetBooking(ctx, id)
}

func (t memTx) LiveBookings(ctx context.Context, kind booking.ResourceKind, resourceID int64) ([]booking.Booking, error) {
	return t.m.LiveBookings(ctx, kind, resourceID)
}

func (t memTx) InsertBooking(ctx context.Context, b *booking.Booking) error {
	t.m.mu.Lock()
	defer t.m.mu.Unlock()
	t.m.seq++
	b.ID = t.m.seq
	t.m.bookings[b.ID] = *b
	return nil
}

func (t memTx) UpdateBookingStatus(ctx context.Context, id int64, status booking.Status) error {
	t.m.mu.Lock()
	defer t.m.mu.Unlock()
	b, ok := t.m.bookings[id]
	if !ok {
		return &booking.NotFoundError{BookingID: id}
	}
	b.Status = status
	b.UpdatedAt = time.Now().UTC()
	t.m.bookings[id] = b
	return nil
}

func (t memTx) UpdateBookingInterval(ctx context.Context, id int64, iv booking.Interval) error {
	t.m.mu.Lock()
	defer t.m.mu.Unlock()
	b, ok := t.m.bookings[id]
	if !ok {
		return &booking.NotFoundError{BookingID: id}
	}
	b.Interval = iv
	b.UpdatedAt = time.Now().UTC()
	t.m.bookings[id] = b
	return nil
}

func (t memTx) DeleteBooking(ctx context.Context, id int64) error {
	t.m.mu.Lock()
	defer t.m.mu.Unlock()
	if _, ok := t.m.bookings[id]; !ok {
		return &booking.NotFoundError{BookingID: id}
	}
	delete(t.m.bookings, id)
	for aid, a := range t.m.assignments {
		if a.BookingID == id {
			delete(t.m.assignments, aid)
		}
	}
	return nil
}

func (t memTx) CancelAssignments(ctx context.Context, bookingID int64) error {
	return t.m.CancelAssignments(ctx, bookingID)
}

func (m *Memory) Assignments(ctx context.Context, bookingID int64) ([]booking.Assignment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []booking.Assignment
	for _, a := range m.assignments {
		if a.BookingID == bookingID {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *Memory) Assignment(ctx context.Context, id int64) (booking.Assignment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.assignments[id]
	if !ok {
		return booking.Assignment{}, booking.ErrAssignmentNotFound
	}
	return a, nil
}

func (m *Memory) InsertAssignment(ctx context.Context, a *booking.Assignment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.assignSeq++
	a.ID = m.assignSeq
	m.assignments[a.ID] = *a
	return nil
}

func (m *Memory) UpdateAssignmentStatus(ctx context.Context, id int64, status booking.AssignmentStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.assignments[id]
	if !ok {
		return booking.ErrAssignmentNotFound
	}
	a.Status = status
	a.UpdatedAt = time.Now().UTC()
	m.assignments[id] = a
	return nil
}

func (m *Memory) CancelAssignments(ctx context.Context, bookingID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now().UTC()
	for id, a := range m.assignments {
		if a.BookingID == bookingID && !a.Status.Closed() {
			a.Status = booking.AssignmentCancelled
			a.UpdatedAt = now
			m.assignments[id] = a
		}
	}
	return nil
}

func (m *Memory) Resource(ctx context.Context, kind booking.ResourceKind, id int64) (booking.Resource, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.resources[resourceKey{kind, id}]
	if !ok {
		return booking.Resource{}, &booking.UnknownResourceError{Kind: kind, ResourceID: id}
	}
	return r, nil
}

func (m *Memory) CreateResource(ctx context.Context, r *booking.Resource) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.resourceSeq++
	r.ID = m.resourceSeq
	m.resources[resourceKey{r.Kind, r.ID}] = *r
	return nil
}

func (m *Memory) SetResourceActive(ctx context.Context, kind booking.ResourceKind, id int64, active bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := resourceKey{kind, id}
	r, ok := m.resources[key]
	if !ok {
		return &booking.UnknownResourceError{Kind: kind, ResourceID: id}
	}
	r.Active = active
	m.resources[key] = r
	return nil
}

func (m *Memory) ListResources(ctx context.Context, kind booking.ResourceKind) ([]booking.Resource, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []booking.Resource
	for _, r := range m.resources {
		if kind == "" || r.Kind == kind {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Kind != out[j].Kind {
			return out[i].Kind < out[j].Kind
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (m *Memory) ListBookings(ctx context.Context, f BookingFilter) ([]booking.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []booking.Booking
	for _, b := range m.bookings {
		if f.Kind != "" && b.Kind != f.Kind {
			continue
		}
		if f.ResourceID != 0 && b.ResourceID != f.ResourceID {
			continue
		}
		if f.Status != "" && b.Status != f.Status {
			continue
		}
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Interval.Start.Before(out[j].Interval.Start) })
	return out, nil
}

func (m *Memory) Ping(ctx context.Context) error { return nil }

func (m *Memory) Close() {}
