package allocation_test

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/IT24101129/RestaurantEventManagement-sub001/internal/allocation"
	"github.com/IT24101129/RestaurantEventManagement-sub001/internal/booking"
	"github.com/IT24101129/RestaurantEventManagement-sub001/internal/store"
)

func newDesks(t *testing.T) (*allocation.Desk, *allocation.Desk, *allocation.Desk, *store.Memory) {
	t.Helper()
	m := store.NewMemory()
	e := allocation.NewEngine(m, nil)
	return allocation.NewTableDesk(e, m), allocation.NewHallDesk(e, m), allocation.NewShiftDesk(e, m), m
}

func addResource(t *testing.T, m *store.Memory, kind booking.ResourceKind, name string, capacity int) booking.Resource {
	t.Helper()
	r := booking.Resource{Kind: kind, Name: name, Capacity: capacity, Active: true}
	require.NoError(t, m.CreateResource(context.Background(), &r))
	return r
}

func TestTableDeskValidatesPartySize(t *testing.T) {
	tables, _, _, m := newDesks(t)
	ctx := context.Background()
	table := addResource(t, m, booking.KindTable, "window 4-top", 4)

	var invalid *booking.ValidationError
	_, err := tables.Create(ctx, table.ID, at(18, 0), at(20, 0), 0, "")
	require.ErrorAs(t, err, &invalid)
	_, err = tables.Create(ctx, table.ID, at(18, 0), at(20, 0), 5, "")
	require.ErrorAs(t, err, &invalid)

	b, err := tables.Create(ctx, table.ID, at(18, 0), at(20, 0), 4, "birthday")
	require.NoError(t, err)
	assert.Equal(t, booking.StatusPending, b.Status)
	assert.Equal(t, booking.KindTable, b.Kind)
}

func TestHallDeskValidatesGuestCount(t *testing.T) {
	_, halls, _, m := newDesks(t)
	ctx := context.Background()
	hall := addResource(t, m, booking.KindHall, "grand ballroom", 200)

	var invalid *booking.ValidationError
	_, err := halls.Create(ctx, hall.ID, at(12, 0), at(18, 0), 250, "")
	require.ErrorAs(t, err, &invalid)

	_, err = halls.Create(ctx, hall.ID, at(12, 0), at(18, 0), 180, "wedding")
	require.NoError(t, err)
}

func TestShiftDeskCapsShiftLength(t *testing.T) {
	_, _, shifts, m := newDesks(t)
	ctx := context.Background()
	cook := addResource(t, m, booking.KindStaff, "line cook", 1)

	var invalid *booking.ValidationError
	_, err := shifts.Create(ctx, cook.ID, at(8, 0), at(21, 0), 0, "")
	require.ErrorAs(t, err, &invalid)

	_, err = shifts.Create(ctx, cook.ID, at(8, 0), at(16, 0), 0, "")
	require.NoError(t, err)
}

func TestDeskRejectsDegenerateInterval(t *testing.T) {
	tables, _, _, m := newDesks(t)
	table := addResource(t, m, booking.KindTable, "t1", 2)

	var invalid *booking.InvalidIntervalError
	_, err := tables.Create(context.Background(), table.ID, at(18, 0), at(18, 0), 2, "")
	require.ErrorAs(t, err, &invalid)
}

func TestDeskRejectsUnknownAndInactiveResources(t *testing.T) {
	tables, _, _, m := newDesks(t)
	ctx := context.Background()

	var unknown *booking.UnknownResourceError
	_, err := tables.Create(ctx, 42, at(18, 0), at(20, 0), 2, "")
	require.ErrorAs(t, err, &unknown)

	table := addResource(t, m, booking.KindTable, "t1", 2)
	require.NoError(t, m.SetResourceActive(ctx, booking.KindTable, table.ID, false))
	_, err = tables.Create(ctx, table.ID, at(18, 0), at(20, 0), 2, "")
	require.ErrorAs(t, err, &unknown)
}

func TestDeskHidesOtherKinds(t *testing.T) {
	tables, halls, _, m := newDesks(t)
	ctx := context.Background()
	hall := addResource(t, m, booking.KindHall, "ballroom", 100)

	b, err := halls.Create(ctx, hall.ID, at(12, 0), at(18, 0), 50, "")
	require.NoError(t, err)

	// a hall booking id handed to the table desk reads as not found
	var notFound *booking.NotFoundError
	_, err = tables.Get(ctx, b.ID)
	require.ErrorAs(t, err, &notFound)
	_, err = tables.Approve(ctx, b.ID)
	require.ErrorAs(t, err, &notFound)
	require.ErrorAs(t, tables.Delete(ctx, b.ID), &notFound)
}

// flakyStore fails WithResource with contention a fixed number of times,
// then behaves normally.
type flakyStore struct {
	*store.Memory
	failures int32
}

func (f *flakyStore) WithResource(ctx context.Context, kind booking.ResourceKind, resourceID int64, fn func(allocation.ResourceTx) error) error {
	if atomic.AddInt32(&f.failures, -1) >= 0 {
		return &booking.ContentionError{Kind: kind, ResourceID: resourceID}
	}
	return f.Memory.WithResource(ctx, kind, resourceID, fn)
}

func TestDeskRetriesContention(t *testing.T) {
	fs := &flakyStore{Memory: store.NewMemory(), failures: 2}
	e := allocation.NewEngine(fs, nil)
	tables := allocation.NewTableDesk(e, fs.Memory)
	ctx := context.Background()
	table := addResource(t, fs.Memory, booking.KindTable, "t1", 4)

	b, err := tables.Create(ctx, table.ID, at(18, 0), at(20, 0), 2, "")
	require.NoError(t, err)
	assert.Equal(t, booking.StatusPending, b.Status)
}

func TestDeskGivesUpAfterBoundedRetries(t *testing.T) {
	fs := &flakyStore{Memory: store.NewMemory(), failures: 100}
	e := allocation.NewEngine(fs, nil)
	tables := allocation.NewTableDesk(e, fs.Memory)
	ctx := context.Background()
	table := addResource(t, fs.Memory, booking.KindTable, "t1", 4)

	_, err := tables.Create(ctx, table.ID, at(18, 0), at(20, 0), 2, "")
	var busy *booking.ContentionError
	require.ErrorAs(t, err, &busy)
}

func TestDeskFullLifecycle(t *testing.T) {
	tables, _, _, m := newDesks(t)
	ctx := context.Background()
	table := addResource(t, m, booking.KindTable, "chef's counter", 6)

	b, err := tables.Create(ctx, table.ID, at(18, 0), at(20, 0), 5, "")
	require.NoError(t, err)

	free, err := tables.CheckAvailability(ctx, table.ID, at(19, 0), at(21, 0))
	require.NoError(t, err)
	assert.False(t, free)

	approved, err := tables.Approve(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, booking.StatusApproved, approved.Status)

	a, err := tables.Assign(ctx, b.ID, "staff_role", "sommelier")
	require.NoError(t, err)

	moved, err := tables.Reschedule(ctx, b.ID, at(19, 0), at(21, 0))
	require.NoError(t, err)
	assert.Equal(t, at(19, 0), moved.Interval.Start)

	done, err := tables.Complete(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, booking.StatusCompleted, done.Status)

	require.NoError(t, tables.Unassign(ctx, a.ID))
}
