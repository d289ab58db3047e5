package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/IT24101129/RestaurantEventManagement-sub001/internal/allocation"
	"github.com/IT24101129/RestaurantEventManagement-sub001/internal/booking"
)

// Postgres backs the engine with pgx. Per-resource mutual exclusion is a
// row lock: WithResource opens a transaction and takes FOR UPDATE on the
// resource row, so conflicting writers for one resource queue while other
// resources proceed. lock_timeout caps the queueing and maps to
// *booking.ContentionError.
type Postgres struct {
	pool     *pgxpool.Pool
	lockWait time.Duration
}

func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool, lockWait: defaultLockWait}
}

// querier covers both pgxpool.Pool and pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func isLockTimeout(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "55P03"
}

func (p *Postgres) WithResource(ctx context.Context, kind booking.ResourceKind, resourceID int64, fn func(allocation.ResourceTx) error) error {
	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, fmt.Sprintf("SET LOCAL lock_timeout = '%dms'", p.lockWait.Milliseconds())); err != nil {
		return err
	}
	var locked int64
	err = tx.QueryRow(ctx, `SELECT id FROM resources WHERE kind=$1 AND id=$2 FOR UPDATE`, kind, resourceID).Scan(&locked)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return &booking.UnknownResourceError{Kind: kind, ResourceID: resourceID}
		}
		if isLockTimeout(err) {
			return &booking.ContentionError{Kind: kind, ResourceID: resourceID}
		}
		return err
	}
	if err := fn(pgTx{tx}); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

const bookingColumns = `id, kind, resource_id, start_at, end_at, status, quantity, note, created_at, updated_at`

func scanBooking(row pgx.Row) (booking.Booking, error) {
	var b booking.Booking
	err := row.Scan(&b.ID, &b.Kind, &b.ResourceID, &b.Interval.Start, &b.Interval.End,
		&b.Status, &b.Quantity, &b.Note, &b.CreatedAt, &b.UpdatedAt)
	return b, err
}

func getBooking(ctx context.Context, q querier, id int64) (booking.Booking, error) {
	b, err := scanBooking(q.QueryRow(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id=$1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return booking.Booking{}, &booking.NotFoundError{BookingID: id}
	}
	return b, err
}

func liveBookings(ctx context.Context, q querier, kind booking.ResourceKind, resourceID int64) ([]booking.Booking, error) {
	rows, err := q.Query(ctx, `
SELECT `+bookingColumns+`
FROM bookings
WHERE kind=$1 AND resource_id=$2 AND status IN ('PENDING','APPROVED')
ORDER BY start_at`, kind, resourceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []booking.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (p *Postgres) GetBooking(ctx context.Context, id int64) (booking.Booking, error) {
	return getBooking(ctx, p.pool, id)
}

func (p *Postgres) LiveBookings(ctx context.Context, kind booking.ResourceKind, resourceID int64) ([]booking.Booking, error) {
	return liveBookings(ctx, p.pool, kind, resourceID)
}

type pgTx struct{ tx pgx.Tx }

func (t pgTx) GetBooking(ctx context.Context, id int64) (booking.Booking, error) {
	return getBooking(ctx, t.tx, id)
}

func (t pgTx) LiveBookings(ctx context.Context, kind booking.ResourceKind, resourceID int64) ([]booking.Booking, error) {
	return liveBookings(ctx, t.tx, kind, resourceID)
}

func (t pgTx) InsertBooking(ctx context.Context, b *booking.Booking) error {
	return t.tx.QueryRow(ctx, `
INSERT INTO bookings (kind, resource_id, start_at, end_at, status, quantity, note, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
RETURNING id`,
		b.Kind, b.ResourceID, b.Interval.Start, b.Interval.End, b.Status, b.Quantity, b.Note, b.CreatedAt, b.UpdatedAt,
	).Scan(&b.ID)
}

func (t pgTx) UpdateBookingStatus(ctx context.Context, id int64, status booking.Status) error {
	tag, err := t.tx.Exec(ctx, `UPDATE bookings SET status=$2, updated_at=now() WHERE id=$1`, id, status)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return &booking.NotFoundError{BookingID: id}
	}
	return nil
}

func (t pgTx) UpdateBookingInterval(ctx context.Context, id int64, iv booking.Interval) error {
	tag, err := t.tx.Exec(ctx, `UPDATE bookings SET start_at=$2, end_at=$3, updated_at=now() WHERE id=$1`, id, iv.Start, iv.End)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return &booking.NotFoundError{BookingID: id}
	}
	return nil
}

func (t pgTx) DeleteBooking(ctx context.Context, id int64) error {
	// assignments cascade via FK
	tag, err := t.tx.Exec(ctx, `DELETE FROM bookings WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return &booking.NotFoundError{BookingID: id}
	}
	return nil
}

func (t pgTx) CancelAssignments(ctx context.Context, bookingID int64) error {
	return cancelAssignments(ctx, t.tx, bookingID)
}

func cancelAssignments(ctx context.Context, q querier, bookingID int64) error {
	_, err := q.Exec(ctx, `
UPDATE assignments SET status='CANCELLED', updated_at=now()
WHERE booking_id=$1 AND status NOT IN ('RETURNED','CANCELLED')`, bookingID)
	return err
}

func (p *Postgres) Assignments(ctx context.Context, bookingID int64) ([]booking.Assignment, error) {
	rows, err := p.pool.Query(ctx, `
SELECT id, booking_id, kind, detail, status, created_at, updated_at
FROM assignments WHERE booking_id=$1 ORDER BY id`, bookingID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []booking.Assignment
	for rows.Next() {
		var a booking.Assignment
		if err := rows.Scan(&a.ID, &a.BookingID, &a.Kind, &a.Detail, &a.Status, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (p *Postgres) Assignment(ctx context.Context, id int64) (booking.Assignment, error) {
	var a booking.Assignment
	err := p.pool.QueryRow(ctx, `
SELECT id, booking_id, kind, detail, status, created_at, updated_at
FROM assignments WHERE id=$1`, id).
		Scan(&a.ID, &a.BookingID, &a.Kind, &a.Detail, &a.Status, &a.CreatedAt, &a.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return booking.Assignment{}, booking.ErrAssignmentNotFound
	}
	return a, err
}

func (p *Postgres) InsertAssignment(ctx context.Context, a *booking.Assignment) error {
	return p.pool.QueryRow(ctx, `
INSERT INTO assignments (booking_id, kind, detail, status, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6)
RETURNING id`,
		a.BookingID, a.Kind, a.Detail, a.Status, a.CreatedAt, a.UpdatedAt,
	).Scan(&a.ID)
}

func (p *Postgres) UpdateAssignmentStatus(ctx context.Context, id int64, status booking.AssignmentStatus) error {
	tag, err := p.pool.Exec(ctx, `UPDATE assignments SET status=$2, updated_at=now() WHERE id=$1`, id, status)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return booking.ErrAssignmentNotFound
	}
	return nil
}

func (p *Postgres) CancelAssignments(ctx context.Context, bookingID int64) error {
	return cancelAssignments(ctx, p.pool, bookingID)
}

func (p *Postgres) Resource(ctx context.Context, kind booking.ResourceKind, id int64) (booking.Resource, error) {
	var r booking.Resource
	err := p.pool.QueryRow(ctx, `
SELECT id, kind, name, capacity, active FROM resources WHERE kind=$1 AND id=$2`, kind, id).
		Scan(&r.ID, &r.Kind, &r.Name, &r.Capacity, &r.Active)
	if errors.Is(err, pgx.ErrNoRows) {
		return booking.Resource{}, &booking.UnknownResourceError{Kind: kind, ResourceID: id}
	}
	return r, err
}

func (p *Postgres) CreateResource(ctx context.Context, r *booking.Resource) error {
	return p.pool.QueryRow(ctx, `
INSERT INTO resources (kind, name, capacity, active) VALUES ($1,$2,$3,$4) RETURNING id`,
		r.Kind, r.Name, r.Capacity, r.Active,
	).Scan(&r.ID)
}

func (p *Postgres) SetResourceActive(ctx context.Context, kind booking.ResourceKind, id int64, active bool) error {
	tag, err := p.pool.Exec(ctx, `UPDATE resources SET active=$3 WHERE kind=$1 AND id=$2`, kind, id, active)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return &booking.UnknownResourceError{Kind: kind, ResourceID: id}
	}
	return nil
}

func (p *Postgres) ListResources(ctx context.Context, kind booking.ResourceKind) ([]booking.Resource, error) {
	q := `SELECT id, kind, name, capacity, active FROM resources ORDER BY kind, id`
	args := []any{}
	if kind != "" {
		q = `SELECT id, kind, name, capacity, active FROM resources WHERE kind=$1 ORDER BY id`
		args = append(args, kind)
	}
	rows, err := p.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []booking.Resource
	for rows.Next() {
		var r booking.Resource
		if err := rows.Scan(&r.ID, &r.Kind, &r.Name, &r.Capacity, &r.Active); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (p *Postgres) ListBookings(ctx context.Context, f BookingFilter) ([]booking.Booking, error) {
	q := `SELECT ` + bookingColumns + ` FROM bookings WHERE 1=1`
	var args []any
	if f.Kind != "" {
		args = append(args, f.Kind)
		q += fmt.Sprintf(" AND kind=$%d", len(args))
	}
	if f.ResourceID != 0 {
		args = append(args, f.ResourceID)
		q += fmt.Sprintf(" AND resource_id=$%d", len(args))
	}
	if f.Status != "" {
		args = append(args, f.Status)
		q += fmt.Sprintf(" AND status=$%d", len(args))
	}
	q += " ORDER BY start_at"
	rows, err := p.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []booking.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (p *Postgres) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	return p.pool.Ping(ctx)
}

func (p *Postgres) Close() {
	p.pool.Close()
}
