package repository

import (
	"context"
	"database/sql"
	stderr "errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"parkreserve/internal/db"
	"parkreserve/internal/entities"
	"parkreserve/internal/errors"
)

type BookingRepository struct {
	DB *sql.DB
}

func NewBookingRepository(conn *sql.DB) *BookingRepository {
	return &BookingRepository{DB: conn}
}

const bookingColumns = `id, user_id, slot_id, vehicle_id, start_time, end_time, status, is_paid, expires_at, created_at, updated_at`

func scanBooking(row interface{ Scan(...any) error }) (*db.Booking, error) {
	var b db.Booking
	err := row.Scan(&b.ID, &b.UserID, &b.SlotID, &b.VehicleID, &b.StartTime, &b.EndTime, &b.Status, &b.IsPaid, &b.ExpiresAt, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// CreateWithPayment inserts a booking and its payment as a single unit. The
// slot row is locked first and the overlap check re-runs inside the same
// transaction, so of two racing creations for an overlapping window on one
// slot at most one commits; the loser gets a Conflict.
func (r *BookingRepository) CreateWithPayment(ctx context.Context, b *db.Booking, p *db.Payment) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var available bool
	err = tx.QueryRowContext(ctx,
		`SELECT is_available FROM parking_slots WHERE id = $1 FOR UPDATE`, b.SlotID,
	).Scan(&available)
	if stderr.Is(err, sql.ErrNoRows) {
		return errors.NotFound("parking slot not found")
	}
	if err != nil {
		return fmt.Errorf("lock parking slot: %w", err)
	}
	if !available {
		return errors.Conflict("parking slot is not available")
	}

	var overlapping int
	err = tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM bookings
		 WHERE slot_id = $1 AND status = ANY($2) AND start_time < $3 AND end_time > $4`,
		b.SlotID, pq.Array(entities.ActiveBookingStatuses), b.EndTime, b.StartTime,
	).Scan(&overlapping)
	if err != nil {
		return fmt.Errorf("count overlapping bookings: %w", err)
	}
	if overlapping > 0 {
		return errors.Conflict("time slot already booked")
	}

	err = tx.QueryRowContext(ctx,
		`INSERT INTO bookings (id, user_id, slot_id, vehicle_id, start_time, end_time, status, is_paid, expires_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 RETURNING created_at, updated_at`,
		b.ID, b.UserID, b.SlotID, b.VehicleID, b.StartTime, b.EndTime, b.Status, b.IsPaid, b.ExpiresAt,
	).Scan(&b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert booking: %w", err)
	}

	err = tx.QueryRowContext(ctx,
		`INSERT INTO payments (id, booking_id, user_id, plan_id, amount_cents, status)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING created_at, updated_at`,
		p.ID, p.BookingID, p.UserID, p.PlanID, p.AmountCents, p.Status,
	).Scan(&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert payment: %w", err)
	}

	return tx.Commit()
}

func (r *BookingRepository) GetByID(ctx context.Context, id string) (*db.Booking, error) {
	row := r.DB.QueryRowContext(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id = $1`, id)
	b, err := scanBooking(row)
	if stderr.Is(err, sql.ErrNoRows) {
		return nil, errors.NotFound("booking not found")
	}
	if err != nil {
		return nil, fmt.Errorf("query booking: %w", err)
	}
	return b, nil
}

// UpdateStatus transitions a booking only when it is still in one of the
// expected statuses; zero rows affected means the booking changed under us
// and the caller gets a Conflict.
func (r *BookingRepository) UpdateStatus(ctx context.Context, id string, from []entities.BookingStatus, to entities.BookingStatus) error {
	fromStrings := make([]string, len(from))
	for i, s := range from {
		fromStrings[i] = string(s)
	}
	result, err := r.DB.ExecContext(ctx,
		`UPDATE bookings SET status = $2, updated_at = now() WHERE id = $1 AND status = ANY($3)`,
		id, to, pq.Array(fromStrings),
	)
	if err != nil {
		return fmt.Errorf("update booking status: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return errors.Conflict("booking is not in an allowed status for this transition")
	}
	return nil
}

func (r *BookingRepository) SetPaid(ctx context.Context, id string) error {
	_, err := r.DB.ExecContext(ctx,
		`UPDATE bookings SET is_paid = true, updated_at = now() WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("mark booking paid: %w", err)
	}
	return nil
}

func (r *BookingRepository) CountOverlapping(ctx context.Context, slotID string, window entities.TimeWindow) (int, error) {
	var n int
	err := r.DB.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM bookings
		 WHERE slot_id = $1 AND status = ANY($2) AND start_time < $3 AND end_time > $4`,
		slotID, pq.Array(entities.ActiveBookingStatuses), window.End, window.Start,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count overlapping bookings: %w", err)
	}
	return n, nil
}

func (r *BookingRepository) List(ctx context.Context, filter entities.BookingFilter, page entities.Page) ([]db.Booking, int, error) {
	where := ""
	var args []any
	if filter.UserID != "" {
		args = append(args, filter.UserID)
		where = fmt.Sprintf(" WHERE user_id = $%d", len(args))
	}
	if filter.Status != nil {
		args = append(args, *filter.Status)
		if where == "" {
			where = fmt.Sprintf(" WHERE status = $%d", len(args))
		} else {
			where += fmt.Sprintf(" AND status = $%d", len(args))
		}
	}

	var total int
	if err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM bookings`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count bookings: %w", err)
	}

	query := fmt.Sprintf(`SELECT %s FROM bookings%s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		bookingColumns, where, len(args)+1, len(args)+2)
	args = append(args, page.Limit, page.Offset())

	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list bookings: %w", err)
	}
	defer rows.Close()

	var bookings []db.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan booking: %w", err)
		}
		bookings = append(bookings, *b)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate bookings: %w", err)
	}
	return bookings, total, nil
}

// Detail loads the joined booking view used by notifications and receipts.
func (r *BookingRepository) Detail(ctx context.Context, id string) (*entities.BookingDetail, error) {
	query := `
		SELECT b.id, b.status, b.is_paid, b.start_time, b.end_time, b.created_at,
		       u.name, u.email, u.phone,
		       s.slot_number, s.type, s.location,
		       v.plate_number,
		       pl.name, p.amount_cents
		FROM bookings b
		JOIN users u ON b.user_id = u.id
		JOIN parking_slots s ON b.slot_id = s.id
		JOIN vehicles v ON b.vehicle_id = v.id
		JOIN payments p ON p.booking_id = b.id
		JOIN payment_plans pl ON p.plan_id = pl.id
		WHERE b.id = $1`

	var d entities.BookingDetail
	err := r.DB.QueryRowContext(ctx, query, id).Scan(
		&d.BookingID, &d.Status, &d.IsPaid, &d.StartTime, &d.EndTime, &d.CreatedAt,
		&d.UserName, &d.UserEmail, &d.UserPhone,
		&d.SlotNumber, &d.SlotType, &d.Location,
		&d.PlateNumber,
		&d.PlanName, &d.AmountCents,
	)
	if stderr.Is(err, sql.ErrNoRows) {
		return nil, errors.NotFound("booking not found")
	}
	if err != nil {
		return nil, fmt.Errorf("query booking detail: %w", err)
	}
	return &d, nil
}

// ExpirePending moves PENDING bookings past their expires_at deadline to
// EXPIRED and returns the affected IDs. The status predicate repeats in the
// update, so concurrent sweeps transition each row at most once.
func (r *BookingRepository) ExpirePending(ctx context.Context, now time.Time) ([]string, error) {
	return r.sweep(ctx,
		`SELECT id FROM bookings WHERE status = 'PENDING' AND expires_at < $1`,
		`UPDATE bookings SET status = 'EXPIRED', updated_at = now() WHERE id = ANY($1) AND status = 'PENDING'`,
		now)
}

// CompleteElapsed moves APPROVED bookings whose end_time has passed to
// COMPLETED and returns the affected IDs.
func (r *BookingRepository) CompleteElapsed(ctx context.Context, now time.Time) ([]string, error) {
	return r.sweep(ctx,
		`SELECT id FROM bookings WHERE status = 'APPROVED' AND end_time < $1`,
		`UPDATE bookings SET status = 'COMPLETED', updated_at = now() WHERE id = ANY($1) AND status = 'APPROVED'`,
		now)
}

func (r *BookingRepository) sweep(ctx context.Context, selectQuery, updateQuery string, now time.Time) ([]string, error) {
	rows, err := r.DB.QueryContext(ctx, selectQuery, now)
	if err != nil {
		return nil, fmt.Errorf("select sweep candidates: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan booking id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sweep candidates: %w", err)
	}
	if len(ids) == 0 {
		return nil, nil
	}

	if _, err := r.DB.ExecContext(ctx, updateQuery, pq.Array(ids)); err != nil {
		return nil, fmt.Errorf("update swept bookings: %w", err)
	}
	return ids, nil
}
