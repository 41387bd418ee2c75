package repository

import (
	"context"
	"database/sql"
	stderr "errors"
	"fmt"

	"parkreserve/internal/db"
	"parkreserve/internal/entities"
	"parkreserve/internal/errors"
)

type PaymentRepository struct {
	DB *sql.DB
}

func NewPaymentRepository(conn *sql.DB) *PaymentRepository {
	return &PaymentRepository{DB: conn}
}

const paymentColumns = `id, booking_id, user_id, plan_id, amount_cents, status, stripe_session_id, created_at, updated_at`

func scanPayment(row interface{ Scan(...any) error }) (*db.Payment, error) {
	var p db.Payment
	err := row.Scan(&p.ID, &p.BookingID, &p.UserID, &p.PlanID, &p.AmountCents, &p.Status, &p.StripeSessionID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *PaymentRepository) GetByID(ctx context.Context, id string) (*db.Payment, error) {
	row := r.DB.QueryRowContext(ctx, `SELECT `+paymentColumns+` FROM payments WHERE id = $1`, id)
	p, err := scanPayment(row)
	if stderr.Is(err, sql.ErrNoRows) {
		return nil, errors.NotFound("payment not found")
	}
	if err != nil {
		return nil, fmt.Errorf("query payment: %w", err)
	}
	return p, nil
}

func (r *PaymentRepository) GetByBooking(ctx context.Context, bookingID string) (*db.Payment, error) {
	row := r.DB.QueryRowContext(ctx, `SELECT `+paymentColumns+` FROM payments WHERE booking_id = $1`, bookingID)
	p, err := scanPayment(row)
	if stderr.Is(err, sql.ErrNoRows) {
		return nil, errors.NotFound("payment not found")
	}
	if err != nil {
		return nil, fmt.Errorf("query payment by booking: %w", err)
	}
	return p, nil
}

func (r *PaymentRepository) ListByUser(ctx context.Context, userID string) ([]db.Payment, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT `+paymentColumns+` FROM payments WHERE user_id = $1 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}
	defer rows.Close()

	var payments []db.Payment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan payment: %w", err)
		}
		payments = append(payments, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate payments: %w", err)
	}
	return payments, nil
}

// SetStatus updates a payment's status; the amount never changes after
// creation.
func (r *PaymentRepository) SetStatus(ctx context.Context, id string, status entities.PaymentStatus) error {
	result, err := r.DB.ExecContext(ctx,
		`UPDATE payments SET status = $2, updated_at = now() WHERE id = $1`, id, status)
	if err != nil {
		return fmt.Errorf("update payment status: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return errors.NotFound("payment not found")
	}
	return nil
}

func (r *PaymentRepository) SetStripeSession(ctx context.Context, id, sessionID string) error {
	_, err := r.DB.ExecContext(ctx,
		`UPDATE payments SET stripe_session_id = $2, updated_at = now() WHERE id = $1`, id, sessionID)
	if err != nil {
		return fmt.Errorf("set stripe session: %w", err)
	}
	return nil
}
