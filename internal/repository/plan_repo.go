package repository

import (
	"context"
	"database/sql"
	stderr "errors"
	"fmt"

	"parkreserve/internal/db"
	"parkreserve/internal/errors"
)

type PlanRepository struct {
	DB *sql.DB
}

func NewPlanRepository(conn *sql.DB) *PlanRepository {
	return &PlanRepository{DB: conn}
}

const planColumns = `id, name, type, price_cents, duration_days, description, created_at, updated_at`

func scanPlan(row interface{ Scan(...any) error }) (*db.PaymentPlan, error) {
	var p db.PaymentPlan
	err := row.Scan(&p.ID, &p.Name, &p.Type, &p.PriceCents, &p.DurationDays, &p.Description, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *PlanRepository) Create(ctx context.Context, p *db.PaymentPlan) error {
	query := `
		INSERT INTO payment_plans (id, name, type, price_cents, duration_days, description)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at, updated_at`
	err := r.DB.QueryRowContext(ctx, query,
		p.ID, p.Name, p.Type, p.PriceCents, p.DurationDays, p.Description,
	).Scan(&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert payment plan: %w", err)
	}
	return nil
}

func (r *PlanRepository) GetByID(ctx context.Context, id string) (*db.PaymentPlan, error) {
	row := r.DB.QueryRowContext(ctx, `SELECT `+planColumns+` FROM payment_plans WHERE id = $1`, id)
	p, err := scanPlan(row)
	if stderr.Is(err, sql.ErrNoRows) {
		return nil, errors.NotFound("payment plan not found")
	}
	if err != nil {
		return nil, fmt.Errorf("query payment plan: %w", err)
	}
	return p, nil
}

func (r *PlanRepository) Update(ctx context.Context, p *db.PaymentPlan) error {
	query := `
		UPDATE payment_plans
		SET name = $2, type = $3, price_cents = $4, duration_days = $5, description = $6, updated_at = now()
		WHERE id = $1
		RETURNING updated_at`
	err := r.DB.QueryRowContext(ctx, query,
		p.ID, p.Name, p.Type, p.PriceCents, p.DurationDays, p.Description,
	).Scan(&p.UpdatedAt)
	if stderr.Is(err, sql.ErrNoRows) {
		return errors.NotFound("payment plan not found")
	}
	if err != nil {
		return fmt.Errorf("update payment plan: %w", err)
	}
	return nil
}

// Delete refuses to remove a plan still referenced by payments; payment rows
// persist for audit, so a referenced plan stays.
func (r *PlanRepository) Delete(ctx context.Context, id string) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var refs int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM payments WHERE plan_id = $1`, id).Scan(&refs); err != nil {
		return fmt.Errorf("count plan references: %w", err)
	}
	if refs > 0 {
		return errors.Conflict("cannot delete plan referenced by payments")
	}

	result, err := tx.ExecContext(ctx, `DELETE FROM payment_plans WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete payment plan: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return errors.NotFound("payment plan not found")
	}
	return tx.Commit()
}

func (r *PlanRepository) List(ctx context.Context) ([]db.PaymentPlan, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT `+planColumns+` FROM payment_plans ORDER BY price_cents ASC`)
	if err != nil {
		return nil, fmt.Errorf("list payment plans: %w", err)
	}
	defer rows.Close()

	var plans []db.PaymentPlan
	for rows.Next() {
		p, err := scanPlan(rows)
		if err != nil {
			return nil, fmt.Errorf("scan payment plan: %w", err)
		}
		plans = append(plans, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate payment plans: %w", err)
	}
	return plans, nil
}
