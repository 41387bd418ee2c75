package repository

import (
	"context"
	"database/sql"
	stderr "errors"
	"fmt"
	"strings"

	"github.com/lib/pq"

	"parkreserve/internal/db"
	"parkreserve/internal/entities"
	"parkreserve/internal/errors"
)

type VehicleRepository struct {
	DB *sql.DB
}

func NewVehicleRepository(conn *sql.DB) *VehicleRepository {
	return &VehicleRepository{DB: conn}
}

const vehicleColumns = `id, user_id, plate_number, type, size, attributes, created_at, updated_at`

func scanVehicle(row interface{ Scan(...any) error }) (*db.Vehicle, error) {
	var v db.Vehicle
	err := row.Scan(&v.ID, &v.UserID, &v.PlateNumber, &v.Type, &v.Size, &v.Attributes, &v.CreatedAt, &v.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func (r *VehicleRepository) Create(ctx context.Context, v *db.Vehicle) error {
	if len(v.Attributes) == 0 {
		v.Attributes = []byte(`{}`)
	}
	query := `
		INSERT INTO vehicles (id, user_id, plate_number, type, size, attributes)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at, updated_at`
	err := r.DB.QueryRowContext(ctx, query,
		v.ID, v.UserID, v.PlateNumber, v.Type, v.Size, []byte(v.Attributes),
	).Scan(&v.CreatedAt, &v.UpdatedAt)
	if isUniqueViolation(err) {
		return errors.Conflict("vehicle with this plate number already exists")
	}
	if err != nil {
		return fmt.Errorf("insert vehicle: %w", err)
	}
	return nil
}

func (r *VehicleRepository) GetByID(ctx context.Context, id string) (*db.Vehicle, error) {
	row := r.DB.QueryRowContext(ctx, `SELECT `+vehicleColumns+` FROM vehicles WHERE id = $1`, id)
	v, err := scanVehicle(row)
	if stderr.Is(err, sql.ErrNoRows) {
		return nil, errors.NotFound("vehicle not found")
	}
	if err != nil {
		return nil, fmt.Errorf("query vehicle: %w", err)
	}
	return v, nil
}

func (r *VehicleRepository) GetByPlate(ctx context.Context, plate string) (*db.Vehicle, error) {
	row := r.DB.QueryRowContext(ctx, `SELECT `+vehicleColumns+` FROM vehicles WHERE plate_number = $1`, plate)
	v, err := scanVehicle(row)
	if stderr.Is(err, sql.ErrNoRows) {
		return nil, errors.NotFound("vehicle not found")
	}
	if err != nil {
		return nil, fmt.Errorf("query vehicle by plate: %w", err)
	}
	return v, nil
}

func (r *VehicleRepository) Update(ctx context.Context, v *db.Vehicle) error {
	query := `
		UPDATE vehicles
		SET plate_number = $2, type = $3, size = $4, attributes = $5, updated_at = now()
		WHERE id = $1
		RETURNING updated_at`
	err := r.DB.QueryRowContext(ctx, query,
		v.ID, v.PlateNumber, v.Type, v.Size, []byte(v.Attributes),
	).Scan(&v.UpdatedAt)
	if isUniqueViolation(err) {
		return errors.Conflict("vehicle with this plate number already exists")
	}
	if stderr.Is(err, sql.ErrNoRows) {
		return errors.NotFound("vehicle not found")
	}
	if err != nil {
		return fmt.Errorf("update vehicle: %w", err)
	}
	return nil
}

func (r *VehicleRepository) Delete(ctx context.Context, id string) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var active int
	err = tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM bookings WHERE vehicle_id = $1 AND status = ANY($2)`,
		id, pq.Array(entities.ActiveBookingStatuses),
	).Scan(&active)
	if err != nil {
		return fmt.Errorf("count active bookings: %w", err)
	}
	if active > 0 {
		return errors.Conflict("cannot delete vehicle with active bookings")
	}

	result, err := tx.ExecContext(ctx, `DELETE FROM vehicles WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete vehicle: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return errors.NotFound("vehicle not found")
	}
	return tx.Commit()
}

func (r *VehicleRepository) List(ctx context.Context, filter entities.VehicleFilter, page entities.Page) ([]db.Vehicle, int, error) {
	conds := []string{"user_id = $1"}
	args := []any{filter.UserID}
	if filter.Type != nil {
		args = append(args, *filter.Type)
		conds = append(conds, fmt.Sprintf("type = $%d", len(args)))
	}
	if filter.PlateNumber != "" {
		args = append(args, "%"+filter.PlateNumber+"%")
		conds = append(conds, fmt.Sprintf("plate_number ILIKE $%d", len(args)))
	}
	where := " WHERE " + strings.Join(conds, " AND ")

	var total int
	if err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM vehicles`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count vehicles: %w", err)
	}

	query := fmt.Sprintf(`SELECT %s FROM vehicles%s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		vehicleColumns, where, len(args)+1, len(args)+2)
	args = append(args, page.Limit, page.Offset())

	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list vehicles: %w", err)
	}
	defer rows.Close()

	var vehicles []db.Vehicle
	for rows.Next() {
		v, err := scanVehicle(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan vehicle: %w", err)
		}
		vehicles = append(vehicles, *v)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate vehicles: %w", err)
	}
	return vehicles, total, nil
}
