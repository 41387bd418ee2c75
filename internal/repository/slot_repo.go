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

type SlotRepository struct {
	DB *sql.DB
}

func NewSlotRepository(conn *sql.DB) *SlotRepository {
	return &SlotRepository{DB: conn}
}

const slotColumns = `id, slot_number, type, size, vehicle_type, is_available, location, created_at, updated_at`

func scanSlot(row interface{ Scan(...any) error }) (*db.ParkingSlot, error) {
	var s db.ParkingSlot
	err := row.Scan(&s.ID, &s.SlotNumber, &s.Type, &s.Size, &s.VehicleType, &s.IsAvailable, &s.Location, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *SlotRepository) Create(ctx context.Context, s *db.ParkingSlot) error {
	query := `
		INSERT INTO parking_slots (id, slot_number, type, size, vehicle_type, is_available, location)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at, updated_at`
	err := r.DB.QueryRowContext(ctx, query,
		s.ID, s.SlotNumber, s.Type, s.Size, s.VehicleType, s.IsAvailable, s.Location,
	).Scan(&s.CreatedAt, &s.UpdatedAt)
	if isUniqueViolation(err) {
		return errors.Conflict("parking slot with this number already exists")
	}
	if err != nil {
		return fmt.Errorf("insert parking slot: %w", err)
	}
	return nil
}

func (r *SlotRepository) GetByID(ctx context.Context, id string) (*db.ParkingSlot, error) {
	row := r.DB.QueryRowContext(ctx, `SELECT `+slotColumns+` FROM parking_slots WHERE id = $1`, id)
	s, err := scanSlot(row)
	if stderr.Is(err, sql.ErrNoRows) {
		return nil, errors.NotFound("parking slot not found")
	}
	if err != nil {
		return nil, fmt.Errorf("query parking slot: %w", err)
	}
	return s, nil
}

func (r *SlotRepository) Update(ctx context.Context, s *db.ParkingSlot) error {
	query := `
		UPDATE parking_slots
		SET slot_number = $2, type = $3, size = $4, vehicle_type = $5, is_available = $6, location = $7, updated_at = now()
		WHERE id = $1
		RETURNING updated_at`
	err := r.DB.QueryRowContext(ctx, query,
		s.ID, s.SlotNumber, s.Type, s.Size, s.VehicleType, s.IsAvailable, s.Location,
	).Scan(&s.UpdatedAt)
	if isUniqueViolation(err) {
		return errors.Conflict("parking slot with this number already exists")
	}
	if stderr.Is(err, sql.ErrNoRows) {
		return errors.NotFound("parking slot not found")
	}
	if err != nil {
		return fmt.Errorf("update parking slot: %w", err)
	}
	return nil
}

// Delete removes a slot unless an active booking still references it. The
// check and the delete run in one transaction so a racing booking creation
// cannot slip between them.
func (r *SlotRepository) Delete(ctx context.Context, id string) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var active int
	err = tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM bookings WHERE slot_id = $1 AND status = ANY($2)`,
		id, pq.Array(entities.ActiveBookingStatuses),
	).Scan(&active)
	if err != nil {
		return fmt.Errorf("count active bookings: %w", err)
	}
	if active > 0 {
		return errors.Conflict("cannot delete slot with active bookings")
	}

	result, err := tx.ExecContext(ctx, `DELETE FROM parking_slots WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete parking slot: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return errors.NotFound("parking slot not found")
	}
	return tx.Commit()
}

func (r *SlotRepository) List(ctx context.Context, filter entities.SlotFilter, page entities.Page) ([]db.ParkingSlot, int, error) {
	where, args := slotPredicates(filter)

	var total int
	countQuery := `SELECT COUNT(*) FROM parking_slots` + where
	if err := r.DB.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count parking slots: %w", err)
	}

	query := fmt.Sprintf(`SELECT %s FROM parking_slots%s ORDER BY slot_number ASC LIMIT $%d OFFSET $%d`,
		slotColumns, where, len(args)+1, len(args)+2)
	args = append(args, page.Limit, page.Offset())

	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list parking slots: %w", err)
	}
	defer rows.Close()

	var slots []db.ParkingSlot
	for rows.Next() {
		s, err := scanSlot(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan parking slot: %w", err)
		}
		slots = append(slots, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate parking slots: %w", err)
	}
	return slots, total, nil
}

// FindAvailable returns administratively available slots matching the filter
// that have no PENDING/APPROVED booking overlapping the window. Half-open
// overlap: a booking ending exactly at window start does not exclude the slot.
// Ordered by slot_number for deterministic pagination.
func (r *SlotRepository) FindAvailable(ctx context.Context, window entities.TimeWindow, filter entities.AvailabilityFilter) ([]db.ParkingSlot, error) {
	conds := []string{"is_available = true"}
	args := []any{pq.Array(entities.ActiveBookingStatuses), window.End, window.Start}
	if filter.Type != nil {
		args = append(args, *filter.Type)
		conds = append(conds, fmt.Sprintf("type = $%d", len(args)))
	}
	if filter.Size != nil {
		args = append(args, *filter.Size)
		conds = append(conds, fmt.Sprintf("size = $%d", len(args)))
	}
	if filter.VehicleType != nil {
		args = append(args, *filter.VehicleType)
		conds = append(conds, fmt.Sprintf("vehicle_type = $%d", len(args)))
	}

	query := fmt.Sprintf(`
		SELECT %s FROM parking_slots
		WHERE %s
		  AND id NOT IN (
			SELECT slot_id FROM bookings
			WHERE status = ANY($1) AND start_time < $2 AND end_time > $3
		  )
		ORDER BY slot_number ASC`, slotColumns, strings.Join(conds, " AND "))

	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("find available slots: %w", err)
	}
	defer rows.Close()

	var slots []db.ParkingSlot
	for rows.Next() {
		s, err := scanSlot(rows)
		if err != nil {
			return nil, fmt.Errorf("scan available slot: %w", err)
		}
		slots = append(slots, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate available slots: %w", err)
	}
	return slots, nil
}

func slotPredicates(filter entities.SlotFilter) (string, []any) {
	var conds []string
	var args []any
	if filter.Type != nil {
		args = append(args, *filter.Type)
		conds = append(conds, fmt.Sprintf("type = $%d", len(args)))
	}
	if filter.Size != nil {
		args = append(args, *filter.Size)
		conds = append(conds, fmt.Sprintf("size = $%d", len(args)))
	}
	if filter.VehicleType != nil {
		args = append(args, *filter.VehicleType)
		conds = append(conds, fmt.Sprintf("vehicle_type = $%d", len(args)))
	}
	if filter.IsAvailable != nil {
		args = append(args, *filter.IsAvailable)
		conds = append(conds, fmt.Sprintf("is_available = $%d", len(args)))
	}
	if filter.SlotNumber != "" {
		args = append(args, "%"+filter.SlotNumber+"%")
		conds = append(conds, fmt.Sprintf("slot_number ILIKE $%d", len(args)))
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}
