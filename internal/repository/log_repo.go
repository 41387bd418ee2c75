package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"parkreserve/internal/db"
	"parkreserve/internal/entities"
)

// LogRepository is the append-only audit trail behind mutations.
type LogRepository struct {
	DB *sql.DB
}

func NewLogRepository(conn *sql.DB) *LogRepository {
	return &LogRepository{DB: conn}
}

func (r *LogRepository) Record(ctx context.Context, userID, action string, details map[string]any) error {
	payload, err := json.Marshal(details)
	if err != nil {
		return fmt.Errorf("marshal audit details: %w", err)
	}
	_, err = r.DB.ExecContext(ctx,
		`INSERT INTO audit_logs (id, user_id, action, details) VALUES ($1, $2, $3, $4)`,
		uuid.New().String(), userID, action, payload)
	if err != nil {
		return fmt.Errorf("insert audit log: %w", err)
	}
	return nil
}

func (r *LogRepository) List(ctx context.Context, page entities.Page) ([]db.AuditLog, int, error) {
	var total int
	if err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM audit_logs`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count audit logs: %w", err)
	}

	rows, err := r.DB.QueryContext(ctx,
		`SELECT id, user_id, action, details, created_at
		 FROM audit_logs ORDER BY created_at DESC LIMIT $1 OFFSET $2`,
		page.Limit, page.Offset())
	if err != nil {
		return nil, 0, fmt.Errorf("list audit logs: %w", err)
	}
	defer rows.Close()

	var logs []db.AuditLog
	for rows.Next() {
		var l db.AuditLog
		if err := rows.Scan(&l.ID, &l.UserID, &l.Action, &l.Details, &l.CreatedAt); err != nil {
			return nil, 0, fmt.Errorf("scan audit log: %w", err)
		}
		logs = append(logs, l)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate audit logs: %w", err)
	}
	return logs, total, nil
}
