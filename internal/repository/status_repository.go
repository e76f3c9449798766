// internal/repository/status_repository.go
package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"printer-service/internal/database"
	"printer-service/internal/model"
)

const statusLogColumns = `id, printer_id, flags, raw, source, observed_at`

// statusLogRepository implements StatusLogRepository
type statusLogRepository struct {
	db     *database.DB
	logger *zap.Logger
}

// NewStatusLogRepository creates a new status log repository
func NewStatusLogRepository(db *database.DB, logger *zap.Logger) StatusLogRepository {
	return &statusLogRepository{
		db:     db,
		logger: logger,
	}
}

// Create persists one status observation
func (r *statusLogRepository) Create(ctx context.Context, log *model.StatusLog) error {
	query := `
		INSERT INTO status_logs (id, printer_id, flags, raw, source)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := r.db.ExecContext(ctx, query,
		log.ID, log.PrinterID, log.Flags, log.Raw, log.Source,
	)

	if err != nil {
		r.logger.Error("Failed to create status log", zap.Error(err),
			zap.String("printer_id", log.PrinterID.String()))
		return fmt.Errorf("failed to create status log: %w", err)
	}

	return nil
}

// ListByPrinter retrieves the most recent observations for one printer
func (r *statusLogRepository) ListByPrinter(ctx context.Context, printerID uuid.UUID, limit int) ([]*model.StatusLog, error) {
	if limit < 1 {
		limit = 100
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM status_logs
		WHERE printer_id = $1
		ORDER BY observed_at DESC
		LIMIT $2
	`, statusLogColumns)

	rows, err := r.db.QueryContext(ctx, query, printerID, limit)
	if err != nil {
		r.logger.Error("Failed to list status logs", zap.Error(err),
			zap.String("printer_id", printerID.String()))
		return nil, fmt.Errorf("failed to list status logs: %w", err)
	}
	defer rows.Close()

	logs := []*model.StatusLog{}
	for rows.Next() {
		entry := &model.StatusLog{}
		err := rows.Scan(
			&entry.ID, &entry.PrinterID, &entry.Flags, &entry.Raw,
			&entry.Source, &entry.ObservedAt,
		)
		if err != nil {
			r.logger.Error("Failed to scan status log row", zap.Error(err))
			continue
		}
		logs = append(logs, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate status log rows: %w", err)
	}

	return logs, nil
}

// Latest retrieves the newest observation for one printer
func (r *statusLogRepository) Latest(ctx context.Context, printerID uuid.UUID) (*model.StatusLog, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM status_logs
		WHERE printer_id = $1
		ORDER BY observed_at DESC
		LIMIT 1
	`, statusLogColumns)

	entry := &model.StatusLog{}
	err := r.db.QueryRowContext(ctx, query, printerID).Scan(
		&entry.ID, &entry.PrinterID, &entry.Flags, &entry.Raw,
		&entry.Source, &entry.ObservedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("status for printer %s: %w", printerID, ErrNotFound)
		}
		r.logger.Error("Failed to get latest status log", zap.Error(err),
			zap.String("printer_id", printerID.String()))
		return nil, fmt.Errorf("failed to get latest status log: %w", err)
	}

	return entry, nil
}

// DeleteOld removes observations older than the cutoff
func (r *statusLogRepository) DeleteOld(ctx context.Context, olderThan time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx, "DELETE FROM status_logs WHERE observed_at < $1", olderThan)
	if err != nil {
		r.logger.Error("Failed to delete old status logs", zap.Error(err))
		return 0, fmt.Errorf("failed to delete old status logs: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected > 0 {
		r.logger.Info("Deleted old status logs", zap.Int64("count", rowsAffected))
	}

	return rowsAffected, nil
}
