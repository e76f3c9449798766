// internal/repository/printer_repository.go
package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"printer-service/internal/database"
	"printer-service/internal/model"
)

const printerColumns = `id, name, dialect, model, serial_number,
	   connection_type, connection_config, encoding, status, last_seen,
	   error_info, created_at, updated_at`

// printerSortColumns whitelists ORDER BY targets. Anything else falls
// back to created_at.
var printerSortColumns = map[string]string{
	"name":       "name",
	"dialect":    "dialect",
	"status":     "status",
	"last_seen":  "last_seen",
	"created_at": "created_at",
}

// printerRepository implements PrinterRepository
type printerRepository struct {
	db     *database.DB
	logger *zap.Logger
}

// NewPrinterRepository creates a new printer repository
func NewPrinterRepository(db *database.DB, logger *zap.Logger) PrinterRepository {
	return &printerRepository{
		db:     db,
		logger: logger,
	}
}

// Create registers a new printer
func (r *printerRepository) Create(ctx context.Context, printer *model.Printer) error {
	query := `
		INSERT INTO printers (
			id, name, dialect, model, serial_number, connection_type,
			connection_config, encoding, status, error_info
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := r.db.ExecContext(ctx, query,
		printer.ID, printer.Name, printer.Dialect, printer.Model,
		printer.SerialNumber, printer.ConnectionType, printer.ConnectionConfig,
		printer.Encoding, printer.Status, printer.ErrorInfo,
	)

	if err != nil {
		r.logger.Error("Failed to create printer", zap.Error(err), zap.String("name", printer.Name))
		return fmt.Errorf("failed to create printer: %w", err)
	}

	r.logger.Info("Printer created successfully", zap.String("name", printer.Name))
	return nil
}

// GetByID retrieves a printer by its UUID
func (r *printerRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Printer, error) {
	query := fmt.Sprintf("SELECT %s FROM printers WHERE id = $1", printerColumns)

	printer, err := r.scanPrinter(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("printer %s: %w", id, ErrNotFound)
		}
		r.logger.Error("Failed to get printer by ID", zap.Error(err), zap.String("id", id.String()))
		return nil, fmt.Errorf("failed to get printer: %w", err)
	}

	return printer, nil
}

// GetByName retrieves a printer by its unique name
func (r *printerRepository) GetByName(ctx context.Context, name string) (*model.Printer, error) {
	query := fmt.Sprintf("SELECT %s FROM printers WHERE name = $1", printerColumns)

	printer, err := r.scanPrinter(r.db.QueryRowContext(ctx, query, name))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("printer %q: %w", name, ErrNotFound)
		}
		r.logger.Error("Failed to get printer by name", zap.Error(err), zap.String("name", name))
		return nil, fmt.Errorf("failed to get printer: %w", err)
	}

	return printer, nil
}

// Update updates an existing printer
func (r *printerRepository) Update(ctx context.Context, printer *model.Printer) error {
	query := `
		UPDATE printers SET
			name = $2, dialect = $3, model = $4, serial_number = $5,
			connection_type = $6, connection_config = $7, encoding = $8,
			status = $9, last_seen = $10, error_info = $11,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = $1
	`

	result, err := r.db.ExecContext(ctx, query,
		printer.ID, printer.Name, printer.Dialect, printer.Model,
		printer.SerialNumber, printer.ConnectionType, printer.ConnectionConfig,
		printer.Encoding, printer.Status, printer.LastSeen, printer.ErrorInfo,
	)

	if err != nil {
		r.logger.Error("Failed to update printer", zap.Error(err), zap.String("name", printer.Name))
		return fmt.Errorf("failed to update printer: %w", err)
	}

	return r.requireRow(result, printer.ID)
}

// UpdateStatus updates the printer status column only
func (r *printerRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status model.PrinterStatus) error {
	query := `
		UPDATE printers SET status = $2, updated_at = CURRENT_TIMESTAMP
		WHERE id = $1
	`

	result, err := r.db.ExecContext(ctx, query, id, status)
	if err != nil {
		r.logger.Error("Failed to update printer status", zap.Error(err), zap.String("id", id.String()))
		return fmt.Errorf("failed to update printer status: %w", err)
	}

	return r.requireRow(result, id)
}

// UpdateLastSeen records when the printer last answered
func (r *printerRepository) UpdateLastSeen(ctx context.Context, id uuid.UUID, seenAt time.Time) error {
	query := `
		UPDATE printers SET last_seen = $2, updated_at = CURRENT_TIMESTAMP
		WHERE id = $1
	`

	_, err := r.db.ExecContext(ctx, query, id, seenAt)
	if err != nil {
		r.logger.Error("Failed to update last seen", zap.Error(err))
		return fmt.Errorf("failed to update last seen: %w", err)
	}

	return nil
}

// Delete removes a printer and cascades to its jobs and status logs
func (r *printerRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM printers WHERE id = $1", id)
	if err != nil {
		r.logger.Error("Failed to delete printer", zap.Error(err), zap.String("id", id.String()))
		return fmt.Errorf("failed to delete printer: %w", err)
	}

	if err := r.requireRow(result, id); err != nil {
		return err
	}

	r.logger.Info("Printer deleted successfully", zap.String("id", id.String()))
	return nil
}

// List retrieves printers with filtering and pagination
func (r *printerRepository) List(ctx context.Context, filter *PrinterFilter) ([]*model.Printer, int, error) {
	whereConditions := []string{}
	args := []interface{}{}
	argIndex := 1

	if filter.Dialect != nil {
		whereConditions = append(whereConditions, fmt.Sprintf("dialect = $%d", argIndex))
		args = append(args, *filter.Dialect)
		argIndex++
	}

	if filter.ConnectionType != nil {
		whereConditions = append(whereConditions, fmt.Sprintf("connection_type = $%d", argIndex))
		args = append(args, *filter.ConnectionType)
		argIndex++
	}

	if filter.Status != nil {
		whereConditions = append(whereConditions, fmt.Sprintf("status = $%d", argIndex))
		args = append(args, *filter.Status)
		argIndex++
	}

	if filter.SearchTerm != nil {
		whereConditions = append(whereConditions, fmt.Sprintf("(name ILIKE $%d OR model ILIKE $%d)", argIndex, argIndex))
		args = append(args, "%"+*filter.SearchTerm+"%")
		argIndex++
	}

	whereClause := ""
	if len(whereConditions) > 0 {
		whereClause = "WHERE " + strings.Join(whereConditions, " AND ")
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM printers %s", whereClause)
	var total int
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count printers: %w", err)
	}

	orderBy := "created_at DESC"
	if column, ok := printerSortColumns[filter.SortBy]; ok {
		order := "ASC"
		if filter.SortOrder == "desc" {
			order = "DESC"
		}
		orderBy = fmt.Sprintf("%s %s", column, order)
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	perPage := filter.PerPage
	if perPage < 1 {
		perPage = 20
	}
	offset := (page - 1) * perPage

	query := fmt.Sprintf(`
		SELECT %s
		FROM printers %s
		ORDER BY %s
		LIMIT $%d OFFSET $%d
	`, printerColumns, whereClause, orderBy, argIndex, argIndex+1)

	args = append(args, perPage, offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to list printers", zap.Error(err))
		return nil, 0, fmt.Errorf("failed to list printers: %w", err)
	}
	defer rows.Close()

	printers, err := r.scanPrinters(rows)
	if err != nil {
		return nil, 0, err
	}

	return printers, total, nil
}

// ListByStatus retrieves every printer currently in the given status
func (r *printerRepository) ListByStatus(ctx context.Context, status model.PrinterStatus) ([]*model.Printer, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM printers
		WHERE status = $1
		ORDER BY last_seen DESC NULLS LAST
	`, printerColumns)

	rows, err := r.db.QueryContext(ctx, query, status)
	if err != nil {
		r.logger.Error("Failed to list printers by status", zap.Error(err))
		return nil, fmt.Errorf("failed to list printers by status: %w", err)
	}
	defer rows.Close()

	return r.scanPrinters(rows)
}

// GetStats retrieves fleet statistics
func (r *printerRepository) GetStats(ctx context.Context) (*PrinterStats, error) {
	stats := &PrinterStats{
		ByDialect:    make(map[string]int),
		ByConnection: make(map[model.ConnectionType]int),
	}

	query := `
		SELECT COUNT(*),
			COUNT(CASE WHEN status = 'ONLINE' THEN 1 END),
			COUNT(CASE WHEN status = 'OFFLINE' THEN 1 END),
			COUNT(CASE WHEN status = 'ERROR' THEN 1 END)
		FROM printers
	`
	err := r.db.QueryRowContext(ctx, query).Scan(
		&stats.TotalPrinters, &stats.OnlinePrinters,
		&stats.OfflinePrinters, &stats.ErrorPrinters,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get printer stats: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT dialect, connection_type, COUNT(*)
		FROM printers
		GROUP BY dialect, connection_type
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to get printer stats: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var dialect string
		var connType model.ConnectionType
		var count int
		if err := rows.Scan(&dialect, &connType, &count); err != nil {
			r.logger.Error("Failed to scan stats row", zap.Error(err))
			continue
		}
		stats.ByDialect[dialect] += count
		stats.ByConnection[connType] += count
	}

	return stats, nil
}

// scanPrinter scans a single row into a printer
func (r *printerRepository) scanPrinter(row *sql.Row) (*model.Printer, error) {
	printer := &model.Printer{}
	err := row.Scan(
		&printer.ID, &printer.Name, &printer.Dialect, &printer.Model,
		&printer.SerialNumber, &printer.ConnectionType, &printer.ConnectionConfig,
		&printer.Encoding, &printer.Status, &printer.LastSeen,
		&printer.ErrorInfo, &printer.CreatedAt, &printer.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return printer, nil
}

// scanPrinters scans all remaining rows
func (r *printerRepository) scanPrinters(rows *sql.Rows) ([]*model.Printer, error) {
	printers := []*model.Printer{}
	for rows.Next() {
		printer := &model.Printer{}
		err := rows.Scan(
			&printer.ID, &printer.Name, &printer.Dialect, &printer.Model,
			&printer.SerialNumber, &printer.ConnectionType, &printer.ConnectionConfig,
			&printer.Encoding, &printer.Status, &printer.LastSeen,
			&printer.ErrorInfo, &printer.CreatedAt, &printer.UpdatedAt,
		)
		if err != nil {
			r.logger.Error("Failed to scan printer row", zap.Error(err))
			continue
		}
		printers = append(printers, printer)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate printer rows: %w", err)
	}

	return printers, nil
}

// requireRow converts a zero-row update into ErrNotFound
func (r *printerRepository) requireRow(result sql.Result, id uuid.UUID) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("printer %s: %w", id, ErrNotFound)
	}
	return nil
}
