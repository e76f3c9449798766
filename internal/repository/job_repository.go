// internal/repository/job_repository.go
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

const jobColumns = `id, printer_id, kind, payload, status, bytes_written,
	   error_message, created_at, started_at, completed_at`

var jobSortColumns = map[string]string{
	"kind":         "kind",
	"status":       "status",
	"created_at":   "created_at",
	"completed_at": "completed_at",
}

// jobRepository implements JobRepository
type jobRepository struct {
	db     *database.DB
	logger *zap.Logger
}

// NewJobRepository creates a new print job repository
func NewJobRepository(db *database.DB, logger *zap.Logger) JobRepository {
	return &jobRepository{
		db:     db,
		logger: logger,
	}
}

// Create persists a new print job
func (r *jobRepository) Create(ctx context.Context, job *model.PrintJob) error {
	query := `
		INSERT INTO print_jobs (
			id, printer_id, kind, payload, status, bytes_written
		) VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.db.ExecContext(ctx, query,
		job.ID, job.PrinterID, job.Kind, job.Payload, job.Status, job.BytesWritten,
	)

	if err != nil {
		r.logger.Error("Failed to create print job", zap.Error(err),
			zap.String("printer_id", job.PrinterID.String()),
			zap.String("kind", string(job.Kind)))
		return fmt.Errorf("failed to create print job: %w", err)
	}

	return nil
}

// GetByID retrieves a print job by its UUID
func (r *jobRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.PrintJob, error) {
	query := fmt.Sprintf("SELECT %s FROM print_jobs WHERE id = $1", jobColumns)

	job := &model.PrintJob{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&job.ID, &job.PrinterID, &job.Kind, &job.Payload, &job.Status,
		&job.BytesWritten, &job.ErrorMessage, &job.CreatedAt,
		&job.StartedAt, &job.CompletedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("print job %s: %w", id, ErrNotFound)
		}
		r.logger.Error("Failed to get print job", zap.Error(err), zap.String("id", id.String()))
		return nil, fmt.Errorf("failed to get print job: %w", err)
	}

	return job, nil
}

// Update updates a job's status, byte count and timestamps
func (r *jobRepository) Update(ctx context.Context, job *model.PrintJob) error {
	query := `
		UPDATE print_jobs SET
			status = $2, bytes_written = $3, error_message = $4,
			started_at = $5, completed_at = $6
		WHERE id = $1
	`

	result, err := r.db.ExecContext(ctx, query,
		job.ID, job.Status, job.BytesWritten, job.ErrorMessage,
		job.StartedAt, job.CompletedAt,
	)

	if err != nil {
		r.logger.Error("Failed to update print job", zap.Error(err), zap.String("id", job.ID.String()))
		return fmt.Errorf("failed to update print job: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("print job %s: %w", job.ID, ErrNotFound)
	}

	return nil
}

// List retrieves print jobs with filtering and pagination
func (r *jobRepository) List(ctx context.Context, filter *JobFilter) ([]*model.PrintJob, int, error) {
	whereConditions := []string{}
	args := []interface{}{}
	argIndex := 1

	if filter.PrinterID != nil {
		whereConditions = append(whereConditions, fmt.Sprintf("printer_id = $%d", argIndex))
		args = append(args, *filter.PrinterID)
		argIndex++
	}

	if filter.Kind != nil {
		whereConditions = append(whereConditions, fmt.Sprintf("kind = $%d", argIndex))
		args = append(args, *filter.Kind)
		argIndex++
	}

	if filter.Status != nil {
		whereConditions = append(whereConditions, fmt.Sprintf("status = $%d", argIndex))
		args = append(args, *filter.Status)
		argIndex++
	}

	if filter.StartDate != nil {
		whereConditions = append(whereConditions, fmt.Sprintf("created_at >= $%d", argIndex))
		args = append(args, *filter.StartDate)
		argIndex++
	}

	if filter.EndDate != nil {
		whereConditions = append(whereConditions, fmt.Sprintf("created_at <= $%d", argIndex))
		args = append(args, *filter.EndDate)
		argIndex++
	}

	whereClause := ""
	if len(whereConditions) > 0 {
		whereClause = "WHERE " + strings.Join(whereConditions, " AND ")
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM print_jobs %s", whereClause)
	var total int
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count print jobs: %w", err)
	}

	orderBy := "created_at DESC"
	if column, ok := jobSortColumns[filter.SortBy]; ok {
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
		FROM print_jobs %s
		ORDER BY %s
		LIMIT $%d OFFSET $%d
	`, jobColumns, whereClause, orderBy, argIndex, argIndex+1)

	args = append(args, perPage, offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to list print jobs", zap.Error(err))
		return nil, 0, fmt.Errorf("failed to list print jobs: %w", err)
	}
	defer rows.Close()

	jobs, err := r.scanJobs(rows)
	if err != nil {
		return nil, 0, err
	}

	return jobs, total, nil
}

// ListByPrinter retrieves the most recent jobs for one printer
func (r *jobRepository) ListByPrinter(ctx context.Context, printerID uuid.UUID, limit int) ([]*model.PrintJob, error) {
	if limit < 1 {
		limit = 100
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM print_jobs
		WHERE printer_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, jobColumns)

	rows, err := r.db.QueryContext(ctx, query, printerID, limit)
	if err != nil {
		r.logger.Error("Failed to list jobs by printer", zap.Error(err),
			zap.String("printer_id", printerID.String()))
		return nil, fmt.Errorf("failed to list jobs by printer: %w", err)
	}
	defer rows.Close()

	return r.scanJobs(rows)
}

// DeleteOld removes completed jobs older than the cutoff
func (r *jobRepository) DeleteOld(ctx context.Context, olderThan time.Time) (int64, error) {
	query := `
		DELETE FROM print_jobs
		WHERE completed_at IS NOT NULL AND completed_at < $1
	`

	result, err := r.db.ExecContext(ctx, query, olderThan)
	if err != nil {
		r.logger.Error("Failed to delete old print jobs", zap.Error(err))
		return 0, fmt.Errorf("failed to delete old print jobs: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected > 0 {
		r.logger.Info("Deleted old print jobs", zap.Int64("count", rowsAffected))
	}

	return rowsAffected, nil
}

// scanJobs scans all remaining rows
func (r *jobRepository) scanJobs(rows *sql.Rows) ([]*model.PrintJob, error) {
	jobs := []*model.PrintJob{}
	for rows.Next() {
		job := &model.PrintJob{}
		err := rows.Scan(
			&job.ID, &job.PrinterID, &job.Kind, &job.Payload, &job.Status,
			&job.BytesWritten, &job.ErrorMessage, &job.CreatedAt,
			&job.StartedAt, &job.CompletedAt,
		)
		if err != nil {
			r.logger.Error("Failed to scan print job row", zap.Error(err))
			continue
		}
		jobs = append(jobs, job)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate print job rows: %w", err)
	}

	return jobs, nil
}
