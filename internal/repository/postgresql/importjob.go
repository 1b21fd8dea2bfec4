package postgresql

import (
	"context"
	"fmt"

	"github.com/cmlabs-hris/attendance-normalizer-go/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-normalizer-go/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

type importJobRepositoryImpl struct {
	db *database.DB
}

func NewImportJobRepository(db *database.DB) attendance.ImportJobRepository {
	return &importJobRepositoryImpl{db: db}
}

const importJobColumns = `correlation_id, company, branch, format, artifact_path, status,
	total_rows, processed_rows, failed_rows, unresolved, created_at, updated_at`

func scanImportJob(row pgx.Row) (attendance.ImportJob, error) {
	var job attendance.ImportJob
	var unresolved []string
	err := row.Scan(
		&job.CorrelationID, &job.Company, &job.Branch, &job.Format, &job.ArtifactPath, &job.Status,
		&job.TotalRows, &job.ProcessedRows, &job.FailedRows, &unresolved, &job.CreatedAt, &job.UpdatedAt,
	)
	if unresolved == nil {
		unresolved = []string{}
	}
	job.Unresolved = unresolved
	return job, err
}

// Create implements attendance.ImportJobRepository.
func (r *importJobRepositoryImpl) Create(ctx context.Context, job attendance.ImportJob) (attendance.ImportJob, error) {
	q := GetQuerier(ctx, r.db)

	if job.Status == "" {
		job.Status = attendance.ImportStatusQueued
	}
	unresolved := job.Unresolved
	if unresolved == nil {
		unresolved = []string{}
	}

	query := `
		INSERT INTO attendance_imports (
			correlation_id, company, branch, format, artifact_path, status, total_rows, unresolved
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING ` + importJobColumns

	created, err := scanImportJob(q.QueryRow(ctx, query,
		job.CorrelationID, job.Company, job.Branch, job.Format, job.ArtifactPath, job.Status,
		job.TotalRows, unresolved,
	))
	if err != nil {
		return attendance.ImportJob{}, fmt.Errorf("failed to create import job: %w", err)
	}

	return created, nil
}

// GetByCorrelationID implements attendance.ImportJobRepository.
func (r *importJobRepositoryImpl) GetByCorrelationID(ctx context.Context, correlationID string) (attendance.ImportJob, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + importJobColumns + ` FROM attendance_imports WHERE correlation_id = $1`

	job, err := scanImportJob(q.QueryRow(ctx, query, correlationID))
	if err != nil {
		if err == pgx.ErrNoRows {
			return attendance.ImportJob{}, fmt.Errorf("import job %s not found: %w", correlationID, err)
		}
		return attendance.ImportJob{}, err
	}

	return job, nil
}

// UpdateStatus implements attendance.ImportJobRepository. The status change and its
// audit event are written in one transaction.
func (r *importJobRepositoryImpl) UpdateStatus(ctx context.Context, correlationID string, status attendance.ImportStatus) error {
	return WithTransaction(ctx, r.db, func(ctx context.Context, tx pgx.Tx) error {
		var previous attendance.ImportStatus
		err := tx.QueryRow(ctx,
			`SELECT status FROM attendance_imports WHERE correlation_id = $1 FOR UPDATE`,
			correlationID,
		).Scan(&previous)
		if err != nil {
			if err == pgx.ErrNoRows {
				return fmt.Errorf("import job %s not found: %w", correlationID, err)
			}
			return err
		}

		_, err = tx.Exec(ctx,
			`UPDATE attendance_imports SET status = $2, updated_at = NOW() WHERE correlation_id = $1`,
			correlationID, status,
		)
		if err != nil {
			return fmt.Errorf("failed to update import status: %w", err)
		}

		_, err = tx.Exec(ctx,
			`INSERT INTO attendance_import_events (correlation_id, from_status, to_status) VALUES ($1, $2, $3)`,
			correlationID, previous, status,
		)
		if err != nil {
			return fmt.Errorf("failed to record import event: %w", err)
		}

		return nil
	})
}

// ListPending implements attendance.ImportJobRepository.
func (r *importJobRepositoryImpl) ListPending(ctx context.Context) ([]attendance.ImportJob, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + importJobColumns + `
		FROM attendance_imports
		WHERE status IN ($1, $2)
		ORDER BY created_at`

	rows, err := q.Query(ctx, query, attendance.ImportStatusQueued, attendance.ImportStatusRunning)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var jobs []attendance.ImportJob
	for rows.Next() {
		job, err := scanImportJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return jobs, nil
}
