package postgresql_test

import (
	"context"
	"errors"
	"testing"

	"github.com/cmlabs-hris/attendance-normalizer-go/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-normalizer-go/internal/repository/postgresql"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newJob(unresolved ...string) attendance.ImportJob {
	return attendance.ImportJob{
		CorrelationID: uuid.New().String(),
		Company:       "ACME Works",
		Branch:        "VEDANTA PLANT II",
		Format:        "gate-register",
		ArtifactPath:  "imports/acme-works/run/attendance.xlsx",
		Status:        attendance.ImportStatusQueued,
		TotalRows:     42,
		Unresolved:    unresolved,
	}
}

func TestImportJobRepository(t *testing.T) {
	setup := NewTestDatabase(t)
	repo := postgresql.NewImportJobRepository(setup.DB)
	ctx := context.Background()

	t.Run("Create and GetByCorrelationID", func(t *testing.T) {
		// Arrange
		job := newJob("0077", "PMP0009999")

		// Act
		created, err := repo.Create(ctx, job)
		require.NoError(t, err)
		got, err := repo.GetByCorrelationID(ctx, job.CorrelationID)

		// Assert
		require.NoError(t, err)
		assert.False(t, created.CreatedAt.IsZero())
		assert.Equal(t, attendance.ImportStatusQueued, got.Status)
		assert.Equal(t, 42, got.TotalRows)
		assert.Equal(t, 0, got.ProcessedRows)
		assert.Equal(t, []string{"0077", "PMP0009999"}, got.Unresolved)
	})

	t.Run("Create without unresolved ids", func(t *testing.T) {
		job := newJob()

		_, err := repo.Create(ctx, job)
		require.NoError(t, err)
		got, err := repo.GetByCorrelationID(ctx, job.CorrelationID)

		require.NoError(t, err)
		assert.NotNil(t, got.Unresolved)
		assert.Empty(t, got.Unresolved)
	})

	t.Run("GetByCorrelationID missing", func(t *testing.T) {
		_, err := repo.GetByCorrelationID(ctx, "missing")

		assert.True(t, errors.Is(err, pgx.ErrNoRows))
	})

	t.Run("UpdateStatus records an event", func(t *testing.T) {
		// Arrange
		job := newJob()
		_, err := repo.Create(ctx, job)
		require.NoError(t, err)

		// Act
		err = repo.UpdateStatus(ctx, job.CorrelationID, attendance.ImportStatusCancelled)

		// Assert
		require.NoError(t, err)
		got, err := repo.GetByCorrelationID(ctx, job.CorrelationID)
		require.NoError(t, err)
		assert.Equal(t, attendance.ImportStatusCancelled, got.Status)

		var from, to string
		err = setup.DB.QueryRow(ctx,
			`SELECT from_status, to_status FROM attendance_import_events WHERE correlation_id = $1`,
			job.CorrelationID,
		).Scan(&from, &to)
		require.NoError(t, err)
		assert.Equal(t, "queued", from)
		assert.Equal(t, "cancelled", to)
	})

	t.Run("UpdateStatus missing", func(t *testing.T) {
		err := repo.UpdateStatus(ctx, "missing", attendance.ImportStatusFailed)

		assert.True(t, errors.Is(err, pgx.ErrNoRows))
	})

	t.Run("WithTransaction rolls back repository writes", func(t *testing.T) {
		job := newJob()
		boom := errors.New("boom")

		err := postgresql.WithTransaction(ctx, setup.DB, func(ctx context.Context, tx pgx.Tx) error {
			if _, err := repo.Create(ctx, job); err != nil {
				return err
			}
			return boom
		})

		assert.ErrorIs(t, err, boom)
		_, err = repo.GetByCorrelationID(ctx, job.CorrelationID)
		assert.True(t, errors.Is(err, pgx.ErrNoRows))
	})

	t.Run("ListPending", func(t *testing.T) {
		// Arrange
		require.NoError(t, setup.TruncateAllTables(ctx))
		queued := newJob()
		running := newJob()
		done := newJob()
		for _, j := range []attendance.ImportJob{queued, running, done} {
			_, err := repo.Create(ctx, j)
			require.NoError(t, err)
		}
		require.NoError(t, repo.UpdateStatus(ctx, running.CorrelationID, attendance.ImportStatusRunning))
		require.NoError(t, repo.UpdateStatus(ctx, done.CorrelationID, attendance.ImportStatusCompleted))

		// Act
		pending, err := repo.ListPending(ctx)

		// Assert
		require.NoError(t, err)
		ids := make([]string, 0, len(pending))
		for _, j := range pending {
			ids = append(ids, j.CorrelationID)
		}
		assert.ElementsMatch(t, []string{queued.CorrelationID, running.CorrelationID}, ids)
	})
}
