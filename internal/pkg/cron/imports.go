package cron

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/attendance-normalizer-go/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-normalizer-go/internal/pkg/sse"
)

var ErrWaitExceeded = errors.New("import did not finish within the maximum wait")

// Events published to subscribers of a correlation id.
const (
	EventProgress = "progress"
	EventFinished = "finished"
)

// ImportProgress is the payload of progress events.
type ImportProgress struct {
	CorrelationID string                  `json:"correlation_id"`
	Status        attendance.ImportStatus `json:"status"`
	Processed     int                     `json:"processed_rows"`
	Total         int                     `json:"total_rows"`
	Failed        int                     `json:"failed_rows"`
	Percent       int                     `json:"percent"`
}

func NewImportProgress(job attendance.ImportJob) ImportProgress {
	percent := 0
	if job.TotalRows > 0 {
		percent = job.ProcessedRows * 100 / job.TotalRows
	}
	return ImportProgress{
		CorrelationID: job.CorrelationID,
		Status:        job.Status,
		Processed:     job.ProcessedRows,
		Total:         job.TotalRows,
		Failed:        job.FailedRows,
		Percent:       percent,
	}
}

// ImportMonitor follows jobs handed to the bulk importer. The importer reports progress
// through the job row; the monitor only reads it and fails jobs that stall.
type ImportMonitor struct {
	jobs    attendance.ImportJobRepository
	maxWait time.Duration
	now     func() time.Time
	hub     *sse.Hub
}

func NewImportMonitor(jobs attendance.ImportJobRepository, maxWait time.Duration) *ImportMonitor {
	return &ImportMonitor{
		jobs:    jobs,
		maxWait: maxWait,
		now:     time.Now,
	}
}

// WithHub makes CheckPending publish progress to subscribers of each job's correlation id.
func (m *ImportMonitor) WithHub(hub *sse.Hub) *ImportMonitor {
	m.hub = hub
	return m
}

func (m *ImportMonitor) RegisterJobs(scheduler *Scheduler, interval time.Duration) {
	scheduler.AddJob("monitor_attendance_imports", interval, m.CheckPending)
}

// CheckPending logs the progress of every unfinished job and fails those older than the
// maximum wait.
func (m *ImportMonitor) CheckPending(ctx context.Context) error {
	pending, err := m.jobs.ListPending(ctx)
	if err != nil {
		return fmt.Errorf("failed to list pending imports: %w", err)
	}

	watched := make(map[string]bool, len(pending))
	for _, job := range pending {
		watched[job.CorrelationID] = true
		age := m.now().Sub(job.CreatedAt)
		if m.maxWait > 0 && age > m.maxWait {
			if err := m.jobs.UpdateStatus(ctx, job.CorrelationID, attendance.ImportStatusFailed); err != nil {
				return fmt.Errorf("failed to expire import %s: %w", job.CorrelationID, err)
			}
			slog.Warn("Attendance import exceeded max wait",
				"correlation_id", job.CorrelationID,
				"age", age.Round(time.Second),
				"processed", job.ProcessedRows,
				"total", job.TotalRows,
			)
			job.Status = attendance.ImportStatusFailed
			m.publish(EventFinished, job)
			continue
		}
		logProgress(job)
		m.publish(EventProgress, job)
	}

	return m.notifyFinished(ctx, watched)
}

// notifyFinished tells subscribers of jobs that left the pending list how they ended.
func (m *ImportMonitor) notifyFinished(ctx context.Context, pending map[string]bool) error {
	if m.hub == nil {
		return nil
	}
	for _, id := range m.hub.Topics() {
		if pending[id] {
			continue
		}
		job, err := m.jobs.GetByCorrelationID(ctx, id)
		if err != nil {
			slog.Warn("Failed to read watched import", "correlation_id", id, "error", err)
			continue
		}
		if job.Status.IsTerminal() {
			m.publish(EventFinished, job)
		}
	}
	return nil
}

func (m *ImportMonitor) publish(event string, job attendance.ImportJob) {
	if m.hub == nil {
		return
	}
	m.hub.Publish(job.CorrelationID, sse.Event{Event: event, Data: NewImportProgress(job)})
}

// Await polls one job every interval until it reaches a terminal status or the maximum
// wait elapses.
func (m *ImportMonitor) Await(ctx context.Context, correlationID string, interval time.Duration) (attendance.ImportJob, error) {
	deadline := m.now().Add(m.maxWait)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		job, err := m.jobs.GetByCorrelationID(ctx, correlationID)
		if err != nil {
			return attendance.ImportJob{}, fmt.Errorf("failed to read import %s: %w", correlationID, err)
		}
		if job.Status.IsTerminal() {
			slog.Info("Attendance import finished",
				"correlation_id", job.CorrelationID,
				"status", job.Status,
				"processed", job.ProcessedRows,
				"failed", job.FailedRows,
			)
			return job, nil
		}
		logProgress(job)
		if m.maxWait > 0 && !m.now().Before(deadline) {
			return job, ErrWaitExceeded
		}

		select {
		case <-ctx.Done():
			return job, ctx.Err()
		case <-ticker.C:
		}
	}
}

func logProgress(job attendance.ImportJob) {
	p := NewImportProgress(job)
	slog.Info("Attendance import progress",
		"correlation_id", p.CorrelationID,
		"status", p.Status,
		"processed", p.Processed,
		"total", p.Total,
		"failed", p.Failed,
		"percent", p.Percent,
	)
}
