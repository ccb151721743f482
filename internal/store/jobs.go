package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"flipscout/ingestion-service/internal/job"
	"flipscout/ingestion-service/internal/model"
)

// CreateJob inserts a new scraping job in the RUNNING state.
func (s *Store) CreateJob(ctx context.Context, sourceID string) (model.Job, error) {
	j := model.Job{
		ID:       uuid.NewString(),
		SourceID: sourceID,
		Status:   job.StatusRunning,
	}
	err := s.pool.QueryRow(ctx,
		`INSERT INTO scraping_jobs (id, source_id, status, started_at)
		 VALUES ($1, $2, $3, NOW())
		 RETURNING started_at`,
		j.ID, sourceID, string(job.StatusRunning),
	).Scan(&j.StartedAt)
	if err != nil {
		return model.Job{}, fmt.Errorf("create job: %w", err)
	}
	return j, nil
}

// CompleteJob transitions a RUNNING job to COMPLETED, fixing items_found.
// The status guard in the WHERE clause enforces the state machine at the
// store level: terminal jobs are never resurrected.
func (s *Store) CompleteJob(ctx context.Context, jobID string, itemsFound int) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE scraping_jobs
		 SET status = $2, completed_at = NOW(), items_found = $3
		 WHERE id = $1 AND status = $4`,
		jobID, string(job.StatusCompleted), itemsFound, string(job.StatusRunning),
	)
	if err != nil {
		return fmt.Errorf("complete job %s: %w", jobID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("complete job %s: transition rejected (job not running)", jobID)
	}
	return nil
}

// FailJob transitions a RUNNING job to FAILED with the captured error.
func (s *Store) FailJob(ctx context.Context, jobID, message string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE scraping_jobs
		 SET status = $2, completed_at = NOW(), error_message = $3
		 WHERE id = $1 AND status = $4`,
		jobID, string(job.StatusFailed), message, string(job.StatusRunning),
	)
	if err != nil {
		return fmt.Errorf("fail job %s: %w", jobID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("fail job %s: transition rejected (job not running)", jobID)
	}
	return nil
}

// RecentJobs lists the latest jobs with their source names, newest first.
func (s *Store) RecentJobs(ctx context.Context, limit int) ([]model.Job, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	rows, err := s.pool.Query(ctx,
		`SELECT j.id, j.source_id, s.name, j.status, j.started_at, j.completed_at,
		        j.items_found, j.items_processed, j.error_message
		 FROM scraping_jobs j
		 JOIN scraping_sources s ON s.id = j.source_id
		 ORDER BY j.started_at DESC
		 LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query scraping_jobs: %w", err)
	}
	defer rows.Close()

	var jobs []model.Job
	for rows.Next() {
		var (
			j           model.Job
			status      string
			completedAt *time.Time
		)
		if err := rows.Scan(
			&j.ID, &j.SourceID, &j.SourceName, &status, &j.StartedAt, &completedAt,
			&j.ItemsFound, &j.ItemsProcessed, &j.ErrorMessage,
		); err != nil {
			return nil, fmt.Errorf("scan job: %w", err)
		}
		parsed, err := job.ParseStatus(status)
		if err != nil {
			return nil, fmt.Errorf("job %s: %w", j.ID, err)
		}
		j.Status = parsed
		j.CompletedAt = completedAt
		jobs = append(jobs, j)
	}
	return jobs, rows.Err()
}
