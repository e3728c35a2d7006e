package postgres

import (
	"context"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/hrygo/scorelens/store"
)

// EnqueueEmbeddingJob creates a pending job for the key, or resets an
// existing error job back to pending. Done and processing jobs are left
// untouched by the conflict clause condition.
func (d *DB) EnqueueEmbeddingJob(ctx context.Context, caseID, responseID string, question store.Question) (*store.EmbeddingJob, error) {
	now := time.Now().Unix()
	stmt := `
		INSERT INTO embedding_job (case_id, response_id, question, status, created_ts, updated_ts)
		VALUES (` + placeholders(6) + `)
		ON CONFLICT (case_id, response_id, question)
		DO UPDATE SET
			status = 'pending',
			attempts = 0,
			last_error = '',
			updated_ts = EXCLUDED.updated_ts
		WHERE embedding_job.status = 'error'
		RETURNING id, status, attempts, last_error, created_ts, updated_ts
	`

	job := &store.EmbeddingJob{
		CaseID:     caseID,
		ResponseID: responseID,
		Question:   question,
	}
	var status string
	err := d.db.QueryRowContext(ctx, stmt,
		caseID, responseID, string(question), string(store.JobStatusPending), now, now,
	).Scan(&job.ID, &status, &job.Attempts, &job.LastError, &job.CreatedTs, &job.UpdatedTs)
	if err != nil {
		// No row returned: the key exists in done/pending/processing and
		// was intentionally not reset. Fetch the current state instead.
		existing, listErr := d.ListEmbeddingJobs(ctx, &store.FindEmbeddingJob{
			CaseID:     &caseID,
			ResponseID: &responseID,
			Question:   &question,
		})
		if listErr == nil && len(existing) > 0 {
			return existing[0], nil
		}
		return nil, errors.Wrap(err, "failed to enqueue embedding job")
	}
	job.Status = store.JobStatus(status)
	return job, nil
}

// ClaimPendingEmbeddingJobs claims up to limit pending jobs in a single
// atomic statement. FOR UPDATE SKIP LOCKED keeps two concurrent processors
// from claiming the same row.
func (d *DB) ClaimPendingEmbeddingJobs(ctx context.Context, limit int) ([]*store.EmbeddingJob, error) {
	now := time.Now().Unix()
	stmt := `
		UPDATE embedding_job
		SET status = 'processing', attempts = attempts + 1, updated_ts = ` + placeholder(1) + `
		WHERE id IN (
			SELECT id FROM embedding_job
			WHERE status = 'pending'
			ORDER BY created_ts
			LIMIT ` + placeholder(2) + `
			FOR UPDATE SKIP LOCKED
		)
		RETURNING id, case_id, response_id, question, status, attempts, last_error, created_ts, updated_ts
	`

	rows, err := d.db.QueryContext(ctx, stmt, now, limit)
	if err != nil {
		return nil, errors.Wrap(err, "failed to claim pending embedding jobs")
	}
	defer rows.Close()

	list := []*store.EmbeddingJob{}
	for rows.Next() {
		job, err := scanEmbeddingJob(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, job)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return list, nil
}

// CompleteEmbeddingJob marks a claimed job done or error.
func (d *DB) CompleteEmbeddingJob(ctx context.Context, complete *store.CompleteEmbeddingJob) error {
	now := time.Now().Unix()
	stmt := `
		UPDATE embedding_job
		SET status = ` + placeholder(1) + `, last_error = ` + placeholder(2) + `, updated_ts = ` + placeholder(3) + `
		WHERE id = ` + placeholder(4) + ` AND status = 'processing'
	`
	result, err := d.db.ExecContext(ctx, stmt, string(complete.Status), complete.LastError, now, complete.ID)
	if err != nil {
		return errors.Wrap(err, "failed to complete embedding job")
	}
	affected, _ := result.RowsAffected()
	if affected == 0 {
		return errors.Errorf("embedding job %d is not in processing state", complete.ID)
	}
	return nil
}

// ListEmbeddingJobs lists embedding jobs matching the find condition.
func (d *DB) ListEmbeddingJobs(ctx context.Context, find *store.FindEmbeddingJob) ([]*store.EmbeddingJob, error) {
	where, args := []string{"1 = 1"}, []any{}

	if find.CaseID != nil {
		where, args = append(where, "case_id = "+placeholder(len(args)+1)), append(args, *find.CaseID)
	}
	if find.ResponseID != nil {
		where, args = append(where, "response_id = "+placeholder(len(args)+1)), append(args, *find.ResponseID)
	}
	if find.Question != nil {
		where, args = append(where, "question = "+placeholder(len(args)+1)), append(args, string(*find.Question))
	}
	if find.Status != nil {
		where, args = append(where, "status = "+placeholder(len(args)+1)), append(args, string(*find.Status))
	}

	query := `
		SELECT id, case_id, response_id, question, status, attempts, last_error, created_ts, updated_ts
		FROM embedding_job
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY created_ts
	`
	if find.Limit > 0 {
		query += " LIMIT " + placeholder(len(args)+1)
		args = append(args, find.Limit)
	}

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list embedding jobs")
	}
	defer rows.Close()

	list := []*store.EmbeddingJob{}
	for rows.Next() {
		job, err := scanEmbeddingJob(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, job)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return list, nil
}

func scanEmbeddingJob(row rowScanner) (*store.EmbeddingJob, error) {
	var job store.EmbeddingJob
	var question, status string
	err := row.Scan(
		&job.ID,
		&job.CaseID,
		&job.ResponseID,
		&question,
		&status,
		&job.Attempts,
		&job.LastError,
		&job.CreatedTs,
		&job.UpdatedTs,
	)
	if err != nil {
		return nil, errors.Wrap(err, "failed to scan embedding job")
	}
	job.Question = store.Question(question)
	job.Status = store.JobStatus(status)
	return &job, nil
}
