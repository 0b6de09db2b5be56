package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/Teja-9024/black-bus/internal/models"
	"github.com/google/uuid"
)

// The outbox is the durable FIFO of remote operations that must eventually
// reach the API. Job id ordering is the sole ordering authority: enqueue,
// MarkDone and MarkFailed never reorder other jobs. Successful jobs are
// deleted, not soft-marked.

// Enqueue appends a job to the outbox and returns its id. Never touches the
// network. A correlation id is assigned if the caller did not set one.
func (s *Store) Enqueue(ctx context.Context, job models.OutboxJob) (int64, error) {
	if job.CorrelationID == "" {
		job.CorrelationID = uuid.NewString()
	}
	body := job.Body
	if len(body) == 0 {
		body = []byte("{}")
	}
	headers := job.Headers
	if len(headers) == 0 {
		headers = []byte("{}")
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO outbox (correlation_id, entity, local_id, method, url, body, headers, tries, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, 0, 'pending', ?)
	`,
		job.CorrelationID, job.Entity, job.LocalID, job.Method, job.URL,
		string(body), string(headers), now(),
	)
	if err != nil {
		return 0, storageErr("enqueue outbox job", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, storageErr("enqueue outbox job", err)
	}
	return id, nil
}

// OldestBatch returns up to limit pending jobs with id greater than afterID,
// ascending by id. Passing the last id of the previous batch lets a drain
// pass walk the whole backlog once without revisiting jobs that just failed.
func (s *Store) OldestBatch(ctx context.Context, afterID int64, limit int) ([]models.OutboxJob, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, correlation_id, entity, local_id, method, url, body, headers, tries, status, created_at
		FROM outbox
		WHERE status = 'pending' AND id > ?
		ORDER BY id ASC
		LIMIT ?
	`, afterID, limit)
	if err != nil {
		return nil, storageErr("fetch outbox batch", err)
	}
	defer rows.Close()

	var jobs []models.OutboxJob
	for rows.Next() {
		var j models.OutboxJob
		var body, headers, createdAt string
		err := rows.Scan(
			&j.ID, &j.CorrelationID, &j.Entity, &j.LocalID, &j.Method, &j.URL,
			&body, &headers, &j.Tries, &j.Status, &createdAt,
		)
		if err != nil {
			return nil, storageErr("scan outbox job", err)
		}
		j.Body = []byte(body)
		j.Headers = []byte(headers)
		j.CreatedAt = parseTime(createdAt)
		jobs = append(jobs, j)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("fetch outbox batch", err)
	}
	return jobs, nil
}

// MarkDone deletes a replayed job. Deleting an id that no longer exists is a
// no-op, so replay can be re-entered after a crash mid-batch.
func (s *Store) MarkDone(ctx context.Context, id int64) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM outbox WHERE id = ?`, id)
	return storageErr("mark outbox job done", err)
}

// MarkFailed increments the try counter and leaves the job pending for the
// next drain pass. There is no retry cutoff.
func (s *Store) MarkFailed(ctx context.Context, id int64) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE outbox SET tries = tries + 1, status = 'pending' WHERE id = ?`, id)
	return storageErr("mark outbox job failed", err)
}

// PendingCount reports the current outbox backlog.
func (s *Store) PendingCount(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM outbox WHERE status = 'pending'`).Scan(&n)
	if err != nil {
		return 0, storageErr("count outbox backlog", err)
	}
	return n, nil
}

// OldestJobAge reports how long the head of the queue has been waiting, or
// zero when the queue is empty. Exposed as a lag gauge by the daemon.
func (s *Store) OldestJobAge(ctx context.Context) (time.Duration, error) {
	var createdAt string
	err := s.db.QueryRowContext(ctx,
		`SELECT created_at FROM outbox WHERE status = 'pending' ORDER BY id ASC LIMIT 1`).Scan(&createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, storageErr("oldest outbox job", err)
	}
	t := parseTime(createdAt)
	if t.IsZero() {
		return 0, nil
	}
	return time.Since(t), nil
}
