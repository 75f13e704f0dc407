package repo

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"ledenbeheer/internal/domain"
	"ledenbeheer/internal/infra"
	"ledenbeheer/internal/sqlinline"
)

// JobRepositoryPG implements domain.JobRepository.
type JobRepositoryPG struct {
	sql infra.SQLExecutor
}

// NewJobRepository creates a new job repository backed by PostgreSQL.
func NewJobRepository(sql infra.SQLExecutor) *JobRepositoryPG {
	return &JobRepositoryPG{sql: sql}
}

// Create inserts a queued job and fills in the generated id.
func (r *JobRepositoryPG) Create(ctx context.Context, job *domain.Job) error {
	maxAttempts := job.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = 3
	}
	runAfter := job.RunAfter
	if runAfter.IsZero() {
		runAfter = time.Now()
	}
	row := r.sql.QueryRow(ctx, sqlinline.QInsertJob,
		string(job.Type), nullableBytes(job.PayloadJSON), maxAttempts, runAfter)
	return row.Scan(&job.ID)
}

// ClaimNext claims the oldest due queued job, or returns nil when the
// queue is empty. The claim uses FOR UPDATE SKIP LOCKED so concurrent
// workers never double-claim.
func (r *JobRepositoryPG) ClaimNext(ctx context.Context) (*domain.Job, error) {
	job, err := scanJob(r.sql.QueryRow(ctx, sqlinline.QWorkerClaimJob))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return job, nil
}

// UpdateStatus updates job status and optionally error/result payloads.
func (r *JobRepositoryPG) UpdateStatus(ctx context.Context, jobID string, status domain.JobStatus, errMsg *string, resultJSON []byte) error {
	_, err := r.sql.Exec(ctx, sqlinline.QUpdateJobStatus,
		jobID, string(status), errMsg, nullableBytes(resultJSON))
	return err
}

// GetByID fetches a job by its identifier.
func (r *JobRepositoryPG) GetByID(ctx context.Context, jobID string) (*domain.Job, error) {
	job, err := scanJob(r.sql.QueryRow(ctx, sqlinline.QSelectJobByID, jobID))
	if err != nil {
		return nil, notFound(err)
	}
	return job, nil
}

// Requeue puts a failed job back on the queue to run no earlier than
// the given time.
func (r *JobRepositoryPG) Requeue(ctx context.Context, jobID string, runAfter time.Time) error {
	_, err := r.sql.Exec(ctx, sqlinline.QRequeueJob, jobID, runAfter)
	return err
}

// DeleteFinishedBefore removes succeeded and failed jobs last touched
// before the cutoff, returning how many went.
func (r *JobRepositoryPG) DeleteFinishedBefore(ctx context.Context, before time.Time) (int, error) {
	tag, err := r.sql.Exec(ctx, sqlinline.QDeleteFinishedJobs, before)
	if err != nil {
		return 0, err
	}
	return int(tag.RowsAffected()), nil
}

func scanJob(row pgx.Row) (*domain.Job, error) {
	var job domain.Job
	if err := row.Scan(
		&job.ID, &job.Type, &job.Status, &job.PayloadJSON, &job.ResultJSON, &job.Attempts,
		&job.MaxAttempts, &job.RunAfter, &job.ErrorMessage, &job.CreatedAt, &job.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &job, nil
}

func nullableBytes(b []byte) []byte {
	if len(b) == 0 {
		return nil
	}
	return b
}
