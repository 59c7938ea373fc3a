package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"gorm.io/gorm"

	jobmodel "github.com/frahmantamala/jobly/internal/core/datamodel/job"
	"github.com/frahmantamala/jobly/internal/core/datamodel/payment"
)

// JobRepository writes through gorm and serves the read-side listings through
// sqlx on the same connection pool.
type JobRepository struct {
	db   *gorm.DB
	read *sqlx.DB
}

func NewJobRepository(db *gorm.DB, read *sqlx.DB) *JobRepository {
	return &JobRepository{db: db, read: read}
}

func (r *JobRepository) GetByID(ctx context.Context, id int64) (*jobmodel.Job, error) {
	var j jobmodel.Job
	if err := r.db.WithContext(ctx).First(&j, id).Error; err != nil {
		return nil, err
	}
	return &j, nil
}

func (r *JobRepository) ListByRecruiter(ctx context.Context, recruiterID int64) ([]*jobmodel.Job, error) {
	query := r.read.Rebind(`SELECT id, recruiter_id, title, company_name, is_promoted, promoted_until, created_at, updated_at
		FROM jobs WHERE recruiter_id = ? ORDER BY id`)

	jobs := []*jobmodel.Job{}
	if err := r.read.SelectContext(ctx, &jobs, query, recruiterID); err != nil {
		return nil, fmt.Errorf("select jobs: %w", err)
	}
	return jobs, nil
}

// LastCompletedPayments returns the latest completion time per job.
func (r *JobRepository) LastCompletedPayments(ctx context.Context, jobIDs []int64) (map[int64]time.Time, error) {
	out := make(map[int64]time.Time, len(jobIDs))
	if len(jobIDs) == 0 {
		return out, nil
	}

	query, args, err := sqlx.In(`SELECT job_id, completed_at FROM payment_transactions
		WHERE status = ? AND completed_at IS NOT NULL AND job_id IN (?)`, payment.StatusCompleted, jobIDs)
	if err != nil {
		return nil, fmt.Errorf("build payment query: %w", err)
	}

	var rows []struct {
		JobID       int64     `db:"job_id"`
		CompletedAt time.Time `db:"completed_at"`
	}
	if err := r.read.SelectContext(ctx, &rows, r.read.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("select completed payments: %w", err)
	}

	for _, row := range rows {
		if cur, ok := out[row.JobID]; !ok || row.CompletedAt.After(cur) {
			out[row.JobID] = row.CompletedAt
		}
	}
	return out, nil
}

// ExpirePromotion clears the flag only if the window is still closed at now,
// so it never undoes a promotion applied concurrently.
func (r *JobRepository) ExpirePromotion(ctx context.Context, id int64, now time.Time) (bool, error) {
	res := r.db.WithContext(ctx).Model(&jobmodel.Job{}).
		Where("id = ? AND is_promoted = ? AND (promoted_until IS NULL OR promoted_until <= ?)", id, true, now).
		Update("is_promoted", false)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *JobRepository) ExpireLapsed(ctx context.Context, now time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Model(&jobmodel.Job{}).
		Where("is_promoted = ? AND (promoted_until IS NULL OR promoted_until <= ?)", true, now).
		Update("is_promoted", false)
	return res.RowsAffected, res.Error
}
