package job

import (
	"context"
	"time"

	jobmodel "github.com/frahmantamala/jobly/internal/core/datamodel/job"
)

type Job struct {
	ID            int64      `json:"id"`
	RecruiterID   int64      `json:"recruiter_id"`
	Title         string     `json:"title"`
	CompanyName   string     `json:"company_name"`
	IsPromoted    bool       `json:"is_promoted"`
	PromotedUntil *time.Time `json:"promoted_until"`
}

// IsPromotionActive is the single rule for "currently promoted": the flag is
// set and the window has not closed yet.
func (j *Job) IsPromotionActive(now time.Time) bool {
	return j.IsPromoted && j.PromotedUntil != nil && j.PromotedUntil.After(now)
}

// PromotionLapsed reports a job still flagged as promoted whose window closed.
func (j *Job) PromotionLapsed(now time.Time) bool {
	return j.IsPromoted && !j.IsPromotionActive(now)
}

type PromotionStatus struct {
	JobID           int64      `json:"job_id"`
	JobTitle        string     `json:"job_title"`
	IsPromoted      bool       `json:"is_promoted"`
	PromotedUntil   *time.Time `json:"promoted_until"`
	LastPaymentDate *time.Time `json:"last_payment_date"`
}

type RepositoryAPI interface {
	GetByID(ctx context.Context, id int64) (*jobmodel.Job, error)
	ListByRecruiter(ctx context.Context, recruiterID int64) ([]*jobmodel.Job, error)
	LastCompletedPayments(ctx context.Context, jobIDs []int64) (map[int64]time.Time, error)
	ExpirePromotion(ctx context.Context, id int64, now time.Time) (bool, error)
	ExpireLapsed(ctx context.Context, now time.Time) (int64, error)
}

func FromDataModel(m *jobmodel.Job) *Job {
	if m == nil {
		return nil
	}
	return &Job{
		ID:            m.ID,
		RecruiterID:   m.RecruiterID,
		Title:         m.Title,
		CompanyName:   m.CompanyName,
		IsPromoted:    m.IsPromoted,
		PromotedUntil: m.PromotedUntil,
	}
}
