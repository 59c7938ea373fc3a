package job

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"gorm.io/gorm"

	"github.com/frahmantamala/jobly/internal"
)

type ServiceAPI interface {
	Get(ctx context.Context, id int64) (*Job, error)
	PromotionStatus(ctx context.Context, recruiterID int64) ([]PromotionStatus, error)
	ExpireLapsed(ctx context.Context) (int64, error)
}

type Service struct {
	repo   RepositoryAPI
	logger *slog.Logger
	now    func() time.Time
}

func NewService(repo RepositoryAPI, logger *slog.Logger) *Service {
	return &Service{
		repo:   repo,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// WithClock overrides the time source; used by tests.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

var ErrJobNotFound = internal.NewNotFoundError("Job not found.", internal.ErrCodeJobNotFound)

// Get loads a job and lazily clears a promotion whose window has closed.
func (s *Service) Get(ctx context.Context, id int64) (*Job, error) {
	m, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrJobNotFound
		}
		return nil, fmt.Errorf("get job %d: %w", id, err)
	}

	j := FromDataModel(m)
	s.evaluate(ctx, j)
	return j, nil
}

func (s *Service) PromotionStatus(ctx context.Context, recruiterID int64) ([]PromotionStatus, error) {
	rows, err := s.repo.ListByRecruiter(ctx, recruiterID)
	if err != nil {
		return nil, fmt.Errorf("list recruiter jobs: %w", err)
	}

	ids := make([]int64, 0, len(rows))
	for _, r := range rows {
		ids = append(ids, r.ID)
	}

	lastPaid, err := s.repo.LastCompletedPayments(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load last payments: %w", err)
	}

	out := make([]PromotionStatus, 0, len(rows))
	for _, r := range rows {
		j := FromDataModel(r)
		s.evaluate(ctx, j)

		st := PromotionStatus{
			JobID:         j.ID,
			JobTitle:      j.Title,
			IsPromoted:    j.IsPromoted,
			PromotedUntil: j.PromotedUntil,
		}
		if t, ok := lastPaid[j.ID]; ok {
			tt := t
			st.LastPaymentDate = &tt
		}
		out = append(out, st)
	}
	return out, nil
}

// ExpireLapsed clears every promotion whose window has closed.
func (s *Service) ExpireLapsed(ctx context.Context) (int64, error) {
	n, err := s.repo.ExpireLapsed(ctx, s.now())
	if err != nil {
		return 0, fmt.Errorf("expire lapsed promotions: %w", err)
	}
	if n > 0 {
		s.logger.Info("expired lapsed promotions", "count", n)
	}
	return n, nil
}

func (s *Service) evaluate(ctx context.Context, j *Job) {
	now := s.now()
	if !j.PromotionLapsed(now) {
		return
	}

	j.IsPromoted = false
	if _, err := s.repo.ExpirePromotion(ctx, j.ID, now); err != nil {
		// the read result is still correct; the sweeper retries the write
		s.logger.Warn("failed to persist promotion expiry", "job_id", j.ID, "error", err)
	}
}
