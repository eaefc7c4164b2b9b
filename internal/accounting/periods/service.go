package periods

import (
	"context"
	"strconv"
	"time"

	"github.com/tokoprima/tokoprima/internal/accounting/shared"
	internalShared "github.com/tokoprima/tokoprima/internal/shared"
)

// AuditPort records period mutations.
type AuditPort interface {
	Record(ctx context.Context, rec internalShared.AuditRecord) error
}

// Service manages accounting periods.
type Service struct {
	repo  Repository
	audit AuditPort
	now   func() time.Time
}

func NewService(repo Repository, audit AuditPort) *Service {
	return &Service{repo: repo, audit: audit, now: time.Now}
}

func (s *Service) WithNow(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

func (s *Service) List(ctx context.Context) ([]Period, error) {
	return s.repo.List(ctx)
}

func (s *Service) Get(ctx context.Context, id int64) (Period, error) {
	return s.repo.Get(ctx, id)
}

// ResolveActive returns the single period flagged active for new postings.
func (s *Service) ResolveActive(ctx context.Context) (Period, error) {
	return s.repo.GetActive(ctx)
}

// Create inserts a new period after validating overlap.
func (s *Service) Create(ctx context.Context, in CreateInput) (Period, error) {
	if err := in.Validate(); err != nil {
		return Period{}, err
	}
	conflict, err := s.repo.RangeConflict(ctx, in.StartDate, in.EndDate)
	if err != nil {
		return Period{}, err
	}
	if conflict {
		return Period{}, shared.ErrPeriodOverlap
	}
	period, err := s.repo.Insert(ctx, in)
	if err != nil {
		return Period{}, err
	}
	if s.audit != nil {
		_ = s.audit.Record(ctx, internalShared.AuditRecord{
			Table:    "accounting_periods",
			RecordID: strconv.FormatInt(period.ID, 10),
			Action:   "period.create",
			NewValues: map[string]any{
				"name":       period.Name,
				"start_date": period.StartDate.Format("2006-01-02"),
				"end_date":   period.EndDate.Format("2006-01-02"),
			},
			ChangedBy: in.ActorID,
			At:        s.now(),
		})
	}
	return period, nil
}

// Activate makes the period the target for new postings. Closed periods
// cannot be re-activated.
func (s *Service) Activate(ctx context.Context, id, actorID int64) (Period, error) {
	period, err := s.repo.Get(ctx, id)
	if err != nil {
		return Period{}, err
	}
	if period.Closed() {
		return Period{}, shared.ErrPeriodClosed
	}
	if err := s.repo.Activate(ctx, id); err != nil {
		return Period{}, err
	}
	period.IsActive = true
	if s.audit != nil {
		_ = s.audit.Record(ctx, internalShared.AuditRecord{
			Table:     "accounting_periods",
			RecordID:  strconv.FormatInt(id, 10),
			Action:    "period.activate",
			NewValues: map[string]any{"is_active": true},
			ChangedBy: actorID,
			At:        s.now(),
		})
	}
	return period, nil
}
