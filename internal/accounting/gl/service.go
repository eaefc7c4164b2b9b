package gl

import (
	"context"

	"github.com/tokoprima/tokoprima/internal/accounting/periods"
)

// PeriodResolver supplies the period containing the requested window.
type PeriodResolver interface {
	Get(ctx context.Context, id int64) (periods.Period, error)
	ResolveActive(ctx context.Context) (periods.Period, error)
}

// Service derives general ledgers on demand. All reads run at standard
// isolation; results reflect a consistent-at-some-instant snapshot.
type Service struct {
	repo    Repository
	periods PeriodResolver
}

func NewService(repo Repository, resolver PeriodResolver) *Service {
	return &Service{repo: repo, periods: resolver}
}

// ComputeLedger builds the ledger for one account. The opening balance is the
// period's carried-forward balance plus any posted activity between the period
// start and the requested window start.
func (s *Service) ComputeLedger(ctx context.Context, q Query) (Ledger, error) {
	account, err := s.repo.GetAccount(ctx, q.AccountID)
	if err != nil {
		return Ledger{}, err
	}

	var period periods.Period
	if q.PeriodID == 0 {
		period, err = s.periods.ResolveActive(ctx)
	} else {
		period, err = s.periods.Get(ctx, q.PeriodID)
	}
	if err != nil {
		return Ledger{}, err
	}

	from := q.From
	if from.IsZero() || from.Before(period.StartDate) {
		from = period.StartDate
	}
	to := q.To
	if to.IsZero() || to.After(period.EndDate) {
		to = period.EndDate
	}

	opening, err := s.repo.OpeningBalance(ctx, period.ID, account.ID)
	if err != nil {
		return Ledger{}, err
	}
	if from.After(period.StartDate) {
		debit, kredit, err := s.repo.ActivityTotals(ctx, period.ID, account.ID, period.StartDate, from)
		if err != nil {
			return Ledger{}, err
		}
		opening += SignedAmount(account.Type, debit, kredit)
	}

	movements, err := s.repo.Movements(ctx, period.ID, account.ID, from, to)
	if err != nil {
		return Ledger{}, err
	}

	ledger := Compute(account, opening, movements)
	ledger.From = from
	ledger.To = to
	return ledger, nil
}
