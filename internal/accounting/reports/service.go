package reports

import (
	"context"
	"fmt"

	"github.com/tokoprima/tokoprima/internal/accounting/periods"
)

// PeriodResolver supplies the reporting period.
type PeriodResolver interface {
	Get(ctx context.Context, id int64) (periods.Period, error)
	ResolveActive(ctx context.Context) (periods.Period, error)
}

// Service computes the aggregated reports. Every computation is a read-only
// pass over posted data and may be re-run at any time.
type Service struct {
	repo    Repository
	periods PeriodResolver
	cache   *Cache
}

// NewService wires the report service. cache may be nil, which disables
// caching entirely.
func NewService(repo Repository, resolver PeriodResolver, cache *Cache) *Service {
	return &Service{repo: repo, periods: resolver, cache: cache}
}

func (s *Service) resolvePeriod(ctx context.Context, periodID int64) (periods.Period, error) {
	if periodID == 0 {
		return s.periods.ResolveActive(ctx)
	}
	return s.periods.Get(ctx, periodID)
}

// TrialBalance computes the per-type balance listing for the period.
func (s *Service) TrialBalance(ctx context.Context, periodID int64) (TrialBalance, error) {
	period, err := s.resolvePeriod(ctx, periodID)
	if err != nil {
		return TrialBalance{}, err
	}
	key := fmt.Sprintf("report:tb:%d", period.ID)
	return getOrBuild(ctx, s.cache, key, func(ctx context.Context) (TrialBalance, error) {
		balances, err := s.repo.AccountBalances(ctx, period.ID)
		if err != nil {
			return TrialBalance{}, err
		}
		return BuildTrialBalance(balances), nil
	})
}

// BalanceSheet computes assets against liabilities plus equity.
func (s *Service) BalanceSheet(ctx context.Context, periodID int64) (BalanceSheet, error) {
	period, err := s.resolvePeriod(ctx, periodID)
	if err != nil {
		return BalanceSheet{}, err
	}
	key := fmt.Sprintf("report:bs:%d", period.ID)
	return getOrBuild(ctx, s.cache, key, func(ctx context.Context) (BalanceSheet, error) {
		balances, err := s.repo.AccountBalances(ctx, period.ID)
		if err != nil {
			return BalanceSheet{}, err
		}
		return BuildBalanceSheet(balances), nil
	})
}

// IncomeStatement computes revenue minus expense for the period.
func (s *Service) IncomeStatement(ctx context.Context, periodID int64) (IncomeStatement, error) {
	period, err := s.resolvePeriod(ctx, periodID)
	if err != nil {
		return IncomeStatement{}, err
	}
	key := fmt.Sprintf("report:pl:%d", period.ID)
	return getOrBuild(ctx, s.cache, key, func(ctx context.Context) (IncomeStatement, error) {
		balances, err := s.repo.AccountBalances(ctx, period.ID)
		if err != nil {
			return IncomeStatement{}, err
		}
		return BuildIncomeStatement(balances), nil
	})
}

// RecapQuery selects the recapitulation window and bucket width.
type RecapQuery struct {
	PeriodID      int64
	Granularity   Granularity
	ReferenceType string
}

// Recapitulation groups posted entries into date buckets. Filtered recaps
// bypass the cache since the key space is unbounded.
func (s *Service) Recapitulation(ctx context.Context, q RecapQuery) (Recapitulation, error) {
	period, err := s.resolvePeriod(ctx, q.PeriodID)
	if err != nil {
		return Recapitulation{}, err
	}
	if !q.Granularity.Valid() {
		return Recapitulation{}, fmt.Errorf("accounting: unknown recap granularity %q", q.Granularity)
	}

	build := func(ctx context.Context) (Recapitulation, error) {
		totals, err := s.repo.EntryTotals(ctx, EntryFilter{
			PeriodID:      period.ID,
			ReferenceType: q.ReferenceType,
		})
		if err != nil {
			return Recapitulation{}, err
		}
		return BuildRecapitulation(q.Granularity, totals)
	}
	if q.ReferenceType != "" {
		return build(ctx)
	}
	key := fmt.Sprintf("report:recap:%d:%s", period.ID, q.Granularity)
	return getOrBuild(ctx, s.cache, key, build)
}

// Warm precomputes and caches the standard reports for the period. Used by
// the background warmup job.
func (s *Service) Warm(ctx context.Context, periodID int64) error {
	if _, err := s.TrialBalance(ctx, periodID); err != nil {
		return err
	}
	if _, err := s.BalanceSheet(ctx, periodID); err != nil {
		return err
	}
	if _, err := s.IncomeStatement(ctx, periodID); err != nil {
		return err
	}
	_, err := s.Recapitulation(ctx, RecapQuery{PeriodID: periodID, Granularity: GranularityDaily})
	return err
}
