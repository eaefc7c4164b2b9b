package close

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/tokoprima/tokoprima/internal/accounting/accounts"
	"github.com/tokoprima/tokoprima/internal/accounting/journals"
	"github.com/tokoprima/tokoprima/internal/accounting/periods"
	"github.com/tokoprima/tokoprima/internal/accounting/reports"
	"github.com/tokoprima/tokoprima/internal/accounting/shared"
)

func planBalances() []reports.AccountBalance {
	return []reports.AccountBalance{
		{AccountID: 1, Code: "1-1001", Name: "Kas", Type: accounts.AccountTypeAsset, Debit: 1500000, Kredit: 500000},
		{AccountID: 2, Code: "3-2001", Name: "Laba Ditahan", Type: accounts.AccountTypeEquity},
		{AccountID: 3, Code: "4-1001", Name: "Penjualan", Type: accounts.AccountTypeRevenue, Kredit: 1500000},
		{AccountID: 4, Code: "5-1001", Name: "Beban Gaji", Type: accounts.AccountTypeExpense, Debit: 500000},
	}
}

func TestBuildPlanZeroesTemporaryAccounts(t *testing.T) {
	plan := BuildPlan(planBalances(), 2, 8)

	require.Equal(t, int64(1500000), plan.TotalRevenue)
	require.Equal(t, int64(500000), plan.TotalExpense)
	require.Equal(t, int64(1000000), plan.NetIncome)

	// revenue debited, expense credited, retained earnings credited the net
	require.Len(t, plan.Lines, 3)
	require.Equal(t, int64(3), plan.Lines[0].AccountID)
	require.Equal(t, int64(1500000), plan.Lines[0].Debit)
	require.Equal(t, int64(4), plan.Lines[1].AccountID)
	require.Equal(t, int64(500000), plan.Lines[1].Kredit)
	require.Equal(t, int64(2), plan.Lines[2].AccountID)
	require.Equal(t, int64(1000000), plan.Lines[2].Kredit)

	// the closing entry itself balances
	var debit, kredit int64
	for _, line := range plan.Lines {
		debit += line.Debit
		kredit += line.Kredit
	}
	require.Equal(t, debit, kredit)
}

func TestBuildPlanOpeningBalances(t *testing.T) {
	plan := BuildPlan(planBalances(), 2, 8)

	byAccount := map[int64]int64{}
	for _, ob := range plan.OpeningBalances {
		require.Equal(t, int64(8), ob.PeriodID)
		byAccount[ob.AccountID] = ob.Balance
	}
	require.Equal(t, int64(1000000), byAccount[1])
	require.Equal(t, int64(1000000), byAccount[2]) // retained earnings absorbs net income
	require.NotContains(t, byAccount, int64(3))
	require.NotContains(t, byAccount, int64(4))
}

func TestBuildPlanNetLoss(t *testing.T) {
	balances := []reports.AccountBalance{
		{AccountID: 2, Code: "3-2001", Name: "Laba Ditahan", Type: accounts.AccountTypeEquity, Opening: 500000},
		{AccountID: 3, Code: "4-1001", Name: "Penjualan", Type: accounts.AccountTypeRevenue, Kredit: 100000},
		{AccountID: 4, Code: "5-1001", Name: "Beban Gaji", Type: accounts.AccountTypeExpense, Debit: 300000},
	}
	plan := BuildPlan(balances, 2, 8)

	require.Equal(t, int64(-200000), plan.NetIncome)
	last := plan.Lines[len(plan.Lines)-1]
	require.Equal(t, int64(200000), last.Debit) // loss debits retained earnings
	require.Equal(t, []OpeningBalance{{PeriodID: 8, AccountID: 2, Balance: 300000}}, plan.OpeningBalances)
}

func TestBuildPlanContraRevenue(t *testing.T) {
	balances := []reports.AccountBalance{
		{AccountID: 3, Code: "4-1001", Name: "Penjualan", Type: accounts.AccountTypeRevenue, Kredit: 100000},
		{AccountID: 5, Code: "4-9001", Name: "Retur Penjualan", Type: accounts.AccountTypeRevenue, Debit: 20000},
		{AccountID: 4, Code: "5-1001", Name: "Beban", Type: accounts.AccountTypeExpense, Debit: 30000},
	}
	plan := BuildPlan(balances, 2, 8)

	require.Equal(t, int64(80000), plan.TotalRevenue)
	require.Equal(t, int64(50000), plan.NetIncome)
	// the contra account is zeroed from the credit side
	var contra journals.JournalLine
	for _, line := range plan.Lines {
		if line.AccountID == 5 {
			contra = line
		}
	}
	require.Equal(t, int64(20000), contra.Kredit)
}

func TestBuildPlanNoActivity(t *testing.T) {
	plan := BuildPlan([]reports.AccountBalance{
		{AccountID: 1, Code: "1-1001", Type: accounts.AccountTypeAsset, Opening: 500},
	}, 2, 8)
	require.Empty(t, plan.Lines)
	require.Zero(t, plan.NetIncome)
	require.Equal(t, []OpeningBalance{{PeriodID: 8, AccountID: 1, Balance: 500}}, plan.OpeningBalances)
}

type memCloseRepo struct {
	periods  map[int64]periods.Period
	balances []reports.AccountBalance
	retained *accounts.Account
	drafts   int

	entries  []journals.JournalEntry
	openings []OpeningBalance
	records  []ClosingRecord
	nextID   int64
}

func newMemCloseRepo() *memCloseRepo {
	return &memCloseRepo{periods: map[int64]periods.Period{}, nextID: 1}
}

func (m *memCloseRepo) GetPeriod(_ context.Context, id int64) (periods.Period, error) {
	p, ok := m.periods[id]
	if !ok {
		return periods.Period{}, shared.ErrPeriodNotFound
	}
	return p, nil
}

func (m *memCloseRepo) GetPeriodForUpdate(ctx context.Context, id int64) (periods.Period, error) {
	return m.GetPeriod(ctx, id)
}

func (m *memCloseRepo) DraftCount(context.Context, int64) (int, error) {
	return m.drafts, nil
}

func (m *memCloseRepo) AccountBalances(context.Context, int64) ([]reports.AccountBalance, error) {
	return m.balances, nil
}

func (m *memCloseRepo) GetAccountByCode(_ context.Context, code string) (accounts.Account, error) {
	if m.retained == nil || m.retained.Code != code {
		return accounts.Account{}, shared.ErrAccountNotFound
	}
	return *m.retained, nil
}

func (m *memCloseRepo) GetRecord(_ context.Context, periodID int64) (ClosingRecord, error) {
	for _, rec := range m.records {
		if rec.PeriodID == periodID {
			return rec, nil
		}
	}
	return ClosingRecord{}, ErrRecordNotFound
}

func (m *memCloseRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return fn(ctx, m)
}

func (m *memCloseRepo) InsertClosingEntry(_ context.Context, entry journals.JournalEntry) (journals.JournalEntry, error) {
	entry.ID = m.nextID
	m.nextID++
	m.entries = append(m.entries, entry)
	return entry, nil
}

func (m *memCloseRepo) InsertOpeningBalances(_ context.Context, balances []OpeningBalance) error {
	m.openings = append(m.openings, balances...)
	return nil
}

func (m *memCloseRepo) InsertRecord(_ context.Context, rec ClosingRecord) (ClosingRecord, error) {
	rec.ID = m.nextID
	m.nextID++
	m.records = append(m.records, rec)
	return rec, nil
}

func (m *memCloseRepo) MarkClosed(_ context.Context, periodID int64, at time.Time) error {
	p, ok := m.periods[periodID]
	if !ok || p.Closed() {
		return ErrAlreadyClosed
	}
	p.ClosedAt = &at
	p.IsActive = false
	m.periods[periodID] = p
	return nil
}

func closeTestRepo() *memCloseRepo {
	repo := newMemCloseRepo()
	repo.periods[7] = periods.Period{
		ID:        7,
		Name:      "Agustus 2026",
		StartDate: time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC),
		IsActive:  true,
	}
	repo.periods[8] = periods.Period{
		ID:        8,
		Name:      "September 2026",
		StartDate: time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2026, 9, 30, 0, 0, 0, 0, time.UTC),
	}
	repo.retained = &accounts.Account{ID: 2, Code: "3-2001", Name: "Laba Ditahan", Type: accounts.AccountTypeEquity, IsActive: true}
	repo.balances = planBalances()
	return repo
}

func TestValidatePreClose(t *testing.T) {
	repo := closeTestRepo()
	svc := NewService(repo, nil, "3-2001")

	result, err := svc.ValidatePreClose(context.Background(), 7)
	require.NoError(t, err)
	require.True(t, result.IsValid)
	require.Empty(t, result.Issues)
	require.Equal(t, int64(1500000), result.Summary.TotalRevenue)
	require.Equal(t, int64(500000), result.Summary.TotalExpense)
	require.Equal(t, int64(1000000), result.Summary.NetIncome)
}

func TestValidatePreCloseReportsIssues(t *testing.T) {
	repo := closeTestRepo()
	repo.drafts = 3
	repo.retained = nil
	svc := NewService(repo, nil, "3-2001")

	result, err := svc.ValidatePreClose(context.Background(), 7)
	require.NoError(t, err)
	require.False(t, result.IsValid)
	require.Len(t, result.Issues, 2)
	require.Equal(t, IssueUnpostedJournals, result.Issues[0].Code)
	require.Equal(t, IssueRetainedEarningsAbsent, result.Issues[1].Code)
	require.Equal(t, 3, result.Summary.UnpostedCount)
}

func TestClosePeriod(t *testing.T) {
	repo := closeTestRepo()
	svc := NewService(repo, nil, "3-2001")
	closedAt := time.Date(2026, 9, 1, 8, 0, 0, 0, time.UTC)
	svc.WithNow(func() time.Time { return closedAt })

	record, err := svc.ClosePeriod(context.Background(), CloseInput{PeriodID: 7, SuccessorID: 8, ActorID: 42})
	require.NoError(t, err)
	require.Equal(t, int64(1000000), record.NetIncome)
	require.Equal(t, closedAt, record.ClosedAt)
	require.NotZero(t, record.JournalEntryID)

	require.True(t, repo.periods[7].Closed())
	require.False(t, repo.periods[7].IsActive)

	require.Len(t, repo.entries, 1)
	entry := repo.entries[0]
	require.Equal(t, ReferenceTypeClosing, entry.ReferenceType)
	require.Equal(t, repo.periods[7].EndDate, entry.Date)
	require.Equal(t, entry.TotalDebit(), entry.TotalKredit())
	require.Regexp(t, `^CLS-\d{8}-\d{4}$`, entry.Number)

	byAccount := map[int64]int64{}
	for _, ob := range repo.openings {
		require.Equal(t, int64(8), ob.PeriodID)
		byAccount[ob.AccountID] = ob.Balance
	}
	require.Equal(t, int64(1000000), byAccount[2])
	require.NotContains(t, byAccount, int64(3))

	got, err := svc.GetRecord(context.Background(), 7)
	require.NoError(t, err)
	require.Equal(t, record.ID, got.ID)
}

func TestClosePeriodAlreadyClosed(t *testing.T) {
	repo := closeTestRepo()
	svc := NewService(repo, nil, "3-2001")

	_, err := svc.ClosePeriod(context.Background(), CloseInput{PeriodID: 7, SuccessorID: 8, ActorID: 42})
	require.NoError(t, err)

	_, err = svc.ClosePeriod(context.Background(), CloseInput{PeriodID: 7, SuccessorID: 8, ActorID: 42})
	require.ErrorIs(t, err, ErrAlreadyClosed)
}

func TestClosePeriodRevalidatesBeforeClosedCheck(t *testing.T) {
	repo := closeTestRepo()
	closedAt := time.Date(2026, 9, 1, 8, 0, 0, 0, time.UTC)
	p := repo.periods[7]
	p.ClosedAt = &closedAt
	repo.periods[7] = p
	repo.drafts = 2
	svc := NewService(repo, nil, "3-2001")

	_, err := svc.ClosePeriod(context.Background(), CloseInput{PeriodID: 7, SuccessorID: 8, ActorID: 42})
	require.ErrorIs(t, err, ErrPreCloseValidation)
	require.NotErrorIs(t, err, ErrAlreadyClosed)
}

func TestClosePeriodRequiresSuccessor(t *testing.T) {
	svc := NewService(closeTestRepo(), nil, "3-2001")

	_, err := svc.ClosePeriod(context.Background(), CloseInput{PeriodID: 7, ActorID: 42})
	require.ErrorIs(t, err, ErrNoSuccessorPeriod)

	_, err = svc.ClosePeriod(context.Background(), CloseInput{PeriodID: 7, SuccessorID: 7, ActorID: 42})
	require.Error(t, err)
}

func TestClosePeriodRejectsClosedSuccessor(t *testing.T) {
	repo := closeTestRepo()
	closedAt := time.Now()
	p := repo.periods[8]
	p.ClosedAt = &closedAt
	repo.periods[8] = p
	svc := NewService(repo, nil, "3-2001")

	_, err := svc.ClosePeriod(context.Background(), CloseInput{PeriodID: 7, SuccessorID: 8, ActorID: 42})
	require.ErrorIs(t, err, ErrSuccessorClosed)
}

func TestClosePeriodBlockedByValidation(t *testing.T) {
	repo := closeTestRepo()
	repo.drafts = 1
	svc := NewService(repo, nil, "3-2001")

	_, err := svc.ClosePeriod(context.Background(), CloseInput{PeriodID: 7, SuccessorID: 8, ActorID: 42})
	require.ErrorIs(t, err, ErrPreCloseValidation)

	var pce *PreCloseError
	require.True(t, errors.As(err, &pce))
	require.Len(t, pce.Issues, 1)
	require.Equal(t, IssueUnpostedJournals, pce.Issues[0].Code)

	// nothing was persisted
	require.Empty(t, repo.entries)
	require.Empty(t, repo.openings)
	require.False(t, repo.periods[7].Closed())
}
