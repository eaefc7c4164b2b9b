package journals

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/tokoprima/tokoprima/internal/accounting/accounts"
	"github.com/tokoprima/tokoprima/internal/accounting/periods"
	"github.com/tokoprima/tokoprima/internal/accounting/shared"
	internalShared "github.com/tokoprima/tokoprima/internal/shared"
)

type memJournalRepo struct {
	entries  map[int64]JournalEntry
	accounts map[int64]accounts.Account
	periods  map[int64]periods.Period
	nextID   int64
	numbers  map[string]bool

	collideNext int // forces InsertEntry/MarkPosted collisions
}

func newMemJournalRepo() *memJournalRepo {
	return &memJournalRepo{
		entries:  map[int64]JournalEntry{},
		accounts: map[int64]accounts.Account{},
		periods:  map[int64]periods.Period{},
		numbers:  map[string]bool{},
		nextID:   1,
	}
}

func (m *memJournalRepo) List(_ context.Context, filter ListFilter) ([]JournalEntry, error) {
	var out []JournalEntry
	for _, e := range m.entries {
		if filter.PeriodID != 0 && e.PeriodID != filter.PeriodID {
			continue
		}
		if filter.PostedOnly && !e.IsPosted {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

func (m *memJournalRepo) GetWithLines(_ context.Context, id int64) (JournalEntry, error) {
	e, ok := m.entries[id]
	if !ok {
		return JournalEntry{}, shared.ErrJournalNotFound
	}
	return e, nil
}

func (m *memJournalRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return fn(ctx, m)
}

func (m *memJournalRepo) InsertEntry(_ context.Context, entry JournalEntry) (JournalEntry, error) {
	if m.collideNext > 0 {
		m.collideNext--
		return JournalEntry{}, shared.ErrNumberCollision
	}
	if entry.Number != "" && m.numbers[entry.Number] {
		return JournalEntry{}, shared.ErrNumberCollision
	}
	entry.ID = m.nextID
	m.nextID++
	if entry.Number != "" {
		m.numbers[entry.Number] = true
	}
	m.entries[entry.ID] = entry
	return entry, nil
}

func (m *memJournalRepo) InsertLines(_ context.Context, journalID int64, lines []JournalLine) error {
	e := m.entries[journalID]
	e.Lines = append([]JournalLine(nil), lines...)
	m.entries[journalID] = e
	return nil
}

func (m *memJournalRepo) GetEntryWithLines(ctx context.Context, id int64) (JournalEntry, error) {
	return m.GetWithLines(ctx, id)
}

func (m *memJournalRepo) UpdateDraft(_ context.Context, entry JournalEntry) error {
	current, ok := m.entries[entry.ID]
	if !ok || current.IsPosted {
		return shared.ErrJournalNotFound
	}
	m.entries[entry.ID] = entry
	return nil
}

func (m *memJournalRepo) DeleteDraft(_ context.Context, id int64) error {
	current, ok := m.entries[id]
	if !ok || current.IsPosted {
		return shared.ErrJournalNotFound
	}
	delete(m.entries, id)
	return nil
}

func (m *memJournalRepo) MarkPosted(_ context.Context, id int64, number string, postedBy int64) error {
	if m.collideNext > 0 {
		m.collideNext--
		return shared.ErrNumberCollision
	}
	current, ok := m.entries[id]
	if !ok || current.IsPosted {
		return shared.ErrJournalNotFound
	}
	current.Number = number
	current.IsPosted = true
	current.PostedBy = postedBy
	m.numbers[number] = true
	m.entries[id] = current
	return nil
}

func (m *memJournalRepo) GetAccounts(_ context.Context, ids []int64) (map[int64]accounts.Account, error) {
	found := map[int64]accounts.Account{}
	for _, id := range ids {
		if a, ok := m.accounts[id]; ok {
			found[id] = a
		}
	}
	return found, nil
}

func (m *memJournalRepo) GetPeriodForUpdate(_ context.Context, periodID int64) (periods.Period, error) {
	p, ok := m.periods[periodID]
	if !ok {
		return periods.Period{}, shared.ErrPeriodNotFound
	}
	return p, nil
}

type stubResolver struct {
	period periods.Period
	err    error
}

func (s stubResolver) ResolveActive(context.Context) (periods.Period, error) {
	return s.period, s.err
}

type nopAudit struct{ records []internalShared.AuditRecord }

func (n *nopAudit) Record(_ context.Context, rec internalShared.AuditRecord) error {
	n.records = append(n.records, rec)
	return nil
}

func testPeriod() periods.Period {
	return periods.Period{
		ID:        7,
		Name:      "Agustus 2026",
		StartDate: time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC),
		IsActive:  true,
	}
}

func newTestService(repo *memJournalRepo) (*Service, *nopAudit) {
	p := testPeriod()
	repo.periods[p.ID] = p
	repo.accounts[1] = accounts.Account{ID: 1, Code: "1-1001", Name: "Kas", Type: accounts.AccountTypeAsset, IsActive: true}
	repo.accounts[2] = accounts.Account{ID: 2, Code: "4-1001", Name: "Penjualan", Type: accounts.AccountTypeRevenue, IsActive: true}
	audit := &nopAudit{}
	svc := NewService(repo, stubResolver{period: p}, audit)
	svc.WithNow(func() time.Time { return time.Date(2026, 8, 15, 10, 0, 0, 0, time.UTC) })
	return svc, audit
}

func balancedInput() PostingInput {
	return PostingInput{
		Date:        time.Date(2026, 8, 10, 0, 0, 0, 0, time.UTC),
		Description: "Penjualan tunai",
		PostedBy:    42,
		Lines: []LineInput{
			{AccountID: 1, Debit: 150000},
			{AccountID: 2, Kredit: 150000},
		},
	}
}

func TestCreateEntryPostsBalanced(t *testing.T) {
	repo := newMemJournalRepo()
	svc, audit := newTestService(repo)

	entry, err := svc.CreateEntry(context.Background(), balancedInput())
	require.NoError(t, err)
	require.True(t, entry.IsPosted)
	require.Equal(t, int64(7), entry.PeriodID)
	require.Regexp(t, `^JRN-20260810-\d{4}$`, entry.Number)
	require.Len(t, audit.records, 1)
	require.Equal(t, "journal.post", audit.records[0].Action)
}

func TestCreateEntryRejectsUnbalanced(t *testing.T) {
	repo := newMemJournalRepo()
	svc, _ := newTestService(repo)

	input := balancedInput()
	input.Lines[1].Kredit = 140000
	_, err := svc.CreateEntry(context.Background(), input)
	require.ErrorIs(t, err, shared.ErrUnbalanced)
	require.Empty(t, repo.entries)
}

func TestCreateEntryRejectsSingleLine(t *testing.T) {
	repo := newMemJournalRepo()
	svc, _ := newTestService(repo)

	input := balancedInput()
	input.Lines = input.Lines[:1]
	_, err := svc.CreateEntry(context.Background(), input)
	require.ErrorIs(t, err, shared.ErrInsufficientLines)
}

func TestCreateEntryRejectsBothSidesOnOneLine(t *testing.T) {
	repo := newMemJournalRepo()
	svc, _ := newTestService(repo)

	input := balancedInput()
	input.Lines[0].Kredit = 150000
	input.Lines[1].Debit = 150000
	_, err := svc.CreateEntry(context.Background(), input)
	require.Error(t, err)
}

func TestCreateEntryUnknownAccount(t *testing.T) {
	repo := newMemJournalRepo()
	svc, _ := newTestService(repo)

	input := balancedInput()
	input.Lines[0].AccountID = 99
	_, err := svc.CreateEntry(context.Background(), input)
	require.ErrorIs(t, err, shared.ErrUnknownAccount)
}

func TestCreateEntryInactiveAccount(t *testing.T) {
	repo := newMemJournalRepo()
	svc, _ := newTestService(repo)
	acc := repo.accounts[2]
	acc.IsActive = false
	repo.accounts[2] = acc

	_, err := svc.CreateEntry(context.Background(), balancedInput())
	require.ErrorIs(t, err, shared.ErrUnknownAccount)
}

func TestCreateEntryClosedPeriod(t *testing.T) {
	repo := newMemJournalRepo()
	svc, _ := newTestService(repo)
	p := repo.periods[7]
	closedAt := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	p.ClosedAt = &closedAt
	repo.periods[7] = p

	_, err := svc.CreateEntry(context.Background(), balancedInput())
	require.ErrorIs(t, err, shared.ErrPeriodClosed)
}

func TestCreateEntryDateOutsidePeriod(t *testing.T) {
	repo := newMemJournalRepo()
	svc, _ := newTestService(repo)

	input := balancedInput()
	input.Date = time.Date(2026, 9, 2, 0, 0, 0, 0, time.UTC)
	_, err := svc.CreateEntry(context.Background(), input)
	require.ErrorIs(t, err, shared.ErrDateOutOfRange)
}

func TestCreateEntryRetriesNumberCollision(t *testing.T) {
	repo := newMemJournalRepo()
	svc, _ := newTestService(repo)
	repo.collideNext = 2

	entry, err := svc.CreateEntry(context.Background(), balancedInput())
	require.NoError(t, err)
	require.NotEmpty(t, entry.Number)
}

func TestCreateEntryGivesUpAfterMaxCollisions(t *testing.T) {
	repo := newMemJournalRepo()
	svc, _ := newTestService(repo)
	repo.collideNext = maxNumberAttempts

	_, err := svc.CreateEntry(context.Background(), balancedInput())
	require.ErrorIs(t, err, shared.ErrNumberCollision)
}

func TestCreateEntryNoActivePeriod(t *testing.T) {
	repo := newMemJournalRepo()
	svc, _ := newTestService(repo)
	svc.periods = stubResolver{err: shared.ErrNoActivePeriod}

	_, err := svc.CreateEntry(context.Background(), balancedInput())
	require.ErrorIs(t, err, shared.ErrNoActivePeriod)
}

func TestCreateEntryResolvesPeriodBeforeBalanceCheck(t *testing.T) {
	repo := newMemJournalRepo()
	svc, _ := newTestService(repo)
	svc.periods = stubResolver{err: shared.ErrNoActivePeriod}

	input := balancedInput()
	input.Lines[1].Kredit = 140000
	_, err := svc.CreateEntry(context.Background(), input)
	require.ErrorIs(t, err, shared.ErrNoActivePeriod)
	require.NotErrorIs(t, err, shared.ErrUnbalanced)
}

func TestReverseEntrySwapsSides(t *testing.T) {
	repo := newMemJournalRepo()
	svc, audit := newTestService(repo)

	original, err := svc.CreateEntry(context.Background(), balancedInput())
	require.NoError(t, err)

	reversal, err := svc.ReverseEntry(context.Background(), original.ID, 42)
	require.NoError(t, err)
	require.Equal(t, original.Number, reversal.Reference)
	require.Equal(t, ReferenceTypeReversal, reversal.ReferenceType)
	require.Equal(t, "REVERSAL: "+original.Description, reversal.Description)
	require.Equal(t, original.Lines[0].Debit, reversal.Lines[0].Kredit)
	require.Equal(t, original.Lines[1].Kredit, reversal.Lines[1].Debit)
	require.Equal(t, reversal.TotalDebit(), reversal.TotalKredit())
	require.Len(t, audit.records, 2)
	require.Equal(t, "journal.reverse", audit.records[1].Action)
}

func TestReverseEntryRejectsDraft(t *testing.T) {
	repo := newMemJournalRepo()
	svc, _ := newTestService(repo)

	draft, err := svc.SaveDraft(context.Background(), DraftInput{
		Date:  time.Date(2026, 8, 10, 0, 0, 0, 0, time.UTC),
		Lines: []LineInput{{AccountID: 1, Debit: 100}},
	})
	require.NoError(t, err)

	_, err = svc.ReverseEntry(context.Background(), draft.ID, 42)
	require.Error(t, err)
}

func TestDraftLifecycle(t *testing.T) {
	repo := newMemJournalRepo()
	svc, _ := newTestService(repo)
	ctx := context.Background()

	// unbalanced lines are fine while it stays a draft
	draft, err := svc.SaveDraft(ctx, DraftInput{
		Date:        time.Date(2026, 8, 12, 0, 0, 0, 0, time.UTC),
		Description: "beban listrik, nominal belum final",
		ActorID:     42,
		Lines:       []LineInput{{AccountID: 1, Debit: 50000}},
	})
	require.NoError(t, err)
	require.False(t, draft.IsPosted)
	require.Empty(t, draft.Number)

	err = svc.UpdateDraft(ctx, draft.ID, DraftInput{
		Date:        draft.Date,
		Description: "beban listrik agustus",
		Lines: []LineInput{
			{AccountID: 1, Kredit: 75000},
			{AccountID: 2, Debit: 75000},
		},
	})
	require.NoError(t, err)

	posted, err := svc.PostDraft(ctx, draft.ID, 42)
	require.NoError(t, err)
	require.True(t, posted.IsPosted)
	require.NotEmpty(t, posted.Number)
	require.Equal(t, int64(42), posted.PostedBy)

	// posted entries are immutable
	err = svc.UpdateDraft(ctx, draft.ID, DraftInput{Date: draft.Date})
	require.ErrorIs(t, err, shared.ErrEntryPosted)
	err = svc.DeleteDraft(ctx, draft.ID, 42)
	require.ErrorIs(t, err, shared.ErrEntryPosted)
}

func TestPostDraftValidatesBalance(t *testing.T) {
	repo := newMemJournalRepo()
	svc, _ := newTestService(repo)
	ctx := context.Background()

	draft, err := svc.SaveDraft(ctx, DraftInput{
		Date:  time.Date(2026, 8, 12, 0, 0, 0, 0, time.UTC),
		Lines: []LineInput{{AccountID: 1, Debit: 50000}},
	})
	require.NoError(t, err)

	_, err = svc.PostDraft(ctx, draft.ID, 42)
	require.ErrorIs(t, err, shared.ErrInsufficientLines)

	stored, err := svc.Get(ctx, draft.ID)
	require.NoError(t, err)
	require.False(t, stored.IsPosted)
}

func TestDeleteDraft(t *testing.T) {
	repo := newMemJournalRepo()
	svc, _ := newTestService(repo)
	ctx := context.Background()

	draft, err := svc.SaveDraft(ctx, DraftInput{
		Date:  time.Date(2026, 8, 12, 0, 0, 0, 0, time.UTC),
		Lines: []LineInput{{AccountID: 1, Debit: 50000}},
	})
	require.NoError(t, err)

	require.NoError(t, svc.DeleteDraft(ctx, draft.ID, 42))
	_, err = svc.Get(ctx, draft.ID)
	require.ErrorIs(t, err, shared.ErrJournalNotFound)
}

func TestNewNumberFormat(t *testing.T) {
	n := NewNumber("", time.Date(2026, 8, 10, 0, 0, 0, 0, time.UTC))
	require.Regexp(t, `^JRN-20260810-\d{4}$`, n)

	n = NewNumber("INV", time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC))
	require.Regexp(t, `^INV-20260102-\d{4}$`, n)
}

func TestValidateErrorsAreSentinels(t *testing.T) {
	input := balancedInput()
	input.Lines[0].Debit = -5
	err := input.Validate()
	require.Error(t, err)
	require.False(t, errors.Is(err, shared.ErrUnbalanced))
}
