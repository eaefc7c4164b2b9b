package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/tokoprima/tokoprima/internal/accounting/accounts"
	"github.com/tokoprima/tokoprima/internal/accounting/journals"
	"github.com/tokoprima/tokoprima/internal/accounting/periods"
	"github.com/tokoprima/tokoprima/internal/accounting/reports"
	"github.com/tokoprima/tokoprima/internal/accounting/shared"
	"github.com/tokoprima/tokoprima/internal/close"
	"github.com/tokoprima/tokoprima/internal/observability"
)

type stubRepo struct {
	periods  map[int64]periods.Period
	balances []reports.AccountBalance
	retained *accounts.Account
	drafts   int

	records []close.ClosingRecord
	nextID  int64
}

func newStubRepo() *stubRepo {
	start := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	return &stubRepo{
		periods: map[int64]periods.Period{
			7: {ID: 7, Name: "Agustus 2026", StartDate: start, EndDate: start.AddDate(0, 1, -1), IsActive: true},
			8: {ID: 8, Name: "September 2026", StartDate: start.AddDate(0, 1, 0), EndDate: start.AddDate(0, 2, -1)},
		},
		balances: []reports.AccountBalance{
			{AccountID: 1, Code: "1-1001", Name: "Kas", Type: accounts.AccountTypeAsset, Debit: 900000, Kredit: 400000},
			{AccountID: 2, Code: "3-2001", Name: "Laba Ditahan", Type: accounts.AccountTypeEquity},
			{AccountID: 3, Code: "4-1001", Name: "Penjualan", Type: accounts.AccountTypeRevenue, Kredit: 900000},
			{AccountID: 4, Code: "5-2001", Name: "Beban Gaji", Type: accounts.AccountTypeExpense, Debit: 400000},
		},
		retained: &accounts.Account{ID: 2, Code: "3-2001", Name: "Laba Ditahan", Type: accounts.AccountTypeEquity, IsActive: true},
		nextID:   1,
	}
}

func (s *stubRepo) GetPeriod(_ context.Context, id int64) (periods.Period, error) {
	p, ok := s.periods[id]
	if !ok {
		return periods.Period{}, shared.ErrPeriodNotFound
	}
	return p, nil
}

func (s *stubRepo) GetPeriodForUpdate(ctx context.Context, id int64) (periods.Period, error) {
	return s.GetPeriod(ctx, id)
}

func (s *stubRepo) DraftCount(context.Context, int64) (int, error) {
	return s.drafts, nil
}

func (s *stubRepo) AccountBalances(context.Context, int64) ([]reports.AccountBalance, error) {
	return s.balances, nil
}

func (s *stubRepo) GetAccountByCode(_ context.Context, code string) (accounts.Account, error) {
	if s.retained == nil || s.retained.Code != code {
		return accounts.Account{}, shared.ErrAccountNotFound
	}
	return *s.retained, nil
}

func (s *stubRepo) GetRecord(_ context.Context, periodID int64) (close.ClosingRecord, error) {
	for _, rec := range s.records {
		if rec.PeriodID == periodID {
			return rec, nil
		}
	}
	return close.ClosingRecord{}, close.ErrRecordNotFound
}

func (s *stubRepo) WithTx(ctx context.Context, fn func(context.Context, close.TxRepository) error) error {
	return fn(ctx, s)
}

func (s *stubRepo) InsertClosingEntry(_ context.Context, entry journals.JournalEntry) (journals.JournalEntry, error) {
	entry.ID = s.nextID
	s.nextID++
	return entry, nil
}

func (s *stubRepo) InsertOpeningBalances(context.Context, []close.OpeningBalance) error {
	return nil
}

func (s *stubRepo) InsertRecord(_ context.Context, rec close.ClosingRecord) (close.ClosingRecord, error) {
	rec.ID = s.nextID
	s.nextID++
	s.records = append(s.records, rec)
	return rec, nil
}

func (s *stubRepo) MarkClosed(_ context.Context, periodID int64, at time.Time) error {
	p, ok := s.periods[periodID]
	if !ok || p.Closed() {
		return close.ErrAlreadyClosed
	}
	p.ClosedAt = &at
	p.IsActive = false
	s.periods[periodID] = p
	return nil
}

func newTestRouter(repo *stubRepo) chi.Router {
	svc := close.NewService(repo, nil, "3-2001")
	h := NewHandler(slog.Default(), svc, observability.NewMetrics())
	r := chi.NewRouter()
	h.MountRoutes(r)
	return r
}

func TestValidatePreCloseEndpoint(t *testing.T) {
	r := newTestRouter(newStubRepo())

	req := httptest.NewRequest(http.MethodGet, "/periods/7/pre-close", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var result close.ValidationResult
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&result))
	require.True(t, result.IsValid)
	require.Equal(t, int64(500000), result.Summary.NetIncome)
}

func TestClosePeriodEndpoint(t *testing.T) {
	repo := newStubRepo()
	r := newTestRouter(repo)

	body := strings.NewReader(`{"successorPeriodId":8,"actorId":42}`)
	req := httptest.NewRequest(http.MethodPost, "/periods/7/close", body)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var record close.ClosingRecord
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&record))
	require.Equal(t, int64(500000), record.NetIncome)
	require.True(t, repo.periods[7].Closed())
}

func TestClosePeriodBlockedByDrafts(t *testing.T) {
	repo := newStubRepo()
	repo.drafts = 2
	r := newTestRouter(repo)

	body := strings.NewReader(`{"successorPeriodId":8,"actorId":42}`)
	req := httptest.NewRequest(http.MethodPost, "/periods/7/close", body)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusConflict, rec.Code)
	var problem struct {
		Issues []close.ValidationIssue `json:"issues"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&problem))
	require.Len(t, problem.Issues, 1)
	require.Equal(t, close.IssueUnpostedJournals, problem.Issues[0].Code)
}

func TestClosePeriodAlreadyClosedConflict(t *testing.T) {
	repo := newStubRepo()
	closedAt := time.Date(2026, 9, 1, 8, 0, 0, 0, time.UTC)
	p := repo.periods[7]
	p.ClosedAt = &closedAt
	repo.periods[7] = p
	r := newTestRouter(repo)

	body := strings.NewReader(`{"successorPeriodId":8,"actorId":42}`)
	req := httptest.NewRequest(http.MethodPost, "/periods/7/close", body)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusConflict, rec.Code)
}

func TestClosePeriodUnknownSuccessor(t *testing.T) {
	r := newTestRouter(newStubRepo())

	body := strings.NewReader(`{"successorPeriodId":99,"actorId":42}`)
	req := httptest.NewRequest(http.MethodPost, "/periods/7/close", body)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestClosePeriodRequiresSuccessor(t *testing.T) {
	r := newTestRouter(newStubRepo())

	body := strings.NewReader(`{"actorId":42}`)
	req := httptest.NewRequest(http.MethodPost, "/periods/7/close", body)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestClosingRecordNotFound(t *testing.T) {
	r := newTestRouter(newStubRepo())

	req := httptest.NewRequest(http.MethodGet, "/periods/7/closing-record", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)
}
