package close

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/tokoprima/tokoprima/internal/accounting/accounts"
	"github.com/tokoprima/tokoprima/internal/accounting/journals"
	"github.com/tokoprima/tokoprima/internal/accounting/reports"
	"github.com/tokoprima/tokoprima/internal/accounting/shared"
	internalShared "github.com/tokoprima/tokoprima/internal/shared"
)

// DefaultNumberPrefix is the journal number prefix of closing entries.
const DefaultNumberPrefix = "CLS"

const maxNumberAttempts = 5

// AuditPort records close events for the audit trail.
type AuditPort interface {
	Record(ctx context.Context, rec internalShared.AuditRecord) error
}

// Service orchestrates period closing: validation, closing-entry generation,
// opening-balance carry-forward, and the one-way Open to Closed transition.
type Service struct {
	repo         Repository
	audit        AuditPort
	retainedCode string
	prefix       string
	now          func() time.Time
}

func NewService(repo Repository, audit AuditPort, retainedCode string) *Service {
	return &Service{
		repo:         repo,
		audit:        audit,
		retainedCode: retainedCode,
		prefix:       DefaultNumberPrefix,
		now:          time.Now,
	}
}

// WithNumberPrefix overrides the closing entry number prefix.
func (s *Service) WithNumberPrefix(prefix string) {
	if prefix != "" {
		s.prefix = prefix
	}
}

// WithNow overrides the clock for deterministic tests.
func (s *Service) WithNow(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// ValidatePreClose is the read-only dry run of a close. It reports every
// blocking issue plus the period totals, without touching anything.
func (s *Service) ValidatePreClose(ctx context.Context, periodID int64) (ValidationResult, error) {
	if _, err := s.repo.GetPeriod(ctx, periodID); err != nil {
		return ValidationResult{}, err
	}
	drafts, err := s.repo.DraftCount(ctx, periodID)
	if err != nil {
		return ValidationResult{}, err
	}
	var retainedErr error
	if _, err := s.repo.GetAccountByCode(ctx, s.retainedCode); err != nil {
		if !errors.Is(err, shared.ErrAccountNotFound) {
			return ValidationResult{}, err
		}
		retainedErr = err
	}
	balances, err := s.repo.AccountBalances(ctx, periodID)
	if err != nil {
		return ValidationResult{}, err
	}
	return buildValidation(drafts, retainedErr != nil, s.retainedCode, balances), nil
}

func buildValidation(drafts int, retainedMissing bool, retainedCode string, balances []reports.AccountBalance) ValidationResult {
	result := ValidationResult{}
	if drafts > 0 {
		result.Issues = append(result.Issues, ValidationIssue{
			Code:    IssueUnpostedJournals,
			Message: fmt.Sprintf("%d jurnal belum diposting; posting atau hapus terlebih dahulu", drafts),
		})
	}
	if retainedMissing {
		result.Issues = append(result.Issues, ValidationIssue{
			Code:    IssueRetainedEarningsAbsent,
			Message: fmt.Sprintf("akun laba ditahan %q tidak ditemukan", retainedCode),
		})
	}
	for _, acc := range balances {
		switch acc.Type {
		case accounts.AccountTypeRevenue:
			result.Summary.TotalRevenue += acc.Closing()
		case accounts.AccountTypeExpense:
			result.Summary.TotalExpense += acc.Closing()
		}
	}
	result.Summary.NetIncome = result.Summary.TotalRevenue - result.Summary.TotalExpense
	result.Summary.UnpostedCount = drafts
	result.IsValid = len(result.Issues) == 0
	return result
}

// ClosePeriod runs the full close atomically: re-validate, generate the
// closing entry, seed the successor's opening balances, write the closing
// record, and set closedAt. A failure at any step leaves the period untouched.
func (s *Service) ClosePeriod(ctx context.Context, in CloseInput) (ClosingRecord, error) {
	if err := in.Validate(); err != nil {
		return ClosingRecord{}, err
	}

	var record ClosingRecord
	for attempt := 0; attempt < maxNumberAttempts; attempt++ {
		err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
			rec, err := s.closeInTx(ctx, tx, in)
			if err != nil {
				return err
			}
			record = rec
			return nil
		})
		if errors.Is(err, shared.ErrNumberCollision) {
			continue
		}
		if err != nil {
			return ClosingRecord{}, err
		}
		s.recordClosed(ctx, record)
		return record, nil
	}
	return ClosingRecord{}, shared.ErrNumberCollision
}

func (s *Service) closeInTx(ctx context.Context, tx TxRepository, in CloseInput) (ClosingRecord, error) {
	period, err := tx.GetPeriodForUpdate(ctx, in.PeriodID)
	if err != nil {
		return ClosingRecord{}, err
	}
	successor, err := tx.GetPeriodForUpdate(ctx, in.SuccessorID)
	if err != nil {
		return ClosingRecord{}, err
	}

	drafts, err := tx.DraftCount(ctx, in.PeriodID)
	if err != nil {
		return ClosingRecord{}, err
	}
	var retained accounts.Account
	retainedMissing := false
	retained, err = tx.GetAccountByCode(ctx, s.retainedCode)
	if err != nil {
		if !errors.Is(err, shared.ErrAccountNotFound) {
			return ClosingRecord{}, err
		}
		retainedMissing = true
	}
	balances, err := tx.AccountBalances(ctx, in.PeriodID)
	if err != nil {
		return ClosingRecord{}, err
	}
	validation := buildValidation(drafts, retainedMissing, s.retainedCode, balances)
	if !validation.IsValid {
		return ClosingRecord{}, &PreCloseError{Issues: validation.Issues}
	}
	if period.Closed() {
		return ClosingRecord{}, ErrAlreadyClosed
	}
	if successor.Closed() {
		return ClosingRecord{}, ErrSuccessorClosed
	}

	closedAt := s.now()
	plan := BuildPlan(balances, retained.ID, in.SuccessorID)

	record := ClosingRecord{
		PeriodID:        in.PeriodID,
		SuccessorID:     in.SuccessorID,
		NetIncome:       plan.NetIncome,
		ClosedBy:        in.ActorID,
		ClosedAt:        closedAt,
		OpeningBalances: plan.OpeningBalances,
	}

	if len(plan.Lines) > 0 {
		entry := journals.JournalEntry{
			Number:        journals.NewNumber(s.prefix, closedAt),
			PeriodID:      in.PeriodID,
			Date:          period.EndDate,
			Description:   "Jurnal penutup " + period.Name,
			Reference:     period.Name,
			ReferenceType: ReferenceTypeClosing,
			PostedBy:      in.ActorID,
			IsPosted:      true,
			Lines:         plan.Lines,
		}
		inserted, err := tx.InsertClosingEntry(ctx, entry)
		if err != nil {
			return ClosingRecord{}, err
		}
		record.JournalEntryID = inserted.ID
	}

	if err := tx.InsertOpeningBalances(ctx, plan.OpeningBalances); err != nil {
		return ClosingRecord{}, err
	}
	record, err = tx.InsertRecord(ctx, record)
	if err != nil {
		return ClosingRecord{}, err
	}
	if err := tx.MarkClosed(ctx, in.PeriodID, closedAt); err != nil {
		return ClosingRecord{}, err
	}
	return record, nil
}

// GetRecord returns the closing record of an already closed period.
func (s *Service) GetRecord(ctx context.Context, periodID int64) (ClosingRecord, error) {
	return s.repo.GetRecord(ctx, periodID)
}

func (s *Service) recordClosed(ctx context.Context, rec ClosingRecord) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, internalShared.AuditRecord{
		Table:    "accounting_periods",
		RecordID: strconv.FormatInt(rec.PeriodID, 10),
		Action:   "period.close",
		NewValues: map[string]any{
			"successor_period_id": rec.SuccessorID,
			"net_income":          rec.NetIncome,
			"journal_entry_id":    rec.JournalEntryID,
			"opening_balances":    len(rec.OpeningBalances),
		},
		ChangedBy: rec.ClosedBy,
		At:        rec.ClosedAt,
	})
}
