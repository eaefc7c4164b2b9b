package journals

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/tokoprima/tokoprima/internal/accounting/periods"
	"github.com/tokoprima/tokoprima/internal/accounting/shared"
	internalShared "github.com/tokoprima/tokoprima/internal/shared"
)

// ReferenceTypeReversal tags entries generated by ReverseEntry.
const ReferenceTypeReversal = "REVERSAL"

// AuditPort records ledger events for the audit trail.
type AuditPort interface {
	Record(ctx context.Context, rec internalShared.AuditRecord) error
}

// PeriodResolver supplies the currently active period when a posting omits one.
type PeriodResolver interface {
	ResolveActive(ctx context.Context) (periods.Period, error)
}

// Service coordinates posting, reversing, and draft handling of journal
// entries.
type Service struct {
	repo    Repository
	periods PeriodResolver
	audit   AuditPort
	prefix  string
	now     func() time.Time
}

func NewService(repo Repository, resolver PeriodResolver, audit AuditPort) *Service {
	return &Service{repo: repo, periods: resolver, audit: audit, prefix: DefaultNumberPrefix, now: time.Now}
}

// WithNumberPrefix overrides the journal number prefix.
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

func (s *Service) List(ctx context.Context, filter ListFilter) ([]JournalEntry, error) {
	return s.repo.List(ctx, filter)
}

func (s *Service) Get(ctx context.Context, id int64) (JournalEntry, error) {
	return s.repo.GetWithLines(ctx, id)
}

// CreateEntry validates and persists a balanced journal entry as posted.
// All validation happens before any write; the entry and its lines are
// persisted atomically.
func (s *Service) CreateEntry(ctx context.Context, input PostingInput) (JournalEntry, error) {
	periodID := input.PeriodID
	if periodID == 0 {
		active, err := s.periods.ResolveActive(ctx)
		if err != nil {
			return JournalEntry{}, err
		}
		periodID = active.ID
	}
	if err := input.Validate(); err != nil {
		return JournalEntry{}, err
	}
	reference := input.Reference
	if reference == "" {
		// Every posted entry carries an opaque source reference.
		reference = uuid.NewString()
	}
	entry := JournalEntry{
		PeriodID:      periodID,
		Date:          input.Date,
		Description:   input.Description,
		Reference:     reference,
		ReferenceType: input.ReferenceType,
		PostedBy:      input.PostedBy,
		IsPosted:      true,
		Lines:         toLines(input.Lines),
	}
	posted, err := s.postWithRetry(ctx, entry)
	if err != nil {
		return JournalEntry{}, err
	}
	s.recordPosted(ctx, posted, "journal.post")
	return posted, nil
}

// ReverseEntry creates a counter-entry in the active period with every line's
// debit and kredit swapped. The original entry is never touched.
func (s *Service) ReverseEntry(ctx context.Context, entryID, postedBy int64) (JournalEntry, error) {
	if entryID == 0 {
		return JournalEntry{}, errors.New("accounting: entry id required")
	}
	original, err := s.repo.GetWithLines(ctx, entryID)
	if err != nil {
		return JournalEntry{}, err
	}
	if !original.IsPosted {
		return JournalEntry{}, fmt.Errorf("accounting: entry %d is a draft, delete it instead of reversing", entryID)
	}
	active, err := s.periods.ResolveActive(ctx)
	if err != nil {
		return JournalEntry{}, err
	}
	reversal := JournalEntry{
		PeriodID:      active.ID,
		Date:          s.now(),
		Description:   "REVERSAL: " + original.Description,
		Reference:     original.Number,
		ReferenceType: ReferenceTypeReversal,
		PostedBy:      postedBy,
		IsPosted:      true,
		Lines:         swapLines(original.Lines),
	}
	posted, err := s.postWithRetry(ctx, reversal)
	if err != nil {
		return JournalEntry{}, err
	}
	s.recordPosted(ctx, posted, "journal.reverse")
	return posted, nil
}

// postWithRetry runs the posting transaction, regenerating the journal number
// when the random suffix collides. Each attempt is a fresh transaction since
// a unique violation poisons the current one.
func (s *Service) postWithRetry(ctx context.Context, entry JournalEntry) (JournalEntry, error) {
	var posted JournalEntry
	for attempt := 0; attempt < maxNumberAttempts; attempt++ {
		err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
			period, err := tx.GetPeriodForUpdate(ctx, entry.PeriodID)
			if err != nil {
				return err
			}
			if period.Closed() {
				return shared.ErrPeriodClosed
			}
			if entry.Date.Before(period.StartDate) || entry.Date.After(period.EndDate) {
				return fmt.Errorf("%w: %s not in [%s, %s]", shared.ErrDateOutOfRange,
					entry.Date.Format("2006-01-02"), period.StartDate.Format("2006-01-02"), period.EndDate.Format("2006-01-02"))
			}
			if err := s.checkAccounts(ctx, tx, entry.Lines); err != nil {
				return err
			}
			entry.Number = NewNumber(s.prefix, entry.Date)
			inserted, err := tx.InsertEntry(ctx, entry)
			if err != nil {
				return err
			}
			if err := tx.InsertLines(ctx, inserted.ID, entry.Lines); err != nil {
				return err
			}
			posted = inserted
			return nil
		})
		if errors.Is(err, shared.ErrNumberCollision) {
			continue
		}
		if err != nil {
			return JournalEntry{}, err
		}
		return posted, nil
	}
	return JournalEntry{}, shared.ErrNumberCollision
}

func (s *Service) checkAccounts(ctx context.Context, tx TxRepository, lines []JournalLine) error {
	ids := make([]int64, 0, len(lines))
	for _, line := range lines {
		ids = append(ids, line.AccountID)
	}
	found, err := tx.GetAccounts(ctx, ids)
	if err != nil {
		return err
	}
	for _, line := range lines {
		account, ok := found[line.AccountID]
		if !ok {
			return fmt.Errorf("%w: account %d", shared.ErrUnknownAccount, line.AccountID)
		}
		if !account.IsActive {
			return fmt.Errorf("%w: account %s is deactivated", shared.ErrUnknownAccount, account.Code)
		}
	}
	return nil
}

// SaveDraft stores an unposted entry. Drafts are not required to balance.
func (s *Service) SaveDraft(ctx context.Context, input DraftInput) (JournalEntry, error) {
	if input.Date.IsZero() {
		return JournalEntry{}, errors.New("accounting: entry date required")
	}
	periodID := input.PeriodID
	if periodID == 0 {
		active, err := s.periods.ResolveActive(ctx)
		if err != nil {
			return JournalEntry{}, err
		}
		periodID = active.ID
	}
	var draft JournalEntry
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		period, err := tx.GetPeriodForUpdate(ctx, periodID)
		if err != nil {
			return err
		}
		if period.Closed() {
			return shared.ErrPeriodClosed
		}
		entry := JournalEntry{
			PeriodID:      periodID,
			Date:          input.Date,
			Description:   input.Description,
			Reference:     input.Reference,
			ReferenceType: input.ReferenceType,
			PostedBy:      input.ActorID,
			IsPosted:      false,
			Lines:         toLines(input.Lines),
		}
		inserted, err := tx.InsertEntry(ctx, entry)
		if err != nil {
			return err
		}
		if err := tx.InsertLines(ctx, inserted.ID, entry.Lines); err != nil {
			return err
		}
		draft = inserted
		return nil
	})
	if err != nil {
		return JournalEntry{}, err
	}
	return draft, nil
}

// UpdateDraft replaces a draft's header and lines. Posted entries are
// immutable and can only be corrected by reversal.
func (s *Service) UpdateDraft(ctx context.Context, id int64, input DraftInput) error {
	return s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		current, err := tx.GetEntryWithLines(ctx, id)
		if err != nil {
			return err
		}
		if current.IsPosted {
			return shared.ErrEntryPosted
		}
		current.Date = input.Date
		current.Description = input.Description
		current.Reference = input.Reference
		current.ReferenceType = input.ReferenceType
		if input.PeriodID != 0 {
			current.PeriodID = input.PeriodID
		}
		current.Lines = toLines(input.Lines)
		return tx.UpdateDraft(ctx, current)
	})
}

// DeleteDraft removes a draft entry and its lines.
func (s *Service) DeleteDraft(ctx context.Context, id, actorID int64) error {
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		current, err := tx.GetEntryWithLines(ctx, id)
		if err != nil {
			return err
		}
		if current.IsPosted {
			return shared.ErrEntryPosted
		}
		return tx.DeleteDraft(ctx, id)
	})
	if err != nil {
		return err
	}
	if s.audit != nil {
		_ = s.audit.Record(ctx, internalShared.AuditRecord{
			Table:     "journal_entries",
			RecordID:  strconv.FormatInt(id, 10),
			Action:    "journal.draft_delete",
			ChangedBy: actorID,
			At:        s.now(),
		})
	}
	return nil
}

// PostDraft runs full posting validation against a stored draft and marks it
// posted with a freshly assigned journal number.
func (s *Service) PostDraft(ctx context.Context, id, postedBy int64) (JournalEntry, error) {
	var posted JournalEntry
	for attempt := 0; attempt < maxNumberAttempts; attempt++ {
		err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
			draft, err := tx.GetEntryWithLines(ctx, id)
			if err != nil {
				return err
			}
			if draft.IsPosted {
				return shared.ErrEntryPosted
			}
			input := PostingInput{
				PeriodID: draft.PeriodID,
				Date:     draft.Date,
				Lines:    toLineInputs(draft.Lines),
			}
			if err := input.Validate(); err != nil {
				return err
			}
			period, err := tx.GetPeriodForUpdate(ctx, draft.PeriodID)
			if err != nil {
				return err
			}
			if period.Closed() {
				return shared.ErrPeriodClosed
			}
			if err := s.checkAccounts(ctx, tx, draft.Lines); err != nil {
				return err
			}
			number := NewNumber(s.prefix, draft.Date)
			if err := tx.MarkPosted(ctx, id, number, postedBy); err != nil {
				return err
			}
			draft.Number = number
			draft.IsPosted = true
			draft.PostedBy = postedBy
			posted = draft
			return nil
		})
		if errors.Is(err, shared.ErrNumberCollision) {
			continue
		}
		if err != nil {
			return JournalEntry{}, err
		}
		s.recordPosted(ctx, posted, "journal.post_draft")
		return posted, nil
	}
	return JournalEntry{}, shared.ErrNumberCollision
}

func (s *Service) recordPosted(ctx context.Context, entry JournalEntry, action string) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, internalShared.AuditRecord{
		Table:    "journal_entries",
		RecordID: strconv.FormatInt(entry.ID, 10),
		Action:   action,
		NewValues: map[string]any{
			"journal_number": entry.Number,
			"period_id":      entry.PeriodID,
			"reference_type": entry.ReferenceType,
			"total_debit":    entry.TotalDebit(),
			"total_kredit":   entry.TotalKredit(),
		},
		ChangedBy: entry.PostedBy,
		At:        s.now(),
	})
}

func toLines(inputs []LineInput) []JournalLine {
	out := make([]JournalLine, 0, len(inputs))
	for _, in := range inputs {
		out = append(out, JournalLine{
			AccountID:   in.AccountID,
			Debit:       in.Debit,
			Kredit:      in.Kredit,
			Description: in.Description,
		})
	}
	return out
}

func toLineInputs(lines []JournalLine) []LineInput {
	out := make([]LineInput, 0, len(lines))
	for _, line := range lines {
		out = append(out, LineInput{
			AccountID:   line.AccountID,
			Debit:       line.Debit,
			Kredit:      line.Kredit,
			Description: line.Description,
		})
	}
	return out
}

func swapLines(lines []JournalLine) []JournalLine {
	out := make([]JournalLine, 0, len(lines))
	for _, line := range lines {
		out = append(out, JournalLine{
			AccountID:   line.AccountID,
			Debit:       line.Kredit,
			Kredit:      line.Debit,
			Description: line.Description,
		})
	}
	return out
}
