package journals

import (
	"fmt"
	"time"

	"github.com/tokoprima/tokoprima/internal/accounting/shared"
)

// LineInput describes a journal line for a posting request. Exactly one of
// Debit/Kredit is expected to carry an amount; a line with both sides set is
// rejected, a line with neither is ignored for the minimum-line count.
type LineInput struct {
	AccountID   int64
	Debit       int64
	Kredit      int64
	Description string
}

// PostingInput groups fields required to create a journal entry.
// PeriodID 0 means "the currently active period", resolved once per call.
type PostingInput struct {
	PeriodID      int64
	Date          time.Time
	Description   string
	Reference     string
	ReferenceType string
	PostedBy      int64
	Lines         []LineInput
}

// Validate enforces the entry-level balance contract before anything is
// persisted: every rejected invariant names the offending amounts.
func (in PostingInput) Validate() error {
	if in.Date.IsZero() {
		return fmt.Errorf("accounting: entry date required")
	}
	var debit, kredit int64
	nonzero := 0
	for idx, line := range in.Lines {
		if line.AccountID == 0 {
			return fmt.Errorf("accounting: line %d missing account", idx)
		}
		if line.Debit < 0 || line.Kredit < 0 {
			return fmt.Errorf("accounting: line %d negative amount", idx)
		}
		if line.Debit > 0 && line.Kredit > 0 {
			return fmt.Errorf("accounting: line %d cannot be both debit and kredit", idx)
		}
		if line.Debit > 0 || line.Kredit > 0 {
			nonzero++
		}
		debit += line.Debit
		kredit += line.Kredit
	}
	if nonzero < 2 {
		return fmt.Errorf("%w: got %d", shared.ErrInsufficientLines, nonzero)
	}
	if debit != kredit {
		return fmt.Errorf("%w: debit total %d != kredit total %d (difference %d)",
			shared.ErrUnbalanced, debit, kredit, diff(debit, kredit))
	}
	return nil
}

func diff(a, b int64) int64 {
	if a > b {
		return a - b
	}
	return b - a
}

// DraftInput carries fields for saving an unposted entry. Draft lines are not
// required to balance until the draft is posted.
type DraftInput struct {
	PeriodID      int64
	Date          time.Time
	Description   string
	Reference     string
	ReferenceType string
	ActorID       int64
	Lines         []LineInput
}
