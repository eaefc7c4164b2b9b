package journals

import "time"

// JournalEntry captures posting metadata. Amounts on its lines are integral
// minor currency units; a posted entry always has equal debit and kredit
// totals and is immutable afterwards.
type JournalEntry struct {
	ID            int64
	Number        string
	PeriodID      int64
	Date          time.Time
	Description   string
	Reference     string
	ReferenceType string
	PostedBy      int64
	IsPosted      bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
	Lines         []JournalLine
}

// TotalDebit sums the debit side of all lines.
func (e JournalEntry) TotalDebit() int64 {
	var total int64
	for _, line := range e.Lines {
		total += line.Debit
	}
	return total
}

// TotalKredit sums the kredit side of all lines.
func (e JournalEntry) TotalKredit() int64 {
	var total int64
	for _, line := range e.Lines {
		total += line.Kredit
	}
	return total
}

// JournalLine stores a debit or kredit amount for an account.
type JournalLine struct {
	ID          int64
	JournalID   int64
	AccountID   int64
	Debit       int64
	Kredit      int64
	Description string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
