package gl

import (
	"time"

	"github.com/tokoprima/tokoprima/internal/accounting/accounts"
)

// Movement is one posted journal line joined with its entry header, the raw
// material of a ledger.
type Movement struct {
	Date          time.Time
	JournalID     int64
	JournalNumber string
	Description   string
	Reference     string
	Debit         int64
	Kredit        int64
}

// Row is a movement with the running balance after applying it.
type Row struct {
	Movement
	Balance int64
}

// Ledger is the computed general ledger of one account over a date range.
// Balances accumulate in the account's natural sign, so a healthy account
// reads positively.
type Ledger struct {
	Account     accounts.Account
	From        time.Time
	To          time.Time
	Opening     int64
	Rows        []Row
	TotalDebit  int64
	TotalKredit int64
	Closing     int64
}

// Query selects the account and window for a ledger computation. PeriodID 0
// resolves to the active period; zero From/To default to the period bounds.
type Query struct {
	AccountID int64
	PeriodID  int64
	From      time.Time
	To        time.Time
}
