package reports

import (
	"github.com/tokoprima/tokoprima/internal/accounting/accounts"
	"github.com/tokoprima/tokoprima/internal/accounting/gl"
)

// AccountBalance models one account with its period-to-date activity, the
// input of every report builder. Opening carries the balance seeded by the
// previous close, in the account's natural sign.
type AccountBalance struct {
	AccountID int64
	Code      string
	Name      string
	Type      accounts.AccountType
	Opening   int64
	Debit     int64
	Kredit    int64
}

// Closing computes the account's period-to-date balance in natural sign.
func (a AccountBalance) Closing() int64 {
	return a.Opening + gl.SignedAmount(a.Type, a.Debit, a.Kredit)
}
