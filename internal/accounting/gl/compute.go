package gl

import (
	"sort"

	"github.com/tokoprima/tokoprima/internal/accounting/accounts"
)

// SignedAmount folds a debit/kredit pair into the account's natural sign:
// debit-normal accounts grow with debits, credit-normal with kredits.
func SignedAmount(t accounts.AccountType, debit, kredit int64) int64 {
	if t.DebitNormal() {
		return debit - kredit
	}
	return kredit - debit
}

// Compute builds the ledger from an opening balance and raw movements. It is
// pure and deterministic: movements are ordered by (date, journal number)
// before the running balance is accumulated, so identical input always yields
// identical output.
func Compute(account accounts.Account, opening int64, movements []Movement) Ledger {
	rows := make([]Row, 0, len(movements))
	ordered := append([]Movement(nil), movements...)
	sort.SliceStable(ordered, func(i, j int) bool {
		if !ordered[i].Date.Equal(ordered[j].Date) {
			return ordered[i].Date.Before(ordered[j].Date)
		}
		return ordered[i].JournalNumber < ordered[j].JournalNumber
	})

	balance := opening
	var totalDebit, totalKredit int64
	for _, m := range ordered {
		balance += SignedAmount(account.Type, m.Debit, m.Kredit)
		totalDebit += m.Debit
		totalKredit += m.Kredit
		rows = append(rows, Row{Movement: m, Balance: balance})
	}

	return Ledger{
		Account:     account,
		Opening:     opening,
		Rows:        rows,
		TotalDebit:  totalDebit,
		TotalKredit: totalKredit,
		Closing:     balance,
	}
}
