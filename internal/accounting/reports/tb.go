package reports

import (
	"sort"

	"github.com/tokoprima/tokoprima/internal/accounting/accounts"
)

// TrialBalanceRow is one account inside a trial balance section.
type TrialBalanceRow struct {
	Code    string
	Name    string
	Opening int64
	Debit   int64
	Kredit  int64
	Closing int64
}

// TrialBalanceSection groups accounts of one type.
type TrialBalanceSection struct {
	Type    accounts.AccountType
	Rows    []TrialBalanceRow
	Opening int64
	Debit   int64
	Kredit  int64
	Closing int64
}

// TrialBalance is the authoritative integrity check of the ledger. IsBalanced
// false is reported as-is, never corrected.
type TrialBalance struct {
	Sections          []TrialBalanceSection
	TotalDebit        int64
	TotalKredit       int64
	TotalDebitNormal  int64
	TotalKreditNormal int64
	IsBalanced        bool
}

var sectionOrder = []accounts.AccountType{
	accounts.AccountTypeAsset,
	accounts.AccountTypeLiability,
	accounts.AccountTypeEquity,
	accounts.AccountTypeRevenue,
	accounts.AccountTypeExpense,
}

// BuildTrialBalance buckets account balances by type and checks that the
// debit-normal side equals the credit-normal side.
func BuildTrialBalance(balances []AccountBalance) TrialBalance {
	byType := make(map[accounts.AccountType]*TrialBalanceSection)
	for _, t := range sectionOrder {
		byType[t] = &TrialBalanceSection{Type: t}
	}

	result := TrialBalance{}
	for _, acc := range balances {
		section, ok := byType[acc.Type]
		if !ok {
			continue
		}
		row := TrialBalanceRow{
			Code:    acc.Code,
			Name:    acc.Name,
			Opening: acc.Opening,
			Debit:   acc.Debit,
			Kredit:  acc.Kredit,
			Closing: acc.Closing(),
		}
		section.Rows = append(section.Rows, row)
		section.Opening += row.Opening
		section.Debit += row.Debit
		section.Kredit += row.Kredit
		section.Closing += row.Closing

		result.TotalDebit += row.Debit
		result.TotalKredit += row.Kredit
		if acc.Type.DebitNormal() {
			result.TotalDebitNormal += row.Closing
		} else {
			result.TotalKreditNormal += row.Closing
		}
	}

	for _, t := range sectionOrder {
		section := byType[t]
		sort.Slice(section.Rows, func(i, j int) bool { return section.Rows[i].Code < section.Rows[j].Code })
		result.Sections = append(result.Sections, *section)
	}
	result.IsBalanced = result.TotalDebitNormal == result.TotalKreditNormal
	return result
}
