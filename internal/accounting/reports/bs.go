package reports

import (
	"sort"

	"github.com/tokoprima/tokoprima/internal/accounting/accounts"
)

// BalanceSheetRow summarises an account for assets, liabilities, or equity.
type BalanceSheetRow struct {
	Code    string
	Name    string
	Balance int64
}

// BalanceSheetSection contains the accounts and total for a classification.
type BalanceSheetSection struct {
	Label string
	Rows  []BalanceSheetRow
	Total int64
}

// BalanceSheet checks the fundamental accounting equation: assets equal
// liabilities plus equity.
type BalanceSheet struct {
	Assets                    BalanceSheetSection
	Liabilities               BalanceSheetSection
	Equity                    BalanceSheetSection
	TotalLiabilitiesAndEquity int64
	IsBalanced                bool
}

// BuildBalanceSheet aggregates balances into asset, liability, and equity
// sections. Before the period is closed, revenue and expense activity has not
// yet reached retained earnings, so their net effect is shown as a synthetic
// "Laba Berjalan" equity row; after closing that row is zero.
func BuildBalanceSheet(balances []AccountBalance) BalanceSheet {
	assets := BalanceSheetSection{Label: "Aktiva"}
	liabilities := BalanceSheetSection{Label: "Kewajiban"}
	equity := BalanceSheetSection{Label: "Ekuitas"}

	var currentEarnings int64
	for _, acc := range balances {
		row := BalanceSheetRow{Code: acc.Code, Name: acc.Name, Balance: acc.Closing()}
		switch acc.Type {
		case accounts.AccountTypeAsset:
			assets.Rows = append(assets.Rows, row)
			assets.Total += row.Balance
		case accounts.AccountTypeLiability:
			liabilities.Rows = append(liabilities.Rows, row)
			liabilities.Total += row.Balance
		case accounts.AccountTypeEquity:
			equity.Rows = append(equity.Rows, row)
			equity.Total += row.Balance
		case accounts.AccountTypeRevenue:
			currentEarnings += row.Balance
		case accounts.AccountTypeExpense:
			currentEarnings -= row.Balance
		}
	}

	sort.Slice(assets.Rows, func(i, j int) bool { return assets.Rows[i].Code < assets.Rows[j].Code })
	sort.Slice(liabilities.Rows, func(i, j int) bool { return liabilities.Rows[i].Code < liabilities.Rows[j].Code })
	sort.Slice(equity.Rows, func(i, j int) bool { return equity.Rows[i].Code < equity.Rows[j].Code })

	if currentEarnings != 0 {
		equity.Rows = append(equity.Rows, BalanceSheetRow{Name: "Laba Berjalan", Balance: currentEarnings})
		equity.Total += currentEarnings
	}

	totalRight := liabilities.Total + equity.Total
	return BalanceSheet{
		Assets:                    assets,
		Liabilities:               liabilities,
		Equity:                    equity,
		TotalLiabilitiesAndEquity: totalRight,
		IsBalanced:                assets.Total == totalRight,
	}
}
