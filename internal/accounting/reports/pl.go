package reports

import (
	"sort"

	"github.com/tokoprima/tokoprima/internal/accounting/accounts"
)

// IncomeStatementRow represents a revenue or expense account summary.
type IncomeStatementRow struct {
	Code   string
	Name   string
	Amount int64
}

// IncomeStatementSection groups accounts by nature.
type IncomeStatementSection struct {
	Label string
	Rows  []IncomeStatementRow
	Total int64
}

// IncomeStatement reports revenue, expenses, and the resulting net income.
type IncomeStatement struct {
	Revenue   IncomeStatementSection
	Expense   IncomeStatementSection
	NetIncome int64
}

// BuildIncomeStatement aggregates balances into revenue and expense sections.
// Amounts are natural-sign, so a contra account shows negatively in its own
// section.
func BuildIncomeStatement(balances []AccountBalance) IncomeStatement {
	revenue := IncomeStatementSection{Label: "Pendapatan"}
	expense := IncomeStatementSection{Label: "Beban"}

	for _, acc := range balances {
		row := IncomeStatementRow{Code: acc.Code, Name: acc.Name, Amount: acc.Closing()}
		switch acc.Type {
		case accounts.AccountTypeRevenue:
			revenue.Rows = append(revenue.Rows, row)
			revenue.Total += row.Amount
		case accounts.AccountTypeExpense:
			expense.Rows = append(expense.Rows, row)
			expense.Total += row.Amount
		}
	}

	sort.Slice(revenue.Rows, func(i, j int) bool { return revenue.Rows[i].Code < revenue.Rows[j].Code })
	sort.Slice(expense.Rows, func(i, j int) bool { return expense.Rows[i].Code < expense.Rows[j].Code })

	return IncomeStatement{
		Revenue:   revenue,
		Expense:   expense,
		NetIncome: revenue.Total - expense.Total,
	}
}
