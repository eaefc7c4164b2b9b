package close

import (
	"github.com/tokoprima/tokoprima/internal/accounting/accounts"
	"github.com/tokoprima/tokoprima/internal/accounting/journals"
	"github.com/tokoprima/tokoprima/internal/accounting/reports"
)

// Plan is the precomputed effect of a close: the lines that zero every
// temporary account into retained earnings, the resulting net income, and the
// opening balances carried into the successor period.
type Plan struct {
	Lines           []journals.JournalLine
	NetIncome       int64
	TotalRevenue    int64
	TotalExpense    int64
	OpeningBalances []OpeningBalance
}

// BuildPlan derives the closing plan from the period's account balances. It
// is pure: the caller persists the result inside its own transaction.
//
// Revenue accounts are debited back to zero, expense accounts credited back
// to zero, and the net lands on retained earnings. A contra balance simply
// swaps the side of its zeroing line, so the entry balances by construction.
func BuildPlan(balances []reports.AccountBalance, retainedAccountID, successorID int64) Plan {
	plan := Plan{}
	for _, acc := range balances {
		closing := acc.Closing()
		switch acc.Type {
		case accounts.AccountTypeRevenue:
			plan.TotalRevenue += closing
			if closing != 0 {
				plan.Lines = append(plan.Lines, zeroingLine(acc, closing, true))
			}
		case accounts.AccountTypeExpense:
			plan.TotalExpense += closing
			if closing != 0 {
				plan.Lines = append(plan.Lines, zeroingLine(acc, closing, false))
			}
		}
	}
	plan.NetIncome = plan.TotalRevenue - plan.TotalExpense
	if len(plan.Lines) > 0 && plan.NetIncome != 0 {
		line := journals.JournalLine{AccountID: retainedAccountID, Description: "Laba/rugi periode berjalan"}
		if plan.NetIncome > 0 {
			line.Kredit = plan.NetIncome
		} else {
			line.Debit = -plan.NetIncome
		}
		plan.Lines = append(plan.Lines, line)
	}

	retainedSeen := false
	for _, acc := range balances {
		balance := acc.Closing()
		switch acc.Type {
		case accounts.AccountTypeRevenue, accounts.AccountTypeExpense:
			continue // zeroed by the closing entry
		}
		if acc.AccountID == retainedAccountID {
			retainedSeen = true
			balance += plan.NetIncome
		}
		if balance == 0 {
			continue
		}
		plan.OpeningBalances = append(plan.OpeningBalances, OpeningBalance{
			PeriodID:  successorID,
			AccountID: acc.AccountID,
			Balance:   balance,
		})
	}
	if !retainedSeen && plan.NetIncome != 0 {
		plan.OpeningBalances = append(plan.OpeningBalances, OpeningBalance{
			PeriodID:  successorID,
			AccountID: retainedAccountID,
			Balance:   plan.NetIncome,
		})
	}
	return plan
}

// zeroingLine produces the line that brings one temporary account to zero.
// creditNormal true means revenue: a positive balance is reversed with a
// debit; expense is the mirror image.
func zeroingLine(acc reports.AccountBalance, closing int64, creditNormal bool) journals.JournalLine {
	line := journals.JournalLine{AccountID: acc.AccountID, Description: "Penutupan " + acc.Name}
	positiveSide := &line.Debit
	negativeSide := &line.Kredit
	if !creditNormal {
		positiveSide, negativeSide = negativeSide, positiveSide
	}
	if closing > 0 {
		*positiveSide = closing
	} else {
		*negativeSide = -closing
	}
	return line
}
