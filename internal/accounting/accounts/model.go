package accounts

import "time"

// AccountType enumerates CoA categories.
type AccountType string

const (
	AccountTypeAsset     AccountType = "ASSET"
	AccountTypeLiability AccountType = "LIABILITY"
	AccountTypeEquity    AccountType = "EQUITY"
	AccountTypeRevenue   AccountType = "REVENUE"
	AccountTypeExpense   AccountType = "EXPENSE"
)

// Valid reports whether the type is one of the five CoA categories.
func (t AccountType) Valid() bool {
	switch t {
	case AccountTypeAsset, AccountTypeLiability, AccountTypeEquity, AccountTypeRevenue, AccountTypeExpense:
		return true
	default:
		return false
	}
}

// DebitNormal reports whether balances of this type accumulate on the debit side.
// The mapping is fixed and is never overridden per account.
func (t AccountType) DebitNormal() bool {
	return t == AccountTypeAsset || t == AccountTypeExpense
}

// Account models a chart of accounts node.
type Account struct {
	ID        int64
	Code      string
	Name      string
	Type      AccountType
	Category  string
	ParentID  *int64
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// CreateInput groups fields required to register an account.
type CreateInput struct {
	Code     string
	Name     string
	Type     AccountType
	Category string
	ParentID *int64
	ActorID  int64
}
