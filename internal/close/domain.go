package close

import (
	"errors"
	"fmt"
	"time"
)

// ReferenceTypeClosing tags journal entries generated by period closing.
const ReferenceTypeClosing = "CLOSING"

// Issue codes surfaced by pre-close validation.
const (
	IssueUnpostedJournals       = "UNPOSTED_JOURNALS"
	IssueRetainedEarningsAbsent = "RETAINED_EARNINGS_MISSING"
)

// ValidationIssue is one blocking problem found during pre-close validation.
type ValidationIssue struct {
	Code    string
	Message string
}

// ValidationSummary carries the period totals shown alongside the issues.
type ValidationSummary struct {
	TotalRevenue  int64
	TotalExpense  int64
	NetIncome     int64
	UnpostedCount int
}

// ValidationResult is the outcome of ValidatePreClose. IsValid is strictly
// "no issues".
type ValidationResult struct {
	IsValid bool
	Issues  []ValidationIssue
	Summary ValidationSummary
}

// OpeningBalance seeds one account's starting balance in the successor
// period. Balance is signed in the account's normal direction.
type OpeningBalance struct {
	PeriodID  int64
	AccountID int64
	Balance   int64
}

// ClosingRecord is the immutable receipt of a period close.
type ClosingRecord struct {
	ID              int64
	PeriodID        int64
	SuccessorID     int64
	JournalEntryID  int64 // 0 when the period had no revenue or expense activity
	NetIncome       int64
	ClosedBy        int64
	ClosedAt        time.Time
	OpeningBalances []OpeningBalance
}

// CloseInput bundles the parameters of a period close. The successor period
// is always explicit; it is never inferred from date adjacency.
type CloseInput struct {
	PeriodID    int64
	SuccessorID int64
	ActorID     int64
}

func (in CloseInput) Validate() error {
	if in.PeriodID == 0 {
		return errors.New("close: period id required")
	}
	if in.SuccessorID == 0 {
		return ErrNoSuccessorPeriod
	}
	if in.SuccessorID == in.PeriodID {
		return errors.New("close: period cannot be its own successor")
	}
	if in.ActorID == 0 {
		return errors.New("close: actor required")
	}
	return nil
}

// ErrAlreadyClosed is returned when closing a period whose closedAt is set.
var ErrAlreadyClosed = errors.New("close: period already closed")

// ErrNoSuccessorPeriod indicates the caller did not name a target period for
// the opening balances.
var ErrNoSuccessorPeriod = errors.New("close: successor period required")

// ErrSuccessorClosed indicates the named successor can no longer receive
// opening balances.
var ErrSuccessorClosed = errors.New("close: successor period already closed")

// ErrPreCloseValidation matches any PreCloseError via errors.Is.
var ErrPreCloseValidation = errors.New("close: pre-close validation failed")

// ErrRecordNotFound indicates no closing record exists for the period.
var ErrRecordNotFound = errors.New("close: closing record not found")

// PreCloseError carries the concrete validation issues that blocked a close.
type PreCloseError struct {
	Issues []ValidationIssue
}

func (e *PreCloseError) Error() string {
	return fmt.Sprintf("close: pre-close validation failed with %d issue(s)", len(e.Issues))
}

func (e *PreCloseError) Is(target error) bool {
	return target == ErrPreCloseValidation
}
