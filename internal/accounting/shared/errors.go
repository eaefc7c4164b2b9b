package shared

import "errors"

var (
	// ErrUnbalanced indicates total debit != total kredit.
	ErrUnbalanced = errors.New("accounting: journal lines must balance")
	// ErrInsufficientLines indicates fewer than two lines carry an amount.
	ErrInsufficientLines = errors.New("accounting: journal requires at least two non-zero lines")
	// ErrUnknownAccount indicates a line references a missing or inactive account.
	ErrUnknownAccount = errors.New("accounting: unknown or inactive account")
	// ErrDuplicateCode indicates the account code is already taken.
	ErrDuplicateCode = errors.New("accounting: account code already exists")
	// ErrInvalidParent indicates a missing parent or an ancestor cycle.
	ErrInvalidParent = errors.New("accounting: invalid parent account")
	// ErrAccountInUse indicates the account is referenced by posted lines.
	ErrAccountInUse = errors.New("accounting: account referenced by posted journal lines")
	// ErrAccountNotFound indicates a missing account.
	ErrAccountNotFound = errors.New("accounting: account not found")
	// ErrNoActivePeriod indicates no period is flagged active.
	ErrNoActivePeriod = errors.New("accounting: no active period")
	// ErrPeriodClosed indicates the target period has been closed.
	ErrPeriodClosed = errors.New("accounting: period is closed")
	// ErrPeriodNotFound indicates a missing period.
	ErrPeriodNotFound = errors.New("accounting: period not found")
	// ErrPeriodOverlap indicates the requested period conflicts with an existing range.
	ErrPeriodOverlap = errors.New("accounting: period overlaps existing range")
	// ErrJournalNotFound indicates a missing entry.
	ErrJournalNotFound = errors.New("accounting: journal entry not found")
	// ErrEntryPosted indicates an edit or delete attempt on a posted entry.
	ErrEntryPosted = errors.New("accounting: posted entries are immutable")
	// ErrNumberCollision indicates the generated journal number was taken.
	ErrNumberCollision = errors.New("accounting: journal number collision")
	// ErrDateOutOfRange indicates the entry date falls outside its period.
	ErrDateOutOfRange = errors.New("accounting: date outside period")
)
