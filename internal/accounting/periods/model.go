package periods

import (
	"errors"
	"strings"
	"time"
)

// Period represents a fiscal period window. Exactly one period is active for
// new postings at a time; a period with ClosedAt set accepts no more entries.
type Period struct {
	ID        int64
	Name      string
	StartDate time.Time
	EndDate   time.Time
	IsActive  bool
	ClosedAt  *time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Closed reports whether the period has been closed.
func (p Period) Closed() bool {
	return p.ClosedAt != nil
}

// CreateInput captures validation rules for new periods.
type CreateInput struct {
	Name      string
	StartDate time.Time
	EndDate   time.Time
	ActorID   int64
}

// Validate ensures the create period input is coherent.
func (in CreateInput) Validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return errors.New("accounting: period name required")
	}
	if in.StartDate.IsZero() || in.EndDate.IsZero() {
		return errors.New("accounting: start and end date required")
	}
	if in.StartDate.After(in.EndDate) {
		return errors.New("accounting: start date cannot be after end date")
	}
	return nil
}
