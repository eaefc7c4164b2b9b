package accounts

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/tokoprima/tokoprima/internal/accounting/shared"
	internalShared "github.com/tokoprima/tokoprima/internal/shared"
)

// AuditPort records chart-of-accounts mutations.
type AuditPort interface {
	Record(ctx context.Context, rec internalShared.AuditRecord) error
}

// Service manages the chart of accounts.
type Service struct {
	repo  Repository
	audit AuditPort
	now   func() time.Time
}

func NewService(repo Repository, audit AuditPort) *Service {
	return &Service{repo: repo, audit: audit, now: time.Now}
}

// WithNow overrides the clock for deterministic tests.
func (s *Service) WithNow(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

func (s *Service) List(ctx context.Context, includeInactive bool) ([]Account, error) {
	return s.repo.List(ctx, includeInactive)
}

func (s *Service) Get(ctx context.Context, id int64) (Account, error) {
	return s.repo.Get(ctx, id)
}

// Create registers a new account after checking the code is free and the
// parent chain stays acyclic.
func (s *Service) Create(ctx context.Context, in CreateInput) (Account, error) {
	if strings.TrimSpace(in.Code) == "" {
		return Account{}, errors.New("accounting: account code required")
	}
	if strings.TrimSpace(in.Name) == "" {
		return Account{}, errors.New("accounting: account name required")
	}
	if !in.Type.Valid() {
		return Account{}, fmt.Errorf("accounting: invalid account type %q", in.Type)
	}
	if _, err := s.repo.GetByCode(ctx, in.Code); err == nil {
		return Account{}, shared.ErrDuplicateCode
	} else if !errors.Is(err, shared.ErrAccountNotFound) {
		return Account{}, err
	}
	if in.ParentID != nil {
		if err := s.checkParentChain(ctx, 0, *in.ParentID); err != nil {
			return Account{}, err
		}
	}
	account, err := s.repo.Insert(ctx, in)
	if err != nil {
		return Account{}, err
	}
	if s.audit != nil {
		_ = s.audit.Record(ctx, internalShared.AuditRecord{
			Table:    "accounts",
			RecordID: strconv.FormatInt(account.ID, 10),
			Action:   "account.create",
			NewValues: map[string]any{
				"code": account.Code,
				"name": account.Name,
				"type": string(account.Type),
			},
			ChangedBy: in.ActorID,
			At:        s.now(),
		})
	}
	return account, nil
}

// checkParentChain verifies the parent exists and walks its ancestors,
// rejecting when selfID appears in the chain. selfID 0 means a fresh node.
func (s *Service) checkParentChain(ctx context.Context, selfID, parentID int64) error {
	seen := map[int64]bool{}
	next := &parentID
	for next != nil {
		id := *next
		if id == selfID || seen[id] {
			return shared.ErrInvalidParent
		}
		seen[id] = true
		parent, err := s.repo.Get(ctx, id)
		if err != nil {
			if errors.Is(err, shared.ErrAccountNotFound) {
				return shared.ErrInvalidParent
			}
			return err
		}
		next = parent.ParentID
	}
	return nil
}

// Reparent moves an account under a new parent (nil detaches it).
func (s *Service) Reparent(ctx context.Context, id int64, parentID *int64, actorID int64) error {
	account, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if parentID != nil {
		if err := s.checkParentChain(ctx, id, *parentID); err != nil {
			return err
		}
	}
	if err := s.repo.SetParent(ctx, id, parentID); err != nil {
		return err
	}
	if s.audit != nil {
		_ = s.audit.Record(ctx, internalShared.AuditRecord{
			Table:     "accounts",
			RecordID:  strconv.FormatInt(id, 10),
			Action:    "account.reparent",
			OldValues: map[string]any{"parent_id": account.ParentID},
			NewValues: map[string]any{"parent_id": parentID},
			ChangedBy: actorID,
			At:        s.now(),
		})
	}
	return nil
}

// Deactivate blocks future postings to the account. Historical reports keep
// resolving deactivated accounts.
func (s *Service) Deactivate(ctx context.Context, id, actorID int64) error {
	account, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.SetActive(ctx, id, false); err != nil {
		return err
	}
	if s.audit != nil {
		_ = s.audit.Record(ctx, internalShared.AuditRecord{
			Table:     "accounts",
			RecordID:  strconv.FormatInt(id, 10),
			Action:    "account.deactivate",
			OldValues: map[string]any{"is_active": account.IsActive},
			NewValues: map[string]any{"is_active": false},
			ChangedBy: actorID,
			At:        s.now(),
		})
	}
	return nil
}

// Reactivate lifts the posting block again.
func (s *Service) Reactivate(ctx context.Context, id, actorID int64) error {
	if _, err := s.repo.Get(ctx, id); err != nil {
		return err
	}
	if err := s.repo.SetActive(ctx, id, true); err != nil {
		return err
	}
	if s.audit != nil {
		_ = s.audit.Record(ctx, internalShared.AuditRecord{
			Table:     "accounts",
			RecordID:  strconv.FormatInt(id, 10),
			Action:    "account.reactivate",
			NewValues: map[string]any{"is_active": true},
			ChangedBy: actorID,
			At:        s.now(),
		})
	}
	return nil
}

// Delete removes an account that has never been posted to. Accounts referenced
// by posted journal lines must stay resolvable and can only be deactivated.
func (s *Service) Delete(ctx context.Context, id, actorID int64) error {
	account, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	used, err := s.repo.HasPostedLines(ctx, id)
	if err != nil {
		return err
	}
	if used {
		return shared.ErrAccountInUse
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	if s.audit != nil {
		_ = s.audit.Record(ctx, internalShared.AuditRecord{
			Table:     "accounts",
			RecordID:  strconv.FormatInt(id, 10),
			Action:    "account.delete",
			OldValues: map[string]any{"code": account.Code, "name": account.Name},
			ChangedBy: actorID,
			At:        s.now(),
		})
	}
	return nil
}
