package periods

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/tokoprima/tokoprima/internal/accounting/shared"
)

type memPeriodRepo struct {
	periods map[int64]Period
	nextID  int64
}

func newMemPeriodRepo() *memPeriodRepo {
	return &memPeriodRepo{periods: map[int64]Period{}, nextID: 1}
}

func (m *memPeriodRepo) List(context.Context) ([]Period, error) {
	var out []Period
	for _, p := range m.periods {
		out = append(out, p)
	}
	return out, nil
}

func (m *memPeriodRepo) Get(_ context.Context, id int64) (Period, error) {
	p, ok := m.periods[id]
	if !ok {
		return Period{}, shared.ErrPeriodNotFound
	}
	return p, nil
}

func (m *memPeriodRepo) GetActive(context.Context) (Period, error) {
	for _, p := range m.periods {
		if p.IsActive {
			return p, nil
		}
	}
	return Period{}, shared.ErrNoActivePeriod
}

func (m *memPeriodRepo) Insert(_ context.Context, in CreateInput) (Period, error) {
	p := Period{ID: m.nextID, Name: in.Name, StartDate: in.StartDate, EndDate: in.EndDate}
	m.nextID++
	m.periods[p.ID] = p
	return p, nil
}

func (m *memPeriodRepo) RangeConflict(_ context.Context, start, end time.Time) (bool, error) {
	for _, p := range m.periods {
		if !p.StartDate.After(end) && !p.EndDate.Before(start) {
			return true, nil
		}
	}
	return false, nil
}

func (m *memPeriodRepo) Activate(_ context.Context, id int64) error {
	if _, ok := m.periods[id]; !ok {
		return shared.ErrPeriodNotFound
	}
	for pid, p := range m.periods {
		p.IsActive = pid == id
		m.periods[pid] = p
	}
	return nil
}

func augustInput() CreateInput {
	return CreateInput{
		Name:      "Agustus 2026",
		StartDate: time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC),
		ActorID:   1,
	}
}

func TestCreatePeriod(t *testing.T) {
	svc := NewService(newMemPeriodRepo(), nil)

	period, err := svc.Create(context.Background(), augustInput())
	require.NoError(t, err)
	require.Equal(t, "Agustus 2026", period.Name)
	require.False(t, period.IsActive)
}

func TestCreatePeriodRejectsOverlap(t *testing.T) {
	svc := NewService(newMemPeriodRepo(), nil)
	ctx := context.Background()

	_, err := svc.Create(ctx, augustInput())
	require.NoError(t, err)

	overlap := augustInput()
	overlap.Name = "Agustus bis"
	overlap.StartDate = time.Date(2026, 8, 15, 0, 0, 0, 0, time.UTC)
	overlap.EndDate = time.Date(2026, 9, 15, 0, 0, 0, 0, time.UTC)
	_, err = svc.Create(ctx, overlap)
	require.ErrorIs(t, err, shared.ErrPeriodOverlap)
}

func TestCreatePeriodValidatesInput(t *testing.T) {
	svc := NewService(newMemPeriodRepo(), nil)

	in := augustInput()
	in.Name = "  "
	_, err := svc.Create(context.Background(), in)
	require.Error(t, err)

	in = augustInput()
	in.StartDate, in.EndDate = in.EndDate, in.StartDate
	_, err = svc.Create(context.Background(), in)
	require.Error(t, err)
}

func TestActivateIsExclusive(t *testing.T) {
	repo := newMemPeriodRepo()
	svc := NewService(repo, nil)
	ctx := context.Background()

	first, err := svc.Create(ctx, augustInput())
	require.NoError(t, err)
	second, err := svc.Create(ctx, CreateInput{
		Name:      "September 2026",
		StartDate: time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2026, 9, 30, 0, 0, 0, 0, time.UTC),
		ActorID:   1,
	})
	require.NoError(t, err)

	_, err = svc.Activate(ctx, first.ID, 1)
	require.NoError(t, err)
	_, err = svc.Activate(ctx, second.ID, 1)
	require.NoError(t, err)

	active, err := svc.ResolveActive(ctx)
	require.NoError(t, err)
	require.Equal(t, second.ID, active.ID)
	got, err := svc.Get(ctx, first.ID)
	require.NoError(t, err)
	require.False(t, got.IsActive)
}

func TestActivateRejectsClosedPeriod(t *testing.T) {
	repo := newMemPeriodRepo()
	svc := NewService(repo, nil)
	ctx := context.Background()

	period, err := svc.Create(ctx, augustInput())
	require.NoError(t, err)
	closedAt := time.Now()
	p := repo.periods[period.ID]
	p.ClosedAt = &closedAt
	repo.periods[period.ID] = p

	_, err = svc.Activate(ctx, period.ID, 1)
	require.ErrorIs(t, err, shared.ErrPeriodClosed)
}

func TestResolveActiveNone(t *testing.T) {
	svc := NewService(newMemPeriodRepo(), nil)
	_, err := svc.ResolveActive(context.Background())
	require.ErrorIs(t, err, shared.ErrNoActivePeriod)
}
