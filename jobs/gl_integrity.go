package jobs

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/tokoprima/tokoprima/internal/accounting/periods"
	"github.com/tokoprima/tokoprima/internal/accounting/reports"
	jobmetrics "github.com/tokoprima/tokoprima/internal/jobs"
	"github.com/tokoprima/tokoprima/internal/observability"
)

// TrialBalancer computes the trial balance for one period.
type TrialBalancer interface {
	TrialBalance(ctx context.Context, periodID int64) (reports.TrialBalance, error)
}

// PeriodLister enumerates accounting periods.
type PeriodLister interface {
	List(ctx context.Context) ([]periods.Period, error)
}

// GLIntegrityJob recomputes the trial balance and flags any period where
// posted debits and kredits no longer agree. A violation here means data was
// mutated outside the journal engine.
type GLIntegrityJob struct {
	reports TrialBalancer
	periods PeriodLister
	metrics *observability.Metrics
	logger  *slog.Logger
	jm      *jobmetrics.Metrics
}

func NewGLIntegrityJob(reports TrialBalancer, periods PeriodLister, metrics *observability.Metrics, logger *slog.Logger, jm *jobmetrics.Metrics) *GLIntegrityJob {
	return &GLIntegrityJob{reports: reports, periods: periods, metrics: metrics, logger: logger, jm: jm}
}

// Handle processes TaskTypeGLIntegrity tasks.
func (j *GLIntegrityJob) Handle(ctx context.Context, t *asynq.Task) error {
	tracker := j.jm.Track("gl_integrity")
	var payload GLIntegrityPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return tracker.End(asynq.SkipRetry)
	}
	if payload.PeriodID != 0 {
		return tracker.End(j.checkPeriod(ctx, payload.PeriodID))
	}

	list, err := j.periods.List(ctx)
	if err != nil {
		return tracker.End(err)
	}
	for _, period := range list {
		if period.Closed() {
			continue
		}
		if err := j.checkPeriod(ctx, period.ID); err != nil {
			return tracker.End(err)
		}
	}
	return tracker.End(nil)
}

func (j *GLIntegrityJob) checkPeriod(ctx context.Context, periodID int64) error {
	tb, err := j.reports.TrialBalance(ctx, periodID)
	if err != nil {
		return err
	}
	if tb.IsBalanced {
		j.logger.Info("GL integrity check passed",
			slog.Int64("period_id", periodID),
			slog.Int64("debit_normal", tb.TotalDebitNormal))
		return nil
	}
	j.metrics.IntegrityViolation()
	j.logger.Error("GL integrity violation",
		slog.Int64("period_id", periodID),
		slog.Int64("debit_normal", tb.TotalDebitNormal),
		slog.Int64("kredit_normal", tb.TotalKreditNormal))
	return nil
}
