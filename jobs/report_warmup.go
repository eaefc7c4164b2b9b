package jobs

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/tokoprima/tokoprima/internal/jobs"
)

// ReportWarmer precomputes the standard reports for one period.
type ReportWarmer interface {
	Warm(ctx context.Context, periodID int64) error
}

// ReportWarmupJob keeps the report cache hot so the first dashboard hit after
// a cache expiry does not pay the aggregation cost.
type ReportWarmupJob struct {
	reports ReportWarmer
	logger  *slog.Logger
	jm      *jobmetrics.Metrics
}

func NewReportWarmupJob(reports ReportWarmer, logger *slog.Logger, jm *jobmetrics.Metrics) *ReportWarmupJob {
	return &ReportWarmupJob{reports: reports, logger: logger, jm: jm}
}

// Handle processes TaskTypeReportWarmup tasks.
func (j *ReportWarmupJob) Handle(ctx context.Context, t *asynq.Task) error {
	tracker := j.jm.Track("report_warmup")
	var payload ReportWarmupPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return tracker.End(asynq.SkipRetry)
	}
	if err := j.reports.Warm(ctx, payload.PeriodID); err != nil {
		j.logger.Warn("report warmup failed",
			slog.Int64("period_id", payload.PeriodID),
			slog.Any("error", err))
		return tracker.End(err)
	}
	j.logger.Info("report cache warmed", slog.Int64("period_id", payload.PeriodID))
	return tracker.End(nil)
}
