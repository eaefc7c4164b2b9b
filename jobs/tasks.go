package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskTypeGLIntegrity re-verifies that posted journals balance per period.
	TaskTypeGLIntegrity = "gl:integrity"
	// TaskTypeReportWarmup precomputes the standard reports into the cache.
	TaskTypeReportWarmup = "report:warmup"
)

// GLIntegrityPayload selects the period to verify. A zero PeriodID means
// every open period.
type GLIntegrityPayload struct {
	PeriodID int64 `json:"periodId"`
}

// ReportWarmupPayload selects the period to warm. A zero PeriodID means the
// active period.
type ReportWarmupPayload struct {
	PeriodID int64 `json:"periodId"`
}

// NewGLIntegrityTask constructs an Asynq task.
func NewGLIntegrityTask(payload GLIntegrityPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeGLIntegrity, data), nil
}

// NewReportWarmupTask constructs an Asynq task.
func NewReportWarmupTask(payload ReportWarmupPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeReportWarmup, data), nil
}
