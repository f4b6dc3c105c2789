package application

import (
	"context"
	"time"

	"github.com/bnema/weibo-autopilot/internal/domain"
)

// Status is a read-only view of the autopilot's persisted state.
type Status struct {
	Pending        *domain.PendingTask
	Recent         []domain.RepostRecord
	TotalReposts   int
	ProfileLearned bool
	ProfileUpdated time.Time
	Topics         []string
}

// Status collects the pending task, the newest limit reposts and a profile
// summary.
func (j *Journal) Status(ctx context.Context, limit int) Status {
	history := j.History(ctx)
	status := Status{
		Recent:       history.Recent(limit),
		TotalReposts: len(history.Reposts),
	}

	if task, ok := j.Pending(ctx); ok {
		status.Pending = &task
	}
	if profile, err := j.Profile(ctx); err == nil {
		status.ProfileLearned = true
		status.ProfileUpdated = profile.LastUpdated
		status.Topics = profile.Topics
	}
	return status
}
