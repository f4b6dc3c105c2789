package ports

import (
	"context"

	"github.com/bnema/weibo-autopilot/internal/domain"
)

type TaskJournal interface {
	SavePending(ctx context.Context, task domain.PendingTask) error
	ClearPending(ctx context.Context) error
}
