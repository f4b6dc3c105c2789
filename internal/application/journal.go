package application

import (
	"context"
	"fmt"
	"sync"

	"github.com/bnema/weibo-autopilot/internal/domain"
	"github.com/bnema/weibo-autopilot/internal/ports"
)

// Journal keeps the autopilot's durable state in a document store: the
// repost history, the single pending-task slot and the learned profile.
type Journal struct {
	store ports.DocumentStore
	clock ports.Clock
	mu    sync.Mutex
}

var _ ports.TaskJournal = (*Journal)(nil)

func NewJournal(store ports.DocumentStore, clock ports.Clock) *Journal {
	if clock == nil {
		clock = ports.SystemClock{}
	}
	return &Journal{store: store, clock: clock}
}

func (j *Journal) History(ctx context.Context) domain.RepostHistory {
	var doc historySchema
	if !j.store.Load(ctx, HistoryDocument, &doc) {
		return domain.RepostHistory{}
	}
	return fromHistorySchema(doc)
}

func (j *Journal) HasReposted(ctx context.Context, id domain.PostID) bool {
	return j.History(ctx).Contains(id)
}

// RecordRepost appends a record stamped now, evicting the oldest entries
// beyond the retention cap.
func (j *Journal) RecordRepost(ctx context.Context, id domain.PostID, postURL, comment string) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	history := j.History(ctx)
	history.Append(domain.RepostRecord{
		PostID:    id,
		PostURL:   postURL,
		Comment:   comment,
		Timestamp: j.clock.Now().UTC(),
	})

	if err := j.store.Save(ctx, HistoryDocument, toHistorySchema(history)); err != nil {
		return fmt.Errorf("save repost history: %w", err)
	}
	return nil
}

// Pending returns the pending task, if one was left behind.
func (j *Journal) Pending(ctx context.Context) (domain.PendingTask, bool) {
	var doc pendingSchema
	if !j.store.Load(ctx, PendingDocument, &doc) || doc.PostURL == "" {
		return domain.PendingTask{}, false
	}
	return domain.PendingTask{PostURL: doc.PostURL, Comment: doc.Comment, StartedAt: doc.StartedAt}, true
}

func (j *Journal) SavePending(ctx context.Context, task domain.PendingTask) error {
	doc := pendingSchema{PostURL: task.PostURL, Comment: task.Comment, StartedAt: task.StartedAt.UTC()}
	if err := j.store.Save(ctx, PendingDocument, doc); err != nil {
		return fmt.Errorf("save pending task: %w", err)
	}
	return nil
}

// ClearPending empties the pending slot. The document is kept as null.
func (j *Journal) ClearPending(ctx context.Context) error {
	if err := j.store.Save(ctx, PendingDocument, nil); err != nil {
		return fmt.Errorf("clear pending task: %w", err)
	}
	return nil
}

func (j *Journal) Profile(ctx context.Context) (domain.UserProfile, error) {
	var doc profileSchema
	if !j.store.Load(ctx, ProfileDocument, &doc) {
		return domain.UserProfile{}, domain.ErrProfileNotFound
	}
	return fromProfileSchema(doc), nil
}

func (j *Journal) SaveProfile(ctx context.Context, profile domain.UserProfile) error {
	if err := j.store.Save(ctx, ProfileDocument, toProfileSchema(profile)); err != nil {
		return fmt.Errorf("save user profile: %w", err)
	}
	return nil
}
