package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"math/rand/v2"
	"time"

	"github.com/bnema/weibo-autopilot/internal/domain"
	"github.com/bnema/weibo-autopilot/internal/metrics"
	"github.com/bnema/weibo-autopilot/internal/ports"
	"github.com/google/uuid"
)

const (
	DefaultInterval = 10 * time.Minute
	intervalJitter  = 0.3
)

// FeedEngine is the browser-side half of a cycle.
type FeedEngine interface {
	BrowseAndCollect(ctx context.Context, group string) ([]domain.FeedPost, error)
	Repost(ctx context.Context, postURL, comment string) (bool, error)
}

type AutopilotConfig struct {
	Group    string
	Interval time.Duration
	DryRun   bool
}

type CycleResult struct {
	Outcome string
	Post    domain.FeedPost
	Score   int
	Comment string
}

type Autopilot struct {
	engine  FeedEngine
	journal *Journal
	cfg     AutopilotConfig
	metrics *metrics.Metrics
	clock   ports.Clock
	logger  *slog.Logger
	pick    func(n int) int
	unit    func() float64
	lost    func(error) bool
}

type AutopilotOption func(*Autopilot)

func WithAutopilotClock(clock ports.Clock) AutopilotOption {
	return func(a *Autopilot) {
		if clock != nil {
			a.clock = clock
		}
	}
}

func WithAutopilotLogger(logger *slog.Logger) AutopilotOption {
	return func(a *Autopilot) {
		if logger != nil {
			a.logger = logger
		}
	}
}

func WithMetrics(m *metrics.Metrics) AutopilotOption {
	return func(a *Autopilot) {
		a.metrics = m
	}
}

// WithSessionLost sets the check that tells a dead browser session apart
// from an ordinary cycle failure. Run stops on the first error it accepts.
func WithSessionLost(lost func(error) bool) AutopilotOption {
	return func(a *Autopilot) {
		a.lost = lost
	}
}

// WithRandom replaces the template picker and the [0, 1) source used for
// interval jitter.
func WithRandom(pick func(n int) int, unit func() float64) AutopilotOption {
	return func(a *Autopilot) {
		if pick != nil {
			a.pick = pick
		}
		if unit != nil {
			a.unit = unit
		}
	}
}

func NewAutopilot(engine FeedEngine, journal *Journal, cfg AutopilotConfig, opts ...AutopilotOption) *Autopilot {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}

	a := &Autopilot{
		engine:  engine,
		journal: journal,
		cfg:     cfg,
		clock:   ports.SystemClock{},
		logger:  slog.New(slog.DiscardHandler),
		pick:    rand.IntN,
		unit:    rand.Float64,
	}
	for _, opt := range opts {
		opt(a)
	}
	a.logger = a.logger.With("component", "autopilot")
	return a
}

// RequireProfile loads the learned profile the autopilot scores against.
func RequireProfile(ctx context.Context, journal *Journal) (domain.UserProfile, error) {
	profile, err := journal.Profile(ctx)
	if err != nil {
		return domain.UserProfile{}, fmt.Errorf("%w: run `weibo-autopilot learn` first", err)
	}
	return profile, nil
}

// Run resumes a pending task, then runs cycles until ctx is cancelled. Cycle
// errors are logged and the loop carries on after the next wait, except when
// the browser session is gone: that error is returned.
func (a *Autopilot) Run(ctx context.Context, profile domain.UserProfile) error {
	a.logger.Info("starting autopilot",
		"interval", a.cfg.Interval,
		"group", groupLabel(a.cfg.Group),
		"dry_run", a.cfg.DryRun,
		"topics", profile.Topics,
	)

	if _, err := a.ResumePending(ctx); err != nil {
		if a.sessionLost(err) {
			return fmt.Errorf("resume pending repost: browser session lost: %w", err)
		}
		return err
	}

	for cycle := 1; ; cycle++ {
		if err := ctx.Err(); err != nil {
			return nil
		}

		logger := a.logger.With("cycle", cycle, "cycle_id", uuid.NewString())
		result, err := a.runCycle(ctx, logger, profile)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			a.metrics.RecordCycle(metrics.CycleErrored)
			if a.sessionLost(err) {
				logger.Error("browser session lost", "error", err)
				return fmt.Errorf("cycle %d: browser session lost: %w", cycle, err)
			}
			logger.Error("cycle failed", "error", err)
		} else {
			a.metrics.RecordCycle(result.Outcome)
		}

		wait := a.NextInterval()
		logger.Info("waiting for next cycle", "wait", wait.Round(time.Second))
		if err := a.clock.Sleep(ctx, wait); err != nil {
			return nil
		}
	}
}

// ResumePending retries an interrupted repost. Whatever the outcome the
// pending slot ends up empty, so a task that keeps failing cannot block later
// starts. It reports whether a task was found.
func (a *Autopilot) ResumePending(ctx context.Context) (bool, error) {
	task, ok := a.journal.Pending(ctx)
	if !ok {
		return false, nil
	}

	logger := a.logger.With("post_url", task.PostURL, "started_at", task.StartedAt)
	logger.Info("resuming pending repost", "comment", task.Comment)

	reposted, err := a.engine.Repost(ctx, task.PostURL, task.Comment)
	switch {
	case err != nil:
		a.metrics.RecordRepost(metrics.RepostError)
		logger.Error("pending repost failed, abandoning task", "error", err)
	case !reposted:
		a.metrics.RecordRepost(metrics.RepostFailure)
		logger.Warn("pending repost not confirmed, abandoning task")
	default:
		a.metrics.RecordRepost(metrics.RepostSuccess)
		if err := a.journal.RecordRepost(ctx, domain.PostIDFromURL(task.PostURL), task.PostURL, task.Comment); err != nil {
			return true, err
		}
		logger.Info("pending repost completed")
	}

	if err := a.journal.ClearPending(ctx); err != nil {
		return true, err
	}
	return true, nil
}

// RunCycle harvests the feed, picks a candidate and reposts it.
func (a *Autopilot) RunCycle(ctx context.Context, profile domain.UserProfile) (CycleResult, error) {
	return a.runCycle(ctx, a.logger, profile)
}

func (a *Autopilot) runCycle(ctx context.Context, logger *slog.Logger, profile domain.UserProfile) (CycleResult, error) {
	logger.Info("starting cycle", "time", a.clock.Now().Format(time.RFC3339))

	posts, err := a.engine.BrowseAndCollect(ctx, a.cfg.Group)
	if err != nil {
		return CycleResult{}, fmt.Errorf("browse feed: %w", err)
	}
	a.metrics.AddHarvested(len(posts))
	if len(posts) == 0 {
		logger.Info("no posts found in feed")
		return CycleResult{Outcome: metrics.CycleNoPosts}, nil
	}

	history := a.journal.History(ctx)
	candidate, ok := SelectCandidate(posts, profile, history.Contains)
	if !ok {
		logger.Info("no suitable post found", "harvested", len(posts))
		return CycleResult{Outcome: metrics.CycleNoMatch}, nil
	}

	post := candidate.Post
	comment := GenerateComment(post, profile, a.pick)
	result := CycleResult{Post: post, Score: candidate.Score, Comment: comment}
	logger.Info("selected post",
		"author", post.AuthorName,
		"url", post.URL,
		"score", candidate.Score,
		"likes", post.Likes,
		"reposts", post.Reposts,
		"comment", comment,
	)

	if a.cfg.DryRun {
		logger.Info("dry run, not reposting")
		result.Outcome = metrics.CycleDryRun
		return result, nil
	}

	reposted, err := a.RepostPost(ctx, post.ID, post.URL, comment)
	if err != nil {
		return result, err
	}
	if !reposted {
		logger.Warn("repost failed")
		result.Outcome = metrics.CycleFailed
		return result, nil
	}

	logger.Info("repost successful")
	result.Outcome = metrics.CycleReposted
	return result, nil
}

// RepostPost submits one repost and records it in the history on success.
// An empty id is derived from the permalink.
func (a *Autopilot) RepostPost(ctx context.Context, id domain.PostID, postURL, comment string) (bool, error) {
	if postURL == "" {
		return false, domain.ErrEmptyPermalink
	}
	if id == "" {
		id = domain.PostIDFromURL(postURL)
	}

	reposted, err := a.engine.Repost(ctx, postURL, comment)
	if err != nil {
		a.metrics.RecordRepost(metrics.RepostError)
		return false, err
	}
	if !reposted {
		a.metrics.RecordRepost(metrics.RepostFailure)
		return false, nil
	}

	a.metrics.RecordRepost(metrics.RepostSuccess)
	if err := a.journal.RecordRepost(ctx, id, postURL, comment); err != nil {
		return true, err
	}
	return true, nil
}

// NextInterval is the configured interval varied by up to 30% either way.
func (a *Autopilot) NextInterval() time.Duration {
	base := float64(a.cfg.Interval)
	variance := base * intervalJitter
	return time.Duration(math.Round(base + (a.unit()*2-1)*variance))
}

func (a *Autopilot) sessionLost(err error) bool {
	return a.lost != nil && a.lost(err)
}

func groupLabel(group string) string {
	if group == "" {
		return "home"
	}
	return group
}

// IsProfileMissing reports whether err means no profile has been learned yet.
func IsProfileMissing(err error) bool {
	return errors.Is(err, domain.ErrProfileNotFound)
}
