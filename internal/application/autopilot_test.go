package application

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/bnema/weibo-autopilot/internal/adapters/cdp"
	"github.com/bnema/weibo-autopilot/internal/domain"
	"github.com/bnema/weibo-autopilot/internal/metrics"
	"github.com/bnema/weibo-autopilot/internal/ports/mocks"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type repostCall struct {
	url     string
	comment string
}

type fakeEngine struct {
	events    []string
	posts     []domain.FeedPost
	browseErr error
	results   []repostResult
	reposts   []repostCall
	groups    []string
}

type repostResult struct {
	ok  bool
	err error
}

func (f *fakeEngine) BrowseAndCollect(_ context.Context, group string) ([]domain.FeedPost, error) {
	f.events = append(f.events, "browse")
	f.groups = append(f.groups, group)
	return f.posts, f.browseErr
}

func (f *fakeEngine) Repost(_ context.Context, postURL, comment string) (bool, error) {
	f.events = append(f.events, "repost "+postURL)
	f.reposts = append(f.reposts, repostCall{url: postURL, comment: comment})
	if len(f.results) == 0 {
		return true, nil
	}
	result := f.results[0]
	if len(f.results) > 1 {
		f.results = f.results[1:]
	}
	return result.ok, result.err
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func footballProfile() domain.UserProfile {
	return domain.UserProfile{Topics: []string{"足球"}, Interests: []string{"欧冠"}}
}

func footballPost(id string) domain.FeedPost {
	return domain.FeedPost{
		ID:      domain.PostID(id),
		Content: "欧冠足球" + strings.Repeat("精彩", 10),
		Likes:   12000,
		URL:     "https://weibo.com/1/" + id,
	}
}

func newTestAutopilot(t *testing.T, engine FeedEngine, cfg AutopilotConfig) (*Autopilot, *Journal, *prometheus.Registry) {
	t.Helper()

	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	journal, _ := newFileJournal(t, now)
	reg := prometheus.NewRegistry()
	m := metrics.MustNew(reg)
	clock := mocks.NewMockClock(t)
	clock.EXPECT().Now().Return(now).Maybe()

	autopilot := NewAutopilot(engine, journal, cfg,
		WithAutopilotClock(clock),
		WithAutopilotLogger(discardLogger()),
		WithMetrics(m),
		WithRandom(func(int) int { return 0 }, func() float64 { return 0.5 }),
	)
	return autopilot, journal, reg
}

// counterValue reads a counter from reg, matching the value of its single
// label when one is given.
func counterValue(t *testing.T, reg *prometheus.Registry, name, label string) float64 {
	t.Helper()

	families, err := reg.Gather()
	require.NoError(t, err)
	for _, family := range families {
		if family.GetName() != name {
			continue
		}
		for _, metric := range family.GetMetric() {
			pairs := metric.GetLabel()
			if label == "" || (len(pairs) == 1 && pairs[0].GetValue() == label) {
				return metric.GetCounter().GetValue()
			}
		}
	}
	return 0
}

func TestRunCycleRepostsBestCandidate(t *testing.T) {
	t.Parallel()

	engine := &fakeEngine{posts: []domain.FeedPost{
		{ID: "meh", Content: "短", URL: "https://weibo.com/1/meh"},
		footballPost("Nq1"),
	}}
	autopilot, journal, reg := newTestAutopilot(t, engine, AutopilotConfig{Group: "体育"})

	result, err := autopilot.RunCycle(context.Background(), footballProfile())
	require.NoError(t, err)
	assert.Equal(t, metrics.CycleReposted, result.Outcome)
	assert.Equal(t, domain.PostID("Nq1"), result.Post.ID)
	assert.Equal(t, "热门内容，精彩！", result.Comment)
	assert.Equal(t, []string{"体育"}, engine.groups)
	assert.Equal(t, []repostCall{{url: "https://weibo.com/1/Nq1", comment: "热门内容，精彩！"}}, engine.reposts)

	assert.True(t, journal.HasReposted(context.Background(), "Nq1"))
	assert.Equal(t, 1.0, counterValue(t, reg, "weibo_autopilot_repost_attempts_total", metrics.RepostSuccess))
	assert.Equal(t, 2.0, counterValue(t, reg, "weibo_autopilot_harvested_posts_total", ""))
}

func TestRunCycleSkipsAlreadyReposted(t *testing.T) {
	t.Parallel()

	engine := &fakeEngine{posts: []domain.FeedPost{footballPost("Nq1")}}
	autopilot, journal, _ := newTestAutopilot(t, engine, AutopilotConfig{})
	require.NoError(t, journal.RecordRepost(context.Background(), "Nq1", "https://weibo.com/1/Nq1", "记录。"))

	result, err := autopilot.RunCycle(context.Background(), footballProfile())
	require.NoError(t, err)
	assert.Equal(t, metrics.CycleNoMatch, result.Outcome)
	assert.Empty(t, engine.reposts)
}

func TestRunCycleDryRunDoesNotRepost(t *testing.T) {
	t.Parallel()

	engine := &fakeEngine{posts: []domain.FeedPost{footballPost("Nq1")}}
	autopilot, journal, _ := newTestAutopilot(t, engine, AutopilotConfig{DryRun: true})

	result, err := autopilot.RunCycle(context.Background(), footballProfile())
	require.NoError(t, err)
	assert.Equal(t, metrics.CycleDryRun, result.Outcome)
	assert.Empty(t, engine.reposts)
	assert.False(t, journal.HasReposted(context.Background(), "Nq1"))
}

func TestRunCycleOutcomes(t *testing.T) {
	t.Parallel()

	t.Run("empty feed", func(t *testing.T) {
		autopilot, _, _ := newTestAutopilot(t, &fakeEngine{}, AutopilotConfig{})
		result, err := autopilot.RunCycle(context.Background(), footballProfile())
		require.NoError(t, err)
		assert.Equal(t, metrics.CycleNoPosts, result.Outcome)
	})

	t.Run("repost not confirmed", func(t *testing.T) {
		engine := &fakeEngine{posts: []domain.FeedPost{footballPost("Nq1")}, results: []repostResult{{ok: false}}}
		autopilot, journal, _ := newTestAutopilot(t, engine, AutopilotConfig{})
		result, err := autopilot.RunCycle(context.Background(), footballProfile())
		require.NoError(t, err)
		assert.Equal(t, metrics.CycleFailed, result.Outcome)
		assert.False(t, journal.HasReposted(context.Background(), "Nq1"))
	})

	t.Run("browse error", func(t *testing.T) {
		boom := errors.New("feed never appeared")
		autopilot, _, _ := newTestAutopilot(t, &fakeEngine{browseErr: boom}, AutopilotConfig{})
		_, err := autopilot.RunCycle(context.Background(), footballProfile())
		require.ErrorIs(t, err, boom)
	})
}

func TestResumePending(t *testing.T) {
	t.Parallel()

	task := domain.PendingTask{PostURL: "https://weibo.com/1/Abc9", Comment: "记录。", StartedAt: time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)}

	tests := []struct {
		name         string
		result       repostResult
		wantRecorded bool
	}{
		{name: "success records history", result: repostResult{ok: true}, wantRecorded: true},
		{name: "failure abandons task", result: repostResult{ok: false}},
		{name: "error abandons task", result: repostResult{err: errors.New("connection closed")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine := &fakeEngine{results: []repostResult{tt.result}}
			autopilot, journal, _ := newTestAutopilot(t, engine, AutopilotConfig{})
			ctx := context.Background()
			require.NoError(t, journal.SavePending(ctx, task))

			found, err := autopilot.ResumePending(ctx)
			require.NoError(t, err)
			assert.True(t, found)
			assert.Equal(t, []repostCall{{url: task.PostURL, comment: task.Comment}}, engine.reposts)

			_, pending := journal.Pending(ctx)
			assert.False(t, pending)
			assert.Equal(t, tt.wantRecorded, journal.HasReposted(ctx, "Abc9"))
		})
	}
}

func TestResumePendingWithoutTask(t *testing.T) {
	t.Parallel()

	engine := &fakeEngine{}
	autopilot, _, _ := newTestAutopilot(t, engine, AutopilotConfig{})

	found, err := autopilot.ResumePending(context.Background())
	require.NoError(t, err)
	assert.False(t, found)
	assert.Empty(t, engine.events)
}

func TestRunResumesPendingBeforeFirstCycle(t *testing.T) {
	t.Parallel()

	engine := &fakeEngine{
		posts:   []domain.FeedPost{footballPost("Nq1")},
		results: []repostResult{{ok: true}, {ok: false}},
	}
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	journal, _ := newFileJournal(t, now)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, journal.SavePending(ctx, domain.PendingTask{PostURL: "https://weibo.com/1/Old1", Comment: "留个记录。", StartedAt: now}))

	clock := mocks.NewMockClock(t)
	clock.EXPECT().Now().Return(now).Maybe()
	clock.EXPECT().Sleep(mock.Anything, 10*time.Minute).RunAndReturn(func(context.Context, time.Duration) error {
		cancel()
		return context.Canceled
	}).Once()

	autopilot := NewAutopilot(engine, journal, AutopilotConfig{Interval: 10 * time.Minute},
		WithAutopilotClock(clock),
		WithRandom(nil, func() float64 { return 0.5 }),
	)

	require.NoError(t, autopilot.Run(ctx, footballProfile()))
	assert.Equal(t, []string{"repost https://weibo.com/1/Old1", "browse", "repost https://weibo.com/1/Nq1"}, engine.events)

	_, pending := journal.Pending(context.Background())
	assert.False(t, pending)
	assert.True(t, journal.HasReposted(context.Background(), "Old1"))
	assert.False(t, journal.HasReposted(context.Background(), "Nq1"))
}

func TestRunContinuesAfterCycleError(t *testing.T) {
	t.Parallel()

	engine := &fakeEngine{browseErr: errors.New("transient")}
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	journal, _ := newFileJournal(t, now)
	reg := prometheus.NewRegistry()
	m := metrics.MustNew(reg)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sleeps := 0
	clock := mocks.NewMockClock(t)
	clock.EXPECT().Now().Return(now).Maybe()
	clock.EXPECT().Sleep(mock.Anything, mock.Anything).RunAndReturn(func(context.Context, time.Duration) error {
		sleeps++
		if sleeps == 2 {
			cancel()
			return context.Canceled
		}
		return nil
	})

	autopilot := NewAutopilot(engine, journal, AutopilotConfig{}, WithAutopilotClock(clock), WithMetrics(m))

	require.NoError(t, autopilot.Run(ctx, footballProfile()))
	assert.Equal(t, []string{"browse", "browse"}, engine.events)
	assert.Equal(t, 2.0, counterValue(t, reg, "weibo_autopilot_cycles_total", metrics.CycleErrored))
}

func TestRunStopsWhenBrowserConnectionCloses(t *testing.T) {
	t.Parallel()

	engine := &fakeEngine{browseErr: fmt.Errorf("read feed: %w", cdp.ErrConnectionClosed)}
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	journal, _ := newFileJournal(t, now)
	reg := prometheus.NewRegistry()
	m := metrics.MustNew(reg)

	// No Sleep expectation: waiting for another cycle fails the test.
	clock := mocks.NewMockClock(t)
	clock.EXPECT().Now().Return(now).Maybe()

	autopilot := NewAutopilot(engine, journal, AutopilotConfig{},
		WithAutopilotClock(clock),
		WithMetrics(m),
		WithSessionLost(cdp.IsConnectionError),
	)

	err := autopilot.Run(context.Background(), footballProfile())
	require.Error(t, err)
	assert.ErrorIs(t, err, cdp.ErrConnectionClosed)
	assert.Contains(t, err.Error(), "browser session lost")
	assert.Equal(t, []string{"browse"}, engine.events)
	assert.Equal(t, 1.0, counterValue(t, reg, "weibo_autopilot_cycles_total", metrics.CycleErrored))
}

func TestRunKeepsGoingWhenErrorIsNotSessionLoss(t *testing.T) {
	t.Parallel()

	engine := &fakeEngine{browseErr: fmt.Errorf("evaluate: %w", &cdp.RemoteError{Code: -32000, Message: "Execution context was destroyed."})}
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	journal, _ := newFileJournal(t, now)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	clock := mocks.NewMockClock(t)
	clock.EXPECT().Now().Return(now).Maybe()
	clock.EXPECT().Sleep(mock.Anything, mock.Anything).RunAndReturn(func(context.Context, time.Duration) error {
		cancel()
		return context.Canceled
	}).Once()

	autopilot := NewAutopilot(engine, journal, AutopilotConfig{},
		WithAutopilotClock(clock),
		WithSessionLost(cdp.IsConnectionError),
	)

	require.NoError(t, autopilot.Run(ctx, footballProfile()))
	assert.Equal(t, []string{"browse"}, engine.events)
}

func TestNextIntervalJitter(t *testing.T) {
	t.Parallel()

	tests := []struct {
		unit float64
		want time.Duration
	}{
		{unit: 0, want: 7 * time.Minute},
		{unit: 0.5, want: 10 * time.Minute},
		{unit: 1, want: 13 * time.Minute},
	}

	for _, tt := range tests {
		autopilot := NewAutopilot(&fakeEngine{}, nil, AutopilotConfig{}, WithRandom(nil, func() float64 { return tt.unit }))
		assert.Equal(t, tt.want, autopilot.NextInterval())
	}
}

func TestRequireProfileExplainsRemediation(t *testing.T) {
	t.Parallel()

	journal, _ := newFileJournal(t, time.Now())
	_, err := RequireProfile(context.Background(), journal)
	require.ErrorIs(t, err, domain.ErrProfileNotFound)
	assert.True(t, IsProfileMissing(err))
	assert.Contains(t, err.Error(), "weibo-autopilot learn")
}

func TestRepostPostRequiresPermalink(t *testing.T) {
	t.Parallel()

	autopilot, _, _ := newTestAutopilot(t, &fakeEngine{}, AutopilotConfig{})
	_, err := autopilot.RepostPost(context.Background(), "", "", "转发微博")
	require.ErrorIs(t, err, domain.ErrEmptyPermalink)
}

func TestRepostPostDerivesIDFromPermalink(t *testing.T) {
	t.Parallel()

	engine := &fakeEngine{}
	autopilot, journal, _ := newTestAutopilot(t, engine, AutopilotConfig{})

	ok, err := autopilot.RepostPost(context.Background(), "", "https://weibo.com/1/Pq7", "转发微博")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.True(t, journal.HasReposted(context.Background(), "Pq7"))
}
