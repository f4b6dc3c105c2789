package weibo

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bnema/weibo-autopilot/internal/domain"
)

func TestCollectActivityReadsProfileAndOutbox(t *testing.T) {
	t.Parallel()

	engine, page, _, _ := testingEngine(t)
	sel := DefaultSelectors()
	page.respond(loggedInScript(sel), true)
	page.respond(profilePostsScript(sel),
		[]any{
			map[string]any{"content": "今天聊聊AI和编程", "timestamp": "3月1日"},
			map[string]any{"content": "", "timestamp": "x"},
		},
		[]any{
			map[string]any{"content": "今天聊聊AI和编程", "timestamp": "3月1日"},
			map[string]any{"content": "足球比赛真精彩", "timestamp": ""},
		},
	)
	page.respond(outboxCommentsScript(sel), []any{
		map[string]any{"content": "确实有道理", "originalPost": "原微博", "timestamp": "昨天"},
	})

	posts, comments, err := engine.CollectActivity(context.Background(), "1043848755")
	require.NoError(t, err)

	assert.Equal(t, []domain.ProfilePost{
		{Content: "今天聊聊AI和编程", Timestamp: "3月1日"},
		{Content: "足球比赛真精彩", Timestamp: "2026-03-01T09:00:04Z"},
	}, posts)
	assert.Equal(t, []domain.ProfileComment{
		{Content: "确实有道理", OriginalPost: "原微博", Timestamp: "昨天"},
	}, comments)

	assert.Equal(t, []string{"https://weibo.com/u/1043848755", "https://weibo.com/comment/outbox"}, page.navigations)
	assert.Equal(t, profileRounds, page.evaluated(profilePostsScript(sel)))
	assert.Equal(t, outboxRounds, page.evaluated(outboxCommentsScript(sel)))
}

func TestCollectActivityCapsProfilePosts(t *testing.T) {
	t.Parallel()

	engine, page, _, _ := testingEngine(t)
	sel := DefaultSelectors()
	page.respond(loggedInScript(sel), true)

	for round := 0; round < profileRounds; round++ {
		batch := make([]any, 0, 20)
		for i := 0; i < 20; i++ {
			batch = append(batch, map[string]any{"content": fmt.Sprintf("post %d-%d", round, i), "timestamp": "t"})
		}
		page.respond(profilePostsScript(sel), batch)
	}

	posts, _, err := engine.CollectActivity(context.Background(), "1")
	require.NoError(t, err)
	assert.Len(t, posts, maxProfilePosts)
	assert.Equal(t, "post 0-0", posts[0].Content)
}

func TestCollectActivityWaitsForManualLogin(t *testing.T) {
	t.Parallel()

	engine, page, _, _ := testingEngine(t)
	sel := DefaultSelectors()
	page.respond(loggedInScript(sel), false)

	_, _, err := engine.CollectActivity(context.Background(), "1")
	require.NoError(t, err)
	assert.Equal(t, []string{
		"https://weibo.com/u/1",
		"https://weibo.com/u/1",
		"https://weibo.com/comment/outbox",
	}, page.navigations)

	engine, page, _, _ = testingEngine(t)
	page.respond(loggedInScript(sel), false)
	page.waitResults[sel.LoginFeed] = false

	_, _, err = engine.CollectActivity(context.Background(), "1")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotLoggedIn)
}
