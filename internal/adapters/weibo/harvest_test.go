package weibo

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bnema/weibo-autopilot/internal/domain"
)

func feedItem(id, content string) map[string]any {
	return map[string]any{
		"id":          id,
		"authorName":  "作者",
		"authorId":    "1043",
		"content":     content,
		"images":      []string{},
		"hasVideo":    false,
		"timestamp":   "5分钟前",
		"reposts":     1,
		"comments":    2,
		"likes":       3,
		"topComments": []string{},
		"url":         "/1043/" + id,
		"isRepost":    false,
	}
}

func TestBrowseAndCollectDeduplicatesAcrossRounds(t *testing.T) {
	t.Parallel()

	engine, page, _, clock := testingEngine(t)
	script := feedScript(DefaultSelectors(), DefaultLabels())
	page.respond(script,
		[]any{feedItem("p1", "first"), feedItem("p2", "second")},
		[]any{feedItem("p2", "second"), feedItem("p3", "third")},
	)

	posts, err := engine.BrowseAndCollect(context.Background(), "")
	require.NoError(t, err)

	ids := make([]domain.PostID, 0, len(posts))
	for _, p := range posts {
		ids = append(ids, p.ID)
	}
	assert.Equal(t, []domain.PostID{"p1", "p2", "p3"}, ids)

	assert.Equal(t, []string{"https://weibo.com"}, page.navigations)
	assert.Equal(t, harvestRounds, page.evaluated(script))
	assert.Len(t, page.scrolls, harvestRounds)
	for _, px := range page.scrolls {
		assert.Equal(t, harvestScrollStep, px)
	}
	assert.Contains(t, clock.sleeps, harvestSettle)
}

func TestBrowseAndCollectNormalisesPayload(t *testing.T) {
	t.Parallel()

	engine, page, _, _ := testingEngine(t)
	page.respond(feedScript(DefaultSelectors(), DefaultLabels()), []any{
		map[string]any{
			"id":              "m1",
			"authorName":      "  ",
			"content":         "  带图的内容 ",
			"images":          []string{"https://wx1.sinaimg.cn/a.jpg", " "},
			"reposts":         600,
			"comments":        -4,
			"likes":           20000,
			"topComments":     []string{"a", "b", "", "c", "d"},
			"url":             "/1043/m1",
			"isRepost":        true,
			"originalContent": " 原文 ",
		},
		map[string]any{"id": "empty", "content": "", "images": []string{}, "hasVideo": false},
		map[string]any{"id": "video", "content": "", "hasVideo": true, "url": "https://weibo.com/1/video"},
		map[string]any{"content": "no id"},
		"not an object",
		map[string]any{"id": "bad", "likes": "many"},
		map[string]any{"id": "plain", "content": "无转发", "isRepost": false, "originalContent": "ignored"},
	})

	posts, err := engine.BrowseAndCollect(context.Background(), "")
	require.NoError(t, err)
	require.Len(t, posts, 3)

	first := posts[0]
	assert.Equal(t, domain.PostID("m1"), first.ID)
	assert.Equal(t, "Unknown", first.AuthorName)
	assert.Equal(t, "带图的内容", first.Content)
	assert.Equal(t, []string{"https://wx1.sinaimg.cn/a.jpg"}, first.Images)
	assert.Equal(t, 600, first.Reposts)
	assert.Equal(t, 0, first.Comments)
	assert.Equal(t, 20000, first.Likes)
	assert.Equal(t, []string{"a", "b", "c"}, first.TopComments)
	assert.Equal(t, "https://weibo.com/1043/m1", first.URL)
	assert.True(t, first.IsRepost)
	assert.Equal(t, "原文", first.OriginalContent)

	assert.Equal(t, domain.PostID("video"), posts[1].ID)
	assert.True(t, posts[1].HasVideo)

	assert.Equal(t, domain.PostID("plain"), posts[2].ID)
	assert.Empty(t, posts[2].OriginalContent)
}

func TestBrowseAndCollectFailsWhenFeedNeverAppears(t *testing.T) {
	t.Parallel()

	engine, page, _, _ := testingEngine(t)
	page.waitResults[DefaultSelectors().FeedReady] = false

	_, err := engine.BrowseAndCollect(context.Background(), "")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrElementNotFound)
}

func TestBrowseAndCollectEmptyFeedIsNotAnError(t *testing.T) {
	t.Parallel()

	engine, page, _, _ := testingEngine(t)
	page.respond(feedScript(DefaultSelectors(), DefaultLabels()), []any{})

	posts, err := engine.BrowseAndCollect(context.Background(), "")
	require.NoError(t, err)
	assert.Empty(t, posts)
}

func TestBrowseAndCollectOpensNamedGroup(t *testing.T) {
	t.Parallel()

	engine, page, _, _ := testingEngine(t)
	page.respond(pageHTMLScript, `<html><body>
		<div class="Nav_group_3x1"><a class="Nav_group_item" href="/mygroups?gid=4420498415498240">足球</a></div>
		<div class="Nav_list_9k"><a href="/mygroups?gid=4420498415498239">国际新闻/军事</a></div>
	</body></html>`)

	_, err := engine.BrowseAndCollect(context.Background(), "国际新闻")
	require.NoError(t, err)
	assert.Equal(t, []string{
		"https://weibo.com/mygroups",
		"https://weibo.com/mygroups?gid=4420498415498239",
	}, page.navigations)
}

func TestAbsoluteURL(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		href string
		want string
	}{
		{href: "", want: ""},
		{href: "https://weibo.com/1/AbC", want: "https://weibo.com/1/AbC"},
		{href: "/1043/AbC", want: "https://weibo.com/1043/AbC"},
		{href: "1043/AbC", want: "https://weibo.com/1043/AbC"},
		{href: "//weibo.com/1/x", want: "https://weibo.com/1/x"},
	}
	for _, tc := range testCases {
		assert.Equal(t, tc.want, absoluteURL("https://weibo.com/", tc.href), tc.href)
	}
}
