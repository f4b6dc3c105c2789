package application

import (
	"strings"
	"testing"

	"github.com/bnema/weibo-autopilot/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSelectCandidatePrefersRelevantPopularPost(t *testing.T) {
	t.Parallel()

	profile := domain.UserProfile{Interests: []string{"欧冠"}}
	popular := domain.FeedPost{
		ID:       "p1",
		Content:  "欧冠" + strings.Repeat("精彩", 39),
		Likes:    20000,
		Reposts:  600,
		Comments: 250,
		URL:      "https://weibo.com/1/p1",
	}
	short := domain.FeedPost{ID: "p2", Content: strings.Repeat("短", 10), URL: "https://weibo.com/1/p2"}

	require.Equal(t, 80, len([]rune(popular.Content)))
	assert.Equal(t, 10+5+5+3, ScorePost(popular, profile))
	assert.Equal(t, -10, ScorePost(short, profile))
	assert.Greater(t, ScorePost(popular, profile), ScorePost(short, profile))

	candidate, ok := SelectCandidate([]domain.FeedPost{short, popular}, profile, nil)
	require.True(t, ok)
	assert.Equal(t, domain.PostID("p1"), candidate.Post.ID)
	assert.Equal(t, 23, candidate.Score)

	_, ok = SelectCandidate([]domain.FeedPost{short}, profile, nil)
	assert.False(t, ok)
}

func TestScorePost(t *testing.T) {
	t.Parallel()

	profile := domain.UserProfile{Interests: []string{"gpt", "AI"}, Topics: []string{"科技"}}
	long := strings.Repeat("内容", 15)

	tests := []struct {
		name string
		post domain.FeedPost
		want int
	}{
		{name: "case insensitive interests", post: domain.FeedPost{Content: "GPT and ai news " + long}, want: 20},
		{name: "topic in quoted original", post: domain.FeedPost{Content: long, OriginalContent: "科技"}, want: 15},
		{name: "repost penalty", post: domain.FeedPost{Content: long, IsRepost: true}, want: -5},
		{name: "thresholds are exclusive", post: domain.FeedPost{Content: long, Likes: 1000, Reposts: 500, Comments: 200}, want: 0},
		{name: "short content", post: domain.FeedPost{Content: "AI"}, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ScorePost(tt.post, profile))
		})
	}
}

func TestIsSafe(t *testing.T) {
	t.Parallel()

	assert.True(t, IsSafe(domain.FeedPost{Content: "今天天气不错"}))
	assert.False(t, IsSafe(domain.FeedPost{Content: "这是一个争议话题"}))
	assert.False(t, IsSafe(domain.FeedPost{Content: "正常内容", OriginalContent: "请大家举报"}))
}

func TestSelectCandidateSkipsIneligiblePosts(t *testing.T) {
	t.Parallel()

	profile := domain.UserProfile{Topics: []string{"足球"}}
	body := "足球" + strings.Repeat("比赛", 10)
	posts := []domain.FeedPost{
		{ID: "done", Content: body, URL: "https://weibo.com/1/done"},
		{ID: "unsafe", Content: body + "垃圾", URL: "https://weibo.com/1/unsafe"},
		{ID: "nolink", Content: body},
		{ID: "first", Content: body, URL: "https://weibo.com/1/first"},
		{ID: "tie", Content: body, URL: "https://weibo.com/1/tie"},
	}
	reposted := func(id domain.PostID) bool { return id == "done" }

	candidate, ok := SelectCandidate(posts, profile, reposted)
	require.True(t, ok)
	assert.Equal(t, domain.PostID("first"), candidate.Post.ID)
	assert.Equal(t, 15, candidate.Score)
}

func TestGenerateComment(t *testing.T) {
	t.Parallel()

	first := func(int) int { return 0 }
	last := func(n int) int { return n - 1 }

	tests := []struct {
		name    string
		post    domain.FeedPost
		profile domain.UserProfile
		pick    func(int) int
		want    string
	}{
		{name: "news keyword", post: domain.FeedPost{Content: "最新报道"}, pick: first, want: "值得关注的动态。"},
		{name: "football keyword", post: domain.FeedPost{Content: "昨晚的比赛"}, pick: last, want: "记录一下。"},
		{name: "tech keyword", post: domain.FeedPost{Content: "AI 进展"}, pick: first, want: "技术发展值得关注。"},
		{name: "profile topic", post: domain.FeedPost{Content: "随便聊聊"}, profile: domain.UserProfile{Topics: []string{"科技"}}, pick: last, want: "记录一下技术动态。"},
		{name: "generic", post: domain.FeedPost{Content: "随便聊聊"}, pick: last, want: "有意思。"},
		{name: "hot prefix", post: domain.FeedPost{Content: "随便聊聊", Likes: 10001}, pick: first, want: "热门内容，分享一下。"},
		{name: "out of range pick", post: domain.FeedPost{Content: "随便聊聊"}, pick: func(int) int { return 99 }, want: "分享一下。"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, GenerateComment(tt.post, tt.profile, tt.pick))
		})
	}
}
