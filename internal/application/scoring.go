package application

import (
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/bnema/weibo-autopilot/internal/domain"
)

const (
	interestWeight = 10
	topicWeight    = 15

	popularLikes       = 1000
	popularReposts     = 500
	popularComments    = 200
	hotLikes           = 10000
	shortContentRunes  = 20
	shortContentScore  = -10
	repostPenaltyScore = -5

	hotPrefix = "热门内容，"
)

var sensitivePatterns = []string{
	"政治", "敏感", "争议",
	"骂", "傻逼", "垃圾", "滚",
	"抵制", "举报",
}

type commentCategory struct {
	keywords  []string
	topic     string
	templates []string
}

// Categories are checked in order; the last one catches everything else.
var commentCategories = []commentCategory{
	{
		keywords:  []string{"新闻", "报道"},
		topic:     "国际新闻",
		templates: []string{"值得关注的动态。", "这个信息值得了解。", "持续关注中。", "记录一下。"},
	},
	{
		keywords:  []string{"足球", "比赛", "球"},
		topic:     "足球",
		templates: []string{"精彩！", "好球！", "值得回味的瞬间。", "记录一下。"},
	},
	{
		keywords:  []string{"AI", "技术", "科技"},
		topic:     "科技",
		templates: []string{"技术发展值得关注。", "有意思的进展。", "学习了。", "记录一下技术动态。"},
	},
	{
		templates: []string{"分享一下。", "记录。", "值得关注。", "留个记录。", "有意思。"},
	},
}

// ScorePost rates how well post matches the learned profile.
func ScorePost(post domain.FeedPost, profile domain.UserProfile) int {
	text := strings.ToLower(post.Text())
	score := 0

	for _, interest := range profile.Interests {
		if interest != "" && strings.Contains(text, strings.ToLower(interest)) {
			score += interestWeight
		}
	}
	for _, topic := range profile.Topics {
		if topic != "" && strings.Contains(text, strings.ToLower(topic)) {
			score += topicWeight
		}
	}

	if post.Likes > popularLikes {
		score += 5
	}
	if post.Reposts > popularReposts {
		score += 5
	}
	if post.Comments > popularComments {
		score += 3
	}
	if utf8.RuneCountInString(text) < shortContentRunes {
		score += shortContentScore
	}
	if post.IsRepost {
		score += repostPenaltyScore
	}

	return score
}

func IsSafe(post domain.FeedPost) bool {
	text := strings.ToLower(post.Text())
	for _, pattern := range sensitivePatterns {
		if strings.Contains(text, pattern) {
			return false
		}
	}
	return true
}

type Candidate struct {
	Post  domain.FeedPost
	Score int
}

// SelectCandidate returns the best scoring post worth reposting. Posts already
// reposted, unsafe posts, posts without a permalink and posts scoring zero or
// less are skipped. Ties keep the earlier post.
func SelectCandidate(posts []domain.FeedPost, profile domain.UserProfile, reposted func(domain.PostID) bool) (Candidate, bool) {
	var (
		best  Candidate
		found bool
	)

	for _, post := range posts {
		if reposted != nil && reposted(post.ID) {
			continue
		}
		if !IsSafe(post) || post.URL == "" {
			continue
		}

		score := ScorePost(post, profile)
		if score <= 0 {
			continue
		}
		if !found || score > best.Score {
			best = Candidate{Post: post, Score: score}
			found = true
		}
	}

	return best, found
}

// GenerateComment picks a short comment template matching the post's
// category. pick returns an index in [0, n).
func GenerateComment(post domain.FeedPost, profile domain.UserProfile, pick func(n int) int) string {
	category := commentCategories[len(commentCategories)-1]
	for _, candidate := range commentCategories[:len(commentCategories)-1] {
		if candidate.matches(post.Content, profile.Topics) {
			category = candidate
			break
		}
	}

	index := 0
	if pick != nil {
		index = pick(len(category.templates))
	}
	if index < 0 || index >= len(category.templates) {
		index = 0
	}

	comment := category.templates[index]
	if post.Likes > hotLikes {
		comment = hotPrefix + comment
	}
	return comment
}

func (c commentCategory) matches(content string, topics []string) bool {
	for _, keyword := range c.keywords {
		if strings.Contains(content, keyword) {
			return true
		}
	}
	return c.topic != "" && slices.Contains(topics, c.topic)
}
