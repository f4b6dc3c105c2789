package application

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"slices"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/bnema/weibo-autopilot/internal/domain"
	"github.com/bnema/weibo-autopilot/internal/ports"
)

const (
	ProfileMaxAge = 7 * 24 * time.Hour

	recentPostsKept    = 20
	recentCommentsKept = 15
	maxInterests       = 20
	maxPostPhrases     = 10
	maxCommentPhrases  = 5
	minPhraseRunes     = 4
	topicMatchMinimum  = 2

	toneNeutral = "neutral"
)

var emojiPattern = regexp.MustCompile(`[\x{1F600}-\x{1F64F}\x{1F300}-\x{1F5FF}\x{1F680}-\x{1F6FF}\x{1F1E0}-\x{1F1FF}\x{2600}-\x{26FF}\x{2700}-\x{27BF}]`)

var commentExpressions = []string{"哈哈", "确实", "同意", "有道理", "不错", "厉害", "赞", "支持"}

type topicKeywords struct {
	topic    string
	keywords []string
}

var topicTable = []topicKeywords{
	{topic: "科技", keywords: []string{"AI", "人工智能", "技术", "编程", "代码", "Claude", "OpenAI", "GPT", "互联网", "软件"}},
	{topic: "足球", keywords: []string{"足球", "比赛", "球队", "进球", "联赛", "世界杯", "欧冠", "球员"}},
	{topic: "国际新闻", keywords: []string{"国际", "美国", "欧洲", "政治", "经济", "外交", "军事"}},
	{topic: "军事", keywords: []string{"军事", "军队", "武器", "战争", "国防"}},
	{topic: "财经", keywords: []string{"股票", "投资", "经济", "金融", "市场"}},
	{topic: "生活", keywords: []string{"生活", "美食", "旅行", "日常"}},
}

type ActivitySource interface {
	CollectActivity(ctx context.Context, userID string) ([]domain.ProfilePost, []domain.ProfileComment, error)
}

type LearnResult struct {
	Profile  domain.UserProfile
	Skipped  bool
	Posts    int
	Comments int
}

type LearnService struct {
	journal *Journal
	clock   ports.Clock
	logger  *slog.Logger
}

func NewLearnService(journal *Journal, clock ports.Clock, logger *slog.Logger) *LearnService {
	if clock == nil {
		clock = ports.SystemClock{}
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &LearnService{journal: journal, clock: clock, logger: logger.With("component", "learn")}
}

// NeedsRefresh reports whether learning has to run. The stored profile is
// reused when it is younger than ProfileMaxAge unless refresh is set.
func (s *LearnService) NeedsRefresh(ctx context.Context, refresh bool) (domain.UserProfile, bool) {
	if refresh {
		return domain.UserProfile{}, true
	}

	existing, err := s.journal.Profile(ctx)
	if err != nil {
		return domain.UserProfile{}, true
	}
	if existing.IsFresh(s.clock.Now(), ProfileMaxAge) {
		s.logger.Info("user profile is recent, use --refresh to force an update",
			"last_updated", existing.LastUpdated,
			"age_days", fmt.Sprintf("%.1f", s.clock.Now().Sub(existing.LastUpdated).Hours()/24),
		)
		return existing, false
	}
	return domain.UserProfile{}, true
}

// Learn collects the user's own posts and comments and stores the derived
// profile.
func (s *LearnService) Learn(ctx context.Context, source ActivitySource, userID string) (LearnResult, error) {
	posts, comments, err := source.CollectActivity(ctx, userID)
	if err != nil {
		return LearnResult{}, fmt.Errorf("collect activity for %q: %w", userID, err)
	}

	profile := BuildProfile(posts, comments, s.clock.Now().UTC())
	if err := s.journal.SaveProfile(ctx, profile); err != nil {
		return LearnResult{}, err
	}

	s.logger.Info("user profile saved",
		"topics", profile.Topics,
		"posts", len(posts),
		"comments", len(comments),
	)
	return LearnResult{Profile: profile, Posts: len(posts), Comments: len(comments)}, nil
}

func BuildProfile(posts []domain.ProfilePost, comments []domain.ProfileComment, now time.Time) domain.UserProfile {
	interests, topics := InterestsAndTopics(posts, comments)
	return domain.UserProfile{
		LastUpdated:    now,
		Interests:      interests,
		Topics:         topics,
		PostingStyle:   AnalyzePostingStyle(posts),
		CommentStyle:   AnalyzeCommentStyle(comments),
		RecentPosts:    slices.Clone(posts[:min(len(posts), recentPostsKept)]),
		RecentComments: slices.Clone(comments[:min(len(comments), recentCommentsKept)]),
	}
}

func AnalyzePostingStyle(posts []domain.ProfilePost) domain.PostingStyle {
	if len(posts) == 0 {
		return domain.PostingStyle{Tone: toneNeutral, CommonPhrases: []string{}}
	}

	texts := make([]string, 0, len(posts))
	usesEmoji := false
	for _, post := range posts {
		texts = append(texts, post.Content)
		if emojiPattern.MatchString(post.Content) {
			usesEmoji = true
		}
	}
	all := strings.Join(texts, " ")

	tone := toneNeutral
	switch {
	case containsAny(all, "哈哈", "😂", "笑"):
		tone = "humorous"
	case containsAny(all, "认为", "分析", "观点"):
		tone = "analytical"
	case strings.Count(all, "！") >= len(posts):
		tone = "enthusiastic"
	}

	counts := newPhraseCounter()
	for _, text := range texts {
		words := strings.Fields(text)
		for i := 0; i+1 < len(words); i++ {
			phrase := words[i] + words[i+1]
			if utf8.RuneCountInString(phrase) >= minPhraseRunes {
				counts.add(phrase)
			}
		}
	}

	return domain.PostingStyle{
		AverageLength: averageRunes(texts),
		UsesEmoji:     usesEmoji,
		Tone:          tone,
		CommonPhrases: counts.top(maxPostPhrases, 2),
	}
}

func AnalyzeCommentStyle(comments []domain.ProfileComment) domain.CommentStyle {
	if len(comments) == 0 {
		return domain.CommentStyle{Tone: toneNeutral, CommonPhrases: []string{}}
	}

	texts := make([]string, 0, len(comments))
	for _, comment := range comments {
		texts = append(texts, comment.Content)
	}
	all := strings.Join(texts, " ")

	tone := toneNeutral
	switch {
	case containsAny(all, "同意", "赞", "好"):
		tone = "supportive"
	case containsAny(all, "不同意", "但是", "不过"):
		tone = "critical"
	}

	counts := newPhraseCounter()
	for _, text := range texts {
		for _, expression := range commentExpressions {
			if strings.Contains(text, expression) {
				counts.add(expression)
			}
		}
	}

	return domain.CommentStyle{
		AverageLength: averageRunes(texts),
		Tone:          tone,
		CommonPhrases: counts.top(maxCommentPhrases, 1),
	}
}

// InterestsAndTopics matches the collected text against the topic table. A
// topic needs two keyword hits; every hit keyword becomes an interest.
func InterestsAndTopics(posts []domain.ProfilePost, comments []domain.ProfileComment) (interests, topics []string) {
	texts := make([]string, 0, len(posts)+len(comments))
	for _, post := range posts {
		texts = append(texts, post.Content)
	}
	for _, comment := range comments {
		texts = append(texts, comment.Content)
	}
	all := strings.Join(texts, " ")

	interests = []string{}
	topics = []string{}
	for _, entry := range topicTable {
		matched := 0
		for _, keyword := range entry.keywords {
			if !strings.Contains(all, keyword) {
				continue
			}
			matched++
			if !slices.Contains(interests, keyword) {
				interests = append(interests, keyword)
			}
		}
		if matched >= topicMatchMinimum {
			topics = append(topics, entry.topic)
		}
	}

	if len(interests) > maxInterests {
		interests = interests[:maxInterests]
	}
	return interests, topics
}

type phraseCounter struct {
	order  []string
	counts map[string]int
}

func newPhraseCounter() *phraseCounter {
	return &phraseCounter{counts: map[string]int{}}
}

func (c *phraseCounter) add(phrase string) {
	if _, ok := c.counts[phrase]; !ok {
		c.order = append(c.order, phrase)
	}
	c.counts[phrase]++
}

// top returns up to limit phrases seen at least minCount times, most frequent
// first and in first-seen order on ties.
func (c *phraseCounter) top(limit, minCount int) []string {
	phrases := make([]string, 0, len(c.order))
	for _, phrase := range c.order {
		if c.counts[phrase] >= minCount {
			phrases = append(phrases, phrase)
		}
	}
	slices.SortStableFunc(phrases, func(a, b string) int {
		return cmp.Compare(c.counts[b], c.counts[a])
	})
	if len(phrases) > limit {
		phrases = phrases[:limit]
	}
	return phrases
}

func averageRunes(texts []string) int {
	if len(texts) == 0 {
		return 0
	}
	total := 0
	for _, text := range texts {
		total += utf8.RuneCountInString(text)
	}
	return (total + len(texts)/2) / len(texts)
}

func containsAny(text string, needles ...string) bool {
	for _, needle := range needles {
		if strings.Contains(text, needle) {
			return true
		}
	}
	return false
}
