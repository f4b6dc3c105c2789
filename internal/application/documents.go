package application

import (
	"time"

	"github.com/bnema/weibo-autopilot/internal/domain"
)

const (
	ProfileDocument = "user-profile.json"
	HistoryDocument = "repost-history.json"
	PendingDocument = "pending-task.json"
)

type historySchema struct {
	Reposts []repostSchema `json:"reposts"`
}

type repostSchema struct {
	PostID    string    `json:"postId"`
	PostURL   string    `json:"postUrl"`
	Comment   string    `json:"comment"`
	Timestamp time.Time `json:"timestamp"`
}

type pendingSchema struct {
	PostURL   string    `json:"postUrl"`
	Comment   string    `json:"comment"`
	StartedAt time.Time `json:"startedAt"`
}

type profileSchema struct {
	LastUpdated    time.Time       `json:"lastUpdated"`
	Interests      []string        `json:"interests"`
	Topics         []string        `json:"topics"`
	PostingStyle   postingSchema   `json:"postingStyle"`
	CommentStyle   commentSchema   `json:"commentStyle"`
	RecentPosts    []postSchema    `json:"recentPosts"`
	RecentComments []commentRecord `json:"recentComments"`
}

type postingSchema struct {
	AverageLength int      `json:"averageLength"`
	UsesEmoji     bool     `json:"usesEmoji"`
	Tone          string   `json:"tone"`
	CommonPhrases []string `json:"commonPhrases"`
}

type commentSchema struct {
	AverageLength int      `json:"averageLength"`
	Tone          string   `json:"tone"`
	CommonPhrases []string `json:"commonPhrases"`
}

type postSchema struct {
	Content   string `json:"content"`
	Timestamp string `json:"timestamp"`
}

type commentRecord struct {
	Content      string `json:"content"`
	OriginalPost string `json:"originalPost"`
	Timestamp    string `json:"timestamp"`
}

func toHistorySchema(history domain.RepostHistory) historySchema {
	out := historySchema{Reposts: make([]repostSchema, 0, len(history.Reposts))}
	for _, r := range history.Reposts {
		out.Reposts = append(out.Reposts, repostSchema{
			PostID:    string(r.PostID),
			PostURL:   r.PostURL,
			Comment:   r.Comment,
			Timestamp: r.Timestamp,
		})
	}
	return out
}

func fromHistorySchema(in historySchema) domain.RepostHistory {
	history := domain.RepostHistory{Reposts: make([]domain.RepostRecord, 0, len(in.Reposts))}
	for _, r := range in.Reposts {
		history.Reposts = append(history.Reposts, domain.RepostRecord{
			PostID:    domain.PostID(r.PostID),
			PostURL:   r.PostURL,
			Comment:   r.Comment,
			Timestamp: r.Timestamp,
		})
	}
	return history
}

func toProfileSchema(p domain.UserProfile) profileSchema {
	out := profileSchema{
		LastUpdated: p.LastUpdated,
		Interests:   nonNil(p.Interests),
		Topics:      nonNil(p.Topics),
		PostingStyle: postingSchema{
			AverageLength: p.PostingStyle.AverageLength,
			UsesEmoji:     p.PostingStyle.UsesEmoji,
			Tone:          p.PostingStyle.Tone,
			CommonPhrases: nonNil(p.PostingStyle.CommonPhrases),
		},
		CommentStyle: commentSchema{
			AverageLength: p.CommentStyle.AverageLength,
			Tone:          p.CommentStyle.Tone,
			CommonPhrases: nonNil(p.CommentStyle.CommonPhrases),
		},
		RecentPosts:    make([]postSchema, 0, len(p.RecentPosts)),
		RecentComments: make([]commentRecord, 0, len(p.RecentComments)),
	}
	for _, post := range p.RecentPosts {
		out.RecentPosts = append(out.RecentPosts, postSchema{Content: post.Content, Timestamp: post.Timestamp})
	}
	for _, c := range p.RecentComments {
		out.RecentComments = append(out.RecentComments, commentRecord{Content: c.Content, OriginalPost: c.OriginalPost, Timestamp: c.Timestamp})
	}
	return out
}

func fromProfileSchema(in profileSchema) domain.UserProfile {
	p := domain.UserProfile{
		LastUpdated: in.LastUpdated,
		Interests:   in.Interests,
		Topics:      in.Topics,
		PostingStyle: domain.PostingStyle{
			AverageLength: in.PostingStyle.AverageLength,
			UsesEmoji:     in.PostingStyle.UsesEmoji,
			Tone:          in.PostingStyle.Tone,
			CommonPhrases: in.PostingStyle.CommonPhrases,
		},
		CommentStyle: domain.CommentStyle{
			AverageLength: in.CommentStyle.AverageLength,
			Tone:          in.CommentStyle.Tone,
			CommonPhrases: in.CommentStyle.CommonPhrases,
		},
	}
	for _, post := range in.RecentPosts {
		p.RecentPosts = append(p.RecentPosts, domain.ProfilePost{Content: post.Content, Timestamp: post.Timestamp})
	}
	for _, c := range in.RecentComments {
		p.RecentComments = append(p.RecentComments, domain.ProfileComment{Content: c.Content, OriginalPost: c.OriginalPost, Timestamp: c.Timestamp})
	}
	return p
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
