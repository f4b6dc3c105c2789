package domain

import "time"

type UserProfile struct {
	LastUpdated    time.Time
	Interests      []string
	Topics         []string
	PostingStyle   PostingStyle
	CommentStyle   CommentStyle
	RecentPosts    []ProfilePost
	RecentComments []ProfileComment
}

type PostingStyle struct {
	AverageLength int
	UsesEmoji     bool
	Tone          string
	CommonPhrases []string
}

type CommentStyle struct {
	AverageLength int
	Tone          string
	CommonPhrases []string
}

type ProfilePost struct {
	Content   string
	Timestamp string
}

type ProfileComment struct {
	Content      string
	OriginalPost string
	Timestamp    string
}

func (p UserProfile) IsFresh(now time.Time, maxAge time.Duration) bool {
	if p.LastUpdated.IsZero() {
		return false
	}

	return now.Sub(p.LastUpdated) < maxAge
}
