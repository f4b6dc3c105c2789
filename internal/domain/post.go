package domain

type PostID string

type FeedPost struct {
	ID               PostID
	AuthorName       string
	AuthorID         string
	Content          string
	Images           []string
	HasVideo         bool
	VideoDescription string
	Timestamp        string
	Reposts          int
	Comments         int
	Likes            int
	TopComments      []string
	URL              string
	IsRepost         bool
	OriginalContent  string
}

// Text returns the post content joined with the quoted original, the text
// that scoring and safety checks look at.
func (p FeedPost) Text() string {
	if p.OriginalContent == "" {
		return p.Content
	}

	return p.Content + " " + p.OriginalContent
}

func (p FeedPost) HasMedia() bool {
	return len(p.Images) > 0 || p.HasVideo
}

type Group struct {
	Name string
	GID  string
}
