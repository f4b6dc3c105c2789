package weibo

import (
	"encoding/json"
	"log/slog"
	"strings"

	"github.com/bnema/weibo-autopilot/internal/domain"
)

const (
	maxTopComments      = 3
	toolbarScrollMargin = 100
)

// feedPostPayload is the shape returned by feedScript. Every field may be
// missing or mistyped, so items are decoded one at a time.
type feedPostPayload struct {
	ID               string   `json:"id"`
	AuthorName       string   `json:"authorName"`
	AuthorID         string   `json:"authorId"`
	Content          string   `json:"content"`
	Images           []string `json:"images"`
	HasVideo         bool     `json:"hasVideo"`
	VideoDescription string   `json:"videoDescription"`
	Timestamp        string   `json:"timestamp"`
	Reposts          int      `json:"reposts"`
	Comments         int      `json:"comments"`
	Likes            int      `json:"likes"`
	TopComments      []string `json:"topComments"`
	URL              string   `json:"url"`
	IsRepost         bool     `json:"isRepost"`
	OriginalContent  string   `json:"originalContent"`
}

type pointPayload struct {
	Found bool    `json:"found"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
}

type profilePostPayload struct {
	Content   string `json:"content"`
	Timestamp string `json:"timestamp"`
}

type outboxCommentPayload struct {
	Content      string `json:"content"`
	OriginalPost string `json:"originalPost"`
	Timestamp    string `json:"timestamp"`
}

// decodeItems decodes each element of raw on its own, dropping the ones that
// do not fit T.
func decodeItems[T any](logger *slog.Logger, kind string, raw []json.RawMessage) []T {
	out := make([]T, 0, len(raw))
	for i, item := range raw {
		var v T
		if err := json.Unmarshal(item, &v); err != nil {
			logger.Debug("skip malformed item", "kind", kind, "index", i, "error", err)
			continue
		}
		out = append(out, v)
	}
	return out
}

// toFeedPost validates p and fills defaults. It reports false for items with
// no id or nothing worth acting on.
func (p feedPostPayload) toFeedPost(baseURL string) (domain.FeedPost, bool) {
	id := strings.TrimSpace(p.ID)
	if id == "" {
		return domain.FeedPost{}, false
	}

	images := make([]string, 0, len(p.Images))
	for _, src := range p.Images {
		if src = strings.TrimSpace(src); src != "" {
			images = append(images, src)
		}
	}

	content := strings.TrimSpace(p.Content)
	if content == "" && len(images) == 0 && !p.HasVideo {
		return domain.FeedPost{}, false
	}

	comments := make([]string, 0, maxTopComments)
	for _, c := range p.TopComments {
		if c = strings.TrimSpace(c); c != "" && len(comments) < maxTopComments {
			comments = append(comments, c)
		}
	}

	author := strings.TrimSpace(p.AuthorName)
	if author == "" {
		author = "Unknown"
	}

	post := domain.FeedPost{
		ID:               domain.PostID(id),
		AuthorName:       author,
		AuthorID:         strings.TrimSpace(p.AuthorID),
		Content:          content,
		Images:           images,
		HasVideo:         p.HasVideo,
		VideoDescription: strings.TrimSpace(p.VideoDescription),
		Timestamp:        strings.TrimSpace(p.Timestamp),
		Reposts:          max(p.Reposts, 0),
		Comments:         max(p.Comments, 0),
		Likes:            max(p.Likes, 0),
		TopComments:      comments,
		URL:              absoluteURL(baseURL, p.URL),
		IsRepost:         p.IsRepost,
	}
	if p.IsRepost {
		post.OriginalContent = strings.TrimSpace(p.OriginalContent)
	}
	return post, true
}

// absoluteURL prefixes site-relative links with baseURL.
func absoluteURL(baseURL, href string) string {
	href = strings.TrimSpace(href)
	switch {
	case href == "":
		return ""
	case strings.HasPrefix(href, "http"):
		return href
	case strings.HasPrefix(href, "//"):
		return "https:" + href
	default:
		return strings.TrimRight(baseURL, "/") + "/" + strings.TrimLeft(href, "/")
	}
}

type repostModeSignals struct {
	Hash         string   `json:"hash"`
	Placeholders []string `json:"placeholders"`
	Checkboxes   []string `json:"checkboxes"`
}

// entered reports whether any one of the signals shows the repost composer:
// the #repost fragment, the share prompt placeholder or the "comment as
// well" checkbox label.
func (s repostModeSignals) entered(labels Labels) bool {
	if s.Hash == "#repost" {
		return true
	}
	for _, placeholder := range s.Placeholders {
		if placeholder == labels.SharePrompt || strings.Contains(placeholder, labels.ShareHint) {
			return true
		}
	}
	for _, label := range s.Checkboxes {
		if strings.Contains(label, labels.CommentAlso) {
			return true
		}
	}
	return false
}

func hasShareTextarea(placeholders []string, labels Labels) bool {
	for _, placeholder := range placeholders {
		if placeholder == labels.SharePrompt || strings.Contains(placeholder, labels.ShareKeyword) {
			return true
		}
	}
	return false
}

// lastToolbar picks the last toolbar on the page, the one belonging to the
// post itself, and the scroll position that brings it into view.
func lastToolbar(offsets []float64) (index int, scrollTo float64, ok bool) {
	if len(offsets) == 0 {
		return 0, 0, false
	}
	index = len(offsets) - 1
	return index, offsets[index] - toolbarScrollMargin, true
}
