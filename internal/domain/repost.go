package domain

import (
	"regexp"
	"time"
)

const MaxRepostHistory = 1000

var trailingPathSegment = regexp.MustCompile(`/(\w+)$`)

type PendingTask struct {
	PostURL   string
	Comment   string
	StartedAt time.Time
}

type RepostRecord struct {
	PostID    PostID
	PostURL   string
	Comment   string
	Timestamp time.Time
}

type RepostHistory struct {
	Reposts []RepostRecord
}

// Append adds record and evicts the oldest entries beyond MaxRepostHistory.
func (h *RepostHistory) Append(record RepostRecord) {
	h.Reposts = append(h.Reposts, record)
	if overflow := len(h.Reposts) - MaxRepostHistory; overflow > 0 {
		h.Reposts = append([]RepostRecord(nil), h.Reposts[overflow:]...)
	}
}

func (h RepostHistory) Contains(id PostID) bool {
	for _, record := range h.Reposts {
		if record.PostID == id {
			return true
		}
	}

	return false
}

// Recent returns up to n records, newest first.
func (h RepostHistory) Recent(n int) []RepostRecord {
	if n <= 0 || n > len(h.Reposts) {
		n = len(h.Reposts)
	}

	recent := make([]RepostRecord, 0, n)
	for i := len(h.Reposts) - 1; i >= 0 && len(recent) < n; i-- {
		recent = append(recent, h.Reposts[i])
	}

	return recent
}

// PostIDFromURL derives a post identifier from a permalink's last path
// segment, falling back to the whole URL.
func PostIDFromURL(postURL string) PostID {
	if match := trailingPathSegment.FindStringSubmatch(postURL); match != nil {
		return PostID(match[1])
	}

	return PostID(postURL)
}
