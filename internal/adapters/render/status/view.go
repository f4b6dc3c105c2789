package status

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/bnema/weibo-autopilot/internal/application"
	"github.com/bnema/weibo-autopilot/internal/domain"
	"github.com/charmbracelet/lipgloss"
)

const (
	commentWidth = 40
	recentFade   = 7 * 24 * time.Hour
)

type RenderOptions struct {
	Now time.Time
	// StaleAfter flags a pending task older than this as interrupted.
	StaleAfter time.Duration
}

func renderView(status application.Status, opts RenderOptions, s styles) string {
	lines := []string{
		s.title.Render("Weibo Autopilot"),
		s.header.Render(fmt.Sprintf("reposts: %d  profile: %s", status.TotalReposts, profileLabel(status, opts.Now))),
	}

	if len(status.Topics) > 0 {
		lines = append(lines, s.topic.Render("topics: "+strings.Join(status.Topics, ", ")))
	}

	lines = append(lines, s.section.Render(renderPending(status.Pending, opts, s)))
	lines = append(lines, s.section.Render(renderRecent(status.Recent, opts, s)))

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func renderPending(task *domain.PendingTask, opts RenderOptions, s styles) string {
	title := s.label.Render("Pending repost")
	if task == nil {
		return lipgloss.JoinVertical(lipgloss.Left, title, s.empty.Render("none"))
	}

	started := s.detail.Render("started " + formatRelative(task.StartedAt, opts.Now))
	if !opts.Now.IsZero() && opts.StaleAfter > 0 && !task.StartedAt.IsZero() && opts.Now.Sub(task.StartedAt) > opts.StaleAfter {
		started += " " + s.warning.Render("[interrupted]")
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		title,
		s.postID.Render(task.PostURL),
		s.comment.Render("comment: "+truncate(task.Comment, commentWidth)),
		started,
	)
}

func renderRecent(records []domain.RepostRecord, opts RenderOptions, s styles) string {
	parts := []string{s.label.Render("Recent reposts")}
	if len(records) == 0 {
		return lipgloss.JoinVertical(lipgloss.Left, append(parts, s.empty.Render("No reposts recorded yet."))...)
	}

	for _, record := range records {
		parts = append(parts, recentLine(record, opts, s))
	}
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func recentLine(record domain.RepostRecord, opts RenderOptions, s styles) string {
	whenStyle := lipgloss.NewStyle().Foreground(recencyColor(record.Timestamp, opts.Now))

	return lipgloss.JoinHorizontal(
		lipgloss.Top,
		s.postID.Render(string(record.PostID)),
		" ",
		whenStyle.Render(fmt.Sprintf("(%s)", formatRelative(record.Timestamp, opts.Now))),
		" ",
		s.comment.Render(truncate(record.Comment, commentWidth)),
	)
}

func profileLabel(status application.Status, now time.Time) string {
	if !status.ProfileLearned {
		return "not learned"
	}
	if status.ProfileUpdated.IsZero() {
		return "seeded"
	}
	return "updated " + formatRelative(status.ProfileUpdated, now)
}

func formatRelative(at, now time.Time) string {
	if at.IsZero() {
		return "at an unknown time"
	}
	if now.IsZero() {
		return at.Format(time.RFC3339)
	}

	elapsed := now.Sub(at)
	if elapsed < time.Minute {
		return "just now"
	}
	if elapsed < time.Hour {
		return plural(int(elapsed.Minutes()), "minute") + " ago"
	}
	if elapsed < 24*time.Hour {
		return plural(int(elapsed.Hours()), "hour") + " ago"
	}

	days := int(math.Floor(elapsed.Hours() / 24))
	return fmt.Sprintf("%s ago (%s)", plural(days, "day"), at.Format("02 Jan"))
}

func plural(n int, unit string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", unit)
	}
	return fmt.Sprintf("%d %ss", n, unit)
}

func truncate(text string, width int) string {
	runes := []rune(strings.TrimSpace(text))
	if len(runes) <= width {
		return string(runes)
	}
	return string(runes[:width-1]) + "…"
}

func interpolateColor(value, min, max float64) lipgloss.Color {
	if max == min {
		return lipgloss.Color("255")
	}

	normalized := (value - min) / (max - min)
	if normalized < 0 {
		normalized = 0
	}
	if normalized > 1 {
		normalized = 1
	}

	// ANSI 256 greyscale ramp, 240 faded to 255 bright.
	baseColor := 240.0
	targetColor := 255.0

	interpolated := baseColor + (targetColor-baseColor)*normalized
	return lipgloss.Color(fmt.Sprintf("%d", int(interpolated)))
}

// recencyColor is brightest for a repost made just now and fades over a week.
func recencyColor(at, now time.Time) lipgloss.Color {
	if now.IsZero() || at.IsZero() || at.After(now) {
		return lipgloss.Color("255")
	}

	inverted := recentFade.Seconds() - now.Sub(at).Seconds()
	return interpolateColor(inverted, 0, recentFade.Seconds())
}
