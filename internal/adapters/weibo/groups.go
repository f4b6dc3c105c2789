package weibo

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/bnema/weibo-autopilot/internal/domain"
)

const groupsSettle = 3 * time.Second

var groupIDPattern = regexp.MustCompile(`gid=(\d+)`)

// ResolveFeedURL returns the home feed for an empty group, else the feed of
// the first group whose name contains group or is contained in it. Unknown
// groups fall back to the home feed.
func (e *Engine) ResolveFeedURL(ctx context.Context, group string) (string, error) {
	group = strings.TrimSpace(group)
	if group == "" {
		return e.baseURL, nil
	}

	groups, err := e.FetchGroups(ctx)
	if err != nil {
		return "", err
	}

	if match, ok := MatchGroup(groups, group); ok {
		e.logger.Info("group resolved", "group", match.Name, "gid", match.GID)
		return e.groupFeedURL(match.GID), nil
	}

	e.logger.Warn("group not found, using home feed", "group", group, "known", len(groups))
	return e.baseURL, nil
}

// FetchGroups opens the group list page and parses its links.
func (e *Engine) FetchGroups(ctx context.Context) ([]domain.Group, error) {
	if err := e.page.Navigate(ctx, e.baseURL+"/mygroups"); err != nil {
		return nil, err
	}
	if err := e.clock.Sleep(ctx, groupsSettle); err != nil {
		return nil, err
	}

	var html string
	if err := e.page.Evaluate(ctx, pageHTMLScript, &html); err != nil {
		return nil, fmt.Errorf("read group page: %w", err)
	}

	groups, err := GroupsFromHTML(html, e.selectors.GroupLinks)
	if err != nil {
		return nil, err
	}
	e.logger.Debug("groups listed", "count", len(groups))
	return groups, nil
}

func (e *Engine) groupFeedURL(gid string) string {
	return e.baseURL + "/mygroups?gid=" + gid
}

// GroupsFromHTML extracts named group links carrying a gid query parameter.
func GroupsFromHTML(html, selector string) ([]domain.Group, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parse group page: %w", err)
	}

	var groups []domain.Group
	seen := make(map[string]struct{})
	doc.Find(selector).Each(func(_ int, s *goquery.Selection) {
		name := strings.TrimSpace(s.Text())
		href, _ := s.Attr("href")
		match := groupIDPattern.FindStringSubmatch(href)
		if name == "" || match == nil {
			return
		}
		if _, dup := seen[match[1]]; dup {
			return
		}
		seen[match[1]] = struct{}{}
		groups = append(groups, domain.Group{Name: name, GID: match[1]})
	})
	return groups, nil
}

// MatchGroup finds the first group whose name contains want, or is contained
// in it.
func MatchGroup(groups []domain.Group, want string) (domain.Group, bool) {
	for _, g := range groups {
		if strings.Contains(g.Name, want) || strings.Contains(want, g.Name) {
			return g, true
		}
	}
	return domain.Group{}, false
}
