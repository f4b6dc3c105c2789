package weibo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bnema/weibo-autopilot/internal/domain"
)

var ErrNotLoggedIn = errors.New("not logged in to weibo")

const (
	profileSettle     = 2 * time.Second
	loginWaitTimeout  = 120 * time.Second
	profileRounds     = 5
	profileScrollStep = 800
	maxProfilePosts   = 50
	outboxSettle      = 3 * time.Second
	outboxRounds      = 3
	outboxScrollStep  = 600
	maxOutboxComments = 30
	activityRoundWait = 2 * time.Second
)

func (e *Engine) ProfileURL(userID string) string {
	return e.baseURL + "/u/" + strings.TrimSpace(userID)
}

func (e *Engine) OutboxURL() string {
	return e.baseURL + "/comment/outbox"
}

// CollectActivity reads the user's recent posts from their profile page and
// their recent comments from the comment outbox. If the browser profile is
// not logged in it waits for the user to log in by hand.
func (e *Engine) CollectActivity(ctx context.Context, userID string) ([]domain.ProfilePost, []domain.ProfileComment, error) {
	profileURL := e.ProfileURL(userID)
	if err := e.page.Navigate(ctx, profileURL); err != nil {
		return nil, nil, err
	}
	if err := e.clock.Sleep(ctx, profileSettle); err != nil {
		return nil, nil, err
	}

	if err := e.ensureLoggedIn(ctx, profileURL); err != nil {
		return nil, nil, err
	}

	posts, err := e.collectProfilePosts(ctx)
	if err != nil {
		return nil, nil, err
	}

	if err := e.page.Navigate(ctx, e.OutboxURL()); err != nil {
		return nil, nil, err
	}
	if err := e.clock.Sleep(ctx, outboxSettle); err != nil {
		return nil, nil, err
	}

	comments, err := e.collectOutboxComments(ctx)
	if err != nil {
		return nil, nil, err
	}

	e.logger.Info("activity collected", "posts", len(posts), "comments", len(comments))
	return posts, comments, nil
}

func (e *Engine) ensureLoggedIn(ctx context.Context, returnURL string) error {
	var loggedIn bool
	if err := e.page.Evaluate(ctx, loggedInScript(e.selectors), &loggedIn); err != nil {
		return err
	}
	if loggedIn {
		return nil
	}

	e.logger.Info("log in to Weibo in the browser window", "timeout", loginWaitTimeout)
	ready, err := e.page.WaitForElement(ctx, e.selectors.LoginFeed, loginWaitTimeout)
	if err != nil {
		return err
	}
	if !ready {
		return fmt.Errorf("%w: no feed after %s", ErrNotLoggedIn, loginWaitTimeout)
	}

	if err := e.page.Navigate(ctx, returnURL); err != nil {
		return err
	}
	return e.clock.Sleep(ctx, profileSettle)
}

func (e *Engine) collectProfilePosts(ctx context.Context) ([]domain.ProfilePost, error) {
	seen := make(map[string]struct{})
	var posts []domain.ProfilePost

	for round := 0; round < profileRounds; round++ {
		var raw []json.RawMessage
		if err := e.page.Evaluate(ctx, profilePostsScript(e.selectors), &raw); err != nil {
			return nil, fmt.Errorf("extract profile posts: %w", err)
		}
		for _, p := range decodeItems[profilePostPayload](e.logger, "profile post", raw) {
			content := strings.TrimSpace(p.Content)
			if content == "" {
				continue
			}
			if _, dup := seen[content]; dup {
				continue
			}
			seen[content] = struct{}{}
			posts = append(posts, domain.ProfilePost{Content: content, Timestamp: e.timestampOr(p.Timestamp)})
		}

		if err := e.scrollAndWait(ctx, profileScrollStep); err != nil {
			return nil, err
		}
	}

	if len(posts) > maxProfilePosts {
		posts = posts[:maxProfilePosts]
	}
	return posts, nil
}

func (e *Engine) collectOutboxComments(ctx context.Context) ([]domain.ProfileComment, error) {
	seen := make(map[string]struct{})
	var comments []domain.ProfileComment

	for round := 0; round < outboxRounds; round++ {
		var raw []json.RawMessage
		if err := e.page.Evaluate(ctx, outboxCommentsScript(e.selectors), &raw); err != nil {
			return nil, fmt.Errorf("extract outbox comments: %w", err)
		}
		for _, c := range decodeItems[outboxCommentPayload](e.logger, "outbox comment", raw) {
			content := strings.TrimSpace(c.Content)
			if content == "" {
				continue
			}
			if _, dup := seen[content]; dup {
				continue
			}
			seen[content] = struct{}{}
			comments = append(comments, domain.ProfileComment{
				Content:      content,
				OriginalPost: strings.TrimSpace(c.OriginalPost),
				Timestamp:    e.timestampOr(c.Timestamp),
			})
		}

		if err := e.scrollAndWait(ctx, outboxScrollStep); err != nil {
			return nil, err
		}
	}

	if len(comments) > maxOutboxComments {
		comments = comments[:maxOutboxComments]
	}
	return comments, nil
}

func (e *Engine) scrollAndWait(ctx context.Context, pixels int) error {
	if err := e.page.ScrollDown(ctx, pixels); err != nil {
		return err
	}
	return e.clock.Sleep(ctx, activityRoundWait)
}

func (e *Engine) timestampOr(ts string) string {
	if ts = strings.TrimSpace(ts); ts != "" {
		return ts
	}
	return e.clock.Now().UTC().Format(time.RFC3339)
}
