package weibo

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/bnema/weibo-autopilot/internal/domain"
)

const (
	harvestRounds      = 10
	harvestScrollStep  = 600
	harvestSettle      = 2 * time.Second
	harvestJitter      = time.Second
	feedReadyTimeout   = 30 * time.Second
	feedNavigateSettle = 3 * time.Second
)

// BrowseAndCollect opens the home feed, or the feed of the group whose name
// matches group, and harvests posts over several scroll rounds. Posts are
// deduplicated by id. An empty result is not an error.
func (e *Engine) BrowseAndCollect(ctx context.Context, group string) ([]domain.FeedPost, error) {
	feedURL, err := e.ResolveFeedURL(ctx, group)
	if err != nil {
		return nil, err
	}

	e.logger.Info("opening feed", "url", feedURL)
	if err := e.page.Navigate(ctx, feedURL); err != nil {
		return nil, err
	}
	if err := e.clock.Sleep(ctx, feedNavigateSettle); err != nil {
		return nil, err
	}

	ready, err := e.page.WaitForElement(ctx, e.selectors.FeedReady, feedReadyTimeout)
	if err != nil {
		return nil, err
	}
	if !ready {
		return nil, fmt.Errorf("%w: feed container %s did not appear", domain.ErrElementNotFound, e.selectors.FeedReady)
	}

	seen := make(map[domain.PostID]struct{})
	var collected []domain.FeedPost

	for round := 1; round <= harvestRounds; round++ {
		posts, err := e.extractFeed(ctx)
		if err != nil {
			return nil, err
		}
		for _, post := range posts {
			if _, dup := seen[post.ID]; dup {
				continue
			}
			seen[post.ID] = struct{}{}
			collected = append(collected, post)
		}
		e.logger.Debug("harvest round", "round", round, "extracted", len(posts), "unique", len(collected))

		if err := e.page.ScrollDown(ctx, harvestScrollStep); err != nil {
			return nil, err
		}
		if err := e.clock.Sleep(ctx, harvestSettle+e.jitter(harvestJitter)); err != nil {
			return nil, err
		}
	}

	e.logger.Info("harvest finished", "posts", len(collected))
	return collected, nil
}

// extractFeed runs one extraction pass over the rendered feed.
func (e *Engine) extractFeed(ctx context.Context) ([]domain.FeedPost, error) {
	var raw []json.RawMessage
	if err := e.page.Evaluate(ctx, feedScript(e.selectors, e.labels), &raw); err != nil {
		return nil, fmt.Errorf("extract feed: %w", err)
	}

	posts := make([]domain.FeedPost, 0, len(raw))
	for _, payload := range decodeItems[feedPostPayload](e.logger, "feed post", raw) {
		if post, ok := payload.toFeedPost(e.baseURL); ok {
			posts = append(posts, post)
		}
	}
	return posts, nil
}
