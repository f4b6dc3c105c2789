package cmd

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"github.com/bnema/weibo-autopilot/internal/application"
	"github.com/bnema/weibo-autopilot/internal/domain"
	"github.com/bnema/weibo-autopilot/internal/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
)

const browsePreviewRunes = 80

type scoredPost struct {
	post  domain.FeedPost
	score int
}

func newBrowseCmd(app *app) *cobra.Command {
	var (
		group string
		limit int
	)

	cmd := &cobra.Command{
		Use:   "browse",
		Short: "Harvest the feed and print the top posts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			m := metrics.MustNew(prometheus.NewRegistry())
			session, err := app.launchBrowser(cmd, m, app.cfg.Site.BaseURL)
			if err != nil {
				return err
			}
			defer func() { _ = session.Close() }()

			posts, err := app.newEngine(session).BrowseAndCollect(cmd.Context(), group)
			if err != nil {
				return err
			}

			profile, profileErr := app.journal.Profile(cmd.Context())
			ranked := rankPosts(posts, profile, profileErr == nil)
			return writeBrowseOutput(cmd, ranked, len(posts), limit, profileErr == nil)
		},
	}

	cmd.Flags().StringVar(&group, "group", app.cfg.Autopilot.Group, "Feed group to browse (default: home feed)")
	cmd.Flags().IntVar(&limit, "limit", 10, "Number of posts to print")

	return cmd
}

// rankPosts orders posts by relevance when a profile is known, keeping feed
// order otherwise.
func rankPosts(posts []domain.FeedPost, profile domain.UserProfile, scored bool) []scoredPost {
	ranked := make([]scoredPost, 0, len(posts))
	for _, post := range posts {
		entry := scoredPost{post: post}
		if scored {
			entry.score = application.ScorePost(post, profile)
		}
		ranked = append(ranked, entry)
	}
	if scored {
		slices.SortStableFunc(ranked, func(a, b scoredPost) int {
			return cmp.Compare(b.score, a.score)
		})
	}
	return ranked
}

func writeBrowseOutput(cmd *cobra.Command, ranked []scoredPost, total, limit int, scored bool) error {
	out := cmd.OutOrStdout()
	if _, err := fmt.Fprintf(out, "Collected %d posts\n", total); err != nil {
		return err
	}

	if limit > 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}
	for i, entry := range ranked {
		post := entry.post
		prefix := fmt.Sprintf("%2d.", i+1)
		if scored {
			prefix += fmt.Sprintf(" [%d]", entry.score)
		}
		if _, err := fmt.Fprintf(out, "%s %s: %s\n    %d reposts, %d comments, %d likes  %s\n",
			prefix, post.AuthorName, preview(post.Content), post.Reposts, post.Comments, post.Likes, post.URL); err != nil {
			return err
		}
	}
	return nil
}

func preview(content string) string {
	content = strings.Join(strings.Fields(content), " ")
	runes := []rune(content)
	if len(runes) <= browsePreviewRunes {
		return content
	}
	return string(runes[:browsePreviewRunes]) + "..."
}
