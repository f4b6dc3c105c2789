package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/bnema/weibo-autopilot/internal/application"
	"github.com/bnema/weibo-autopilot/internal/domain"
	"github.com/bnema/weibo-autopilot/internal/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
)

const defaultRepostComment = "转发微博"

var errRepostNotConfirmed = errors.New("repost was not confirmed, the pending task is kept for the next run")

func newRepostCmd(app *app) *cobra.Command {
	var (
		comment string
		force   bool
	)

	cmd := &cobra.Command{
		Use:   "repost <post-url>",
		Short: "Repost a single post with a comment",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			postURL := strings.TrimSpace(args[0])
			if !strings.HasPrefix(postURL, "http://") && !strings.HasPrefix(postURL, "https://") {
				return fmt.Errorf("post url must be absolute, got %q", postURL)
			}

			if !force && app.journal.HasReposted(cmd.Context(), domain.PostIDFromURL(postURL)) {
				_, err := fmt.Fprintf(cmd.OutOrStdout(), "Already reposted %s, use --force to repost again\n", postURL)
				return err
			}

			m := metrics.MustNew(prometheus.NewRegistry())
			session, err := app.launchBrowser(cmd, m, postURL)
			if err != nil {
				return err
			}
			defer func() { _ = session.Close() }()

			autopilot := application.NewAutopilot(app.newEngine(session), app.journal, application.AutopilotConfig{},
				application.WithAutopilotLogger(app.logger),
				application.WithMetrics(m),
			)
			reposted, err := autopilot.RepostPost(cmd.Context(), "", postURL, comment)
			if err != nil {
				return err
			}
			if !reposted {
				return errRepostNotConfirmed
			}

			_, err = fmt.Fprintf(cmd.OutOrStdout(), "Reposted %s\n", postURL)
			return err
		},
	}

	cmd.Flags().StringVar(&comment, "comment", defaultRepostComment, "Comment to post with the repost")
	cmd.Flags().BoolVar(&force, "force", false, "Repost even when the post is already in the history")

	return cmd
}
