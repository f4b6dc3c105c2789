package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/bnema/weibo-autopilot/internal/application"
	"github.com/bnema/weibo-autopilot/internal/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
)

var errUserIDRequired = errors.New("no user id to learn from: pass --user or set site.user_id in the config file")

func newLearnCmd(app *app) *cobra.Command {
	var (
		refresh bool
		userID  string
	)

	cmd := &cobra.Command{
		Use:   "learn",
		Short: "Learn interests and style from your own posts and comments",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			service := application.NewLearnService(app.journal, nil, app.logger)
			if existing, needed := service.NeedsRefresh(cmd.Context(), refresh); !needed {
				_, err := fmt.Fprintf(cmd.OutOrStdout(), "Profile was updated %s, use --refresh to learn again.\n",
					existing.LastUpdated.Format("2006-01-02 15:04"))
				return err
			}

			userID = strings.TrimSpace(userID)
			if userID == "" {
				return errUserIDRequired
			}

			m := metrics.MustNew(prometheus.NewRegistry())
			profileURL := app.newEngine(nil).ProfileURL(userID)
			session, err := app.launchBrowser(cmd, m, profileURL)
			if err != nil {
				return err
			}
			defer func() { _ = session.Close() }()

			result, err := service.Learn(cmd.Context(), app.newEngine(session), userID)
			if err != nil {
				return err
			}

			profile := result.Profile
			_, err = fmt.Fprintf(cmd.OutOrStdout(),
				"Profile saved.\nTopics: %s\nKeywords: %s\nPosting style: %s, avg %d chars\nComment style: %s, avg %d chars\nPosts analyzed: %d\nComments analyzed: %d\n",
				orNone(profile.Topics),
				orNone(profile.Interests[:min(len(profile.Interests), 10)]),
				profile.PostingStyle.Tone, profile.PostingStyle.AverageLength,
				profile.CommentStyle.Tone, profile.CommentStyle.AverageLength,
				result.Posts, result.Comments,
			)
			return err
		},
	}

	cmd.Flags().BoolVarP(&refresh, "refresh", "r", false, "Learn again even if the profile is recent")
	cmd.Flags().StringVar(&userID, "user", app.cfg.Site.UserID, "Numeric Weibo user id whose activity is analysed")

	return cmd
}

func orNone(values []string) string {
	if len(values) == 0 {
		return "not identified"
	}
	return strings.Join(values, ", ")
}
