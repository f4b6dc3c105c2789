package cmd

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/bnema/weibo-autopilot/internal/config"
	"github.com/bnema/weibo-autopilot/internal/domain"
	"github.com/spf13/cobra"
)

func newInitCmd(app *app) *cobra.Command {
	var (
		topics    []string
		group     string
		interval  int
		userID    string
		signature bool
		force     bool
	)

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a starter config file and seed the interest profile",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if interval <= 0 {
				return fmt.Errorf("--interval must be positive, got %d", interval)
			}

			path := app.cfg.File
			if path == "" {
				dir, err := config.Dir()
				if err != nil {
					return err
				}
				path = filepath.Join(dir, config.FileName)
			}

			cfg := app.cfg
			cfg.Autopilot.Group = strings.TrimSpace(group)
			cfg.Autopilot.Interval = interval
			cfg.Autopilot.SignatureEnabled = signature
			cfg.Site.UserID = strings.TrimSpace(userID)
			if err := config.Write(path, cfg, force); err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if _, err := fmt.Fprintf(out, "Wrote %s\n", path); err != nil {
				return err
			}

			seeded := cleanTopics(topics)
			if len(seeded) == 0 {
				return nil
			}
			if _, err := app.journal.Profile(cmd.Context()); err == nil {
				_, err := fmt.Fprintln(out, "Kept the existing user profile.")
				return err
			}
			profile := domain.UserProfile{Interests: seeded, Topics: seeded}
			if err := app.journal.SaveProfile(cmd.Context(), profile); err != nil {
				return err
			}
			_, err := fmt.Fprintf(out, "Seeded user profile with topics: %s\n", strings.Join(seeded, ", "))
			return err
		},
	}

	cmd.Flags().StringSliceVar(&topics, "topics", nil, "Comma separated topics of interest used until learn runs")
	cmd.Flags().StringVar(&group, "group", app.cfg.Autopilot.Group, "Default feed group")
	cmd.Flags().IntVar(&interval, "interval", app.cfg.Autopilot.Interval, "Minutes between cycles")
	cmd.Flags().StringVar(&userID, "user", app.cfg.Site.UserID, "Numeric Weibo user id to learn from")
	cmd.Flags().BoolVar(&signature, "signature", app.cfg.Autopilot.SignatureEnabled, "Append the automation signature to comments")
	cmd.Flags().BoolVar(&force, "force", false, "Replace an existing config file")

	return cmd
}

func cleanTopics(topics []string) []string {
	cleaned := make([]string, 0, len(topics))
	for _, topic := range topics {
		topic = strings.TrimSpace(topic)
		if topic != "" && !containsString(cleaned, topic) {
			cleaned = append(cleaned, topic)
		}
	}
	return cleaned
}

func containsString(values []string, want string) bool {
	for _, value := range values {
		if value == want {
			return true
		}
	}
	return false
}
