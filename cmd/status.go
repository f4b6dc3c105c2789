package cmd

import (
	"encoding/json"
	"fmt"
	"time"

	statusadapter "github.com/bnema/weibo-autopilot/internal/adapters/render/status"
	"github.com/bnema/weibo-autopilot/internal/application"
	"github.com/spf13/cobra"
)

const pendingStaleAfter = 10 * time.Minute

func newStatusCmd(app *app) *cobra.Command {
	var (
		limit  int
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the pending repost and recent history",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			status := app.journal.Status(cmd.Context(), limit)
			return writeStatusOutput(cmd, app, status, asJSON)
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 10, "Number of recent reposts to show")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Render JSON output")

	return cmd
}

func writeStatusOutput(cmd *cobra.Command, app *app, status application.Status, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(status)
	}

	rendered, err := app.statusRenderer(status, statusadapter.RenderOptions{
		Now:        app.now(),
		StaleAfter: pendingStaleAfter,
	})
	if err != nil {
		return err
	}

	_, err = fmt.Fprintln(cmd.OutOrStdout(), rendered)
	return err
}
