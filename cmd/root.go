package cmd

import "github.com/spf13/cobra"

func Execute() error {
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "weibo-autopilot",
		Short:         "Weibo autopilot: browse your feed and repost what matches your interests",
		Long:          "weibo-autopilot drives a local Chrome over the DevTools protocol to read your Weibo feed, score posts against a profile learned from your own activity, and repost the best match with a short comment on a jittered schedule.",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	app, err := wireApp()
	if err != nil {
		rootCmd.RunE = func(_ *cobra.Command, _ []string) error {
			return err
		}
		return rootCmd
	}

	rootCmd.AddCommand(
		newVersionCmd(),
		newInitCmd(app),
		newLearnCmd(app),
		newBrowseCmd(app),
		newRepostCmd(app),
		newRunCmd(app),
		newStatusCmd(app),
	)

	return rootCmd
}
