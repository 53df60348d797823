package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cchalm/issue-relay/internal/config"
)

// cfg is loaded from the environment before any command runs.
var cfg config.Config

var envFile string

var rootCmd = &cobra.Command{
	Use:   "issue-relay",
	Short: "Relay GitHub issue webhooks to Notion and GitHub",
	Long: `Issue Relay receives signed GitHub issue webhooks, logs the issue and
optionally records it as a task in Notion and acknowledges it with a comment.
It also exposes the underlying GitHub and Notion operations as commands.`,
	SilenceUsage:      true,
	PersistentPreRunE: loadRootConfig,
}

func Execute() error {
	return rootCmd.Execute()
}

func loadRootConfig(_ *cobra.Command, _ []string) error {
	if err := config.LoadDotEnv(envFile); err != nil {
		return err
	}

	c, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	cfg = c
	return nil
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "Path to a .env file to load (skipped if missing)")
}
