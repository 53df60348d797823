package cmd

import (
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/cchalm/issue-relay/internal/apperr"
	"github.com/cchalm/issue-relay/internal/webhook"
)

var eventFile string

var processCmd = &cobra.Command{
	Use:   "process",
	Short: "Run the issue workflow once on an event payload",
	Long: `Processes a single issue event payload read from a file. This mode is
designed to be triggered by GitHub Actions, where the event is available at
$GITHUB_EVENT_PATH and no webhook signature is involved.`,
	RunE: runProcess,
}

func init() {
	processCmd.Flags().StringVar(&eventFile, "event-file", "", "Path to the event payload (default $GITHUB_EVENT_PATH)")

	rootCmd.AddCommand(processCmd)
}

func runProcess(cmd *cobra.Command, args []string) error {
	path := eventFile
	if path == "" {
		path = os.Getenv("GITHUB_EVENT_PATH")
	}
	if path == "" {
		return apperr.Validation("--event-file or GITHUB_EVENT_PATH is required")
	}

	if err := cfg.Validate(cfg.WorkflowFeatures()...); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	ctx := setupContext()
	logger := newLogger()

	log.Printf("Processing event payload %s", path)

	body, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read event payload: %w", err)
	}
	ev, err := webhook.Parse(body)
	if err != nil {
		return err
	}

	if err := newWorkflow(ctx, logger).Process(ctx, ev); err != nil {
		return err
	}

	log.Printf("Processed %s payload", ev.Kind)
	return nil
}
