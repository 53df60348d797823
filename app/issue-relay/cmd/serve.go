package cmd

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/cchalm/issue-relay/internal/capabilities"
	"github.com/cchalm/issue-relay/internal/logging"
	"github.com/cchalm/issue-relay/internal/server"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the webhook server",
	Long: `Starts the HTTP server that receives GitHub issue webhooks on
POST /webhook/github. Deliveries must be signed with GITHUB_WEBHOOK_SECRET.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "Port to listen on (overrides PORT)")

	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	if cmd.Flags().Changed("port") {
		cfg.Port = servePort
	}
	if err := cfg.Validate(cfg.ServeFeatures()...); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	ctx := context.Background()
	logger := newLogger()

	log.Printf("Starting issue relay on port %d", cfg.Port)
	log.Printf("Notion sync: %t, issue comments: %t", cfg.SyncToNotion, cfg.CommentOnIssue)

	provider, err := createTelemetryProvider(ctx, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize telemetry: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := provider.Shutdown(shutdownCtx); err != nil {
			log.Printf("Failed to shut down telemetry: %v", err)
		}
	}()

	catalog, err := capabilities.Load()
	if err != nil {
		return err
	}

	wf := newWorkflow(ctx, logger)

	srv := server.New(server.Config{
		Port:          cfg.Port,
		MaxBodySize:   cfg.MaxBodySize,
		WebhookSecret: cfg.WebhookSecret,
	}, wf, catalog, logging.WithComponent(logger, "server"))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return waitForSignal(gctx) })
	g.Go(func() error { return srv.Start(gctx) })

	if err := g.Wait(); err != nil && !errors.Is(err, errShutdownRequested) {
		return err
	}
	log.Println("Shutdown complete")
	return nil
}
