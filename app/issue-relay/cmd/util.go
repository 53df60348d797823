package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/cchalm/issue-relay/internal/github"
	"github.com/cchalm/issue-relay/internal/logging"
	"github.com/cchalm/issue-relay/internal/notion"
	"github.com/cchalm/issue-relay/internal/telemetry"
	"github.com/cchalm/issue-relay/internal/transport"
	"github.com/cchalm/issue-relay/internal/workflow"
)

var errShutdownRequested = errors.New("shutdown requested")

func setupContext() context.Context {
	ctx, cancel := context.WithCancel(context.Background())

	// Setup graceful shutdown
	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)
	go func() {
		<-interrupt
		log.Println("Interrupt signal detected, shutting down gracefully...")
		cancel()
		<-interrupt
		log.Fatal("Forcing shutdown")
	}()

	return ctx
}

// waitForSignal blocks until SIGINT/SIGTERM arrives or ctx is done. A signal is
// reported as errShutdownRequested so that it cancels the surrounding group.
func waitForSignal(ctx context.Context) error {
	sigCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	<-sigCtx.Done()
	if ctx.Err() != nil {
		return nil
	}
	log.Println("Interrupt signal detected, shutting down gracefully...")
	return errShutdownRequested
}

func newLogger() *slog.Logger {
	return logging.New(os.Stderr, cfg.LogLevel)
}

func createGithubClient(ctx context.Context, logger *slog.Logger) *github.Client {
	httpClient := transport.NewClient(nil, logging.WithComponent(logger, "github-http"))
	return github.NewClient(ctx, cfg.GitHubToken, httpClient, logging.WithComponent(logger, "github"))
}

func createNotionClient(logger *slog.Logger) *notion.Client {
	httpClient := transport.NewClient(nil, logging.WithComponent(logger, "notion-http"))
	return notion.NewClient(cfg.NotionAPIKey, cfg.NotionDatabaseID, httpClient, logging.WithComponent(logger, "notion"))
}

// newWorkflow builds the issue workflow from cfg. Clients are only created for
// enabled steps; the others stay nil.
func newWorkflow(ctx context.Context, logger *slog.Logger) *workflow.Workflow {
	var tasks workflow.TaskCreator
	if cfg.SyncToNotion {
		tasks = createNotionClient(logger)
	}
	var comments workflow.IssueCommenter
	if cfg.CommentOnIssue {
		comments = createGithubClient(ctx, logger)
	}

	return workflow.New(logging.WithComponent(logger, "workflow"), tasks, comments, workflow.Options{
		SyncToNotion:   cfg.SyncToNotion,
		CommentOnIssue: cfg.CommentOnIssue,
		CommentBody:    cfg.IssueCommentBody,
	})
}

func createTelemetryProvider(ctx context.Context, logger *slog.Logger) (*telemetry.Provider, error) {
	telemetryConfig := telemetry.TelemetryConfig{
		Enabled:        cfg.TelemetryEnabled,
		Endpoint:       cfg.OTLPEndpoint,
		ServiceVersion: versionInfo.Version,
	}
	return telemetry.NewProvider(ctx, telemetryConfig, logging.WithComponent(logger, "telemetry"))
}

// printJSON writes v to w as indented JSON.
func printJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode output: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}
