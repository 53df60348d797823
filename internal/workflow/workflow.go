// Package workflow decides what happens to an issue once a webhook has been
// verified and parsed.
package workflow

import (
	"context"
	"log/slog"

	"github.com/google/go-github/v68/github"
	"github.com/jomei/notionapi"
	"go.opentelemetry.io/otel/attribute"

	"github.com/cchalm/issue-relay/internal/issue"
	"github.com/cchalm/issue-relay/internal/telemetry"
	"github.com/cchalm/issue-relay/internal/webhook"
)

// EmptyBodyPlaceholder is the task content used when an issue has no body.
const EmptyBodyPlaceholder = "(no description provided)"

// TaskCreator creates a task from an issue.
type TaskCreator interface {
	CreateTask(ctx context.Context, title, content string) (*notionapi.Page, error)
}

// IssueCommenter posts a comment on an issue.
type IssueCommenter interface {
	CreateIssueComment(ctx context.Context, owner, repo string, number int, body string) (*github.IssueComment, error)
}

// Options toggles the optional steps of the workflow.
type Options struct {
	SyncToNotion   bool
	CommentOnIssue bool
	CommentBody    string
}

// Workflow processes parsed webhook events.
type Workflow struct {
	logger   *slog.Logger
	tasks    TaskCreator
	comments IssueCommenter
	opts     Options
}

// New creates a workflow. tasks and comments may be nil when the matching
// option is disabled.
func New(logger *slog.Logger, tasks TaskCreator, comments IssueCommenter, opts Options) *Workflow {
	return &Workflow{
		logger:   logger,
		tasks:    tasks,
		comments: comments,
		opts:     opts,
	}
}

// Process logs the issue carried by ev and runs the enabled forwarding steps.
// Errors from downstream services are returned as is.
func (w *Workflow) Process(ctx context.Context, ev webhook.Event) (err error) {
	if !ev.HasIssue() {
		w.logger.InfoContext(ctx, "no issue data found in webhook payload")
		return nil
	}

	ctx, span := telemetry.StartSpan(ctx, "workflow.process",
		attribute.String("webhook.kind", ev.Kind.String()),
		attribute.Int("issue.number", ev.Issue.Number),
	)
	defer func() { telemetry.End(span, err) }()

	issue.Log(ctx, w.logger, ev.Issue)

	if w.opts.SyncToNotion && w.tasks != nil {
		content := ev.Issue.Body
		if content == "" {
			content = EmptyBodyPlaceholder
		}
		if _, err := w.tasks.CreateTask(ctx, ev.Issue.Title, content); err != nil {
			return err
		}
	}

	if w.shouldComment(ev) {
		repo := ev.Repository
		if _, err := w.comments.CreateIssueComment(ctx, repo.Owner, repo.Name, ev.Issue.Number, w.opts.CommentBody); err != nil {
			return err
		}
	}

	return nil
}

func (w *Workflow) shouldComment(ev webhook.Event) bool {
	if !w.opts.CommentOnIssue || w.comments == nil {
		return false
	}
	if ev.Kind != webhook.KindEnvelope || ev.Repository == nil {
		w.logger.Debug("skipping issue comment, no repository in payload")
		return false
	}
	return ev.Issue.Number != 0
}
