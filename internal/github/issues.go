package github

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/go-github/v68/github"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/oauth2"

	"github.com/cchalm/issue-relay/internal/apperr"
	"github.com/cchalm/issue-relay/internal/config"
	"github.com/cchalm/issue-relay/internal/telemetry"
)

// List defaults and limits
const (
	DefaultListState   = "open"
	DefaultListPerPage = 30
	MaxListPerPage     = 100
)

// IssuesAPI is the subset of *github.IssuesService used by the relay
type IssuesAPI interface {
	CreateComment(ctx context.Context, owner string, repo string, number int, comment *github.IssueComment) (*github.IssueComment, *github.Response, error)
	Get(ctx context.Context, owner string, repo string, number int) (*github.Issue, *github.Response, error)
	ListByRepo(ctx context.Context, owner string, repo string, opts *github.IssueListByRepoOptions) ([]*github.Issue, *github.Response, error)
}

// Client performs issue operations against the GitHub REST API. Every call
// checks its configuration and parameters before touching the network.
type Client struct {
	token  string
	issues IssuesAPI
	logger *slog.Logger
}

// NewClient creates a GitHub client authenticated with token. Requests go
// through httpClient's transport, which may be nil for the default.
func NewClient(ctx context.Context, token string, httpClient *http.Client, logger *slog.Logger) *Client {
	githubClient := github.NewClient(oauthHTTPClient(ctx, token, httpClient))
	return NewClientWithAPI(token, githubClient.Issues, logger)
}

func oauthHTTPClient(ctx context.Context, token string, base *http.Client) *http.Client {
	if base != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, base)
	}
	tokenSource := oauth2.StaticTokenSource(
		&oauth2.Token{AccessToken: token},
	)
	return oauth2.NewClient(ctx, tokenSource)
}

// NewClientWithAPI creates a client over an existing IssuesAPI.
func NewClientWithAPI(token string, issues IssuesAPI, logger *slog.Logger) *Client {
	return &Client{
		token:  token,
		issues: issues,
		logger: logger,
	}
}

// ListOptions controls ListIssues. Zero values select the defaults.
type ListOptions struct {
	// State is "open", "closed" or "all"
	State   string
	PerPage int
}

// ParseRepo splits a qualified "owner/repo" name
func ParseRepo(qualified string) (owner string, repo string, err error) {
	parts := strings.Split(qualified, "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", apperr.Validation("invalid repository format '%s', expected owner/repo", qualified)
	}
	return parts[0], parts[1], nil
}

func (c *Client) checkToken() error {
	if c.token == "" {
		return apperr.Configuration(config.EnvGitHubToken)
	}
	return nil
}

// CreateIssueComment creates a comment on an issue
func (c *Client) CreateIssueComment(ctx context.Context, owner, repo string, number int, body string) (_ *github.IssueComment, err error) {
	if owner == "" || repo == "" || number == 0 || body == "" {
		return nil, apperr.Validation("missing required parameters: owner, repo, issue number, and body are required")
	}
	if err := c.checkToken(); err != nil {
		return nil, err
	}

	ctx, span := telemetry.StartSpan(ctx, "github.create_issue_comment", repoAttrs(owner, repo, number)...)
	defer func() { telemetry.End(span, err) }()

	c.logger.InfoContext(ctx, "creating issue comment", "repo", owner+"/"+repo, "issue", number)

	comment, _, err := c.issues.CreateComment(ctx, owner, repo, number, &github.IssueComment{
		Body: github.Ptr(body),
	})
	if err != nil {
		c.logger.ErrorContext(ctx, "error creating issue comment", "repo", owner+"/"+repo, "issue", number, "error", err)
		return nil, apperr.Upstream("create issue comment", err)
	}

	c.logger.InfoContext(ctx, "issue comment created", "comment_id", comment.GetID())
	return comment, nil
}

// GetIssue gets an issue by number
func (c *Client) GetIssue(ctx context.Context, owner, repo string, number int) (_ *github.Issue, err error) {
	if err := c.checkToken(); err != nil {
		return nil, err
	}
	if owner == "" || repo == "" || number == 0 {
		return nil, apperr.Validation("missing required parameters: owner, repo, and issue number are required")
	}

	ctx, span := telemetry.StartSpan(ctx, "github.get_issue", repoAttrs(owner, repo, number)...)
	defer func() { telemetry.End(span, err) }()

	issue, _, err := c.issues.Get(ctx, owner, repo, number)
	if err != nil {
		c.logger.ErrorContext(ctx, "error getting issue", "repo", owner+"/"+repo, "issue", number, "error", err)
		return nil, apperr.Upstream("get issue", err)
	}
	return issue, nil
}

// ListIssues lists issues for a repository
func (c *Client) ListIssues(ctx context.Context, owner, repo string, opts ListOptions) (_ []*github.Issue, err error) {
	if err := c.checkToken(); err != nil {
		return nil, err
	}
	if owner == "" || repo == "" {
		return nil, apperr.Validation("missing required parameters: owner and repo are required")
	}

	state, perPage, err := normalizeListOptions(opts)
	if err != nil {
		return nil, err
	}

	ctx, span := telemetry.StartSpan(ctx, "github.list_issues",
		attribute.String("github.repo", owner+"/"+repo),
		attribute.String("github.state", state),
	)
	defer func() { telemetry.End(span, err) }()

	issues, _, err := c.issues.ListByRepo(ctx, owner, repo, &github.IssueListByRepoOptions{
		State:       state,
		ListOptions: github.ListOptions{PerPage: perPage},
	})
	if err != nil {
		c.logger.ErrorContext(ctx, "error listing issues", "repo", owner+"/"+repo, "error", err)
		return nil, apperr.Upstream("list issues", err)
	}
	return issues, nil
}

func normalizeListOptions(opts ListOptions) (string, int, error) {
	state := opts.State
	if state == "" {
		state = DefaultListState
	}
	switch state {
	case "open", "closed", "all":
	default:
		return "", 0, apperr.Validation("invalid state '%s', expected open, closed, or all", state)
	}

	perPage := opts.PerPage
	if perPage == 0 {
		perPage = DefaultListPerPage
	}
	if perPage < 1 || perPage > MaxListPerPage {
		return "", 0, apperr.Validation("per page must be between 1 and %d, got %d", MaxListPerPage, perPage)
	}

	return state, perPage, nil
}

func repoAttrs(owner, repo string, number int) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String("github.repo", fmt.Sprintf("%s/%s", owner, repo)),
		attribute.Int("github.issue", number),
	}
}
