package cmd

import (
	"log"

	"github.com/spf13/cobra"

	"github.com/cchalm/issue-relay/internal/github"
)

var githubOpts struct {
	repo    string
	issue   int
	body    string
	state   string
	perPage int
}

var githubCmd = &cobra.Command{
	Use:   "github",
	Short: "GitHub issue operations",
}

var githubCommentCmd = &cobra.Command{
	Use:   "comment",
	Short: "Create a comment on an issue",
	RunE:  runGithubComment,
}

var githubIssueCmd = &cobra.Command{
	Use:   "issue",
	Short: "Read issues",
}

var githubIssueGetCmd = &cobra.Command{
	Use:   "get",
	Short: "Get an issue by number",
	RunE:  runGithubIssueGet,
}

var githubIssueListCmd = &cobra.Command{
	Use:   "list",
	Short: "List issues for a repository",
	RunE:  runGithubIssueList,
}

func init() {
	githubCmd.PersistentFlags().StringVar(&githubOpts.repo, "repo", "", "Repository name in the format 'owner/repo'")
	_ = githubCmd.MarkPersistentFlagRequired("repo")

	githubCommentCmd.Flags().IntVar(&githubOpts.issue, "issue", 0, "Issue number")
	githubCommentCmd.Flags().StringVar(&githubOpts.body, "body", "", "Comment text")
	_ = githubCommentCmd.MarkFlagRequired("issue")
	_ = githubCommentCmd.MarkFlagRequired("body")

	githubIssueGetCmd.Flags().IntVar(&githubOpts.issue, "issue", 0, "Issue number")
	_ = githubIssueGetCmd.MarkFlagRequired("issue")

	githubIssueListCmd.Flags().StringVar(&githubOpts.state, "state", github.DefaultListState, "Issue state: open, closed or all")
	githubIssueListCmd.Flags().IntVar(&githubOpts.perPage, "per-page", github.DefaultListPerPage, "Number of issues to return (max 100)")

	githubIssueCmd.AddCommand(githubIssueGetCmd, githubIssueListCmd)
	githubCmd.AddCommand(githubCommentCmd, githubIssueCmd)
	rootCmd.AddCommand(githubCmd)
}

func runGithubComment(cmd *cobra.Command, args []string) error {
	ctx := setupContext()

	owner, repo, err := github.ParseRepo(githubOpts.repo)
	if err != nil {
		return err
	}

	log.Printf("Commenting on %s/%s#%d", owner, repo, githubOpts.issue)

	client := createGithubClient(ctx, newLogger())
	comment, err := client.CreateIssueComment(ctx, owner, repo, githubOpts.issue, githubOpts.body)
	if err != nil {
		return err
	}
	return printJSON(cmd.OutOrStdout(), comment)
}

func runGithubIssueGet(cmd *cobra.Command, args []string) error {
	ctx := setupContext()

	owner, repo, err := github.ParseRepo(githubOpts.repo)
	if err != nil {
		return err
	}

	client := createGithubClient(ctx, newLogger())
	issue, err := client.GetIssue(ctx, owner, repo, githubOpts.issue)
	if err != nil {
		return err
	}
	return printJSON(cmd.OutOrStdout(), issue)
}

func runGithubIssueList(cmd *cobra.Command, args []string) error {
	ctx := setupContext()

	owner, repo, err := github.ParseRepo(githubOpts.repo)
	if err != nil {
		return err
	}

	client := createGithubClient(ctx, newLogger())
	issues, err := client.ListIssues(ctx, owner, repo, github.ListOptions{
		State:   githubOpts.state,
		PerPage: githubOpts.perPage,
	})
	if err != nil {
		return err
	}

	log.Printf("Found %d issues in %s/%s", len(issues), owner, repo)
	return printJSON(cmd.OutOrStdout(), issues)
}
