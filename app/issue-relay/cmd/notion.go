package cmd

import (
	"fmt"
	"log"
	"strings"

	"github.com/jomei/notionapi"
	"github.com/spf13/cobra"
)

var notionOpts struct {
	title        string
	content      string
	pageID       string
	sortProperty string
	direction    string
}

var notionCmd = &cobra.Command{
	Use:   "notion",
	Short: "Notion task database operations",
	Long: `Operations against the Notion database named by NOTION_DATABASE_ID,
authenticated with NOTION_API_KEY.`,
}

var notionTaskCmd = &cobra.Command{
	Use:   "task",
	Short: "Manage tasks",
}

var notionTaskCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a task in the database",
	RunE:  runNotionTaskCreate,
}

var notionPageCmd = &cobra.Command{
	Use:   "page",
	Short: "Read pages",
}

var notionPageGetCmd = &cobra.Command{
	Use:   "get",
	Short: "Get a page by ID",
	RunE:  runNotionPageGet,
}

var notionDatabaseCmd = &cobra.Command{
	Use:   "database",
	Short: "Read the task database",
}

var notionDatabaseGetCmd = &cobra.Command{
	Use:   "get",
	Short: "Get the database structure",
	RunE:  runNotionDatabaseGet,
}

var notionDatabaseQueryCmd = &cobra.Command{
	Use:   "query",
	Short: "Query pages in the database",
	RunE:  runNotionDatabaseQuery,
}

func init() {
	notionTaskCreateCmd.Flags().StringVar(&notionOpts.title, "title", "", "Task title")
	notionTaskCreateCmd.Flags().StringVar(&notionOpts.content, "content", "", "Task content")
	_ = notionTaskCreateCmd.MarkFlagRequired("title")
	_ = notionTaskCreateCmd.MarkFlagRequired("content")

	notionPageGetCmd.Flags().StringVar(&notionOpts.pageID, "id", "", "Page ID")
	_ = notionPageGetCmd.MarkFlagRequired("id")

	notionDatabaseQueryCmd.Flags().StringVar(&notionOpts.sortProperty, "sort-property", "", "Property to sort by")
	notionDatabaseQueryCmd.Flags().StringVar(&notionOpts.direction, "direction", "ascending", "Sort direction: ascending or descending")

	notionTaskCmd.AddCommand(notionTaskCreateCmd)
	notionPageCmd.AddCommand(notionPageGetCmd)
	notionDatabaseCmd.AddCommand(notionDatabaseGetCmd, notionDatabaseQueryCmd)
	notionCmd.AddCommand(notionTaskCmd, notionPageCmd, notionDatabaseCmd)
	rootCmd.AddCommand(notionCmd)
}

func runNotionTaskCreate(cmd *cobra.Command, args []string) error {
	ctx := setupContext()

	log.Printf("Creating Notion task %q", notionOpts.title)

	page, err := createNotionClient(newLogger()).CreateTask(ctx, notionOpts.title, notionOpts.content)
	if err != nil {
		return err
	}
	return printJSON(cmd.OutOrStdout(), page)
}

func runNotionPageGet(cmd *cobra.Command, args []string) error {
	ctx := setupContext()

	page, err := createNotionClient(newLogger()).GetPage(ctx, notionOpts.pageID)
	if err != nil {
		return err
	}
	return printJSON(cmd.OutOrStdout(), page)
}

func runNotionDatabaseGet(cmd *cobra.Command, args []string) error {
	ctx := setupContext()

	db, err := createNotionClient(newLogger()).GetDatabase(ctx)
	if err != nil {
		return err
	}
	return printJSON(cmd.OutOrStdout(), db)
}

func runNotionDatabaseQuery(cmd *cobra.Command, args []string) error {
	sorts, err := buildSorts(notionOpts.sortProperty, notionOpts.direction)
	if err != nil {
		return err
	}

	ctx := setupContext()
	resp, err := createNotionClient(newLogger()).QueryDatabase(ctx, nil, sorts)
	if err != nil {
		return err
	}

	log.Printf("Query returned %d pages", len(resp.Results))
	return printJSON(cmd.OutOrStdout(), resp)
}

// buildSorts returns the sort list for a query. An empty property means no sort.
func buildSorts(property, direction string) ([]notionapi.SortObject, error) {
	if property == "" {
		return nil, nil
	}

	var order notionapi.SortOrder
	switch strings.ToLower(direction) {
	case "", "asc", "ascending":
		order = notionapi.SortOrderASC
	case "desc", "descending":
		order = notionapi.SortOrderDESC
	default:
		return nil, fmt.Errorf("invalid sort direction '%s', expected ascending or descending", direction)
	}

	return []notionapi.SortObject{{Property: property, Direction: order}}, nil
}
