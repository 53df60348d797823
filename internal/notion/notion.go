// Package notion wraps the Notion API for the relay's task database.
//
// Every operation validates the API key and target database ID before any
// request is made, so a misconfigured relay fails fast with an
// apperr.ErrConfiguration instead of a 401 from Notion.
package notion

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/jomei/notionapi"
	"go.opentelemetry.io/otel/attribute"

	"github.com/cchalm/issue-relay/internal/apperr"
	"github.com/cchalm/issue-relay/internal/config"
	"github.com/cchalm/issue-relay/internal/telemetry"
)

// TitleProperty is the database property the task title is written to.
const TitleProperty = "Title"

// PageAPI is the subset of notionapi.PageService used by the relay.
type PageAPI interface {
	Create(ctx context.Context, request *notionapi.PageCreateRequest) (*notionapi.Page, error)
	Get(ctx context.Context, id notionapi.PageID) (*notionapi.Page, error)
}

// DatabaseAPI is the subset of notionapi.DatabaseService used by the relay.
type DatabaseAPI interface {
	Get(ctx context.Context, id notionapi.DatabaseID) (*notionapi.Database, error)
	Query(ctx context.Context, id notionapi.DatabaseID, request *notionapi.DatabaseQueryRequest) (*notionapi.DatabaseQueryResponse, error)
}

// Client performs page and database operations against one Notion database.
type Client struct {
	apiKey     string
	databaseID string
	pages      PageAPI
	databases  DatabaseAPI
	logger     *slog.Logger
}

// NewClient creates a Notion client. Requests go through httpClient, which may
// be nil for the default.
func NewClient(apiKey, databaseID string, httpClient *http.Client, logger *slog.Logger) *Client {
	// One attempt: the SDK returns the first 429 as an error instead of sleeping.
	opts := []notionapi.ClientOption{notionapi.WithRetry(1)}
	if httpClient != nil {
		opts = append(opts, notionapi.WithHTTPClient(httpClient))
	}
	api := notionapi.NewClient(notionapi.Token(apiKey), opts...)
	return NewClientWithAPI(apiKey, databaseID, api.Page, api.Database, logger)
}

// NewClientWithAPI creates a client over existing page and database services.
func NewClientWithAPI(apiKey, databaseID string, pages PageAPI, databases DatabaseAPI, logger *slog.Logger) *Client {
	return &Client{
		apiKey:     apiKey,
		databaseID: databaseID,
		pages:      pages,
		databases:  databases,
		logger:     logger,
	}
}

func (c *Client) checkConfig() error {
	if c.apiKey == "" {
		return apperr.Configuration(config.EnvNotionAPIKey)
	}
	if c.databaseID == "" {
		return apperr.Configuration(config.EnvNotionDatabaseID)
	}
	return nil
}

// CreateTask creates a page in the database with title as its Title property
// and content as a single paragraph.
func (c *Client) CreateTask(ctx context.Context, title, content string) (_ *notionapi.Page, err error) {
	if err := c.checkConfig(); err != nil {
		return nil, err
	}
	if title == "" || content == "" {
		return nil, apperr.Validation("title and content are required parameters")
	}

	ctx, span := telemetry.StartSpan(ctx, "notion.create_task", attribute.String("notion.database_id", c.databaseID))
	defer func() { telemetry.End(span, err) }()

	c.logger.InfoContext(ctx, "creating task in notion", "title", title)

	page, err := c.pages.Create(ctx, newTaskRequest(c.databaseID, title, content))
	if err != nil {
		c.logger.ErrorContext(ctx, "error creating task in notion", "error", err)
		return nil, apperr.Upstream("create notion task", err)
	}

	c.logger.InfoContext(ctx, "task created", "page_id", string(page.ID))
	return page, nil
}

func newTaskRequest(databaseID, title, content string) *notionapi.PageCreateRequest {
	return &notionapi.PageCreateRequest{
		Parent: notionapi.Parent{
			Type:       notionapi.ParentTypeDatabaseID,
			DatabaseID: notionapi.DatabaseID(databaseID),
		},
		Properties: notionapi.Properties{
			TitleProperty: notionapi.TitleProperty{
				Title: []notionapi.RichText{
					{Text: &notionapi.Text{Content: title}},
				},
			},
		},
		Children: []notionapi.Block{
			&notionapi.ParagraphBlock{
				BasicBlock: notionapi.BasicBlock{
					Object: notionapi.ObjectTypeBlock,
					Type:   notionapi.BlockTypeParagraph,
				},
				Paragraph: notionapi.Paragraph{
					RichText: []notionapi.RichText{
						{Type: notionapi.ObjectTypeText, Text: &notionapi.Text{Content: content}},
					},
				},
			},
		},
	}
}

// GetPage gets a page by ID
func (c *Client) GetPage(ctx context.Context, pageID string) (_ *notionapi.Page, err error) {
	if err := c.checkConfig(); err != nil {
		return nil, err
	}
	if pageID == "" {
		return nil, apperr.Validation("page ID is required")
	}

	ctx, span := telemetry.StartSpan(ctx, "notion.get_page", attribute.String("notion.page_id", pageID))
	defer func() { telemetry.End(span, err) }()

	page, err := c.pages.Get(ctx, notionapi.PageID(pageID))
	if err != nil {
		c.logger.ErrorContext(ctx, "error getting page from notion", "page_id", pageID, "error", err)
		return nil, apperr.Upstream("get notion page", err)
	}
	return page, nil
}

// GetDatabase gets the configured database's structure
func (c *Client) GetDatabase(ctx context.Context) (_ *notionapi.Database, err error) {
	if err := c.checkConfig(); err != nil {
		return nil, err
	}

	ctx, span := telemetry.StartSpan(ctx, "notion.get_database", attribute.String("notion.database_id", c.databaseID))
	defer func() { telemetry.End(span, err) }()

	db, err := c.databases.Get(ctx, notionapi.DatabaseID(c.databaseID))
	if err != nil {
		c.logger.ErrorContext(ctx, "error getting database from notion", "error", err)
		return nil, apperr.Upstream("get notion database", err)
	}
	return db, nil
}

// QueryDatabase queries the configured database. filter and sorts are optional.
func (c *Client) QueryDatabase(ctx context.Context, filter notionapi.Filter, sorts []notionapi.SortObject) (_ *notionapi.DatabaseQueryResponse, err error) {
	if err := c.checkConfig(); err != nil {
		return nil, err
	}

	ctx, span := telemetry.StartSpan(ctx, "notion.query_database", attribute.String("notion.database_id", c.databaseID))
	defer func() { telemetry.End(span, err) }()

	resp, err := c.databases.Query(ctx, notionapi.DatabaseID(c.databaseID), &notionapi.DatabaseQueryRequest{
		Filter: filter,
		Sorts:  sorts,
	})
	if err != nil {
		c.logger.ErrorContext(ctx, "error querying database", "error", err)
		return nil, apperr.Upstream("query notion database", err)
	}
	return resp, nil
}
