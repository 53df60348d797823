package github

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/google/go-github/v68/github"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/cchalm/issue-relay/internal/apperr"
)

type upstreamError struct{ status int }

func (e *upstreamError) Error() string { return "upstream returned an error" }

type mockIssuesAPI struct {
	mock.Mock
}

func (m *mockIssuesAPI) CreateComment(ctx context.Context, owner string, repo string, number int, comment *github.IssueComment) (*github.IssueComment, *github.Response, error) {
	args := m.Called(ctx, owner, repo, number, comment)
	c, _ := args.Get(0).(*github.IssueComment)
	return c, nil, args.Error(1)
}

func (m *mockIssuesAPI) Get(ctx context.Context, owner string, repo string, number int) (*github.Issue, *github.Response, error) {
	args := m.Called(ctx, owner, repo, number)
	i, _ := args.Get(0).(*github.Issue)
	return i, nil, args.Error(1)
}

func (m *mockIssuesAPI) ListByRepo(ctx context.Context, owner string, repo string, opts *github.IssueListByRepoOptions) ([]*github.Issue, *github.Response, error) {
	args := m.Called(ctx, owner, repo, opts)
	is, _ := args.Get(0).([]*github.Issue)
	return is, nil, args.Error(1)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestCreateIssueComment_ValidationBeforeNetwork(t *testing.T) {
	tests := []struct {
		name   string
		owner  string
		repo   string
		number int
		body   string
	}{
		{name: "missing owner", repo: "webapp", number: 1, body: "hi"},
		{name: "missing repo", owner: "acme", number: 1, body: "hi"},
		{name: "zero issue number", owner: "acme", repo: "webapp", body: "hi"},
		{name: "missing body", owner: "acme", repo: "webapp", number: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := &mockIssuesAPI{}
			c := NewClientWithAPI("token", api, testLogger())

			_, err := c.CreateIssueComment(context.Background(), tt.owner, tt.repo, tt.number, tt.body)

			require.ErrorIs(t, err, apperr.ErrValidation)
			api.AssertNotCalled(t, "CreateComment", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestCreateIssueComment_ParametersCheckedBeforeToken(t *testing.T) {
	c := NewClientWithAPI("", &mockIssuesAPI{}, testLogger())

	_, err := c.CreateIssueComment(context.Background(), "", "", 0, "")

	require.ErrorIs(t, err, apperr.ErrValidation)
}

func TestMissingToken_FailsWithConfigurationError(t *testing.T) {
	api := &mockIssuesAPI{}
	c := NewClientWithAPI("", api, testLogger())
	ctx := context.Background()

	_, err := c.CreateIssueComment(ctx, "acme", "webapp", 1, "hi")
	require.ErrorIs(t, err, apperr.ErrConfiguration)
	require.Contains(t, err.Error(), "GITHUB_TOKEN")

	_, err = c.GetIssue(ctx, "acme", "webapp", 1)
	require.ErrorIs(t, err, apperr.ErrConfiguration)

	_, err = c.ListIssues(ctx, "acme", "webapp", ListOptions{})
	require.ErrorIs(t, err, apperr.ErrConfiguration)

	require.Empty(t, api.Calls)
}

func TestCreateIssueComment_Success(t *testing.T) {
	api := &mockIssuesAPI{}
	api.On("CreateComment", mock.Anything, "acme", "webapp", 42, mock.MatchedBy(func(c *github.IssueComment) bool {
		return c.GetBody() == "Thanks!"
	})).Return(&github.IssueComment{ID: github.Ptr(int64(12345)), Body: github.Ptr("Thanks!")}, nil)

	c := NewClientWithAPI("token", api, testLogger())
	comment, err := c.CreateIssueComment(context.Background(), "acme", "webapp", 42, "Thanks!")

	require.NoError(t, err)
	require.Equal(t, int64(12345), comment.GetID())
	api.AssertExpectations(t)
}

func TestCreateIssueComment_UpstreamFailure(t *testing.T) {
	cause := &upstreamError{status: http.StatusNotFound}
	api := &mockIssuesAPI{}
	api.On("CreateComment", mock.Anything, "acme", "webapp", 42, mock.Anything).Return(nil, cause).Once()

	c := NewClientWithAPI("token", api, testLogger())
	_, err := c.CreateIssueComment(context.Background(), "acme", "webapp", 42, "Thanks!")

	require.ErrorIs(t, err, apperr.ErrUpstream)
	var target *upstreamError
	require.True(t, errors.As(err, &target))
	require.Equal(t, http.StatusNotFound, target.status)
	// No retry
	api.AssertNumberOfCalls(t, "CreateComment", 1)
}

func TestListIssues_Defaults(t *testing.T) {
	api := &mockIssuesAPI{}
	api.On("ListByRepo", mock.Anything, "acme", "webapp", &github.IssueListByRepoOptions{
		State:       "open",
		ListOptions: github.ListOptions{PerPage: 30},
	}).Return([]*github.Issue{{Number: github.Ptr(1)}}, nil)

	c := NewClientWithAPI("token", api, testLogger())
	issues, err := c.ListIssues(context.Background(), "acme", "webapp", ListOptions{})

	require.NoError(t, err)
	require.Len(t, issues, 1)
	api.AssertExpectations(t)
}

func TestListIssues_InvalidOptions(t *testing.T) {
	tests := []struct {
		name string
		opts ListOptions
	}{
		{name: "unknown state", opts: ListOptions{State: "merged"}},
		{name: "per page too large", opts: ListOptions{PerPage: 101}},
		{name: "negative per page", opts: ListOptions{PerPage: -1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := &mockIssuesAPI{}
			c := NewClientWithAPI("token", api, testLogger())

			_, err := c.ListIssues(context.Background(), "acme", "webapp", tt.opts)

			require.ErrorIs(t, err, apperr.ErrValidation)
			require.Empty(t, api.Calls)
		})
	}
}

func TestGetIssue_MissingParameters(t *testing.T) {
	api := &mockIssuesAPI{}
	c := NewClientWithAPI("token", api, testLogger())

	_, err := c.GetIssue(context.Background(), "acme", "", 3)

	require.ErrorIs(t, err, apperr.ErrValidation)
	require.Empty(t, api.Calls)
}

func TestParseRepo(t *testing.T) {
	owner, repo, err := ParseRepo("acme/webapp")
	require.NoError(t, err)
	require.Equal(t, "acme", owner)
	require.Equal(t, "webapp", repo)

	for _, bad := range []string{"", "acme", "acme/", "/webapp", "a/b/c"} {
		_, _, err := ParseRepo(bad)
		require.ErrorIs(t, err, apperr.ErrValidation, "input %q", bad)
	}
}

// newTestServerClient points a real go-github client at an httptest server.
func newTestServerClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	gh := github.NewClient(srv.Client())
	baseURL, err := url.Parse(srv.URL + "/")
	require.NoError(t, err)
	gh.BaseURL = baseURL

	return NewClientWithAPI("token", gh.Issues, testLogger())
}

func TestGetIssue_OverHTTP(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /repos/acme/webapp/issues/123", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"number":123,"title":"Bug: Login not working","state":"open","user":{"login":"john_doe"}}`))
	})

	c := newTestServerClient(t, mux)
	issue, err := c.GetIssue(context.Background(), "acme", "webapp", 123)

	require.NoError(t, err)
	require.Equal(t, 123, issue.GetNumber())
	require.Equal(t, "Bug: Login not working", issue.GetTitle())
	require.Equal(t, "john_doe", issue.GetUser().GetLogin())
}

func TestCreateIssueComment_OverHTTP(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /repos/acme/webapp/issues/7/comments", func(w http.ResponseWriter, r *http.Request) {
		var req map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Equal(t, "Recorded", req["body"])

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":999,"body":"Recorded","user":{"login":"relay-bot"}}`))
	})

	c := newTestServerClient(t, mux)
	comment, err := c.CreateIssueComment(context.Background(), "acme", "webapp", 7, "Recorded")

	require.NoError(t, err)
	require.Equal(t, int64(999), comment.GetID())
}

func TestListIssues_OverHTTP(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /repos/acme/webapp/issues", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "closed", r.URL.Query().Get("state"))
		require.Equal(t, "5", r.URL.Query().Get("per_page"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"number":1},{"number":2}]`))
	})

	c := newTestServerClient(t, mux)
	issues, err := c.ListIssues(context.Background(), "acme", "webapp", ListOptions{State: "closed", PerPage: 5})

	require.NoError(t, err)
	require.Len(t, issues, 2)
}

func TestGetIssue_UpstreamErrorOverHTTP(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /repos/acme/webapp/issues/404", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"message":"Not Found"}`))
	})

	c := newTestServerClient(t, mux)
	_, err := c.GetIssue(context.Background(), "acme", "webapp", 404)

	require.ErrorIs(t, err, apperr.ErrUpstream)
	var target *github.ErrorResponse
	require.True(t, errors.As(err, &target))
	require.Equal(t, http.StatusNotFound, target.Response.StatusCode)
}

func TestOAuthHTTPClient_SendsToken(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	httpClient := oauthHTTPClient(context.Background(), "ghp_secret", srv.Client())
	resp, err := httpClient.Get(srv.URL)
	require.NoError(t, err)
	resp.Body.Close()

	require.Equal(t, "Bearer ghp_secret", gotAuth)
}

func TestNewClient_UsesIssuesService(t *testing.T) {
	c := NewClient(context.Background(), "ghp_secret", nil, testLogger())

	_, ok := c.issues.(*github.IssuesService)
	require.True(t, ok)
}
