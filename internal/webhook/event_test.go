package webhook

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cchalm/issue-relay/internal/issue"
)

func TestParse_Envelope(t *testing.T) {
	body := []byte(`{
		"action": "opened",
		"issue": {
			"title": "Bug: Login not working",
			"body": "Users cannot log in",
			"number": 123,
			"state": "open",
			"user": {"login": "john_doe"},
			"created_at": "2024-01-15T10:30:00Z"
		},
		"repository": {"name": "webapp", "owner": {"login": "acme"}}
	}`)

	ev, err := Parse(body)

	require.NoError(t, err)
	require.Equal(t, KindEnvelope, ev.Kind)
	require.True(t, ev.HasIssue())
	require.Equal(t, "opened", ev.Action)
	require.Equal(t, "Bug: Login not working", ev.Issue.Title)
	require.Equal(t, 123, ev.Issue.Number)
	require.Equal(t, "john_doe", ev.Issue.User.Login)
	require.NotNil(t, ev.Repository)
	require.Equal(t, "acme/webapp", ev.Repository.FullName())
}

func TestParse_EnvelopeWithoutRepository(t *testing.T) {
	ev, err := Parse([]byte(`{"issue": {"title": "t", "body": "b"}}`))

	require.NoError(t, err)
	require.Equal(t, KindEnvelope, ev.Kind)
	require.Nil(t, ev.Repository)
	require.Empty(t, ev.Action)
}

func TestParse_EnvelopeWinsOverBareFields(t *testing.T) {
	ev, err := Parse([]byte(`{"title": "outer", "body": "outer", "issue": {"title": "inner", "body": "inner"}}`))

	require.NoError(t, err)
	require.Equal(t, KindEnvelope, ev.Kind)
	require.Equal(t, "inner", ev.Issue.Title)
}

func TestParse_BareIssue(t *testing.T) {
	ev, err := Parse([]byte(`{"title": "Simple issue", "body": "Simple description", "number": 4}`))

	require.NoError(t, err)
	require.Equal(t, KindBareIssue, ev.Kind)
	require.Equal(t, "Simple issue", ev.Issue.Title)
	require.Equal(t, 4, ev.Issue.Number)
	require.Nil(t, ev.Repository)
}

func TestParse_NoIssue(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "ping event", body: `{"zen": "Keep it logically awesome.", "hook_id": 1}`},
		{name: "null issue", body: `{"issue": null}`},
		{name: "false issue", body: `{"issue": false}`},
		{name: "zero issue", body: `{"issue": 0}`},
		{name: "empty string issue", body: `{"issue": ""}`},
		{name: "empty title", body: `{"title": "", "body": "b"}`},
		{name: "missing body", body: `{"title": "t"}`},
		{name: "zero title", body: `{"title": 0, "body": "b"}`},
		{name: "empty object", body: `{}`},
		{name: "json null", body: `null`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev, err := Parse([]byte(tt.body))
			require.NoError(t, err)
			require.Equal(t, KindNone, ev.Kind)
			require.False(t, ev.HasIssue())
		})
	}
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "not json", body: `title=t&body=b`},
		{name: "array", body: `[1, 2]`},
		{name: "string", body: `"issue"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.body))
			require.Error(t, err)
		})
	}
}

func TestParse_MalformedOptionalFieldsAreDropped(t *testing.T) {
	tests := []struct {
		name string
		body string
		want issue.Payload
	}{
		{
			name: "numeric string number",
			body: `{"issue": {"title": "t", "body": "b", "number": "7"}}`,
			want: issue.Payload{Title: "t", Body: "b", Number: 7},
		},
		{
			name: "integral float number",
			body: `{"issue": {"title": "t", "body": "b", "number": 12.0}}`,
			want: issue.Payload{Title: "t", Body: "b", Number: 12},
		},
		{
			name: "non-numeric number",
			body: `{"issue": {"title": "t", "body": "b", "number": "seven"}}`,
			want: issue.Payload{Title: "t", Body: "b"},
		},
		{
			name: "string user",
			body: `{"issue": {"title": "t", "body": "b", "user": "bob"}}`,
			want: issue.Payload{Title: "t", Body: "b"},
		},
		{
			name: "user with non-string login",
			body: `{"issue": {"title": "t", "body": "b", "user": {"login": 42}}}`,
			want: issue.Payload{Title: "t", Body: "b", User: &issue.User{}},
		},
		{
			name: "numeric created_at",
			body: `{"issue": {"title": "t", "body": "b", "created_at": 1705314600}}`,
			want: issue.Payload{Title: "t", Body: "b", CreatedAt: "1705314600"},
		},
		{
			name: "object state",
			body: `{"issue": {"title": "t", "body": "b", "state": {"open": true}}}`,
			want: issue.Payload{Title: "t", Body: "b"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev, err := Parse([]byte(tt.body))

			require.NoError(t, err)
			require.Equal(t, KindEnvelope, ev.Kind)
			require.Equal(t, tt.want, ev.Issue)
		})
	}
}

func TestParse_BareIssueWithMalformedFields(t *testing.T) {
	ev, err := Parse([]byte(`{"title": "t", "body": "b", "number": "7", "user": "bob", "created_at": 1705314600}`))

	require.NoError(t, err)
	require.Equal(t, KindBareIssue, ev.Kind)
	require.Equal(t, issue.Payload{Title: "t", Body: "b", Number: 7, CreatedAt: "1705314600"}, ev.Issue)
}

func TestParse_BareIssueWithNumericTitle(t *testing.T) {
	ev, err := Parse([]byte(`{"title": 5, "body": "b"}`))

	require.NoError(t, err)
	require.Equal(t, KindBareIssue, ev.Kind)
	require.Equal(t, "5", ev.Issue.Title)
}

func TestParse_TruthyNonObjectIssue(t *testing.T) {
	for _, body := range []string{`{"issue": "nope"}`, `{"issue": true}`, `{"issue": [1]}`} {
		ev, err := Parse([]byte(body))

		require.NoError(t, err, body)
		require.Equal(t, KindEnvelope, ev.Kind, body)
		require.Equal(t, issue.Payload{}, ev.Issue, body)
	}
}

func TestKind_String(t *testing.T) {
	require.Equal(t, "none", KindNone.String())
	require.Equal(t, "envelope", KindEnvelope.String())
	require.Equal(t, "bare_issue", KindBareIssue.String())
}
