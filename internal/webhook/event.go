// Package webhook decodes verified GitHub webhook bodies into issue events.
//
// Two payload shapes are accepted: a GitHub event envelope carrying an
// "issue" object, and a bare issue object with a title and body at the top
// level. Parse tells them apart explicitly and reports which one it found.
package webhook

import (
	"encoding/json"
	"fmt"

	"github.com/cchalm/issue-relay/internal/issue"
)

// Request headers GitHub sets on every delivery.
const (
	EventHeader    = "X-GitHub-Event"
	DeliveryHeader = "X-GitHub-Delivery"
)

// Kind identifies which payload shape an Event was decoded from.
type Kind int

const (
	// KindNone means the payload carried no issue data.
	KindNone Kind = iota
	// KindEnvelope means the issue came from the "issue" field of an event envelope.
	KindEnvelope
	// KindBareIssue means the payload itself was the issue.
	KindBareIssue
)

func (k Kind) String() string {
	switch k {
	case KindEnvelope:
		return "envelope"
	case KindBareIssue:
		return "bare_issue"
	default:
		return "none"
	}
}

// Repository identifies the repository an envelope was delivered for.
type Repository struct {
	Owner string
	Name  string
}

// FullName returns "owner/name".
func (r Repository) FullName() string {
	return r.Owner + "/" + r.Name
}

// Event is a decoded webhook payload. Issue is only meaningful when Kind is
// not KindNone; Action and Repository are only set for envelopes.
type Event struct {
	Kind       Kind
	Action     string
	Issue      issue.Payload
	Repository *Repository
}

// HasIssue reports whether the event carries an issue.
func (e Event) HasIssue() bool {
	return e.Kind != KindNone
}

type repositoryJSON struct {
	Name  string `json:"name"`
	Owner struct {
		Login string `json:"login"`
	} `json:"owner"`
}

// Parse decodes body. It returns an error only when body is not a JSON
// object. An issue field counts when it is truthy in the JSON sense (not null,
// false, 0 or ""); a bare payload needs a truthy title and body. Issue fields
// of an unexpected type are dropped rather than rejected.
func Parse(body []byte) (Event, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		return Event{}, fmt.Errorf("failed to decode webhook payload: %w", err)
	}

	if raw, ok := fields["issue"]; ok && issue.Truthy(raw) {
		return parseEnvelope(fields, raw), nil
	}

	if issue.Truthy(fields["title"]) && issue.Truthy(fields["body"]) {
		var p issue.Payload
		if err := json.Unmarshal(body, &p); err != nil {
			return Event{}, fmt.Errorf("failed to decode issue payload: %w", err)
		}
		return Event{Kind: KindBareIssue, Issue: p}, nil
	}

	return Event{Kind: KindNone}, nil
}

func parseEnvelope(fields map[string]json.RawMessage, rawIssue json.RawMessage) Event {
	ev := Event{Kind: KindEnvelope}

	// A truthy issue that is not an object still makes an envelope, with no
	// issue fields set.
	if err := json.Unmarshal(rawIssue, &ev.Issue); err != nil {
		ev.Issue = issue.Payload{}
	}

	if raw, ok := fields["action"]; ok {
		// A non-string action is ignored rather than rejected.
		_ = json.Unmarshal(raw, &ev.Action)
	}

	if raw, ok := fields["repository"]; ok && issue.Truthy(raw) {
		var repo repositoryJSON
		if err := json.Unmarshal(raw, &repo); err == nil && repo.Owner.Login != "" && repo.Name != "" {
			ev.Repository = &Repository{Owner: repo.Owner.Login, Name: repo.Name}
		}
	}

	return ev
}
