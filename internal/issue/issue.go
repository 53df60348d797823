// Package issue models the GitHub issue payload the relay logs.
package issue

import (
	"context"
	"log/slog"
	"strconv"
)

const (
	bannerOpen  = "=== GitHub Issue Received ==="
	bannerClose = "============================"
)

// User is the author of an issue.
type User struct {
	Login string `json:"login"`
}

// Payload is the subset of a GitHub issue the relay understands. Timestamps are
// kept as the strings GitHub sent so log output reproduces them exactly.
type Payload struct {
	Title     string `json:"title"`
	Body      string `json:"body"`
	Number    int    `json:"number,omitempty"`
	State     string `json:"state,omitempty"`
	User      *User  `json:"user,omitempty"`
	CreatedAt string `json:"created_at,omitempty"`
	UpdatedAt string `json:"updated_at,omitempty"`
}

// Lines renders p as log lines. Title and body are always present, even when
// empty. Optional fields appear only when set: a zero issue number is treated
// as absent, and UpdatedAt is never rendered.
func Lines(p Payload) []string {
	lines := []string{
		bannerOpen,
		"Title: " + p.Title,
		"Body: " + p.Body,
	}

	if p.Number != 0 {
		lines = append(lines, "Issue #: "+strconv.Itoa(p.Number))
	}
	if p.State != "" {
		lines = append(lines, "State: "+p.State)
	}
	if p.User != nil {
		lines = append(lines, "Created by: "+p.User.Login)
	}
	if p.CreatedAt != "" {
		lines = append(lines, "Created at: "+p.CreatedAt)
	}

	return append(lines, bannerClose)
}

// Log writes each line of p to logger at info level.
func Log(ctx context.Context, logger *slog.Logger, p Payload) {
	for _, line := range Lines(p) {
		logger.InfoContext(ctx, line)
	}
}
