// Package config provides configuration management for the issue relay.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"github.com/cchalm/issue-relay/internal/apperr"
)

// Environment variable names.
const (
	EnvWebhookSecret    = "GITHUB_WEBHOOK_SECRET"
	EnvGitHubToken      = "GITHUB_TOKEN"
	EnvNotionAPIKey     = "NOTION_API_KEY"
	EnvNotionDatabaseID = "NOTION_DATABASE_ID"
	EnvPort             = "PORT"
	EnvMaxBodySize      = "MAX_BODY_SIZE"
	EnvLogLevel         = "LOG_LEVEL"
	EnvSyncToNotion     = "SYNC_TO_NOTION"
	EnvCommentOnIssue   = "COMMENT_ON_ISSUE"
	EnvIssueCommentBody = "ISSUE_COMMENT_BODY"
	EnvTelemetryEnabled = "TELEMETRY_ENABLED"
	EnvOTLPEndpoint     = "OTLP_ENDPOINT"
)

// Defaults
const (
	DefaultPort             = 3000
	DefaultMaxBodySize      = 1048576 // 1 MB
	DefaultLogLevel         = "info"
	DefaultIssueCommentBody = "Thanks for the report! This issue has been received and recorded."
)

// Feature names a part of the relay whose credentials must be present before it runs.
type Feature int

const (
	FeatureWebhook Feature = iota
	FeatureGitHub
	FeatureNotion
)

// Config holds the configuration for the relay
type Config struct {
	// Credentials
	WebhookSecret    string
	GitHubToken      string
	NotionAPIKey     string
	NotionDatabaseID string

	// Server
	Port        int
	MaxBodySize int64
	LogLevel    string

	// Issue workflow
	SyncToNotion     bool
	CommentOnIssue   bool
	IssueCommentBody string

	// Telemetry
	TelemetryEnabled bool
	OTLPEndpoint     string
}

// LoadDotEnv loads variables from the given .env files (default ".env") into the
// process environment without overriding variables that are already set. A
// missing file is not an error.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("failed to load %s: %w", p, err)
		}
	}
	return nil
}

// Load loads configuration from environment variables. It only fails when a
// value is present but malformed; missing credentials are reported by Validate.
func Load() (Config, error) {
	c := Config{
		Port:             DefaultPort,
		MaxBodySize:      DefaultMaxBodySize,
		LogLevel:         DefaultLogLevel,
		IssueCommentBody: DefaultIssueCommentBody,
	}

	loadOptionalFromEnv(&c.WebhookSecret, EnvWebhookSecret)
	loadOptionalFromEnv(&c.GitHubToken, EnvGitHubToken)
	loadOptionalFromEnv(&c.NotionAPIKey, EnvNotionAPIKey)
	loadOptionalFromEnv(&c.NotionDatabaseID, EnvNotionDatabaseID)
	loadOptionalFromEnv(&c.LogLevel, EnvLogLevel)
	loadOptionalFromEnv(&c.IssueCommentBody, EnvIssueCommentBody)
	loadOptionalFromEnv(&c.OTLPEndpoint, EnvOTLPEndpoint)

	errs := []error{
		parseOptionalFromEnv(&c.Port, EnvPort, parsePort),
		parseOptionalFromEnv(&c.MaxBodySize, EnvMaxBodySize, ParseMaxBodySize),
		parseOptionalFromEnv(&c.SyncToNotion, EnvSyncToNotion, strconv.ParseBool),
		parseOptionalFromEnv(&c.CommentOnIssue, EnvCommentOnIssue, strconv.ParseBool),
		parseOptionalFromEnv(&c.TelemetryEnabled, EnvTelemetryEnabled, strconv.ParseBool),
	}
	if err := errors.Join(errs...); err != nil {
		return Config{}, err
	}

	return c, nil
}

// Validate checks that the credentials each feature depends on are present.
// All missing values are reported together.
func (c Config) Validate(features ...Feature) error {
	var errs []error
	for _, f := range features {
		switch f {
		case FeatureWebhook:
			if c.WebhookSecret == "" {
				errs = append(errs, apperr.Configuration(EnvWebhookSecret))
			}
		case FeatureGitHub:
			if c.GitHubToken == "" {
				errs = append(errs, apperr.Configuration(EnvGitHubToken))
			}
		case FeatureNotion:
			if c.NotionAPIKey == "" {
				errs = append(errs, apperr.Configuration(EnvNotionAPIKey))
			}
			if c.NotionDatabaseID == "" {
				errs = append(errs, apperr.Configuration(EnvNotionDatabaseID))
			}
		}
	}
	return errors.Join(errs...)
}

// WorkflowFeatures returns the features the issue workflow needs given its
// toggles.
func (c Config) WorkflowFeatures() []Feature {
	var features []Feature
	if c.CommentOnIssue {
		features = append(features, FeatureGitHub)
	}
	if c.SyncToNotion {
		features = append(features, FeatureNotion)
	}
	return features
}

// ServeFeatures returns the features the webhook server needs: the webhook
// secret plus whatever the workflow needs.
func (c Config) ServeFeatures() []Feature {
	return append([]Feature{FeatureWebhook}, c.WorkflowFeatures()...)
}

func loadOptionalFromEnv(dest *string, key string) {
	_ = parseOptionalFromEnv(dest, key, func(v string) (string, error) { return v, nil })
}

func parseOptionalFromEnv[T any](dest *T, key string, parseFn func(string) (T, error)) error {
	str := os.Getenv(key)
	if str == "" {
		return nil // Leave default value
	}
	v, err := parseFn(str)
	if err != nil {
		return fmt.Errorf("failed to parse environment variable '%s' value '%s' as '%T': %w", key, str, *dest, err)
	}
	*dest = v
	return nil
}

func parsePort(s string) (int, error) {
	port, err := strconv.Atoi(s)
	if err != nil {
		return 0, err
	}
	if port <= 0 || port > 65535 {
		return 0, fmt.Errorf("port out of range")
	}
	return port, nil
}

// ParseMaxBodySize parses size strings like "1MB", "512KB" or "2048576" to bytes.
func ParseMaxBodySize(size string) (int64, error) {
	upper := strings.ToUpper(strings.TrimSpace(size))
	multiplier := int64(1)

	if strings.HasSuffix(upper, "KB") {
		multiplier = 1024
		upper = strings.TrimSuffix(upper, "KB")
	} else if strings.HasSuffix(upper, "MB") {
		multiplier = 1024 * 1024
		upper = strings.TrimSuffix(upper, "MB")
	} else if strings.HasSuffix(upper, "GB") {
		multiplier = 1024 * 1024 * 1024
		upper = strings.TrimSuffix(upper, "GB")
	}

	value, err := strconv.ParseInt(strings.TrimSpace(upper), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid size value: %w", err)
	}

	if value <= 0 {
		return 0, fmt.Errorf("size must be positive")
	}

	// The server reads one byte past the limit to detect oversized bodies, so
	// the limit itself must stay below MaxInt64.
	if value > (math.MaxInt64-1)/multiplier {
		return 0, fmt.Errorf("size too large")
	}

	return value * multiplier, nil
}
