package config

import (
	"fmt"
	"slices"
)

// ValidationIssue describes a problem with a config value.
type ValidationIssue struct {
	Path    string
	Message string
}

func (v ValidationIssue) String() string {
	return fmt.Sprintf("%s: %s", v.Path, v.Message)
}

// Validate checks a Config for issues. Returns nil if valid.
// The bot identity fields are hard requirements: the relay cannot
// acquire tokens or start conversations without them.
func Validate(cfg *Config) []ValidationIssue {
	var issues []ValidationIssue

	required := []struct {
		path  string
		value string
	}{
		{"bot.id", cfg.Bot.ID},
		{"bot.tenantId", cfg.Bot.TenantID},
		{"bot.tokenEndpoint", cfg.Bot.TokenEndpoint},
		{"bot.name", cfg.Bot.Name},
		{"bot.endConversationMessage", cfg.Bot.EndConversationMessage},
	}
	for _, r := range required {
		if r.value == "" {
			issues = append(issues, ValidationIssue{
				Path:    r.path,
				Message: "required",
			})
		}
	}

	if cfg.Gateway.Port < 0 || cfg.Gateway.Port > 65535 {
		issues = append(issues, ValidationIssue{
			Path:    "gateway.port",
			Message: fmt.Sprintf("port must be 0-65535, got %d", cfg.Gateway.Port),
		})
	}

	validBinds := []string{"auto", "lan", "loopback"}
	if cfg.Gateway.Bind != "" && !slices.Contains(validBinds, cfg.Gateway.Bind) {
		issues = append(issues, ValidationIssue{
			Path:    "gateway.bind",
			Message: fmt.Sprintf("must be one of %v, got %q", validBinds, cfg.Gateway.Bind),
		})
	}

	validModes := []string{"latest", "all"}
	if cfg.Relay.ExtractionMode != "" && !slices.Contains(validModes, cfg.Relay.ExtractionMode) {
		issues = append(issues, ValidationIssue{
			Path:    "relay.extractionMode",
			Message: fmt.Sprintf("must be one of %v, got %q", validModes, cfg.Relay.ExtractionMode),
		})
	}

	if cfg.DirectLine.PollInitialMs < 0 {
		issues = append(issues, ValidationIssue{
			Path:    "directline.pollInitialMs",
			Message: fmt.Sprintf("must not be negative, got %d", cfg.DirectLine.PollInitialMs),
		})
	}
	if cfg.DirectLine.PollMaxMs < cfg.DirectLine.PollInitialMs {
		issues = append(issues, ValidationIssue{
			Path:    "directline.pollMaxMs",
			Message: fmt.Sprintf("must be >= pollInitialMs, got %d", cfg.DirectLine.PollMaxMs),
		})
	}
	if cfg.DirectLine.PollDeadlineMs <= 0 {
		issues = append(issues, ValidationIssue{
			Path:    "directline.pollDeadlineMs",
			Message: fmt.Sprintf("must be positive, got %d", cfg.DirectLine.PollDeadlineMs),
		})
	}

	validLogLevels := []string{"silent", "fatal", "error", "warn", "info", "debug", "trace"}
	if cfg.Logging.Level != "" && !slices.Contains(validLogLevels, cfg.Logging.Level) {
		issues = append(issues, ValidationIssue{
			Path:    "logging.level",
			Message: fmt.Sprintf("must be one of %v, got %q", validLogLevels, cfg.Logging.Level),
		})
	}

	return issues
}
