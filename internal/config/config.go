package config

import "fmt"

// ConfigError represents a configuration error.
type ConfigError struct {
	Message string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config: %s", e.Message)
}

// Config is the root configuration for the BotConnector relay.
type Config struct {
	Bot        BotConfig        `yaml:"bot,omitempty"`
	DirectLine DirectLineConfig `yaml:"directline,omitempty"`
	Relay      RelayConfig      `yaml:"relay,omitempty"`
	Gateway    GatewayConfig    `yaml:"gateway,omitempty"`
	Logging    LoggingConfig    `yaml:"logging,omitempty"`
}

// BotConfig identifies the bot the relay speaks for. All fields are
// required; the process refuses to start without them.
type BotConfig struct {
	ID                     string `yaml:"id"`
	TenantID               string `yaml:"tenantId"`
	TokenEndpoint          string `yaml:"tokenEndpoint"`
	Name                   string `yaml:"name"`
	EndConversationMessage string `yaml:"endConversationMessage"`
}

// DirectLineConfig controls the Direct Line transport.
type DirectLineConfig struct {
	BaseURL string `yaml:"baseUrl,omitempty"`
	// Poll timings in milliseconds. After posting a message the relay
	// polls the activity log with doubling intervals between
	// PollInitialMs and PollMaxMs until PollDeadlineMs elapses.
	PollInitialMs  int  `yaml:"pollInitialMs,omitempty"`
	PollMaxMs      int  `yaml:"pollMaxMs,omitempty"`
	PollDeadlineMs int  `yaml:"pollDeadlineMs,omitempty"`
	Stream         bool `yaml:"stream,omitempty"` // listen on the conversation streamUrl instead of polling
}

// RelayConfig controls reply extraction behavior.
type RelayConfig struct {
	ExtractionMode string `yaml:"extractionMode,omitempty"` // "latest" | "all"
	SubmitTextKey  string `yaml:"submitTextKey,omitempty"`  // key the inbound body is merged under for card auto-submit
	NoReplyText    string `yaml:"noReplyText,omitempty"`    // reply when the bot produced nothing
}

// GatewayConfig controls the webhook HTTP server.
type GatewayConfig struct {
	Port        int      `yaml:"port,omitempty"`
	Bind        string   `yaml:"bind,omitempty"`        // "loopback" | "lan" | "auto"
	CORSOrigins []string `yaml:"corsOrigins,omitempty"` // allowed cross-origin callers; empty denies all
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	Level string `yaml:"level,omitempty"` // "silent" | "fatal" | "error" | "warn" | "info" | "debug" | "trace"
}

// Defaults returns a Config with sensible defaults applied.
func Defaults() Config {
	return Config{
		DirectLine: DirectLineConfig{
			BaseURL:        "https://europe.directline.botframework.com/v3/directline",
			PollInitialMs:  500,
			PollMaxMs:      2000,
			PollDeadlineMs: 10000,
		},
		Relay: RelayConfig{
			ExtractionMode: "latest",
			SubmitTextKey:  "text",
			NoReplyText:    "No response from bot",
		},
		Gateway: GatewayConfig{
			Port: 5157,
			Bind: "lan",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}
