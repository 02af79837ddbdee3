package config

import (
	"os"
	"regexp"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// envVarPattern matches ${VAR_NAME} patterns in strings.
var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// expandEnvVars replaces ${VAR} patterns with environment variable values.
// Unset variables are left unchanged.
func expandEnvVars(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		varName := match[2 : len(match)-1]
		if val, ok := os.LookupEnv(varName); ok {
			return val
		}
		return match
	})
}

// expandSensitiveFields processes environment variable references so
// identifiers and endpoints can be stored as ${ENV_VAR} in the file.
func expandSensitiveFields(cfg *Config) {
	cfg.Bot.ID = expandEnvVars(cfg.Bot.ID)
	cfg.Bot.TenantID = expandEnvVars(cfg.Bot.TenantID)
	cfg.Bot.TokenEndpoint = expandEnvVars(cfg.Bot.TokenEndpoint)
}

// Load reads the config file, applies environment overrides, and returns
// a merged Config. A missing file is not an error: defaults plus env
// overrides allow an env-only deployment.
func Load(path string) (Config, error) {
	cfg := Defaults()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			applyEnvOverrides(&cfg)
			return cfg, nil
		}
		return cfg, err
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, &ConfigError{Message: "failed to parse config: " + err.Error()}
	}

	applyDefaults(&cfg)
	applyEnvOverrides(&cfg)
	expandSensitiveFields(&cfg)
	return cfg, nil
}

// applyDefaults fills zero-value fields with sensible defaults.
func applyDefaults(cfg *Config) {
	def := Defaults()
	if cfg.DirectLine.BaseURL == "" {
		cfg.DirectLine.BaseURL = def.DirectLine.BaseURL
	}
	if cfg.DirectLine.PollInitialMs == 0 {
		cfg.DirectLine.PollInitialMs = def.DirectLine.PollInitialMs
	}
	if cfg.DirectLine.PollMaxMs == 0 {
		cfg.DirectLine.PollMaxMs = def.DirectLine.PollMaxMs
	}
	if cfg.DirectLine.PollDeadlineMs == 0 {
		cfg.DirectLine.PollDeadlineMs = def.DirectLine.PollDeadlineMs
	}
	if cfg.Relay.ExtractionMode == "" {
		cfg.Relay.ExtractionMode = def.Relay.ExtractionMode
	}
	if cfg.Relay.SubmitTextKey == "" {
		cfg.Relay.SubmitTextKey = def.Relay.SubmitTextKey
	}
	if cfg.Relay.NoReplyText == "" {
		cfg.Relay.NoReplyText = def.Relay.NoReplyText
	}
	if cfg.Gateway.Port == 0 {
		cfg.Gateway.Port = def.Gateway.Port
	}
	if cfg.Gateway.Bind == "" {
		cfg.Gateway.Bind = def.Gateway.Bind
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = def.Logging.Level
	}
}

// applyEnvOverrides overrides config values from well-known environment
// variables.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("BOT_ID"); v != "" {
		cfg.Bot.ID = v
	}
	if v := os.Getenv("TENANT_ID"); v != "" {
		cfg.Bot.TenantID = v
	}
	if v := os.Getenv("BOT_TOKEN_ENDPOINT"); v != "" {
		cfg.Bot.TokenEndpoint = v
	}
	if v := os.Getenv("BOT_NAME"); v != "" {
		cfg.Bot.Name = v
	}
	if v := os.Getenv("END_CONVERSATION_MESSAGE"); v != "" {
		cfg.Bot.EndConversationMessage = v
	}
	if v := os.Getenv("DIRECTLINE_BASE_URL"); v != "" {
		cfg.DirectLine.BaseURL = v
	}
	if v := os.Getenv("PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Gateway.Port = port
		}
	}
	if v := os.Getenv("BOTCONNECTOR_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = strings.ToLower(v)
	}
}
