// Package config loads and validates the bot's YAML configuration file.
package config

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/viper"

	"github.com/sevigo/wikiconflictbot/internal/logger"
	"github.com/sevigo/wikiconflictbot/internal/wikierr"
)

// Config is the top-level configuration structure.
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Logging    LoggingConfig    `mapstructure:"logging"`
	GitHub     GitHubConfig     `mapstructure:"github"`
	Controller ControllerConfig `mapstructure:"controller"`
}

// ServerConfig configures the webhook HTTP server.
type ServerConfig struct {
	BindIP         string `mapstructure:"bind_ip"`
	Port           int    `mapstructure:"port"`
	EventsEndpoint string `mapstructure:"events_endpoint"`
}

// LoggingConfig mirrors the spec's YAML shape (file/level) rather than the
// logger package's internal Config shape; ToLoggerConfig bridges the two.
type LoggingConfig struct {
	File  string `mapstructure:"file"`
	Level string `mapstructure:"level"`
}

// ToLoggerConfig builds the logger.Config NewLogger expects. Level is
// passed through unchanged in the bot's own off|error|warn|info|debug|trace
// vocabulary; logger.parseLevel does the translation to a slog.Level. The
// Output field only matters when NewLogger is called with a nil io.Writer;
// Writer below resolves File to a concrete destination instead, so it is
// set here only as a fallback label.
func (l LoggingConfig) ToLoggerConfig() logger.Config {
	return logger.Config{Level: l.Level, Format: "text", Output: "stderr"}
}

// Writer resolves File to the concrete destination NewLogger should write
// to: "-" means stderr, anything else is opened (created if necessary) as an
// append-only log file.
func (l LoggingConfig) Writer() (io.Writer, error) {
	if l.File == "-" {
		return os.Stderr, nil
	}
	f, err := os.OpenFile(l.File, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, fmt.Errorf("%w: open log file %s: %w", wikierr.ErrConfig, l.File, err)
	}
	return f, nil
}

// GitHubConfig configures the GitHub App identity and webhook verification.
type GitHubConfig struct {
	AppID         int64  `mapstructure:"app_id"`
	AppKeyPath    string `mapstructure:"app_key_path"`
	WebhookSecret string `mapstructure:"webhook_secret"`
}

// ControllerConfig configures the ControllerActor's behavior.
type ControllerConfig struct {
	PostComments bool `mapstructure:"post_comments"`
}

// Load reads and validates the configuration file at path. Unlike a
// defaults-tolerant loader, every field named here is mandatory: a missing
// or empty value is a startup failure, not silently defaulted.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("%w: read config file %s: %w", wikierr.ErrConfig, path, err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("%w: unmarshal config: %w", wikierr.ErrConfig, err)
	}

	if err := cfg.normalizeAndValidate(v.IsSet("controller.post_comments")); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// normalizeAndValidate checks every mandatory field is present and that
// logging.level is one of the bot's extended vocabulary words; the logger
// package's parseLevel (used by logger.NewLogger) does the actual
// translation to a slog.Level. postCommentsSet reports whether
// controller.post_comments appeared in the file, since an absent bool cannot
// be told apart from false after unmarshalling.
func (c *Config) normalizeAndValidate(postCommentsSet bool) error {
	var missing []string

	if c.Server.BindIP == "" {
		missing = append(missing, "server.bind_ip")
	}
	if c.Server.Port == 0 {
		missing = append(missing, "server.port")
	}
	if c.Server.EventsEndpoint == "" {
		missing = append(missing, "server.events_endpoint")
	}
	if c.Logging.File == "" {
		missing = append(missing, "logging.file")
	}
	if c.Logging.Level == "" {
		missing = append(missing, "logging.level")
	}
	if c.GitHub.AppID == 0 {
		missing = append(missing, "github.app_id")
	}
	if c.GitHub.AppKeyPath == "" {
		missing = append(missing, "github.app_key_path")
	}
	if c.GitHub.WebhookSecret == "" {
		missing = append(missing, "github.webhook_secret")
	}
	if !postCommentsSet {
		missing = append(missing, "controller.post_comments")
	}

	if len(missing) > 0 {
		return fmt.Errorf("%w: missing required fields: %v", wikierr.ErrConfig, missing)
	}

	if err := validateLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("%w: %w", wikierr.ErrConfig, err)
	}

	return nil
}

func validateLevel(level string) error {
	switch level {
	case "off", "error", "warn", "info", "debug", "trace":
		return nil
	default:
		return fmt.Errorf("unrecognized logging.level %q", level)
	}
}
