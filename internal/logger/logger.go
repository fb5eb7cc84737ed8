package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
)

// Config holds the logger configuration. Level accepts the bot's extended
// vocabulary (off|error|warn|info|debug|trace) in addition to slog's own
// level names; Output is only consulted as a fallback when NewLogger is
// called with a nil io.Writer, and "-" is accepted there as an alias for
// stderr, matching the logging.file convention used throughout the config.
type Config struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

// NewLogger initializes a new slog logger based on the provided configuration.
func NewLogger(cfg Config, output io.Writer) *slog.Logger {
	var handler slog.Handler

	if output == nil {
		switch cfg.Output {
		case "-", "stderr":
			output = os.Stderr
		case "stdout":
			output = os.Stdout
		case "file":
			file, err := os.OpenFile("app.log", os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
			if err != nil {
				fmt.Printf("Failed to open log file: %v\n", err)
				output = os.Stdout
			} else {
				output = file
			}
		default:
			output = os.Stdout
		}
	}

	level := parseLevel(cfg.Level)

	switch cfg.Format {
	case "json":
		handler = slog.NewJSONHandler(output, &slog.HandlerOptions{
			Level: level,
		})
	case "text":
		fallthrough
	default:
		handler = slog.NewTextHandler(output, &slog.HandlerOptions{
			Level: level,
		})
	}

	return slog.New(handler)
}

// parseLevel resolves a level string in the bot's extended vocabulary
// (off|error|warn|info|debug|trace) first, falling back to slog's own
// textual level names so a raw "INFO"/"DEBUG"-style value still works.
// "off" sets the level far enough above error that nothing is ever
// emitted; "trace" sets it one step below slog's own debug floor. An
// unrecognized value quietly falls back to slog.LevelInfo rather than
// failing logger construction.
func parseLevel(s string) slog.Level {
	switch s {
	case "off":
		return slog.LevelError + 100
	case "error":
		return slog.LevelError
	case "warn":
		return slog.LevelWarn
	case "info":
		return slog.LevelInfo
	case "debug":
		return slog.LevelDebug
	case "trace":
		return slog.LevelDebug - 4
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo
	}
	return level
}
