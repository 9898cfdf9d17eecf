// Package logger builds the advisor's slog logger and the Telegram update
// logging middleware.
package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// ParseLevel maps a configured level name to a slog level. Unknown names
// fall back to info.
func ParseLevel(levelStr string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(levelStr)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// NewLogger creates a slog Logger writing to stdout and installs it as the
// default logger.
func NewLogger(levelStr string, jsonOutput bool) *slog.Logger {
	logger := New(os.Stdout, levelStr, jsonOutput)
	slog.SetDefault(logger)
	return logger
}

// New creates a slog Logger writing to w.
func New(w io.Writer, levelStr string, jsonOutput bool) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: ParseLevel(levelStr),
	}

	var handler slog.Handler
	if jsonOutput {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	return slog.New(handler)
}

// Middleware logs every Telegram update with its duration. Message text is
// not logged since it carries the user's financial figures.
func Middleware(log *slog.Logger) bot.Middleware {
	return func(next bot.HandlerFunc) bot.HandlerFunc {
		return func(ctx context.Context, b *bot.Bot, update *models.Update) {
			startTime := time.Now()

			logEntry := log.With("update_id", update.ID)

			updateType := "other"
			if update.Message != nil {
				updateType = "message"
				logEntry = logEntry.With(
					"message_id", update.Message.ID,
					"chat_id", update.Message.Chat.ID,
					"command", commandOf(update.Message.Text),
				)
				if update.Message.From != nil {
					logEntry = logEntry.With("user_id", update.Message.From.ID)
				}
			}
			logEntry = logEntry.With("update_type", updateType)

			logEntry.InfoContext(ctx, "Processing update")

			next(ctx, b, update)

			logEntry.InfoContext(ctx, "Finished processing update", "duration", time.Since(startTime))
		}
	}
}

// commandOf returns the leading "/command" of text, or "".
func commandOf(text string) string {
	if !strings.HasPrefix(text, "/") {
		return ""
	}
	cmd, _, _ := strings.Cut(text, " ")
	return cmd
}
