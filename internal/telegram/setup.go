// Package telegram is the optional chat frontend of the advisor. It turns
// /advice commands into profiles and replies with the pipeline's result.
package telegram

import (
	"fmt"
	"log/slog"

	"github.com/go-telegram/bot"
)

// RegisteredHandler describes one command handler and the middleware
// wrapped around it.
type RegisteredHandler struct {
	HandlerType bot.HandlerType
	Pattern     string
	Handler     bot.HandlerFunc
	Middleware  []bot.Middleware
	MatchType   bot.MatchType
}

// NewTelegramBot creates a go-telegram/bot instance for token.
func NewTelegramBot(token string, logger *slog.Logger, opts ...bot.Option) (*bot.Bot, error) {
	if token == "" {
		return nil, fmt.Errorf("telegram bot token cannot be empty")
	}
	if logger == nil {
		logger = slog.Default()
	}
	log := logger.With("component", "telegram_bot")

	b, err := bot.New(token, opts...)
	if err != nil {
		log.Error("Failed to create Telegram bot instance", "error", err)
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}

	log.Info("Telegram bot instance created", "token_prefix", tokenPrefix(token))
	return b, nil
}

func tokenPrefix(token string) string {
	if len(token) <= 8 {
		return "***"
	}
	return token[:8] + "..."
}

// applyMiddleware wraps handler so that the first middleware is outermost.
func applyMiddleware(handler bot.HandlerFunc, mw []bot.Middleware) bot.HandlerFunc {
	for i := len(mw) - 1; i >= 0; i-- {
		handler = mw[i](handler)
	}
	return handler
}

// RegisterHandlers registers every handler with b.
func RegisterHandlers(b *bot.Bot, logger *slog.Logger, handlers map[string]RegisteredHandler) error {
	if b == nil {
		return fmt.Errorf("bot instance cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	log := logger.With("component", "handler_registry")

	if len(handlers) == 0 {
		log.Warn("No handlers provided for registration")
		return nil
	}

	for name, h := range handlers {
		if h.Handler == nil {
			log.Warn("Skipping registration for nil handler", "command", name)
			continue
		}
		b.RegisterHandler(h.HandlerType, h.Pattern, h.MatchType, applyMiddleware(h.Handler, h.Middleware))
		log.Debug("Registered handler", "command", name, "match_type", h.MatchType, "middleware_count", len(h.Middleware))
	}

	log.Info("Registered Telegram handlers", "count", len(handlers))
	return nil
}
