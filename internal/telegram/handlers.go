package telegram

import (
	"context"
	"log/slog"
	"time"
	"unicode/utf8"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/edgard/finadvisor/internal/advice"
	"github.com/edgard/finadvisor/internal/config"
	"github.com/edgard/finadvisor/internal/profile"
	"github.com/edgard/finadvisor/internal/sanitize"
)

// maxMessageLength is Telegram's limit for a single text message.
const maxMessageLength = 4096

// Advisor produces advice for a canonical profile.
type Advisor interface {
	RequestAdvice(ctx context.Context, p profile.Profile) advice.Result
}

// HandlerDeps provides dependencies for the command handlers.
type HandlerDeps struct {
	Logger   *slog.Logger
	Messages config.TelegramMessages
	Advisor  Advisor
	Timeout  time.Duration
	// Sanitizer strips Markdown from advice before sending. Optional.
	Sanitizer *sanitize.Policy
}

// RegisterAllCommands returns the handlers for every supported command.
func RegisterAllCommands(deps HandlerDeps) map[string]RegisteredHandler {
	return map[string]RegisteredHandler{
		"/start": {
			HandlerType: bot.HandlerTypeMessageText,
			Pattern:     "start",
			Handler:     NewStaticHandler(deps, "start", deps.Messages.Welcome),
			MatchType:   bot.MatchTypeCommandStartOnly,
		},
		"/help": {
			HandlerType: bot.HandlerTypeMessageText,
			Pattern:     "help",
			Handler:     NewStaticHandler(deps, "help", deps.Messages.Help),
			MatchType:   bot.MatchTypeCommandStartOnly,
		},
		"/advice": {
			HandlerType: bot.HandlerTypeMessageText,
			Pattern:     "advice",
			Handler:     NewAdviceHandler(deps),
			MatchType:   bot.MatchTypeCommandStartOnly,
		},
	}
}

// NewStaticHandler returns a handler that always replies with text.
func NewStaticHandler(deps HandlerDeps, name, text string) bot.HandlerFunc {
	return func(ctx context.Context, b *bot.Bot, update *models.Update) {
		log := deps.Logger.With("handler", name)

		if update.Message == nil {
			log.WarnContext(ctx, "Handler received update without message", "update_id", update.ID)
			return
		}

		chatID := update.Message.Chat.ID
		if _, err := b.SendMessage(ctx, &bot.SendMessageParams{ChatID: chatID, Text: text}); err != nil {
			log.ErrorContext(ctx, "Failed to send message", "error", err, "chat_id", chatID)
		}
	}
}

// NewAdviceHandler returns a handler for the /advice command.
func NewAdviceHandler(deps HandlerDeps) bot.HandlerFunc {
	return adviceHandler{deps}.Handle
}

type adviceHandler struct {
	deps HandlerDeps
}

func (h adviceHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "advice")

	if update.Message == nil {
		log.WarnContext(ctx, "Advice handler received update without message", "update_id", update.ID)
		return
	}
	chatID := update.Message.Chat.ID

	if _, err := b.SendMessage(ctx, &bot.SendMessageParams{ChatID: chatID, Text: h.deps.Messages.Working}); err != nil {
		log.WarnContext(ctx, "Failed to send working message", "error", err, "chat_id", chatID)
	}

	for _, chunk := range splitMessage(h.reply(ctx, update.Message.Text), maxMessageLength) {
		if _, err := b.SendMessage(ctx, &bot.SendMessageParams{ChatID: chatID, Text: chunk}); err != nil {
			log.ErrorContext(ctx, "Failed to send advice", "error", err, "chat_id", chatID)
			return
		}
	}
}

// reply runs the pipeline for a command text and returns the text to send.
func (h adviceHandler) reply(ctx context.Context, text string) string {
	raw, ignored := ParseProfileArgs(text)
	if len(ignored) > 0 {
		h.deps.Logger.DebugContext(ctx, "Ignoring unknown advice arguments", "arguments", ignored)
	}

	if h.deps.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.deps.Timeout)
		defer cancel()
	}

	res := h.deps.Advisor.RequestAdvice(ctx, profile.Normalize(raw))
	if !res.OK() {
		h.deps.Logger.WarnContext(ctx, "Advice request failed", "kind", res.Kind.String(), "error", res.Err())
		return res.PublicMessage()
	}
	if h.deps.Sanitizer != nil {
		if text := h.deps.Sanitizer.PlainText(res.Text); text != "" {
			return text
		}
	}
	return res.Text
}

// splitMessage cuts text into chunks of at most limit bytes without
// splitting a UTF-8 sequence, preferring to break at a newline. Input with
// no rune start in a window is cut at limit.
func splitMessage(text string, limit int) []string {
	var chunks []string
	for len(text) > limit {
		cut := limit
		for cut > 0 && !utf8.RuneStart(text[cut]) {
			cut--
		}
		if cut == 0 {
			cut = limit
		}
		for i := cut - 1; i > limit/2; i-- {
			if text[i] == '\n' {
				cut = i + 1
				break
			}
		}
		chunks = append(chunks, text[:cut])
		text = text[cut:]
	}
	if text != "" || len(chunks) == 0 {
		chunks = append(chunks, text)
	}
	return chunks
}
