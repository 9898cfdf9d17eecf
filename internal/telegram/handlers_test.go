package telegram

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/edgard/finadvisor/internal/advice"
	"github.com/edgard/finadvisor/internal/config"
	"github.com/edgard/finadvisor/internal/profile"
	"github.com/edgard/finadvisor/internal/sanitize"
)

type stubAdvisor struct {
	result      advice.Result
	got         profile.Profile
	hasDeadline bool
}

func (s *stubAdvisor) RequestAdvice(ctx context.Context, p profile.Profile) advice.Result {
	s.got = p
	_, s.hasDeadline = ctx.Deadline()
	return s.result
}

func testDeps(adv Advisor) HandlerDeps {
	return HandlerDeps{
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		Messages: config.TelegramMessages{
			Welcome: "welcome",
			Help:    "help",
			Working: "working",
		},
		Advisor: adv,
		Timeout: time.Minute,
	}
}

func TestAdviceReply(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		result advice.Result
		want   string
	}{
		{"success", advice.Success("Save more."), "Save more."},
		{"not configured", advice.ConfigError("missing"), advice.MessageNotConfigured},
		{"upstream", advice.UpstreamError(429, `{"error":"org-123"}`), advice.MessageUpstream},
		{"transport", advice.TransportError(errors.New("dial tcp")), advice.MessageInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			adv := &stubAdvisor{result: tt.result}
			h := adviceHandler{testDeps(adv)}

			got := h.reply(context.Background(), "/advice age=35 income=100")
			if got != tt.want {
				t.Errorf("reply() = %q, want %q", got, tt.want)
			}
			if !adv.hasDeadline {
				t.Error("advisor context has no deadline")
			}
			if adv.got.Income() != 100 {
				t.Errorf("advisor got income %d, want 100", adv.got.Income())
			}
		})
	}
}

func TestAdviceReplySanitized(t *testing.T) {
	t.Parallel()

	deps := testDeps(&stubAdvisor{result: advice.Success("## Plan\n- **Save** more")})
	deps.Sanitizer = sanitize.NewPlainTextPolicy()

	got := adviceHandler{deps}.reply(context.Background(), "/advice")
	if want := "Plan\n\n• Save more"; got != want {
		t.Errorf("reply() = %q, want %q", got, want)
	}
}

func TestRegisterAllCommands(t *testing.T) {
	t.Parallel()

	handlers := RegisterAllCommands(testDeps(&stubAdvisor{}))
	for _, name := range []string{"/start", "/help", "/advice"} {
		h, ok := handlers[name]
		if !ok {
			t.Errorf("missing handler %s", name)
			continue
		}
		if h.Handler == nil {
			t.Errorf("%s has nil handler", name)
		}
		if h.Pattern != strings.TrimPrefix(name, "/") {
			t.Errorf("%s pattern = %q", name, h.Pattern)
		}
		if h.MatchType != bot.MatchTypeCommandStartOnly {
			t.Errorf("%s match type = %v", name, h.MatchType)
		}
	}
}

func TestSplitMessage(t *testing.T) {
	t.Parallel()

	if got := splitMessage("", 10); len(got) != 1 || got[0] != "" {
		t.Errorf("splitMessage(empty) = %q", got)
	}
	if got := splitMessage("short", 10); len(got) != 1 || got[0] != "short" {
		t.Errorf("splitMessage(short) = %q", got)
	}

	got := splitMessage("aaaaaa\nbbbbbbbbbb", 10)
	if len(got) != 2 || got[0] != "aaaaaa\n" || got[1] != "bbbbbbbbbb" {
		t.Errorf("splitMessage(newline) = %q", got)
	}

	invalid := strings.Repeat("\x80", 20)
	if got := splitMessage(invalid, 7); strings.Join(got, "") != invalid || len(got) != 3 {
		t.Errorf("splitMessage(invalid utf-8) = %q", got)
	}

	text := strings.Repeat("é", 20)
	var rebuilt strings.Builder
	for _, chunk := range splitMessage(text, 7) {
		if len(chunk) > 7 {
			t.Errorf("chunk %q exceeds limit", chunk)
		}
		if !strings.HasPrefix(chunk, "é") {
			t.Errorf("chunk %q starts mid-rune", chunk)
		}
		rebuilt.WriteString(chunk)
	}
	if rebuilt.String() != text {
		t.Error("chunks do not reassemble the input")
	}
}

func TestNewTelegramBotRejectsEmptyToken(t *testing.T) {
	t.Parallel()

	if _, err := NewTelegramBot("", nil); err == nil {
		t.Error("expected error for empty token")
	}
	if tokenPrefix("short") != "***" {
		t.Error("short tokens must be fully masked")
	}
}

func TestApplyMiddlewareOrder(t *testing.T) {
	t.Parallel()

	var order []string
	mw := func(name string) bot.Middleware {
		return func(next bot.HandlerFunc) bot.HandlerFunc {
			return func(ctx context.Context, b *bot.Bot, u *models.Update) {
				order = append(order, name)
				next(ctx, b, u)
			}
		}
	}

	h := applyMiddleware(func(ctx context.Context, b *bot.Bot, u *models.Update) {
		order = append(order, "handler")
	}, []bot.Middleware{mw("outer"), mw("inner")})
	h(context.Background(), nil, &models.Update{})

	want := []string{"outer", "inner", "handler"}
	if strings.Join(order, ",") != strings.Join(want, ",") {
		t.Errorf("order = %v, want %v", order, want)
	}
}
