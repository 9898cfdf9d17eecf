package advice

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/edgard/finadvisor/internal/llm"
	"github.com/edgard/finadvisor/internal/profile"
)

// Fixed completion parameters. Callers cannot override them.
const (
	OpenAIModel = "gpt-4o-mini"
	GeminiModel = "gemini-2.0-flash"
	Temperature = float32(0.7)
	MaxTokens   = 1000
)

// NoAdviceText is returned when the service replies without usable text.
const NoAdviceText = "No advice generated."

// ServiceConfig describes how to reach the completion service. It is
// loaded once at startup and never modified.
type ServiceConfig struct {
	Provider string
	APIKey   string
	BaseURL  string
}

// Configured reports whether the credential needed to call the service is present.
func (c ServiceConfig) Configured() bool {
	return c.APIKey != ""
}

// Model returns the fixed model identifier for the configured provider.
func (c ServiceConfig) Model() string {
	if c.Provider == llm.ProviderGemini {
		return GeminiModel
	}
	return OpenAIModel
}

// Pipeline turns canonical profiles into advice. It keeps no per-request
// state and may be shared by concurrent callers.
type Pipeline struct {
	cfg       ServiceConfig
	completer llm.Completer
	log       *slog.Logger
}

// NewPipeline creates a Pipeline. completer may be nil when cfg is not
// configured; every request then yields a ConfigError.
func NewPipeline(cfg ServiceConfig, completer llm.Completer, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		cfg:       cfg,
		completer: completer,
		log:       logger.With("component", "advice_pipeline"),
	}
}

// Configured reports whether requests can reach the completion service.
func (p *Pipeline) Configured() bool {
	return p.cfg.Configured() && p.completer != nil
}

// NewRequest builds the completion request for prof.
func (p *Pipeline) NewRequest(prof profile.Profile) *llm.Request {
	return &llm.Request{
		Model: p.cfg.Model(),
		Messages: []llm.Message{
			{Role: llm.RoleSystem, Content: SystemInstruction},
			{Role: llm.RoleUser, Content: BuildPrompt(prof)},
		},
		Temperature: Temperature,
		MaxTokens:   MaxTokens,
	}
}

// RequestAdvice sends exactly one completion request for prof and
// classifies the outcome. It never retries.
func (p *Pipeline) RequestAdvice(ctx context.Context, prof profile.Profile) Result {
	if !p.cfg.Configured() {
		p.log.ErrorContext(ctx, "Advice requested but API key is not configured")
		return ConfigError("API key not configured")
	}
	if p.completer == nil {
		p.log.ErrorContext(ctx, "Advice requested but no completion client is available")
		return ConfigError("completion client not available")
	}

	req := p.NewRequest(prof)

	start := time.Now()
	resp, err := p.completer.Complete(ctx, req)
	duration := time.Since(start)

	if err != nil {
		var statusErr *llm.StatusError
		if errors.As(err, &statusErr) {
			p.log.ErrorContext(ctx, "Completion service returned an error",
				"status", statusErr.StatusCode,
				"body", statusErr.Body,
				"duration_ms", duration.Milliseconds())
			return UpstreamError(statusErr.StatusCode, statusErr.Body)
		}

		p.log.ErrorContext(ctx, "Completion service request failed",
			"error", err,
			"duration_ms", duration.Milliseconds())
		return TransportError(err)
	}

	text := resp.FirstText()
	if text == "" {
		reason := "empty_content"
		if resp == nil || len(resp.Choices) == 0 {
			reason = "no_choices"
		}
		p.log.WarnContext(ctx, "Completion service returned no advice text", "reason", reason)
		res := Success(NoAdviceText)
		res.Fallback = true
		return res
	}

	p.log.InfoContext(ctx, "Advice generated",
		"model", req.Model,
		"advice_length", len(text),
		"duration_ms", duration.Milliseconds())
	return Success(text)
}
