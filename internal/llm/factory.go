package llm

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
)

// Supported providers.
const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
)

// NewCompleter builds the Completer for provider. httpClient is only used by
// the OpenAI-compatible backend.
func NewCompleter(ctx context.Context, provider, apiKey, baseURL string, httpClient *http.Client, logger *slog.Logger) (Completer, error) {
	switch provider {
	case "", ProviderOpenAI:
		var doer Doer
		if httpClient != nil {
			doer = httpClient
		}
		return NewOpenAIClient(apiKey, baseURL, doer, logger), nil
	case ProviderGemini:
		return NewGeminiClient(ctx, apiKey, logger)
	default:
		return nil, fmt.Errorf("unknown completion provider %q", provider)
	}
}
