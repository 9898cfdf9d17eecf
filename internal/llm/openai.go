package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// DefaultOpenAIBaseURL is the public OpenAI API root.
const DefaultOpenAIBaseURL = "https://api.openai.com/v1"

// maxResponseBytes bounds how much of a reply body is read.
const maxResponseBytes = 4 << 20

// OpenAIClient talks to an OpenAI-compatible /chat/completions endpoint.
type OpenAIClient struct {
	doer    Doer
	baseURL string
	apiKey  string
	log     *slog.Logger
}

// NewOpenAIClient creates a client for baseURL. A nil doer uses
// http.DefaultClient; an empty baseURL uses DefaultOpenAIBaseURL.
func NewOpenAIClient(apiKey, baseURL string, doer Doer, logger *slog.Logger) *OpenAIClient {
	if doer == nil {
		doer = http.DefaultClient
	}
	if baseURL == "" {
		baseURL = DefaultOpenAIBaseURL
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &OpenAIClient{
		doer:    doer,
		baseURL: strings.TrimSuffix(baseURL, "/"),
		apiKey:  apiKey,
		log:     logger.With("component", "openai_client"),
	}
}

// Complete posts req to the chat completions endpoint exactly once.
func (c *OpenAIClient) Complete(ctx context.Context, req *Request) (*Response, error) {
	if req == nil {
		return nil, fmt.Errorf("nil completion request")
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal completion request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create completion request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	c.log.DebugContext(ctx, "Sending completion request", "model", req.Model, "messages", len(req.Messages))

	start := time.Now()
	httpResp, err := c.doer.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to call completion service: %w", err)
	}
	defer func() {
		if err := httpResp.Body.Close(); err != nil {
			c.log.WarnContext(ctx, "Failed to close completion response body", "error", err)
		}
	}()

	respBody, err := io.ReadAll(io.LimitReader(httpResp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read completion response: %w", err)
	}

	c.log.DebugContext(ctx, "Completion response received",
		"status", httpResp.StatusCode,
		"duration_ms", time.Since(start).Milliseconds())

	if httpResp.StatusCode < 200 || httpResp.StatusCode > 299 {
		return nil, &StatusError{StatusCode: httpResp.StatusCode, Body: string(respBody)}
	}

	var resp Response
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse completion response: %w", err)
	}
	return &resp, nil
}
