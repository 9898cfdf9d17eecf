package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"google.golang.org/genai"
)

// GeminiClient serves completion requests through Google's Gemini API.
type GeminiClient struct {
	models generator
	log    *slog.Logger
}

// generator is the subset of *genai.Models the client needs.
type generator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// NewGeminiClient creates a Gemini-backed Completer.
func NewGeminiClient(ctx context.Context, apiKey string, logger *slog.Logger) (*GeminiClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	gi, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	log := logger.With("component", "gemini_client")
	log.Info("Gemini client initialized successfully")
	return &GeminiClient{models: gi.Models, log: log}, nil
}

// Complete translates req into a single GenerateContent call.
func (c *GeminiClient) Complete(ctx context.Context, req *Request) (*Response, error) {
	if req == nil {
		return nil, fmt.Errorf("nil completion request")
	}

	contents, cfg := toGeminiRequest(req)

	c.log.DebugContext(ctx, "Sending Gemini request", "model", req.Model, "contents", len(contents))
	resp, err := c.models.GenerateContent(ctx, req.Model, contents, cfg)
	if err != nil {
		return nil, translateGeminiError(err)
	}

	return fromGeminiResponse(req.Model, resp), nil
}

func toGeminiRequest(req *Request) ([]*genai.Content, *genai.GenerateContentConfig) {
	temperature := req.Temperature
	cfg := &genai.GenerateContentConfig{
		Temperature:     &temperature,
		MaxOutputTokens: int32(req.MaxTokens),
	}

	var system []string
	var contents []*genai.Content
	for _, m := range req.Messages {
		switch m.Role {
		case RoleSystem:
			system = append(system, m.Content)
		case RoleAssistant:
			contents = append(contents, genai.NewContentFromText(m.Content, genai.RoleModel))
		default:
			contents = append(contents, genai.NewContentFromText(m.Content, genai.RoleUser))
		}
	}

	if len(system) > 0 {
		cfg.SystemInstruction = &genai.Content{
			Parts: []*genai.Part{{Text: strings.Join(system, "\n\n")}},
		}
	}
	return contents, cfg
}

func fromGeminiResponse(model string, resp *genai.GenerateContentResponse) *Response {
	out := &Response{Model: model}
	if resp == nil || len(resp.Candidates) == 0 {
		return out
	}

	out.Choices = append(out.Choices, Choice{
		Message: Message{Role: RoleAssistant, Content: resp.Text()},
	})
	return out
}

// translateGeminiError maps API errors onto StatusError so callers can
// classify them the same way as HTTP failures.
func translateGeminiError(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) && apiErr.Code != 0 {
		return &StatusError{StatusCode: apiErr.Code, Body: apiErr.Message}
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) && apiErrPtr != nil && apiErrPtr.Code != 0 {
		return &StatusError{StatusCode: apiErrPtr.Code, Body: apiErrPtr.Message}
	}
	return fmt.Errorf("gemini API call failed: %w", err)
}
