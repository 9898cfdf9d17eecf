package advice

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/edgard/finadvisor/internal/llm"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// countingDoer counts outbound requests before delegating.
type countingDoer struct {
	calls atomic.Int32
	next  llm.Doer
}

func (d *countingDoer) Do(req *http.Request) (*http.Response, error) {
	d.calls.Add(1)
	if d.next == nil {
		return nil, errors.New("no transport")
	}
	return d.next.Do(req)
}

// stubCompleter returns a canned reply and records what it was sent.
type stubCompleter struct {
	mu    sync.Mutex
	calls int
	last  *llm.Request
	resp  *llm.Response
	err   error
}

func (s *stubCompleter) Complete(ctx context.Context, req *llm.Request) (*llm.Response, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	s.last = req
	return s.resp, s.err
}

func newTestServer(t *testing.T, status int, body string) (*httptest.Server, *countingDoer) {
	t.Helper()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(server.Close)

	return server, &countingDoer{next: server.Client()}
}

func TestRequestAdviceMissingCredential(t *testing.T) {
	t.Parallel()

	doer := &countingDoer{}
	client := llm.NewOpenAIClient("", "http://127.0.0.1:1", doer, discardLogger())
	pipeline := NewPipeline(ServiceConfig{}, client, discardLogger())

	res := pipeline.RequestAdvice(context.Background(), fullProfile())

	if res.Kind != KindConfigError {
		t.Fatalf("Kind = %v, want %v", res.Kind, KindConfigError)
	}
	if n := doer.calls.Load(); n != 0 {
		t.Errorf("transport called %d times, want 0", n)
	}
	if res.HTTPStatus() != http.StatusInternalServerError {
		t.Errorf("HTTPStatus() = %d, want 500", res.HTTPStatus())
	}
	if pipeline.Configured() {
		t.Error("Configured() = true without API key")
	}
}

func TestRequestAdviceNilCompleter(t *testing.T) {
	t.Parallel()

	pipeline := NewPipeline(ServiceConfig{APIKey: "sk"}, nil, discardLogger())
	if res := pipeline.RequestAdvice(context.Background(), fullProfile()); res.Kind != KindConfigError {
		t.Fatalf("Kind = %v, want %v", res.Kind, KindConfigError)
	}
}

func TestRequestAdviceSuccess(t *testing.T) {
	t.Parallel()

	server, doer := newTestServer(t, http.StatusOK,
		`{"choices":[{"message":{"role":"assistant","content":"Max out your 401k."}},{"message":{"content":"ignored"}}]}`)
	client := llm.NewOpenAIClient("sk-test", server.URL, doer, discardLogger())
	pipeline := NewPipeline(ServiceConfig{APIKey: "sk-test", BaseURL: server.URL}, client, discardLogger())

	res := pipeline.RequestAdvice(context.Background(), fullProfile())

	if diff := cmp.Diff(Success("Max out your 401k."), res); diff != "" {
		t.Errorf("RequestAdvice() mismatch (-want +got):\n%s", diff)
	}
	if n := doer.calls.Load(); n != 1 {
		t.Errorf("transport called %d times, want 1", n)
	}
}

func TestRequestAdviceRateLimited(t *testing.T) {
	t.Parallel()

	const body = `{"error":{"message":"Rate limit reached for gpt-4o-mini","type":"requests","code":"rate_limit_exceeded"}}`
	server, doer := newTestServer(t, http.StatusTooManyRequests, body)
	client := llm.NewOpenAIClient("sk-test", server.URL, doer, discardLogger())
	pipeline := NewPipeline(ServiceConfig{APIKey: "sk-test"}, client, discardLogger())

	res := pipeline.RequestAdvice(context.Background(), fullProfile())

	if diff := cmp.Diff(UpstreamError(http.StatusTooManyRequests, body), res); diff != "" {
		t.Errorf("RequestAdvice() mismatch (-want +got):\n%s", diff)
	}
	if n := doer.calls.Load(); n != 1 {
		t.Errorf("transport called %d times, want exactly 1 (no retry)", n)
	}
	if res.HTTPStatus() != http.StatusTooManyRequests {
		t.Errorf("HTTPStatus() = %d, want 429", res.HTTPStatus())
	}
	if msg := res.PublicMessage(); strings.Contains(msg, "Rate limit") || msg != MessageUpstream {
		t.Errorf("PublicMessage() = %q leaks upstream body", msg)
	}
}

func TestRequestAdviceEmptyChoices(t *testing.T) {
	t.Parallel()

	server, doer := newTestServer(t, http.StatusOK, `{"choices":[]}`)
	client := llm.NewOpenAIClient("sk-test", server.URL, doer, discardLogger())
	pipeline := NewPipeline(ServiceConfig{APIKey: "sk-test"}, client, discardLogger())

	res := pipeline.RequestAdvice(context.Background(), fullProfile())

	if res.Kind != KindSuccess || res.Text != NoAdviceText {
		t.Errorf("RequestAdvice() = %+v, want Success(%q)", res, NoAdviceText)
	}
	if !res.Fallback {
		t.Error("Fallback = false for empty choices")
	}
}

func TestRequestAdviceEmptyContent(t *testing.T) {
	t.Parallel()

	stub := &stubCompleter{resp: &llm.Response{Choices: []llm.Choice{{Message: llm.Message{Content: ""}}}}}
	pipeline := NewPipeline(ServiceConfig{APIKey: "sk"}, stub, discardLogger())

	res := pipeline.RequestAdvice(context.Background(), fullProfile())
	if res.Text != NoAdviceText || !res.Fallback {
		t.Errorf("RequestAdvice() = %+v, want fallback success", res)
	}
}

func TestRequestAdviceTransportError(t *testing.T) {
	t.Parallel()

	cause := errors.New("dial tcp 10.0.0.1:443: connect: connection refused")
	stub := &stubCompleter{err: cause}
	pipeline := NewPipeline(ServiceConfig{APIKey: "sk"}, stub, discardLogger())

	res := pipeline.RequestAdvice(context.Background(), fullProfile())

	if res.Kind != KindTransportError {
		t.Fatalf("Kind = %v, want %v", res.Kind, KindTransportError)
	}
	if !errors.Is(res.Cause, cause) {
		t.Errorf("Cause = %v, want %v", res.Cause, cause)
	}
	if res.HTTPStatus() != http.StatusInternalServerError || res.PublicMessage() != MessageInternal {
		t.Errorf("unexpected boundary mapping: %d %q", res.HTTPStatus(), res.PublicMessage())
	}
	if stub.calls != 1 {
		t.Errorf("Complete called %d times, want 1", stub.calls)
	}
}

func TestRequestAdviceFixedParameters(t *testing.T) {
	t.Parallel()

	tests := []struct {
		provider string
		model    string
	}{
		{"", OpenAIModel},
		{llm.ProviderOpenAI, OpenAIModel},
		{llm.ProviderGemini, GeminiModel},
	}

	for _, tt := range tests {
		stub := &stubCompleter{resp: &llm.Response{Choices: []llm.Choice{{Message: llm.Message{Content: "ok"}}}}}
		pipeline := NewPipeline(ServiceConfig{Provider: tt.provider, APIKey: "sk"}, stub, discardLogger())

		prof := fullProfile()
		pipeline.RequestAdvice(context.Background(), prof)

		want := &llm.Request{
			Model: tt.model,
			Messages: []llm.Message{
				{Role: llm.RoleSystem, Content: SystemInstruction},
				{Role: llm.RoleUser, Content: BuildPrompt(prof)},
			},
			Temperature: 0.7,
			MaxTokens:   1000,
		}
		if diff := cmp.Diff(want, stub.last); diff != "" {
			t.Errorf("provider %q: request mismatch (-want +got):\n%s", tt.provider, diff)
		}
	}
}

func TestRequestAdviceConcurrent(t *testing.T) {
	t.Parallel()

	stub := &stubCompleter{resp: &llm.Response{Choices: []llm.Choice{{Message: llm.Message{Content: "ok"}}}}}
	pipeline := NewPipeline(ServiceConfig{APIKey: "sk"}, stub, discardLogger())

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if res := pipeline.RequestAdvice(context.Background(), fullProfile()); !res.OK() {
				t.Errorf("RequestAdvice() = %+v", res)
			}
		}()
	}
	wg.Wait()

	if stub.calls != 20 {
		t.Errorf("Complete called %d times, want 20", stub.calls)
	}
}

func TestResultMapping(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		res        Result
		wantStatus int
		wantMsg    string
		wantErr    bool
	}{
		{"success", Success("hi"), 200, "hi", false},
		{"config", ConfigError("missing"), 500, MessageNotConfigured, true},
		{"upstream 503", UpstreamError(503, "secret"), 503, MessageUpstream, true},
		{"upstream odd status", UpstreamError(302, "moved"), 502, MessageUpstream, true},
		{"transport", TransportError(errors.New("boom")), 500, MessageInternal, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := tt.res.HTTPStatus(); got != tt.wantStatus {
				t.Errorf("HTTPStatus() = %d, want %d", got, tt.wantStatus)
			}
			if got := tt.res.PublicMessage(); got != tt.wantMsg {
				t.Errorf("PublicMessage() = %q, want %q", got, tt.wantMsg)
			}
			if err := tt.res.Err(); (err != nil) != tt.wantErr {
				t.Errorf("Err() = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
