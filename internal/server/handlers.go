package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/edgard/finadvisor/internal/advice"
	"github.com/edgard/finadvisor/internal/profile"
)

// Advisor produces advice for a canonical profile.
type Advisor interface {
	RequestAdvice(ctx context.Context, p profile.Profile) advice.Result
	Configured() bool
}

type adviceResponse struct {
	Advice string `json:"advice"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// AdviceHandler serves POST /api/advice.
type AdviceHandler struct {
	advisor      Advisor
	logger       *slog.Logger
	timeout      time.Duration
	maxBodyBytes int64
}

// NewAdviceHandler creates the handler. timeout bounds each pipeline call;
// maxBodyBytes caps the request body.
func NewAdviceHandler(logger *slog.Logger, advisor Advisor, timeout time.Duration, maxBodyBytes int64) *AdviceHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &AdviceHandler{
		advisor:      advisor,
		logger:       logger.With("handler", "advice"),
		timeout:      timeout,
		maxBodyBytes: maxBodyBytes,
	}
}

func (h *AdviceHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}

	body := r.Body
	if h.maxBodyBytes > 0 {
		body = http.MaxBytesReader(w, r.Body, h.maxBodyBytes)
	}

	raw, err := profile.Decode(body)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "Failed to decode advice request", "error", err)
		writeError(w, http.StatusInternalServerError, advice.MessageInternal)
		return
	}

	prof := profile.Normalize(raw)

	ctx := r.Context()
	if h.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.timeout)
		defer cancel()
	}

	res := h.advisor.RequestAdvice(ctx, prof)
	if !res.OK() {
		h.logger.WarnContext(r.Context(), "Advice request failed",
			"kind", res.Kind.String(),
			"status", res.HTTPStatus(),
			"error", res.Err())
		writeError(w, res.HTTPStatus(), res.PublicMessage())
		return
	}

	respondJSON(w, http.StatusOK, adviceResponse{Advice: res.Text})
}
