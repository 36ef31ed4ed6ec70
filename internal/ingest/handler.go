package ingest

import (
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"gatepass/internal/platform/middleware"
	"gatepass/internal/transport/http/shared"
	dErrors "gatepass/pkg/domain-errors"
)

// Handler exposes the webhook endpoint.
type Handler struct {
	pipeline     *Pipeline
	logger       *slog.Logger
	webhookToken string
}

// NewHandler constructs the webhook handler. An empty webhookToken disables
// the bearer check.
func NewHandler(pipeline *Pipeline, logger *slog.Logger, webhookToken string) *Handler {
	return &Handler{pipeline: pipeline, logger: logger, webhookToken: webhookToken}
}

// Register mounts the webhook route with its middleware chain.
func (h *Handler) Register(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(30 * time.Second))
		r.Use(middleware.RequireBearer(h.webhookToken, h.logger))
		r.Post("/webhook/submissions", h.handleSubmission)
	})
}

// handleSubmission accepts a form submission. The response is coarse on
// purpose: the sender learns created/skipped/failure_recorded, never internal
// error detail. A failure_recorded submission still reports success because
// the payload has been durably captured for manual handling; sender retries
// will not fix malformed data.
func (h *Handler) handleSubmission(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, 1<<20))
	if err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "unreadable request body"))
		return
	}

	outcome, err := h.pipeline.Process(ctx, raw)
	if err != nil {
		h.logger.ErrorContext(ctx, "submission could not be captured",
			"error", err.Error(),
			"request_id", middleware.GetRequestID(ctx),
		)
		shared.WriteError(w, err)
		return
	}

	shared.WriteJSON(w, http.StatusOK, map[string]string{"status": string(outcome)})
}
