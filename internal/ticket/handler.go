package ticket

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"gatepass/internal/platform/middleware"
	"gatepass/internal/transport/http/shared"
	dErrors "gatepass/pkg/domain-errors"
	platformstrings "gatepass/pkg/platform/strings"
)

// Handler renders signed QR tickets.
type Handler struct {
	codec  *Codec
	logger *slog.Logger
}

// NewHandler constructs the ticket rendering handler.
func NewHandler(codec *Codec, logger *slog.Logger) *Handler {
	return &Handler{codec: codec, logger: logger}
}

// Register mounts the ticket routes.
func (h *Handler) Register(r chi.Router) {
	r.Get("/tickets/qr", h.handleRenderQR)
}

// handleRenderQR returns a QR PNG for the given identity. The name goes
// through the same normalizer as ingestion so the rendered signature matches
// what verification recomputes.
func (h *Handler) handleRenderQR(w http.ResponseWriter, r *http.Request) {
	name := platformstrings.TitleCaseName(r.URL.Query().Get("name"))
	email := strings.TrimSpace(r.URL.Query().Get("email"))
	if name == "" || email == "" {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "name and email are required"))
		return
	}

	payload := h.codec.Payload(name, email, time.Now().UTC())
	png, err := RenderQR(payload)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "failed to render ticket qr",
			"error", err.Error(),
			"request_id", middleware.GetRequestID(r.Context()),
		)
		shared.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "failed to render ticket"))
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(png)
}
