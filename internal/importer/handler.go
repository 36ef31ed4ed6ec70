package importer

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"gatepass/internal/platform/middleware"
	"gatepass/internal/transport/http/shared"
)

// Handler exposes the CSV import endpoint.
type Handler struct {
	service *Service
	logger  *slog.Logger
}

func NewHandler(service *Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the import route. Large files are allowed but bounded;
// the timeout is generous because imports run row by row.
func (h *Handler) Register(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(2 * time.Minute))
		r.Post("/import", h.handleImport)
	})
}

// handleImport accepts the CSV file as the request body (text/csv).
func (h *Handler) handleImport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	report, err := h.service.Import(ctx, http.MaxBytesReader(w, r.Body, 16<<20))
	if err != nil {
		h.logger.ErrorContext(ctx, "import failed",
			"error", err.Error(),
			"request_id", middleware.GetRequestID(ctx),
		)
		shared.WriteError(w, err)
		return
	}

	shared.WriteJSON(w, http.StatusOK, report)
}
