package attendance

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"gatepass/internal/platform/middleware"
	"gatepass/internal/ticket"
	"gatepass/internal/transport/http/shared"
	dErrors "gatepass/pkg/domain-errors"
	platformstrings "gatepass/pkg/platform/strings"
)

// Handler exposes the gate scanning endpoints.
type Handler struct {
	service *Service
	logger  *slog.Logger
}

func NewHandler(service *Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the scan routes.
func (h *Handler) Register(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(10 * time.Second))
		r.Use(middleware.ContentTypeJSON)
		r.Post("/attendance/verify", h.handleVerify)
		r.Post("/attendance/toggle-status", h.handleToggleStatus)
	})
}

type identityRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// handleVerify accepts a decoded QR payload and runs it through the
// verification state machine. All four outcomes are 200s; the scanning
// client branches on the result field.
func (h *Handler) handleVerify(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var payload ticket.Payload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "malformed scan payload"))
		return
	}
	if payload.Name == "" || payload.Email == "" || payload.Sig == "" {
		shared.WriteError(w, dErrors.New(dErrors.CodeValidation, "name, email and sig are required"))
		return
	}

	result, err := h.service.VerifyAndMark(ctx, payload.Name, payload.Email, payload.Sig)
	if err != nil {
		h.logger.ErrorContext(ctx, "scan failed",
			"error", err.Error(),
			"request_id", middleware.GetRequestID(ctx),
		)
		shared.WriteError(w, err)
		return
	}

	shared.WriteJSON(w, http.StatusOK, result)
}

// handleToggleStatus flips a participant's registered/verified status. The
// name is normalized the same way registration normalizes it, so operators
// can type it free-form.
func (h *Handler) handleToggleStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req identityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "malformed request body"))
		return
	}
	if req.Name == "" || req.Email == "" {
		shared.WriteError(w, dErrors.New(dErrors.CodeValidation, "name and email are required"))
		return
	}

	p, err := h.service.ToggleVerifiedStatus(ctx, platformstrings.TitleCaseName(req.Name), req.Email)
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	shared.WriteJSON(w, http.StatusOK, p)
}
