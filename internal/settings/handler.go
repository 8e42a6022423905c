package settings

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/odyssey-erp/boutique/internal/platform/httpx"
	"github.com/odyssey-erp/boutique/internal/shared"
	"github.com/odyssey-erp/boutique/internal/store"
)

const maxPatchBytes = 1 << 20

// Handler exposes settings, UI preferences and reference lists.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler builds Handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

type themeRequest struct {
	Theme string `json:"theme" validate:"required,oneof=light dark"`
}

type languageRequest struct {
	Language string `json:"language" validate:"required,oneof=fr en ar"`
}

// MountRoutes registers the endpoints at the router root.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/settings", h.get)
	r.Patch("/settings", h.patch)
	r.Get("/ui", h.ui)
	r.Post("/ui/sidebar/toggle", h.toggleSidebar)
	r.Put("/ui/theme", h.setTheme)
	r.Put("/ui/language", h.setLanguage)
	r.Get("/categories", h.categories)
	r.Get("/payment-methods", h.paymentMethods)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	httpx.JSON(w, http.StatusOK, h.service.Get())
}

func (h *Handler) patch(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxPatchBytes))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}
	if !json.Valid(body) {
		httpx.RespondError(w, store.ErrInvalidPatch)
		return
	}
	settings, err := h.service.Patch(r.Context(), body)
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.logger.Info("settings updated")
	httpx.JSON(w, http.StatusOK, settings)
}

func (h *Handler) ui(w http.ResponseWriter, r *http.Request) {
	httpx.JSON(w, http.StatusOK, h.service.UI())
}

func (h *Handler) toggleSidebar(w http.ResponseWriter, r *http.Request) {
	ui, err := h.service.ToggleSidebar(r.Context())
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, ui)
}

func (h *Handler) setTheme(w http.ResponseWriter, r *http.Request) {
	var req themeRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	if fields := shared.Validate(req); fields != nil {
		httpx.ValidationProblem(w, fields)
		return
	}
	ui, err := h.service.SetTheme(r.Context(), req.Theme)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, ui)
}

func (h *Handler) setLanguage(w http.ResponseWriter, r *http.Request) {
	var req languageRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	if fields := shared.Validate(req); fields != nil {
		httpx.ValidationProblem(w, fields)
		return
	}
	ui, err := h.service.SetLanguage(r.Context(), req.Language)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, ui)
}

func (h *Handler) categories(w http.ResponseWriter, r *http.Request) {
	httpx.JSON(w, http.StatusOK, h.service.Categories())
}

func (h *Handler) paymentMethods(w http.ResponseWriter, r *http.Request) {
	httpx.JSON(w, http.StatusOK, h.service.PaymentMethods())
}

func (h *Handler) respondError(w http.ResponseWriter, err error) {
	if errors.Is(err, store.ErrPersist) {
		h.logger.Error("settings change not persisted", slog.Any("error", err))
	}
	httpx.RespondError(w, err)
}
