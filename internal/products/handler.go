package products

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/odyssey-erp/boutique/internal/platform/httpx"
	"github.com/odyssey-erp/boutique/internal/shared"
	"github.com/odyssey-erp/boutique/internal/store"
)

// Handler exposes the catalogue over HTTP.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler builds Handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers product endpoints.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.Post("/", h.create)
	r.Get("/low-stock", h.lowStock)
	r.Get("/{id}", h.get)
	r.Put("/{id}", h.update)
	r.Put("/{id}/stock", h.setStock)
	r.Delete("/{id}", h.delete)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := store.ProductFilter{
		ListFilters: store.ListFilters{
			Search:  q.Get("search"),
			SortBy:  q.Get("sort"),
			SortDir: q.Get("dir"),
		},
		Category: q.Get("category"),
		LowStock: q.Get("low_stock") == "true",
	}
	httpx.JSONList(w, r, h.service.List(filter))
}

func (h *Handler) lowStock(w http.ResponseWriter, r *http.Request) {
	httpx.JSON(w, http.StatusOK, h.service.LowStock())
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	p, err := h.service.Get(store.ID(chi.URLParam(r, "id")))
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, p)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var in ProductInput
	if err := httpx.DecodeJSON(r, &in); err != nil {
		h.respondError(w, err)
		return
	}
	p, err := h.service.Create(r.Context(), in)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, p)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	var in ProductInput
	if err := httpx.DecodeJSON(r, &in); err != nil {
		h.respondError(w, err)
		return
	}
	p, err := h.service.Update(r.Context(), store.ID(chi.URLParam(r, "id")), in)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, p)
}

func (h *Handler) setStock(w http.ResponseWriter, r *http.Request) {
	var in StockInput
	if err := httpx.DecodeJSON(r, &in); err != nil {
		h.respondError(w, err)
		return
	}
	if fields := shared.Validate(in); fields != nil {
		httpx.ValidationProblem(w, fields)
		return
	}
	p, err := h.service.SetStock(r.Context(), store.ID(chi.URLParam(r, "id")), *in.Stock)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, p)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), store.ID(chi.URLParam(r, "id"))); err != nil {
		h.respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) respondError(w http.ResponseWriter, err error) {
	if errors.Is(err, store.ErrPersist) {
		h.logger.Error("product change not persisted", slog.Any("error", err))
	}
	httpx.RespondError(w, err)
}
