package clients

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/odyssey-erp/boutique/internal/platform/httpx"
	"github.com/odyssey-erp/boutique/internal/store"
)

// Handler exposes clients over HTTP.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler builds Handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers client endpoints.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.Post("/", h.create)
	r.Get("/{id}", h.get)
	r.Get("/{id}/invoices", h.invoices)
	r.Put("/{id}", h.update)
	r.Delete("/{id}", h.delete)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := store.ClientFilter{
		ListFilters: store.ListFilters{
			Search:  q.Get("search"),
			SortBy:  q.Get("sort"),
			SortDir: q.Get("dir"),
		},
		ClientType: store.ClientType(q.Get("type")),
	}
	httpx.JSONList(w, r, h.service.List(filter))
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	c, err := h.service.Get(store.ID(chi.URLParam(r, "id")))
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, c)
}

func (h *Handler) invoices(w http.ResponseWriter, r *http.Request) {
	httpx.JSON(w, http.StatusOK, h.service.Invoices(store.ID(chi.URLParam(r, "id"))))
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var in ClientInput
	if err := httpx.DecodeJSON(r, &in); err != nil {
		h.respondError(w, err)
		return
	}
	c, err := h.service.Create(r.Context(), in)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, c)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	var in ClientInput
	if err := httpx.DecodeJSON(r, &in); err != nil {
		h.respondError(w, err)
		return
	}
	c, err := h.service.Update(r.Context(), store.ID(chi.URLParam(r, "id")), in)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, c)
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
		h.logger.Error("client change not persisted", slog.Any("error", err))
	}
	httpx.RespondError(w, err)
}
