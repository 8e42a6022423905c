package invoicing

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/odyssey-erp/boutique/internal/platform/httpx"
	"github.com/odyssey-erp/boutique/internal/shared"
	"github.com/odyssey-erp/boutique/internal/store"
)

// Handler exposes invoices over HTTP.
type Handler struct {
	logger  *slog.Logger
	service *Service
	store   StorePort
}

// NewHandler builds Handler.
func NewHandler(logger *slog.Logger, service *Service, st StorePort) *Handler {
	return &Handler{logger: logger, service: service, store: st}
}

// MountRoutes registers invoice endpoints.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.Post("/", h.issue)
	r.Get("/{id}", h.get)
	r.Patch("/{id}/status", h.setStatus)
	r.Delete("/{id}", h.delete)
}

type lineRequest struct {
	ProductID string `json:"productId" validate:"required"`
	Quantity  int    `json:"quantity" validate:"gt=0"`
}

type issueRequest struct {
	ClientID      string        `json:"clientId" validate:"required"`
	Items         []lineRequest `json:"items" validate:"required,min=1,dive"`
	PaymentMethod string        `json:"paymentMethod"`
	Date          string        `json:"date" validate:"omitempty,datetime=2006-01-02"`
	Notes         string        `json:"notes"`
	Status        string        `json:"status" validate:"omitempty,oneof=draft pending"`
}

type statusRequest struct {
	Status string `json:"status" validate:"required,oneof=draft pending paid overdue"`
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := store.InvoiceFilter{
		ListFilters: store.ListFilters{
			Search:  q.Get("search"),
			SortBy:  q.Get("sort"),
			SortDir: q.Get("dir"),
		},
		DatePrefix: q.Get("date"),
		Status:     store.InvoiceStatus(q.Get("status")),
		ClientID:   store.ID(q.Get("client")),
	}
	if filter.SortBy == "" {
		filter.SortBy, filter.SortDir = "date", "desc"
	}
	httpx.JSONList(w, r, h.service.List(filter))
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	inv, err := h.service.Get(store.ID(chi.URLParam(r, "id")))
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, inv)
}

func (h *Handler) issue(w http.ResponseWriter, r *http.Request) {
	var req issueRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		h.respondError(w, err)
		return
	}
	if fields := shared.Validate(req); fields != nil {
		httpx.ValidationProblem(w, fields)
		return
	}

	state := h.store.Snapshot()
	client, ok := state.Client(store.ID(req.ClientID))
	if !ok {
		httpx.ValidationProblem(w, map[string]string{"clientId": "unknown client"})
		return
	}
	snapshot := client.Snapshot()
	draft := Draft{
		Client:        &snapshot,
		Date:          req.Date,
		PaymentMethod: req.PaymentMethod,
		Notes:         req.Notes,
	}
	for i, item := range req.Items {
		p, ok := state.Product(store.ID(item.ProductID))
		if !ok {
			httpx.ValidationProblem(w, map[string]string{fmt.Sprintf("items[%d].productId", i): "unknown product"})
			return
		}
		if err := draft.Add(p, item.Quantity); err != nil {
			h.respondError(w, err)
			return
		}
	}

	inv, err := h.service.Issue(r.Context(), draft, store.InvoiceStatus(req.Status))
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.logger.Info("invoice issued", slog.String("number", inv.Number), slog.Float64("total", inv.Total))
	httpx.JSON(w, http.StatusCreated, inv)
}

func (h *Handler) setStatus(w http.ResponseWriter, r *http.Request) {
	var req statusRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		h.respondError(w, err)
		return
	}
	if fields := shared.Validate(req); fields != nil {
		httpx.ValidationProblem(w, fields)
		return
	}
	inv, err := h.service.SetStatus(r.Context(), store.ID(chi.URLParam(r, "id")), store.InvoiceStatus(req.Status))
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, inv)
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
		h.logger.Error("invoice change not persisted", slog.Any("error", err))
	}
	httpx.RespondError(w, err)
}
