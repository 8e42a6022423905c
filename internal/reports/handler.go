package reports

import (
	"bytes"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"golang.org/x/text/language"

	"github.com/odyssey-erp/boutique/internal/platform/httpx"
	"github.com/odyssey-erp/boutique/internal/shared"
)

// Handler exposes dashboards, reports and CSV exports.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler builds Handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers report endpoints.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/dashboard", h.dashboard)
	r.Get("/sales", h.sales)
	r.Get("/export/{kind}.csv", h.export)
}

func (h *Handler) dashboard(w http.ResponseWriter, r *http.Request) {
	d, err := h.service.Dashboard(r.Context())
	if err != nil {
		h.logError("dashboard", err)
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, d)
}

func (h *Handler) sales(w http.ResponseWriter, r *http.Request) {
	rng, err := ParseRange(r.URL.Query().Get("range"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	report, err := h.service.Sales(r.Context(), rng)
	if err != nil {
		h.logError("sales report", err)
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, report)
}

func (h *Handler) export(w http.ResponseWriter, r *http.Request) {
	kind := chi.URLParam(r, "kind")
	state := h.service.Snapshot()
	f := NewFormatter(language.Make(state.UI.Language), state.Settings.BusinessInfo.Currency)

	var buf bytes.Buffer
	var err error
	filename := kind
	switch kind {
	case "products":
		err = WriteProductsCSV(&buf, state.Products, f)
	case "clients":
		err = WriteClientsCSV(&buf, state.Clients, f)
	case "invoices":
		err = WriteInvoicesCSV(&buf, state.Invoices, f)
	case "sales":
		rng, perr := ParseRange(r.URL.Query().Get("range"))
		if perr != nil {
			httpx.RespondError(w, perr)
			return
		}
		var report SalesReport
		report, err = h.service.Sales(r.Context(), rng)
		if err == nil {
			err = WriteSalesCSV(&buf, report, f)
		}
		filename = fmt.Sprintf("sales-%s", rng)
	default:
		httpx.RespondError(w, fmt.Errorf("reports: export %q: %w", kind, shared.ErrNotFound))
		return
	}
	if err != nil {
		h.logError("export csv", err)
		httpx.RespondError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s.csv\"", filename))
	if _, err := w.Write(buf.Bytes()); err != nil {
		h.logError("stream csv", err)
	}
}

func (h *Handler) logError(msg string, err error) {
	h.logger.Error("reports: "+msg, slog.Any("error", err))
}
