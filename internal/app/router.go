package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/odyssey-erp/boutique/internal/backup"
	"github.com/odyssey-erp/boutique/internal/clients"
	"github.com/odyssey-erp/boutique/internal/events"
	"github.com/odyssey-erp/boutique/internal/invoicing"
	"github.com/odyssey-erp/boutique/internal/messaging"
	"github.com/odyssey-erp/boutique/internal/observability"
	"github.com/odyssey-erp/boutique/internal/platform/httpx"
	"github.com/odyssey-erp/boutique/internal/products"
	"github.com/odyssey-erp/boutique/internal/reports"
	"github.com/odyssey-erp/boutique/internal/settings"
	"github.com/odyssey-erp/boutique/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger  *slog.Logger
	Config  *Config
	Metrics *observability.Metrics

	ProductsHandler  *products.Handler
	ClientsHandler   *clients.Handler
	InvoicesHandler  *invoicing.Handler
	SettingsHandler  *settings.Handler
	ReportsHandler   *reports.Handler
	BackupHandler    *backup.Handler
	MessagingHandler *messaging.Handler
	JobHandler       *jobs.Handler
	Events           *events.Hub
}

// NewRouter constructs the chi.Router with the boutique defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	mwCfg := MiddlewareConfig{Logger: params.Logger, Config: params.Config, Metrics: params.Metrics}
	for _, mw := range MiddlewareStack(mwCfg) {
		r.Use(mw)
	}
	r.Use(chimw.Logger)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		httpx.Problem(w, http.StatusNotFound, http.StatusText(http.StatusNotFound), "no route for "+r.URL.Path)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		httpx.Problem(w, http.StatusMethodNotAllowed, http.StatusText(http.StatusMethodNotAllowed), r.Method+" is not supported here")
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}
	if params.Events != nil {
		r.Method(http.MethodGet, "/events", params.Events)
	}

	r.Group(func(r chi.Router) {
		for _, mw := range APIMiddleware(mwCfg) {
			r.Use(mw)
		}
		if params.ProductsHandler != nil {
			r.Route("/products", params.ProductsHandler.MountRoutes)
		}
		if params.ClientsHandler != nil {
			r.Route("/clients", params.ClientsHandler.MountRoutes)
		}
		if params.InvoicesHandler != nil {
			r.Route("/invoices", params.InvoicesHandler.MountRoutes)
		}
		if params.SettingsHandler != nil {
			params.SettingsHandler.MountRoutes(r)
		}
		if params.ReportsHandler != nil {
			r.Route("/reports", params.ReportsHandler.MountRoutes)
		}
		if params.BackupHandler != nil {
			r.Route("/backup", params.BackupHandler.MountRoutes)
		}
		if params.MessagingHandler != nil {
			r.Route("/messages", params.MessagingHandler.MountRoutes)
		}
		if params.JobHandler != nil {
			r.Route("/jobs", params.JobHandler.MountRoutes)
		}
	})

	return r
}
