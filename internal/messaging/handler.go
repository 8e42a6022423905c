package messaging

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/odyssey-erp/boutique/internal/platform/httpx"
	"github.com/odyssey-erp/boutique/internal/shared"
)

const defaultHistoryLimit = 50

// Enqueuer schedules a newsletter in the background and returns the task id.
type Enqueuer interface {
	EnqueueNewsletter(ctx context.Context, req NewsletterRequest) (string, error)
}

// Handler exposes messaging endpoints.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	enqueuer Enqueuer
}

// NewHandler builds Handler. enqueuer may be nil, in which case background
// newsletters are rejected.
func NewHandler(logger *slog.Logger, service *Service, enqueuer Enqueuer) *Handler {
	return &Handler{logger: logger, service: service, enqueuer: enqueuer}
}

// MountRoutes registers messaging endpoints.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/sms", h.send(ChannelSMS))
	r.Post("/whatsapp", h.send(ChannelWhatsApp))
	r.Post("/newsletter", h.newsletter)
	r.Get("/history", h.history)
	r.Get("/campaigns", h.campaigns)
	r.Get("/stats", h.stats)
	r.Get("/templates", h.templates)
	r.Post("/templates/{name}/render", h.render)
}

type sendRequest struct {
	To       string   `json:"to" validate:"required"`
	Message  string   `json:"message"`
	Sender   string   `json:"sender"`
	Template Template `json:"template"`
	Vars     Vars     `json:"vars"`
}

func (h *Handler) send(channel Channel) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req sendRequest
		if err := httpx.DecodeJSON(r, &req); err != nil {
			httpx.RespondError(w, err)
			return
		}
		if fields := shared.Validate(req); fields != nil {
			httpx.ValidationProblem(w, fields)
			return
		}
		body := req.Message
		if req.Template != "" {
			rendered, err := Render(req.Template, req.Vars)
			if err != nil {
				httpx.RespondError(w, err)
				return
			}
			body = rendered
		}
		rec, err := h.service.Send(r.Context(), channel, req.To, body, req.Sender)
		if err != nil {
			httpx.RespondError(w, err)
			return
		}
		httpx.JSON(w, http.StatusCreated, rec)
	}
}

type newsletterRequest struct {
	NewsletterRequest
	Background bool `json:"background"`
}

func (h *Handler) newsletter(w http.ResponseWriter, r *http.Request) {
	var req newsletterRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	if fields := shared.Validate(req.NewsletterRequest); fields != nil {
		httpx.ValidationProblem(w, fields)
		return
	}
	if req.Background {
		if h.enqueuer == nil {
			httpx.Problem(w, http.StatusServiceUnavailable, "Queue Unavailable", "background jobs are not configured")
			return
		}
		id, err := h.enqueuer.EnqueueNewsletter(r.Context(), req.NewsletterRequest)
		if err != nil {
			h.logger.Error("enqueue newsletter", slog.Any("error", err))
			httpx.RespondError(w, err)
			return
		}
		httpx.JSON(w, http.StatusAccepted, map[string]string{"taskId": id})
		return
	}
	campaign, err := h.service.Newsletter(r.Context(), req.NewsletterRequest)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, campaign)
}

func (h *Handler) history(w http.ResponseWriter, r *http.Request) {
	records, err := h.service.History(r.Context(), limitParam(r))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, records)
}

func (h *Handler) campaigns(w http.ResponseWriter, r *http.Request) {
	campaigns, err := h.service.Campaigns(r.Context(), limitParam(r))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, campaigns)
}

func (h *Handler) stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.Stats(r.Context())
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, stats)
}

func (h *Handler) templates(w http.ResponseWriter, r *http.Request) {
	httpx.JSON(w, http.StatusOK, Templates())
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request) {
	var vars Vars
	if r.ContentLength != 0 {
		if err := httpx.DecodeJSON(r, &vars); err != nil {
			httpx.RespondError(w, err)
			return
		}
	}
	text, err := Render(Template(chi.URLParam(r, "name")), vars)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"message": text})
}

func limitParam(r *http.Request) int {
	limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || limit <= 0 {
		return defaultHistoryLimit
	}
	return limit
}
