package backup

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/odyssey-erp/boutique/internal/platform/httpx"
	"github.com/odyssey-erp/boutique/internal/store"
)

// Handler exposes backup endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler builds Handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers backup endpoints.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/export", h.export)
	r.Post("/import", h.importBackup)
	r.Post("/autosave", h.autoSave)
	r.Get("/latest", h.latest)
	r.Post("/latest/restore", h.restoreLatest)
	r.Post("/cleanup", h.cleanup)
}

type restoreResponse struct {
	Version   string   `json:"version"`
	Timestamp string   `json:"timestamp"`
	Metadata  Metadata `json:"metadata"`
}

func restored(doc Document) restoreResponse {
	return restoreResponse{Version: doc.Version, Timestamp: doc.Timestamp.Format(time.RFC3339), Metadata: doc.Metadata}
}

func (h *Handler) export(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	doc, err := h.service.Export(&buf)
	if err != nil {
		h.logger.Error("backup export failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", Filename(doc)))
	if _, err := w.Write(buf.Bytes()); err != nil {
		h.logger.Error("stream backup", slog.Any("error", err))
	}
}

func (h *Handler) importBackup(w http.ResponseWriter, r *http.Request) {
	doc, err := h.service.Import(r.Context(), r.Body)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, restored(doc))
}

func (h *Handler) restoreLatest(w http.ResponseWriter, r *http.Request) {
	doc, err := h.service.RestoreLatest(r.Context())
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, restored(doc))
}

func (h *Handler) autoSave(w http.ResponseWriter, r *http.Request) {
	info, err := h.service.AutoSave(r.Context())
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, info)
}

func (h *Handler) latest(w http.ResponseWriter, r *http.Request) {
	info, err := h.service.LastInfo(r.Context())
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, info)
}

func (h *Handler) cleanup(w http.ResponseWriter, r *http.Request) {
	removed, err := h.service.Cleanup(r.Context())
	if err != nil {
		h.respondError(w, err)
		return
	}
	if removed == nil {
		removed = []string{}
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"removed": removed})
}

func (h *Handler) respondError(w http.ResponseWriter, err error) {
	if errors.Is(err, store.ErrPersist) {
		h.logger.Error("restored data not persisted", slog.Any("error", err))
	}
	httpx.RespondError(w, err)
}
