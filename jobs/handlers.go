package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/hibiken/asynq"

	"github.com/odyssey-erp/boutique/internal/backup"
	jobmetrics "github.com/odyssey-erp/boutique/internal/jobs"
	"github.com/odyssey-erp/boutique/internal/messaging"
	"github.com/odyssey-erp/boutique/internal/store"
)

// StorePort is the part of the store used by the job handlers.
type StorePort interface {
	Snapshot() store.State
	Refresh(ctx context.Context) (bool, error)
}

// Backups covers the backup operations run in the background.
type Backups interface {
	AutoSave(ctx context.Context) (backup.Info, error)
	Cleanup(ctx context.Context) ([]string, error)
}

// Invoices covers invoice maintenance.
type Invoices interface {
	MarkOverdue(ctx context.Context, now time.Time) (int, error)
}

// Messenger sends notifications and newsletters.
type Messenger interface {
	Send(ctx context.Context, channel messaging.Channel, to, body, sender string) (messaging.Record, error)
	Newsletter(ctx context.Context, req messaging.NewsletterRequest) (messaging.Campaign, error)
}

// Handlers runs the boutique background tasks.
type Handlers struct {
	Store     StorePort
	Backups   Backups
	Invoices  Invoices
	Messenger Messenger
	Metrics   *jobmetrics.Metrics
	Logger    *slog.Logger
	Now       func() time.Time
}

// Tasks lists the handlers to register on the worker.
func (h *Handlers) Tasks() []TaskHandler {
	return []TaskHandler{
		{Type: TaskBackupAutosave, Handler: h.HandleBackupAutosave},
		{Type: TaskBackupCleanup, Handler: h.HandleBackupCleanup},
		{Type: TaskInventoryLowStock, Handler: h.HandleLowStockScan},
		{Type: TaskInvoicesMarkOverdue, Handler: h.HandleMarkOverdue},
		{Type: TaskMessagingNewsletter, Handler: h.HandleNewsletter},
	}
}

func (h *Handlers) logger() *slog.Logger {
	if h.Logger == nil {
		return slog.Default()
	}
	return h.Logger
}

func (h *Handlers) now() time.Time {
	if h.Now == nil {
		return time.Now().UTC()
	}
	return h.Now().UTC()
}

// refresh picks up writes made by the API process before a job reads state.
func (h *Handlers) refresh(ctx context.Context) error {
	if h.Store == nil {
		return errors.New("jobs: store not configured")
	}
	if _, err := h.Store.Refresh(ctx); err != nil {
		return fmt.Errorf("jobs: refresh store: %w", err)
	}
	return nil
}

// HandleBackupAutosave writes a timestamped backup of the current state.
func (h *Handlers) HandleBackupAutosave(ctx context.Context, _ *asynq.Task) (err error) {
	tracker := h.Metrics.Track(TaskBackupAutosave)
	defer func() { err = tracker.End(err) }()

	if h.Backups == nil {
		return errors.New("jobs: backups not configured")
	}
	if err := h.refresh(ctx); err != nil {
		return err
	}
	info, err := h.Backups.AutoSave(ctx)
	if err != nil {
		return err
	}
	h.logger().Info("backup saved",
		slog.String("key", info.Key),
		slog.Int("size", info.Size),
		slog.Int("products", info.Metadata.TotalProducts),
		slog.Int("invoices", info.Metadata.TotalInvoices))
	return nil
}

// HandleBackupCleanup removes auto-saves past retention.
func (h *Handlers) HandleBackupCleanup(ctx context.Context, _ *asynq.Task) (err error) {
	tracker := h.Metrics.Track(TaskBackupCleanup)
	defer func() { err = tracker.End(err) }()

	if h.Backups == nil {
		return errors.New("jobs: backups not configured")
	}
	removed, err := h.Backups.Cleanup(ctx)
	if err != nil {
		return err
	}
	h.logger().Info("backup cleanup", slog.Int("removed", len(removed)))
	return nil
}

// HandleLowStockScan counts products at or below their minimum stock and,
// when low-stock notifications are on, texts the list to the shop phone.
func (h *Handlers) HandleLowStockScan(ctx context.Context, _ *asynq.Task) (err error) {
	tracker := h.Metrics.Track(TaskInventoryLowStock)
	defer func() { err = tracker.End(err) }()

	if err := h.refresh(ctx); err != nil {
		return err
	}
	state := h.Store.Snapshot()
	low := store.LowStock(state.Products)
	h.Metrics.SetLowStock(len(low))
	h.logger().Info("low stock scan", slog.Int("products", len(low)))

	if len(low) == 0 || !state.Settings.Notifications.LowStock || h.Messenger == nil {
		return nil
	}
	phone := state.Settings.BusinessInfo.Phone
	if phone == "" {
		h.logger().Warn("low stock alert skipped: no business phone")
		return nil
	}
	if _, err := h.Messenger.Send(ctx, messaging.ChannelSMS, phone, LowStockMessage(low), messaging.DefaultSender); err != nil {
		if errors.Is(err, messaging.ErrInvalidPhone) {
			h.logger().Warn("low stock alert skipped", slog.String("phone", phone), slog.Any("error", err))
			return nil
		}
		return err
	}
	return nil
}

// LowStockMessage renders the alert text for the given products.
func LowStockMessage(low []store.Product) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Stock faible (%d):", len(low))
	for i, p := range low {
		if i == 5 {
			fmt.Fprintf(&b, "\n+%d autres", len(low)-i)
			break
		}
		fmt.Fprintf(&b, "\n- %s: %d/%d", p.Name, p.Stock, p.MinStock)
	}
	return b.String()
}

// HandleMarkOverdue flags pending invoices past their payment term.
func (h *Handlers) HandleMarkOverdue(ctx context.Context, _ *asynq.Task) (err error) {
	tracker := h.Metrics.Track(TaskInvoicesMarkOverdue)
	defer func() { err = tracker.End(err) }()

	if h.Invoices == nil {
		return errors.New("jobs: invoices not configured")
	}
	if err := h.refresh(ctx); err != nil {
		return err
	}
	changed, err := h.Invoices.MarkOverdue(ctx, h.now())
	if err != nil {
		return err
	}
	h.logger().Info("overdue invoices marked", slog.Int("changed", changed))
	return nil
}

// HandleNewsletter sends a queued newsletter. Failed payloads are not retried.
func (h *Handlers) HandleNewsletter(ctx context.Context, t *asynq.Task) (err error) {
	tracker := h.Metrics.Track(TaskMessagingNewsletter)
	defer func() { err = tracker.End(err) }()

	var payload NewsletterPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("jobs: decode newsletter: %v: %w", err, asynq.SkipRetry)
	}
	if h.Messenger == nil {
		return errors.New("jobs: messaging not configured")
	}
	if err := h.refresh(ctx); err != nil {
		return err
	}
	campaign, err := h.Messenger.Newsletter(ctx, payload.Request)
	if err != nil {
		return fmt.Errorf("jobs: newsletter: %w: %w", err, asynq.SkipRetry)
	}
	h.logger().Info("newsletter job done",
		slog.String("campaign", campaign.ID),
		slog.Int("sent", campaign.Results.Sent),
		slog.Int("failed", campaign.Results.Failed))
	return nil
}
