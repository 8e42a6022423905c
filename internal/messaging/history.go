package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/odyssey-erp/boutique/internal/storage"
)

// Storage keys and caps for the history lists.
const (
	MessageHistoryKey  = "message_history"
	CampaignHistoryKey = "campaign_history"
	MaxMessages        = 1000
	MaxCampaigns       = 100

	maxAppendAttempts = 5
)

// Record is one sent message.
type Record struct {
	ID        string    `json:"id"`
	Type      Channel   `json:"type"`
	To        string    `json:"to"`
	Message   string    `json:"message"`
	Status    string    `json:"status"`
	Cost      float64   `json:"cost"`
	Timestamp time.Time `json:"timestamp"`
	Provider  string    `json:"provider"`
}

// Campaign is one newsletter run.
type Campaign struct {
	ID        string           `json:"id"`
	Subject   string           `json:"subject"`
	Message   string           `json:"message"`
	Channels  []Channel        `json:"channels"`
	Results   NewsletterResult `json:"results"`
	Timestamp time.Time        `json:"timestamp"`
}

// History keeps newest-first capped lists in storage.
type History struct {
	kv storage.KV
	mu sync.Mutex
}

// NewHistory builds a History on kv.
func NewHistory(kv storage.KV) *History {
	return &History{kv: kv}
}

// AddMessage prepends r to the message history.
func (h *History) AddMessage(ctx context.Context, r Record) error {
	return prepend(ctx, h, MessageHistoryKey, r, MaxMessages)
}

// AddCampaign prepends c to the campaign history.
func (h *History) AddCampaign(ctx context.Context, c Campaign) error {
	return prepend(ctx, h, CampaignHistoryKey, c, MaxCampaigns)
}

// Messages returns at most limit records, newest first. limit <= 0 returns
// all of them.
func (h *History) Messages(ctx context.Context, limit int) ([]Record, error) {
	items, _, err := load[Record](ctx, h.kv, MessageHistoryKey)
	return head(items, limit), err
}

// Campaigns returns at most limit campaigns, newest first.
func (h *History) Campaigns(ctx context.Context, limit int) ([]Campaign, error) {
	items, _, err := load[Campaign](ctx, h.kv, CampaignHistoryKey)
	return head(items, limit), err
}

// prepend retries on revision conflicts so several instances can share the
// same storage.
func prepend[T any](ctx context.Context, h *History, key string, item T, max int) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	for attempt := 0; attempt < maxAppendAttempts; attempt++ {
		items, rev, err := load[T](ctx, h.kv, key)
		if err != nil {
			return err
		}
		items = append([]T{item}, items...)
		if len(items) > max {
			items = items[:max]
		}
		raw, err := json.Marshal(items)
		if err != nil {
			return fmt.Errorf("messaging: encode %s: %w", key, err)
		}
		_, err = h.kv.Put(ctx, key, raw, rev)
		if errors.Is(err, storage.ErrRevisionConflict) {
			continue
		}
		if err != nil {
			return fmt.Errorf("messaging: save %s: %w", key, err)
		}
		return nil
	}
	return fmt.Errorf("messaging: save %s: %w", key, storage.ErrRevisionConflict)
}

func load[T any](ctx context.Context, kv storage.KV, key string) ([]T, int64, error) {
	rec, err := kv.Get(ctx, key)
	if storage.IsNotFound(err) {
		return []T{}, 0, nil
	}
	if err != nil {
		return nil, 0, fmt.Errorf("messaging: load %s: %w", key, err)
	}
	var items []T
	if err := json.Unmarshal(rec.Value, &items); err != nil {
		// unreadable history is replaced on the next write
		return []T{}, rec.Revision, nil
	}
	if items == nil {
		items = []T{}
	}
	return items, rec.Revision, nil
}

func head[T any](items []T, limit int) []T {
	if limit > 0 && len(items) > limit {
		return items[:limit]
	}
	return items
}
