package backup

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/odyssey-erp/boutique/internal/storage"
	"github.com/odyssey-erp/boutique/internal/store"
)

const (
	// LatestKey holds the most recent auto-save.
	LatestKey = "alamadinah_backup"
	// KeyPrefix prefixes every timestamped auto-save.
	KeyPrefix = LatestKey + "_"
	// DefaultRetention is how long timestamped auto-saves are kept.
	DefaultRetention = 30 * 24 * time.Hour

	maxImportBytes = 32 << 20
	keyTimeLayout  = "20060102T150405.000Z"
)

// ErrNoBackup is returned when no auto-save exists.
var ErrNoBackup = fmt.Errorf("backup: no saved backup: %w", storage.ErrNotFound)

// StorePort is the part of the store used by backups.
type StorePort interface {
	Snapshot() store.State
	Dispatch(ctx context.Context, action store.Action) error
}

// Info describes a stored backup.
type Info struct {
	Key       string    `json:"key"`
	Timestamp time.Time `json:"timestamp"`
	Version   string    `json:"version"`
	Metadata  Metadata  `json:"metadata"`
	Size      int       `json:"size"`
}

// Config tunes the service.
type Config struct {
	Retention time.Duration
	Now       func() time.Time
	Logger    *slog.Logger
}

// Service creates and restores backups.
type Service struct {
	store     StorePort
	kv        storage.KV
	retention time.Duration
	now       func() time.Time
	logger    *slog.Logger
}

// NewService wires the store and the storage used for auto-saves.
func NewService(st StorePort, kv storage.KV, cfg Config) *Service {
	if cfg.Retention <= 0 {
		cfg.Retention = DefaultRetention
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Service{store: st, kv: kv, retention: cfg.Retention, now: cfg.Now, logger: cfg.Logger}
}

// Create snapshots the store.
func (s *Service) Create() Document {
	return NewDocument(s.store.Snapshot(), s.now())
}

// Export writes an indented backup document to w.
func (s *Service) Export(w io.Writer) (Document, error) {
	doc := s.Create()
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return Document{}, fmt.Errorf("backup: export: %w", err)
	}
	return doc, nil
}

// Filename returns the download name for a document.
func Filename(doc Document) string {
	return fmt.Sprintf("%s_%s.json", LatestKey, doc.Timestamp.Format(store.DateLayout))
}

// Import validates the document read from r and replaces the store data
// with it. Credentials already configured are kept.
func (s *Service) Import(ctx context.Context, r io.Reader) (Document, error) {
	raw, err := io.ReadAll(io.LimitReader(r, maxImportBytes))
	if err != nil {
		return Document{}, fmt.Errorf("backup: read: %w", err)
	}
	doc, err := Validate(raw)
	if err != nil {
		return Document{}, err
	}
	return doc, s.restore(ctx, doc)
}

// RestoreLatest restores the most recent auto-save.
func (s *Service) RestoreLatest(ctx context.Context) (Document, error) {
	rec, err := s.kv.Get(ctx, LatestKey)
	if storage.IsNotFound(err) {
		return Document{}, ErrNoBackup
	}
	if err != nil {
		return Document{}, fmt.Errorf("backup: load latest: %w", err)
	}
	doc, err := Validate(rec.Value)
	if err != nil {
		return Document{}, err
	}
	return doc, s.restore(ctx, doc)
}

func (s *Service) restore(ctx context.Context, doc Document) error {
	current := s.store.Snapshot().Settings.PaymentSettings
	settings := doc.Data.Settings
	ps := &settings.PaymentSettings
	keep := func(dst *string, src string) {
		if *dst == "" {
			*dst = src
		}
	}
	keep(&ps.MasterKey, current.MasterKey)
	keep(&ps.PrivateKey, current.PrivateKey)
	keep(&ps.PublicKey, current.PublicKey)
	keep(&ps.Token, current.Token)

	action := store.ReplaceData{
		Products:   nonNil(doc.Data.Products),
		Clients:    nonNil(doc.Data.Clients),
		Invoices:   nonNil(doc.Data.Invoices),
		Categories: doc.Data.Categories,
		Settings:   &settings,
	}
	if err := s.store.Dispatch(ctx, action); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return fmt.Errorf("%w: %w", ErrInvalidBackup, err)
		}
		return err
	}
	s.logger.Info("backup restored",
		slog.Time("timestamp", doc.Timestamp),
		slog.Int("products", len(action.Products)),
		slog.Int("clients", len(action.Clients)),
		slog.Int("invoices", len(action.Invoices)))
	return nil
}

// AutoSave writes a timestamped backup and moves the latest pointer to it.
func (s *Service) AutoSave(ctx context.Context) (Info, error) {
	doc := s.Create()
	raw, err := json.Marshal(doc)
	if err != nil {
		return Info{}, fmt.Errorf("backup: encode: %w", err)
	}
	key := KeyPrefix + doc.Timestamp.Format(keyTimeLayout)
	if _, err := s.kv.Put(ctx, key, raw, storage.AnyRevision); err != nil {
		return Info{}, fmt.Errorf("backup: save %s: %w", key, err)
	}
	if _, err := s.kv.Put(ctx, LatestKey, raw, storage.AnyRevision); err != nil {
		return Info{}, fmt.Errorf("backup: save latest: %w", err)
	}
	return Info{Key: key, Timestamp: doc.Timestamp, Version: doc.Version, Metadata: doc.Metadata, Size: len(raw)}, nil
}

// LastInfo describes the latest auto-save.
func (s *Service) LastInfo(ctx context.Context) (Info, error) {
	rec, err := s.kv.Get(ctx, LatestKey)
	if storage.IsNotFound(err) {
		return Info{}, ErrNoBackup
	}
	if err != nil {
		return Info{}, fmt.Errorf("backup: load latest: %w", err)
	}
	var doc Document
	if err := json.Unmarshal(rec.Value, &doc); err != nil {
		return Info{}, fmt.Errorf("%w: %v", ErrInvalidBackup, err)
	}
	return Info{Key: LatestKey, Timestamp: doc.Timestamp, Version: doc.Version, Metadata: doc.Metadata, Size: len(rec.Value)}, nil
}

// Cleanup removes timestamped auto-saves older than the retention period
// and any that cannot be read. It returns the removed keys.
func (s *Service) Cleanup(ctx context.Context) ([]string, error) {
	keys, err := s.kv.Keys(ctx, KeyPrefix)
	if err != nil {
		return nil, fmt.Errorf("backup: list: %w", err)
	}
	cutoff := s.now().Add(-s.retention)
	var removed []string
	for _, key := range keys {
		if !strings.HasPrefix(key, KeyPrefix) {
			continue
		}
		rec, err := s.kv.Get(ctx, key)
		if storage.IsNotFound(err) {
			continue
		}
		if err != nil {
			return removed, fmt.Errorf("backup: load %s: %w", key, err)
		}
		var doc struct {
			Timestamp time.Time `json:"timestamp"`
		}
		if err := json.Unmarshal(rec.Value, &doc); err == nil && !doc.Timestamp.IsZero() && !doc.Timestamp.Before(cutoff) {
			continue
		}
		if err := s.kv.Delete(ctx, key); err != nil && !errors.Is(err, storage.ErrNotFound) {
			return removed, fmt.Errorf("backup: delete %s: %w", key, err)
		}
		removed = append(removed, key)
	}
	if len(removed) > 0 {
		s.logger.Info("old backups removed", slog.Int("count", len(removed)))
	}
	return removed, nil
}
