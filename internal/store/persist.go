package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/odyssey-erp/boutique/internal/storage"
)

// SchemaVersion is written into every persisted blob.
const SchemaVersion = 1

type persistedData struct {
	SchemaVersion int       `json:"schemaVersion"`
	Revision      int64     `json:"revision"`
	Products      []Product `json:"products"`
	Clients       []Client  `json:"clients"`
	Invoices      []Invoice `json:"invoices"`
	Categories    []string  `json:"categories"`
	Settings      Settings  `json:"settings"`
}

// loadedData keeps every slice raw so absent slices can be told apart from
// empty ones.
type loadedData struct {
	SchemaVersion int             `json:"schemaVersion"`
	Products      json.RawMessage `json:"products"`
	Clients       json.RawMessage `json:"clients"`
	Invoices      json.RawMessage `json:"invoices"`
	Categories    json.RawMessage `json:"categories"`
	Settings      json.RawMessage `json:"settings"`
}

// Load rehydrates the store. Each slice present in the persisted blob
// replaces the seed slice. A missing or unreadable blob leaves the seed in
// place; only storage I/O failures are returned.
func (s *Store) Load(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load(ctx)
}

// load must be called with s.mu held.
func (s *Store) load(ctx context.Context) error {
	state := Seed()
	rec, err := s.kv.Get(ctx, s.key)
	switch {
	case storage.IsNotFound(err):
		s.revision = 0
	case err != nil:
		return fmt.Errorf("store: load %s: %w", s.key, err)
	default:
		s.revision = rec.Revision
		decoded, err := s.decodeData(rec.Value, state)
		if err != nil {
			s.logger.Warn("store: persisted data unreadable, using seed data",
				slog.String("key", s.key), slog.Any("error", err))
		} else {
			state = decoded
		}
	}

	ui, err := s.loadUI(ctx, state.UI)
	if err != nil {
		return err
	}
	state.UI = ui
	s.state = state
	return nil
}

// loadUI reads the UI preferences over base and records their revision. It
// must be called with s.mu held.
func (s *Store) loadUI(ctx context.Context, base UIState) (UIState, error) {
	rec, err := s.kv.Get(ctx, s.uiKey)
	switch {
	case storage.IsNotFound(err):
		s.uiRevision = 0
		return base, nil
	case err != nil:
		return base, fmt.Errorf("store: load %s: %w", s.uiKey, err)
	}
	s.uiRevision = rec.Revision
	ui := base
	if err := json.Unmarshal(rec.Value, &ui); err != nil {
		s.logger.Warn("store: persisted ui preferences unreadable",
			slog.String("key", s.uiKey), slog.Any("error", err))
		return base, nil
	}
	return ui, nil
}

func (s *Store) decodeData(raw []byte, state State) (State, error) {
	var blob loadedData
	if err := json.Unmarshal(raw, &blob); err != nil {
		return state, err
	}
	if blob.SchemaVersion > SchemaVersion {
		s.logger.Warn("store: persisted data written by a newer schema",
			slog.Int("schemaVersion", blob.SchemaVersion))
	}
	if present(blob.Products) {
		var products []Product
		if err := json.Unmarshal(blob.Products, &products); err != nil {
			return state, fmt.Errorf("products: %w", err)
		}
		state.Products = products
	}
	if present(blob.Clients) {
		var clients []Client
		if err := json.Unmarshal(blob.Clients, &clients); err != nil {
			return state, fmt.Errorf("clients: %w", err)
		}
		state.Clients = clients
	}
	if present(blob.Invoices) {
		var invoices []Invoice
		if err := json.Unmarshal(blob.Invoices, &invoices); err != nil {
			return state, fmt.Errorf("invoices: %w", err)
		}
		state.Invoices = invoices
	}
	if present(blob.Categories) {
		var categories []string
		if err := json.Unmarshal(blob.Categories, &categories); err != nil {
			return state, fmt.Errorf("categories: %w", err)
		}
		state.Categories = categories
	}
	if present(blob.Settings) {
		// decode over the defaults so keys added since the blob was written
		// keep their default values
		settings := state.Settings
		if err := json.Unmarshal(blob.Settings, &settings); err != nil {
			return state, fmt.Errorf("settings: %w", err)
		}
		state.Settings = s.openSettings(settings)
	}
	return state, nil
}

func present(raw json.RawMessage) bool {
	return len(raw) > 0 && string(raw) != "null"
}

// persistData must be called with s.mu held.
func (s *Store) persistData(ctx context.Context) error {
	settings, err := s.sealSettings(s.state.Settings)
	if err != nil {
		return err
	}
	blob := persistedData{
		SchemaVersion: SchemaVersion,
		Revision:      s.revision + 1,
		Products:      nonNil(s.state.Products),
		Clients:       nonNil(s.state.Clients),
		Invoices:      nonNil(s.state.Invoices),
		Categories:    nonNil(s.state.Categories),
		Settings:      settings,
	}
	raw, err := json.Marshal(blob)
	if err != nil {
		return fmt.Errorf("store: encode: %w", err)
	}
	rev, err := s.kv.Put(ctx, s.key, raw, s.revision)
	s.observePersist(s.key, err)
	if err != nil {
		return err
	}
	s.revision = rev
	return nil
}

// persistUI must be called with s.mu held.
func (s *Store) persistUI(ctx context.Context) error {
	raw, err := json.Marshal(s.state.UI)
	if err != nil {
		return fmt.Errorf("store: encode ui: %w", err)
	}
	rev, err := s.kv.Put(ctx, s.uiKey, raw, s.uiRevision)
	s.observePersist(s.uiKey, err)
	if err != nil {
		return err
	}
	s.uiRevision = rev
	return nil
}

func (s *Store) sealSettings(settings Settings) (Settings, error) {
	if s.sealer == nil {
		return settings, nil
	}
	ps := &settings.PaymentSettings
	for _, field := range []*string{&ps.MasterKey, &ps.PrivateKey, &ps.PublicKey, &ps.Token} {
		sealed, err := s.sealer.Seal(*field)
		if err != nil {
			return settings, fmt.Errorf("store: seal credentials: %w", err)
		}
		*field = sealed
	}
	return settings, nil
}

func (s *Store) openSettings(settings Settings) Settings {
	if s.sealer == nil {
		return settings
	}
	ps := &settings.PaymentSettings
	for _, field := range []*string{&ps.MasterKey, &ps.PrivateKey, &ps.PublicKey, &ps.Token} {
		plain, err := s.sealer.Open(*field)
		if err != nil {
			s.logger.Warn("store: cannot open sealed credential, clearing it", slog.Any("error", err))
			plain = ""
		}
		*field = plain
	}
	return settings
}

// IsConflict reports whether err comes from a concurrent writer.
func IsConflict(err error) bool {
	return errors.Is(err, storage.ErrRevisionConflict)
}

func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}

// ChangeReload is the change name delivered after Refresh picked up writes
// made by another process.
const ChangeReload = "RELOAD"

// Refresh reloads the store when a persisted revision moved since the last
// load or write. It reports whether a reload happened.
func (s *Store) Refresh(ctx context.Context) (bool, error) {
	dataRev, err := s.persistedRevision(ctx, s.key)
	if err != nil {
		return false, err
	}
	uiRev, err := s.persistedRevision(ctx, s.uiKey)
	if err != nil {
		return false, err
	}
	s.mu.RLock()
	stale := dataRev != s.revision || uiRev != s.uiRevision
	s.mu.RUnlock()
	if !stale {
		return false, nil
	}
	if err := s.Load(ctx); err != nil {
		return false, err
	}
	s.notify(Change{Action: ChangeReload, Revision: s.Revision()})
	return true, nil
}

// persistedRevision returns the stored revision of key, 0 when absent.
func (s *Store) persistedRevision(ctx context.Context, key string) (int64, error) {
	rec, err := s.kv.Get(ctx, key)
	if storage.IsNotFound(err) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("store: refresh %s: %w", key, err)
	}
	return rec.Revision, nil
}

// Watch calls Refresh every interval until ctx is cancelled.
func (s *Store) Watch(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.Refresh(ctx); err != nil && ctx.Err() == nil {
				s.logger.Warn("store: refresh failed", slog.Any("error", err))
			}
		}
	}
}
