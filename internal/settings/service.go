// Package settings exposes the application settings, UI preferences and the
// reference lists.
package settings

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/odyssey-erp/boutique/internal/shared"
	"github.com/odyssey-erp/boutique/internal/store"
)

// Mask replaces gateway credentials in responses.
const Mask = "********"

// StorePort is the part of the store used by the service.
type StorePort interface {
	Snapshot() store.State
	Dispatch(ctx context.Context, action store.Action) error
}

// Service reads and patches settings.
type Service struct {
	store StorePort
}

// NewService builds Service.
func NewService(st StorePort) *Service {
	return &Service{store: st}
}

// Get returns the settings with credentials masked.
func (s *Service) Get() store.Settings {
	return masked(s.store.Snapshot().Settings)
}

// Patch deep-merges patch into the settings. The merged result is validated
// before it reaches the store. Masked credential values are ignored so a
// client can send back what it read.
func (s *Service) Patch(ctx context.Context, patch json.RawMessage) (store.Settings, error) {
	current := s.store.Snapshot().Settings
	merged, err := store.MergeSettings(current, patch)
	if err != nil {
		return store.Settings{}, err
	}
	if fields := shared.Validate(merged); fields != nil {
		return store.Settings{}, fields
	}
	patch, err = unmask(patch)
	if err != nil {
		return store.Settings{}, err
	}
	if err := s.store.Dispatch(ctx, store.UpdateSettings{Patch: patch}); err != nil {
		return store.Settings{}, err
	}
	return s.Get(), nil
}

// UI returns the presentation preferences.
func (s *Service) UI() store.UIState {
	return s.store.Snapshot().UI
}

// ToggleSidebar flips the sidebar flag.
func (s *Service) ToggleSidebar(ctx context.Context) (store.UIState, error) {
	err := s.store.Dispatch(ctx, store.ToggleSidebar{})
	return s.UI(), err
}

// SetTheme selects a theme.
func (s *Service) SetTheme(ctx context.Context, theme string) (store.UIState, error) {
	err := s.store.Dispatch(ctx, store.SetTheme{Theme: theme})
	return s.UI(), err
}

// SetLanguage selects a language.
func (s *Service) SetLanguage(ctx context.Context, language string) (store.UIState, error) {
	err := s.store.Dispatch(ctx, store.SetLanguage{Language: language})
	return s.UI(), err
}

// Categories returns the configured product categories.
func (s *Service) Categories() []string {
	return s.store.Snapshot().Categories
}

// PaymentMethods returns the accepted payment methods.
func (s *Service) PaymentMethods() []store.PaymentMethod {
	return s.store.Snapshot().PaymentMethods
}

func masked(settings store.Settings) store.Settings {
	ps := &settings.PaymentSettings
	for _, field := range []*string{&ps.MasterKey, &ps.PrivateKey, &ps.PublicKey, &ps.Token} {
		if *field != "" {
			*field = Mask
		}
	}
	return settings
}

// unmask drops credential keys that still carry the mask.
func unmask(patch json.RawMessage) (json.RawMessage, error) {
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(patch, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", store.ErrInvalidPatch, err)
	}
	raw, ok := doc["paymentSettings"]
	if !ok {
		return patch, nil
	}
	var payment map[string]any
	if err := json.Unmarshal(raw, &payment); err != nil || payment == nil {
		return patch, nil
	}
	for k, v := range payment {
		if v == Mask {
			delete(payment, k)
		}
	}
	cleaned, err := json.Marshal(payment)
	if err != nil {
		return nil, err
	}
	doc["paymentSettings"] = cleaned
	return json.Marshal(doc)
}
