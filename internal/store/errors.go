package store

import (
	"fmt"

	"github.com/odyssey-erp/boutique/internal/shared"
)

var (
	// ErrNotFound is returned when an update or delete targets an unknown id.
	ErrNotFound = fmt.Errorf("store: record %w", shared.ErrNotFound)
	// ErrDuplicate is returned when a create reuses an existing id.
	ErrDuplicate = fmt.Errorf("store: id %w", shared.ErrDuplicate)
	// ErrInvalidStock is returned when a stock value would become negative.
	ErrInvalidStock = fmt.Errorf("store: stock cannot be negative: %w", shared.ErrValidation)
	// ErrInsufficientStock is returned when a sale exceeds the available stock.
	ErrInsufficientStock = fmt.Errorf("store: insufficient stock: %w", shared.ErrConflict)
	// ErrInvalidPatch is returned for settings patches that are not JSON objects.
	ErrInvalidPatch = fmt.Errorf("store: settings patch must be a JSON object: %w", shared.ErrValidation)
	// ErrUnknownAction is returned for actions outside the closed action set.
	ErrUnknownAction = fmt.Errorf("store: unknown action: %w", shared.ErrValidation)
	// ErrPersist wraps storage failures. The in-memory change has been applied.
	ErrPersist = fmt.Errorf("store: persist: %w", shared.ErrStorage)
)
