package invoicing

import (
	"fmt"

	"github.com/odyssey-erp/boutique/internal/shared"
)

var (
	// ErrInvalidQuantity is returned for non-positive line quantities.
	ErrInvalidQuantity = fmt.Errorf("invoicing: invalid quantity: %w", shared.ErrValidation)
	// ErrClientRequired is returned when issuing without a client.
	ErrClientRequired = fmt.Errorf("invoicing: client required: %w", shared.ErrValidation)
	// ErrNoLines is returned when issuing an empty draft.
	ErrNoLines = fmt.Errorf("invoicing: at least one line required: %w", shared.ErrValidation)
	// ErrInvalidStatus is returned for unknown statuses or ones not allowed here.
	ErrInvalidStatus = fmt.Errorf("invoicing: invalid status: %w", shared.ErrValidation)
	// ErrUnknownPaymentMethod is returned when the payment method is not configured.
	ErrUnknownPaymentMethod = fmt.Errorf("invoicing: unknown payment method: %w", shared.ErrValidation)
	// ErrInvalidTransition is returned when a status change is not allowed.
	ErrInvalidTransition = fmt.Errorf("invoicing: invalid status transition: %w", shared.ErrConflict)
)
