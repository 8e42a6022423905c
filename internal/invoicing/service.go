package invoicing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/odyssey-erp/boutique/internal/store"
)

const defaultPaymentTermsDays = 30

// StorePort is the part of the store used by the service.
type StorePort interface {
	Snapshot() store.State
	Dispatch(ctx context.Context, action store.Action) error
}

// Service issues invoices and moves them through their statuses.
type Service struct {
	store StorePort
	now   func() time.Time
	newID func() store.ID
}

// ServiceConfig groups optional settings.
type ServiceConfig struct {
	Now   func() time.Time
	NewID func() store.ID
}

// NewService builds Service.
func NewService(st StorePort, cfg ServiceConfig) *Service {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.NewID == nil {
		cfg.NewID = store.NewID
	}
	return &Service{store: st, now: cfg.Now, newID: cfg.NewID}
}

// Issue validates the draft against the live state and records the sale.
// Only draft and pending invoices can be issued. When the sale was applied
// but could not be persisted, the invoice is returned with the error.
func (s *Service) Issue(ctx context.Context, d Draft, status store.InvoiceStatus) (store.Invoice, error) {
	if status == "" {
		status = store.InvoicePending
	}
	if status != store.InvoiceDraft && status != store.InvoicePending {
		return store.Invoice{}, fmt.Errorf("%w: cannot issue as %q", ErrInvalidStatus, status)
	}
	if d.Client == nil || d.Client.ID == "" {
		return store.Invoice{}, ErrClientRequired
	}
	if len(d.Lines) == 0 {
		return store.Invoice{}, ErrNoLines
	}

	state := s.store.Snapshot()
	if d.PaymentMethod != "" && !hasPaymentMethod(state, d.PaymentMethod) {
		return store.Invoice{}, fmt.Errorf("%w: %s", ErrUnknownPaymentMethod, d.PaymentMethod)
	}
	for _, l := range d.Lines {
		if l.Quantity <= 0 {
			return store.Invoice{}, fmt.Errorf("%w: %s", ErrInvalidQuantity, l.Name)
		}
		p, ok := state.Product(l.ProductID)
		if !ok {
			return store.Invoice{}, fmt.Errorf("%w: product %s", store.ErrNotFound, l.ProductID)
		}
		if l.Quantity > p.Stock {
			return store.Invoice{}, insufficient(p, l.Quantity)
		}
	}

	date := d.Date
	if date == "" {
		date = s.now().Format(store.DateLayout)
	}
	inv := store.Invoice{
		ID:            s.newID(),
		Date:          date,
		Client:        *d.Client,
		Items:         append([]store.InvoiceLine(nil), d.Lines...),
		PaymentMethod: d.PaymentMethod,
		Status:        status,
		Notes:         d.Notes,
		CreatedAt:     s.now().UTC().Format(time.RFC3339),
	}
	ComputeTotals(inv.Items, state.Settings.InvoiceSettings).Apply(&inv)

	err := s.store.Dispatch(ctx, store.RecordSale{Invoice: inv})
	if err != nil && !errors.Is(err, store.ErrPersist) {
		return store.Invoice{}, err
	}
	recorded, ok := s.store.Snapshot().Invoice(inv.ID)
	if !ok {
		return store.Invoice{}, fmt.Errorf("invoicing: invoice %s missing after sale", inv.ID)
	}
	return recorded, err
}

// Get returns one invoice.
func (s *Service) Get(id store.ID) (store.Invoice, error) {
	inv, ok := s.store.Snapshot().Invoice(id)
	if !ok {
		return store.Invoice{}, fmt.Errorf("%w: invoice %s", store.ErrNotFound, id)
	}
	return inv, nil
}

// List returns the invoices matching filter.
func (s *Service) List(filter store.InvoiceFilter) []store.Invoice {
	return store.FilterInvoices(s.store.Snapshot().Invoices, filter)
}

// SetStatus moves an invoice to status. Issued invoices cannot go back to
// draft and paid invoices are final.
func (s *Service) SetStatus(ctx context.Context, id store.ID, status store.InvoiceStatus) (store.Invoice, error) {
	if !status.Valid() {
		return store.Invoice{}, fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}
	inv, err := s.Get(id)
	if err != nil {
		return store.Invoice{}, err
	}
	if inv.Status == status {
		return inv, nil
	}
	if inv.Status == store.InvoicePaid || (status == store.InvoiceDraft && inv.Status != store.InvoiceDraft) {
		return store.Invoice{}, fmt.Errorf("%w: %s to %s", ErrInvalidTransition, inv.Status, status)
	}
	inv.Status = status
	if err := s.store.Dispatch(ctx, store.UpdateInvoice{Invoice: inv}); err != nil {
		return inv, err
	}
	return inv, nil
}

// Delete removes an invoice. Stock is not restored.
func (s *Service) Delete(ctx context.Context, id store.ID) error {
	return s.store.Dispatch(ctx, store.DeleteInvoice{ID: id})
}

// MarkOverdue flags pending invoices whose payment term has elapsed at now.
// It returns the number of invoices changed.
func (s *Service) MarkOverdue(ctx context.Context, now time.Time) (int, error) {
	state := s.store.Snapshot()
	days := state.Settings.InvoiceSettings.PaymentTermsDays
	if days <= 0 {
		days = defaultPaymentTermsDays
	}
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	changed := 0
	for _, inv := range state.Invoices {
		if inv.Status != store.InvoicePending {
			continue
		}
		issued := inv.IssuedOn()
		if issued.IsZero() || !today.After(issued.AddDate(0, 0, days)) {
			continue
		}
		inv.Status = store.InvoiceOverdue
		if err := s.store.Dispatch(ctx, store.UpdateInvoice{Invoice: inv}); err != nil {
			return changed, fmt.Errorf("invoicing: mark %s overdue: %w", inv.Number, err)
		}
		changed++
	}
	return changed, nil
}

func hasPaymentMethod(state store.State, id string) bool {
	for _, m := range state.PaymentMethods {
		if m.ID == id {
			return true
		}
	}
	return false
}
