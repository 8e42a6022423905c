package clients

import (
	"context"
	"fmt"
	"time"

	"github.com/odyssey-erp/boutique/internal/shared"
	"github.com/odyssey-erp/boutique/internal/store"
)

// StorePort is the part of the store used by the service.
type StorePort interface {
	Snapshot() store.State
	Dispatch(ctx context.Context, action store.Action) error
}

// Service validates client changes before dispatching them.
type Service struct {
	store StorePort
	now   func() time.Time
	newID func() store.ID
}

// NewService builds Service.
func NewService(st StorePort) *Service {
	return &Service{store: st, now: time.Now, newID: store.NewID}
}

// List returns clients matching filter.
func (s *Service) List(filter store.ClientFilter) []store.Client {
	return store.FilterClients(s.store.Snapshot().Clients, filter)
}

// Get returns a client by id.
func (s *Service) Get(id store.ID) (store.Client, error) {
	c, ok := s.store.Snapshot().Client(id)
	if !ok {
		return store.Client{}, fmt.Errorf("%w: client %s", store.ErrNotFound, id)
	}
	return c, nil
}

// Invoices returns the invoices issued to a client, newest first.
func (s *Service) Invoices(id store.ID) []store.Invoice {
	return store.FilterInvoices(s.store.Snapshot().Invoices, store.InvoiceFilter{
		ClientID:    id,
		ListFilters: store.ListFilters{SortBy: "date", SortDir: "desc"},
	})
}

// Create validates and adds a client. Registration starts today with no
// purchases.
func (s *Service) Create(ctx context.Context, in ClientInput) (store.Client, error) {
	if fields := shared.Validate(in); fields != nil {
		return store.Client{}, fields
	}
	c := in.apply(store.Client{ID: s.newID(), RegistrationDate: s.now().Format(store.DateLayout)})
	if err := s.store.Dispatch(ctx, store.AddClient{Client: c}); err != nil {
		return c, err
	}
	return c, nil
}

// Update validates and replaces the editable fields of a client. Purchase
// aggregates are kept.
func (s *Service) Update(ctx context.Context, id store.ID, in ClientInput) (store.Client, error) {
	current, err := s.Get(id)
	if err != nil {
		return store.Client{}, err
	}
	if fields := shared.Validate(in); fields != nil {
		return store.Client{}, fields
	}
	c := in.apply(current)
	if err := s.store.Dispatch(ctx, store.UpdateClient{Client: c}); err != nil {
		return c, err
	}
	return c, nil
}

// Delete removes a client. Invoices keep their client snapshot.
func (s *Service) Delete(ctx context.Context, id store.ID) error {
	return s.store.Dispatch(ctx, store.DeleteClient{ID: id})
}
