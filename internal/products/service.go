package products

import (
	"context"
	"fmt"
	"time"

	"github.com/odyssey-erp/boutique/internal/store"
)

// StorePort is the part of the store used by the service.
type StorePort interface {
	Snapshot() store.State
	Dispatch(ctx context.Context, action store.Action) error
}

// Service validates product changes before dispatching them.
type Service struct {
	store StorePort
	now   func() time.Time
	newID func() store.ID
}

// NewService builds Service.
func NewService(st StorePort) *Service {
	return &Service{store: st, now: time.Now, newID: store.NewID}
}

// List returns products matching filter.
func (s *Service) List(filter store.ProductFilter) []store.Product {
	return store.FilterProducts(s.store.Snapshot().Products, filter)
}

// LowStock returns products at or below their minimum stock.
func (s *Service) LowStock() []store.Product {
	return store.LowStock(s.store.Snapshot().Products)
}

// Get returns a product by id.
func (s *Service) Get(id store.ID) (store.Product, error) {
	p, ok := s.store.Snapshot().Product(id)
	if !ok {
		return store.Product{}, fmt.Errorf("%w: product %s", store.ErrNotFound, id)
	}
	return p, nil
}

// Create validates and adds a product.
func (s *Service) Create(ctx context.Context, in ProductInput) (store.Product, error) {
	if err := validate(in, s.store.Snapshot(), ""); err != nil {
		return store.Product{}, err
	}
	today := s.now().Format(store.DateLayout)
	p := in.apply(store.Product{ID: s.newID(), CreatedAt: today, UpdatedAt: today})
	if err := s.store.Dispatch(ctx, store.AddProduct{Product: p}); err != nil {
		return p, err
	}
	return p, nil
}

// Update validates and replaces a product.
func (s *Service) Update(ctx context.Context, id store.ID, in ProductInput) (store.Product, error) {
	state := s.store.Snapshot()
	current, ok := state.Product(id)
	if !ok {
		return store.Product{}, fmt.Errorf("%w: product %s", store.ErrNotFound, id)
	}
	if err := validate(in, state, id); err != nil {
		return store.Product{}, err
	}
	p := in.apply(current)
	p.UpdatedAt = s.now().Format(store.DateLayout)
	if err := s.store.Dispatch(ctx, store.UpdateProduct{Product: p}); err != nil {
		return p, err
	}
	return p, nil
}

// SetStock overwrites the stock level.
func (s *Service) SetStock(ctx context.Context, id store.ID, stock int) (store.Product, error) {
	if err := s.store.Dispatch(ctx, store.UpdateStock{ID: id, Stock: stock}); err != nil {
		return store.Product{}, err
	}
	return s.Get(id)
}

// Delete removes a product. Invoices keep their line snapshots.
func (s *Service) Delete(ctx context.Context, id store.ID) error {
	return s.store.Dispatch(ctx, store.DeleteProduct{ID: id})
}
