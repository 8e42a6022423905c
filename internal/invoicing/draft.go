// Package invoicing builds invoices from draft carts and manages their
// lifecycle.
package invoicing

import (
	"fmt"

	"github.com/odyssey-erp/boutique/internal/store"
)

// Draft is an invoice being assembled. Lines keep insertion order.
type Draft struct {
	Client        *store.ClientSnapshot
	Lines         []store.InvoiceLine
	Date          string
	PaymentMethod string
	Notes         string
}

// AddProduct adds one unit of p.
func (d *Draft) AddProduct(p store.Product) error {
	return d.Add(p, 1)
}

// Add adds qty units of p, merging with an existing line. The resulting
// quantity may not exceed the product stock.
func (d *Draft) Add(p store.Product, qty int) error {
	if qty <= 0 {
		return fmt.Errorf("%w: quantity must be positive", ErrInvalidQuantity)
	}
	for i := range d.Lines {
		if d.Lines[i].ProductID != p.ID {
			continue
		}
		next := d.Lines[i].Quantity + qty
		if next > p.Stock {
			return insufficient(p, next)
		}
		d.Lines[i].Quantity = next
		return nil
	}
	if qty > p.Stock {
		return insufficient(p, qty)
	}
	d.Lines = append(d.Lines, store.LineFromProduct(p, qty))
	return nil
}

// SetQuantity sets the quantity of an existing line. qty <= 0 removes it.
func (d *Draft) SetQuantity(id store.ID, qty, stock int) error {
	if qty <= 0 {
		d.Remove(id)
		return nil
	}
	for i := range d.Lines {
		if d.Lines[i].ProductID == id {
			if qty > stock {
				return fmt.Errorf("%w: %s has %d in stock, requested %d", store.ErrInsufficientStock, d.Lines[i].Name, stock, qty)
			}
			d.Lines[i].Quantity = qty
			return nil
		}
	}
	return fmt.Errorf("%w: no line for product %s", store.ErrNotFound, id)
}

// Remove drops the line for id.
func (d *Draft) Remove(id store.ID) {
	out := d.Lines[:0]
	for _, l := range d.Lines {
		if l.ProductID != id {
			out = append(out, l)
		}
	}
	d.Lines = out
}

func insufficient(p store.Product, qty int) error {
	return fmt.Errorf("%w: %s has %d in stock, requested %d", store.ErrInsufficientStock, p.Name, p.Stock, qty)
}
