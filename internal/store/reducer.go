package store

import (
	"fmt"
	"time"
)

// Reducer applies actions to a state. It never mutates its input: every
// change produces fresh slices.
type Reducer struct {
	NewID func() ID
	Now   func() time.Time
}

func (r Reducer) id() ID {
	if r.NewID != nil {
		return r.NewID()
	}
	return NewID()
}

func (r Reducer) now() time.Time {
	if r.Now != nil {
		return r.Now()
	}
	return time.Now()
}

// Reduce returns the state produced by applying action to state.
func (r Reducer) Reduce(state State, action Action) (State, error) {
	next := state
	switch a := deref(action).(type) {
	case AddProduct:
		p := a.Product
		if p.ID == "" {
			p.ID = r.id()
		}
		if _, ok := state.Product(p.ID); ok {
			return state, fmt.Errorf("%w: product %s", ErrDuplicate, p.ID)
		}
		next.Products = appendCopy(state.Products, p)
	case UpdateProduct:
		products, ok := replaceByID(state.Products, a.Product.ID, productID, a.Product)
		if !ok {
			return state, fmt.Errorf("%w: product %s", ErrNotFound, a.Product.ID)
		}
		next.Products = products
	case DeleteProduct:
		products, ok := removeByID(state.Products, a.ID, productID)
		if !ok {
			return state, fmt.Errorf("%w: product %s", ErrNotFound, a.ID)
		}
		next.Products = products
	case UpdateStock:
		if a.Stock < 0 {
			return state, ErrInvalidStock
		}
		p, ok := state.Product(a.ID)
		if !ok {
			return state, fmt.Errorf("%w: product %s", ErrNotFound, a.ID)
		}
		p.Stock = a.Stock
		p.UpdatedAt = r.now().Format(DateLayout)
		next.Products, _ = replaceByID(state.Products, a.ID, productID, p)
	case AddClient:
		c := a.Client
		if c.ID == "" {
			c.ID = r.id()
		}
		if _, ok := state.Client(c.ID); ok {
			return state, fmt.Errorf("%w: client %s", ErrDuplicate, c.ID)
		}
		next.Clients = appendCopy(state.Clients, c)
	case UpdateClient:
		clients, ok := replaceByID(state.Clients, a.Client.ID, clientID, a.Client)
		if !ok {
			return state, fmt.Errorf("%w: client %s", ErrNotFound, a.Client.ID)
		}
		next.Clients = clients
	case DeleteClient:
		clients, ok := removeByID(state.Clients, a.ID, clientID)
		if !ok {
			return state, fmt.Errorf("%w: client %s", ErrNotFound, a.ID)
		}
		next.Clients = clients
	case AddInvoice:
		inv := a.Invoice
		if inv.ID == "" {
			inv.ID = r.id()
		}
		if _, ok := state.Invoice(inv.ID); ok {
			return state, fmt.Errorf("%w: invoice %s", ErrDuplicate, inv.ID)
		}
		next.Invoices = appendCopy(state.Invoices, inv)
	case UpdateInvoice:
		invoices, ok := replaceByID(state.Invoices, a.Invoice.ID, invoiceID, a.Invoice)
		if !ok {
			return state, fmt.Errorf("%w: invoice %s", ErrNotFound, a.Invoice.ID)
		}
		next.Invoices = invoices
	case DeleteInvoice:
		invoices, ok := removeByID(state.Invoices, a.ID, invoiceID)
		if !ok {
			return state, fmt.Errorf("%w: invoice %s", ErrNotFound, a.ID)
		}
		next.Invoices = invoices
	case RecordSale:
		return r.recordSale(state, a.Invoice)
	case UpdateSettings:
		settings, err := MergeSettings(state.Settings, a.Patch)
		if err != nil {
			return state, err
		}
		next.Settings = settings
	case ReplaceData:
		if a.Products != nil {
			products, err := withIDs("product", a.Products, productID, func(p *Product, id ID) { p.ID = id }, r.id)
			if err != nil {
				return state, err
			}
			next.Products = products
		}
		if a.Clients != nil {
			clients, err := withIDs("client", a.Clients, clientID, func(c *Client, id ID) { c.ID = id }, r.id)
			if err != nil {
				return state, err
			}
			next.Clients = clients
		}
		if a.Invoices != nil {
			invoices, err := withIDs("invoice", a.Invoices, invoiceID, func(inv *Invoice, id ID) { inv.ID = id }, r.id)
			if err != nil {
				return state, err
			}
			next.Invoices = invoices
		}
		if a.Categories != nil {
			next.Categories = cloneSlice(a.Categories)
		}
		if a.Settings != nil {
			next.Settings = *a.Settings
		}
	case ToggleSidebar:
		next.UI.SidebarCollapsed = !state.UI.SidebarCollapsed
	case SetTheme:
		next.UI.Theme = a.Theme
	case SetLanguage:
		next.UI.Language = a.Language
	default:
		return state, fmt.Errorf("%w: %T", ErrUnknownAction, action)
	}
	return next, nil
}

func (r Reducer) recordSale(state State, inv Invoice) (State, error) {
	if inv.ID == "" {
		inv.ID = r.id()
	}
	if _, ok := state.Invoice(inv.ID); ok {
		return state, fmt.Errorf("%w: invoice %s", ErrDuplicate, inv.ID)
	}

	products := cloneSlice(state.Products)
	index := make(map[ID]int, len(products))
	for i, p := range products {
		index[p.ID] = i
	}
	today := r.now().Format(DateLayout)
	for _, line := range inv.Items {
		i, ok := index[line.ProductID]
		if !ok {
			return state, fmt.Errorf("%w: product %s", ErrNotFound, line.ProductID)
		}
		if line.Quantity <= 0 {
			return state, fmt.Errorf("%w: line %s has quantity %d", ErrInvalidStock, line.ProductID, line.Quantity)
		}
		if line.Quantity > products[i].Stock {
			return state, fmt.Errorf("%w: %s has %d, requested %d", ErrInsufficientStock, products[i].Name, products[i].Stock, line.Quantity)
		}
		products[i].Stock -= line.Quantity
		products[i].UpdatedAt = today
	}

	next := state
	settings := state.Settings
	if inv.Number == "" {
		settings.InvoiceSettings.StartNumber++
		inv.Number = FormatInvoiceNumber(settings.InvoiceSettings.Prefix, settings.InvoiceSettings.StartNumber)
	}
	if inv.CreatedAt == "" {
		inv.CreatedAt = r.now().UTC().Format(time.RFC3339)
	}
	next.Settings = settings
	next.Products = products
	next.Invoices = appendCopy(state.Invoices, inv)

	if inv.Status != InvoiceDraft {
		if c, ok := state.Client(inv.Client.ID); ok {
			c.TotalPurchases += inv.Total
			c.LastPurchase = inv.Date
			next.Clients, _ = replaceByID(state.Clients, c.ID, clientID, c)
		}
	}
	return next, nil
}

// FormatInvoiceNumber renders prefix-NNNNNN.
func FormatInvoiceNumber(prefix string, n int) string {
	return fmt.Sprintf("%s-%06d", prefix, n)
}

func deref(a Action) Action {
	switch v := a.(type) {
	case *AddProduct:
		return *v
	case *UpdateProduct:
		return *v
	case *DeleteProduct:
		return *v
	case *UpdateStock:
		return *v
	case *AddClient:
		return *v
	case *UpdateClient:
		return *v
	case *DeleteClient:
		return *v
	case *AddInvoice:
		return *v
	case *UpdateInvoice:
		return *v
	case *DeleteInvoice:
		return *v
	case *RecordSale:
		return *v
	case *UpdateSettings:
		return *v
	case *ReplaceData:
		return *v
	case *ToggleSidebar:
		return *v
	case *SetTheme:
		return *v
	case *SetLanguage:
		return *v
	}
	return a
}

func productID(p Product) ID { return p.ID }
func clientID(c Client) ID   { return c.ID }
func invoiceID(i Invoice) ID { return i.ID }

// withIDs copies items, giving a fresh id to records without one. Repeated
// ids are rejected.
func withIDs[T any](kind string, items []T, idOf func(T) ID, setID func(*T, ID), newID func() ID) ([]T, error) {
	out := cloneSlice(items)
	seen := make(map[ID]struct{}, len(out))
	for i := range out {
		id := idOf(out[i])
		if id == "" {
			id = newID()
			setID(&out[i], id)
		}
		if _, dup := seen[id]; dup {
			return nil, fmt.Errorf("%w: %s %s appears twice", ErrDuplicate, kind, id)
		}
		seen[id] = struct{}{}
	}
	return out, nil
}

func appendCopy[T any](items []T, item T) []T {
	out := make([]T, 0, len(items)+1)
	out = append(out, items...)
	return append(out, item)
}

func replaceByID[T any](items []T, id ID, idOf func(T) ID, item T) ([]T, bool) {
	for i, existing := range items {
		if idOf(existing) == id {
			out := cloneSlice(items)
			out[i] = item
			return out, true
		}
	}
	return items, false
}

func removeByID[T any](items []T, id ID, idOf func(T) ID) ([]T, bool) {
	for i, existing := range items {
		if idOf(existing) == id {
			out := make([]T, 0, len(items)-1)
			out = append(out, items[:i]...)
			return append(out, items[i+1:]...), true
		}
	}
	return items, false
}
