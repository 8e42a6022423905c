package store

import (
	"sort"
	"strings"
)

// ListFilters are the common list page filters.
type ListFilters struct {
	Search  string
	SortBy  string
	SortDir string
}

func (f ListFilters) desc() bool { return strings.EqualFold(f.SortDir, "desc") }

// ProductFilter narrows a product listing.
type ProductFilter struct {
	ListFilters
	Category string
	LowStock bool
}

// ClientFilter narrows a client listing.
type ClientFilter struct {
	ListFilters
	ClientType ClientType
}

// InvoiceFilter narrows an invoice listing. DatePrefix matches the start of
// the invoice date, so "2024-01" selects a month.
type InvoiceFilter struct {
	ListFilters
	DatePrefix string
	Status     InvoiceStatus
	ClientID   ID
}

func contains(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), needle)
}

// FilterProducts matches search against name, description and SKU. Sort keys:
// name (default), price, stock, category, createdAt.
func FilterProducts(products []Product, f ProductFilter) []Product {
	needle := strings.ToLower(strings.TrimSpace(f.Search))
	out := make([]Product, 0, len(products))
	for _, p := range products {
		if needle != "" && !contains(p.Name, needle) && !contains(p.Description, needle) && !contains(p.SKU, needle) {
			continue
		}
		if f.Category != "" && p.Category != f.Category {
			continue
		}
		if f.LowStock && !p.LowStock() {
			continue
		}
		out = append(out, p)
	}
	var less func(a, b Product) bool
	switch f.SortBy {
	case "price":
		less = func(a, b Product) bool { return a.Price < b.Price }
	case "stock":
		less = func(a, b Product) bool { return a.Stock < b.Stock }
	case "category":
		less = func(a, b Product) bool { return strings.ToLower(a.Category) < strings.ToLower(b.Category) }
	case "createdAt":
		less = func(a, b Product) bool { return a.CreatedAt < b.CreatedAt }
	default:
		less = func(a, b Product) bool { return strings.ToLower(a.Name) < strings.ToLower(b.Name) }
	}
	sortBy(out, less, f.desc())
	return out
}

// FilterClients matches search against name, email and phone. Sort keys:
// name (default), totalPurchases, registrationDate, lastPurchase.
func FilterClients(clients []Client, f ClientFilter) []Client {
	needle := strings.ToLower(strings.TrimSpace(f.Search))
	out := make([]Client, 0, len(clients))
	for _, c := range clients {
		if needle != "" && !contains(c.Name, needle) && !contains(c.Email, needle) && !strings.Contains(c.Phone, needle) {
			continue
		}
		if f.ClientType != "" && c.ClientType != f.ClientType {
			continue
		}
		out = append(out, c)
	}
	var less func(a, b Client) bool
	switch f.SortBy {
	case "totalPurchases":
		less = func(a, b Client) bool { return a.TotalPurchases < b.TotalPurchases }
	case "registrationDate":
		less = func(a, b Client) bool { return a.RegistrationDate < b.RegistrationDate }
	case "lastPurchase":
		less = func(a, b Client) bool { return a.LastPurchase < b.LastPurchase }
	default:
		less = func(a, b Client) bool { return strings.ToLower(a.Name) < strings.ToLower(b.Name) }
	}
	sortBy(out, less, f.desc())
	return out
}

// FilterInvoices matches search against the number and client name. Sort
// keys: date (default), number, total, client, status.
func FilterInvoices(invoices []Invoice, f InvoiceFilter) []Invoice {
	needle := strings.ToLower(strings.TrimSpace(f.Search))
	out := make([]Invoice, 0, len(invoices))
	for _, inv := range invoices {
		if needle != "" && !contains(inv.Number, needle) && !contains(inv.Client.Name, needle) {
			continue
		}
		if f.DatePrefix != "" && !strings.HasPrefix(inv.Date, f.DatePrefix) {
			continue
		}
		if f.Status != "" && inv.Status != f.Status {
			continue
		}
		if f.ClientID != "" && inv.Client.ID != f.ClientID {
			continue
		}
		out = append(out, inv)
	}
	var less func(a, b Invoice) bool
	switch f.SortBy {
	case "number":
		less = func(a, b Invoice) bool { return a.Number < b.Number }
	case "total":
		less = func(a, b Invoice) bool { return a.Total < b.Total }
	case "client":
		less = func(a, b Invoice) bool { return strings.ToLower(a.Client.Name) < strings.ToLower(b.Client.Name) }
	case "status":
		less = func(a, b Invoice) bool { return a.Status < b.Status }
	default:
		less = func(a, b Invoice) bool { return a.Date < b.Date }
	}
	sortBy(out, less, f.desc())
	return out
}

// LowStock returns the products at or below their minimum stock, lowest
// stock first.
func LowStock(products []Product) []Product {
	return FilterProducts(products, ProductFilter{LowStock: true, ListFilters: ListFilters{SortBy: "stock"}})
}

func sortBy[T any](items []T, less func(a, b T) bool, desc bool) {
	sort.SliceStable(items, func(i, j int) bool {
		if desc {
			return less(items[j], items[i])
		}
		return less(items[i], items[j])
	})
}
