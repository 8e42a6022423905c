package store

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func productNames(products []Product) []string {
	names := make([]string, 0, len(products))
	for _, p := range products {
		names = append(names, p.Name)
	}
	return names
}

func TestFilterProducts(t *testing.T) {
	products := seedProducts()

	got := FilterProducts(products, ProductFilter{ListFilters: ListFilters{Search: "aby"}})
	require.Equal(t, []string{"Abaya Moderne Noire"}, productNames(got))

	got = FilterProducts(products, ProductFilter{ListFilters: ListFilters{Search: "tissu"}})
	require.Equal(t, []string{"Abaya Moderne Noire"}, productNames(got))

	got = FilterProducts(products, ProductFilter{Category: "Robes"})
	require.Equal(t, []string{"Robe Longue Chic"}, productNames(got))

	got = FilterProducts(products, ProductFilter{ListFilters: ListFilters{SortBy: "price", SortDir: "desc"}})
	require.Equal(t, "Box Ramadan Famille", got[0].Name)
	require.Equal(t, "Chapelet Tasbih Bois", got[len(got)-1].Name)

	got = FilterProducts(products, ProductFilter{})
	require.Equal(t, "Abaya Moderne Noire", got[0].Name)
	require.Equal(t, "Voile Soie Premium", got[len(got)-1].Name)
}

func TestLowStock(t *testing.T) {
	products := seedProducts()
	products[2].Stock = 3
	products[4].Stock = 1
	got := LowStock(products)
	require.Equal(t, []string{"Tenue Enfant Eid", "Robe Longue Chic"}, productNames(got))
}

func TestFilterClients(t *testing.T) {
	clients := seedClients()

	got := FilterClients(clients, ClientFilter{ClientType: ClientBusiness})
	require.Len(t, got, 1)
	require.Equal(t, "Mariam Ouattara", got[0].Name)

	got = FilterClients(clients, ClientFilter{ListFilters: ListFilters{Search: "0587"}})
	require.Len(t, got, 1)
	require.Equal(t, "Fatoumata Koné", got[0].Name)

	got = FilterClients(clients, ClientFilter{ListFilters: ListFilters{SortBy: "totalPurchases", SortDir: "desc"}})
	require.Equal(t, "Mariam Ouattara", got[0].Name)
	require.Equal(t, "Khadija Diabaté", got[3].Name)
}

func TestFilterInvoices(t *testing.T) {
	invoices := []Invoice{
		{ID: "a", Number: "ALM-000002", Date: "2024-01-10", Client: ClientSnapshot{Name: "Zeina"}, Total: 300, Status: InvoicePaid},
		{ID: "b", Number: "ALM-000003", Date: "2024-02-03", Client: ClientSnapshot{Name: "Awa"}, Total: 100, Status: InvoicePending},
		{ID: "c", Number: "ALM-000004", Date: "2024-02-15", Client: ClientSnapshot{Name: "Binta"}, Total: 200, Status: InvoicePending},
	}

	got := FilterInvoices(invoices, InvoiceFilter{})
	require.Equal(t, ID("a"), got[0].ID)

	got = FilterInvoices(invoices, InvoiceFilter{ListFilters: ListFilters{SortDir: "desc"}})
	require.Equal(t, ID("c"), got[0].ID)

	got = FilterInvoices(invoices, InvoiceFilter{DatePrefix: "2024-02", Status: InvoicePending, ListFilters: ListFilters{SortBy: "client"}})
	require.Len(t, got, 2)
	require.Equal(t, "Awa", got[0].Client.Name)

	got = FilterInvoices(invoices, InvoiceFilter{ListFilters: ListFilters{Search: "zei"}})
	require.Len(t, got, 1)

	got = FilterInvoices(invoices, InvoiceFilter{ListFilters: ListFilters{Search: "000004"}})
	require.Equal(t, ID("c"), got[0].ID)
}
