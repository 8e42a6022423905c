// Package reports computes the dashboard and sales report figures from a
// store snapshot.
package reports

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/odyssey-erp/boutique/internal/shared"
	"github.com/odyssey-erp/boutique/internal/store"
)

// Range names a sales report window.
type Range string

const (
	RangeToday       Range = "today"
	RangeLast7Days   Range = "last7days"
	RangeLast30Days  Range = "last30days"
	RangeLast3Months Range = "last3months"
	RangeLast6Months Range = "last6months"
	RangeLastYear    Range = "lastyear"
)

// ErrInvalidRange is returned for unknown range names.
var ErrInvalidRange = fmt.Errorf("reports: unknown range: %w", shared.ErrValidation)

// ParseRange validates a range name. Empty selects the last 30 days.
func ParseRange(raw string) (Range, error) {
	switch r := Range(strings.ToLower(strings.TrimSpace(raw))); r {
	case "":
		return RangeLast30Days, nil
	case RangeToday, RangeLast7Days, RangeLast30Days, RangeLast3Months, RangeLast6Months, RangeLastYear:
		return r, nil
	}
	return "", fmt.Errorf("%w %q", ErrInvalidRange, raw)
}

// Start returns the first calendar day included in the range.
func (r Range) Start(now time.Time) time.Time {
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	switch r {
	case RangeToday:
		return today
	case RangeLast7Days:
		return today.AddDate(0, 0, -7)
	case RangeLast3Months:
		return today.AddDate(0, -3, 0)
	case RangeLast6Months:
		return today.AddDate(0, -6, 0)
	case RangeLastYear:
		return today.AddDate(-1, 0, 0)
	default:
		return today.AddDate(0, 0, -30)
	}
}

// MonthPoint is revenue for one calendar month.
type MonthPoint struct {
	Month    string  `json:"month"`
	Revenue  float64 `json:"revenue"`
	Invoices int     `json:"invoices"`
}

// CategoryCount is the number of catalogue products in a category.
type CategoryCount struct {
	Category string `json:"category"`
	Products int    `json:"products"`
}

// Dashboard is the landing page summary.
type Dashboard struct {
	TotalProducts      int             `json:"totalProducts"`
	TotalClients       int             `json:"totalClients"`
	TotalInvoices      int             `json:"totalInvoices"`
	TotalRevenue       float64         `json:"totalRevenue"`
	LowStock           []store.Product `json:"lowStock"`
	RecentInvoices     []store.Invoice `json:"recentInvoices"`
	MonthlyRevenue     []MonthPoint    `json:"monthlyRevenue"`
	ProductsByCategory []CategoryCount `json:"productsByCategory"`
}

// ProductSales aggregates invoice lines for one product.
type ProductSales struct {
	ProductID store.ID `json:"productId"`
	Name      string   `json:"name"`
	Quantity  int      `json:"quantity"`
	Revenue   float64  `json:"revenue"`
}

// ClientSales aggregates invoices for one client.
type ClientSales struct {
	ClientID store.ID `json:"clientId"`
	Name     string   `json:"name"`
	Total    float64  `json:"total"`
	Invoices int      `json:"invoices"`
}

// CategorySales is line revenue per category.
type CategorySales struct {
	Category string  `json:"category"`
	Revenue  float64 `json:"revenue"`
}

// SalesReport summarises invoices in a range.
type SalesReport struct {
	Range               Range           `json:"range"`
	From                string          `json:"from"`
	GeneratedAt         time.Time       `json:"generatedAt"`
	TotalRevenue        float64         `json:"totalRevenue"`
	TotalInvoices       int             `json:"totalInvoices"`
	AverageInvoiceValue float64         `json:"averageInvoiceValue"`
	PaidInvoices        int             `json:"paidInvoices"`
	PendingRevenue      float64         `json:"pendingRevenue"`
	TopProducts         []ProductSales  `json:"topProducts"`
	TopClients          []ClientSales   `json:"topClients"`
	SalesByCategory     []CategorySales `json:"salesByCategory"`
	Monthly             []MonthPoint    `json:"monthly"`
	InventoryValue      float64         `json:"inventoryValue"`
}

const (
	recentWindowDays = 7
	recentLimit      = 5
	dashboardMonths  = 6
	reportMonths     = 12
	topLimit         = 5
)

// BuildDashboard computes the dashboard at now.
func BuildDashboard(state store.State, now time.Time) Dashboard {
	d := Dashboard{
		TotalProducts:  len(state.Products),
		TotalClients:   len(state.Clients),
		TotalInvoices:  len(state.Invoices),
		LowStock:       store.LowStock(state.Products),
		RecentInvoices: []store.Invoice{},
		MonthlyRevenue: monthlySeries(state.Invoices, now, dashboardMonths),
	}
	weekAgo := RangeLast7Days.Start(now)
	for _, inv := range state.Invoices {
		d.TotalRevenue += inv.Total
		if !inv.IssuedOn().Before(weekAgo) {
			d.RecentInvoices = append(d.RecentInvoices, inv)
		}
	}
	// newest first, ties broken by creation time
	sort.SliceStable(d.RecentInvoices, func(i, j int) bool {
		a, b := d.RecentInvoices[i], d.RecentInvoices[j]
		if a.Date != b.Date {
			return a.Date > b.Date
		}
		return a.CreatedAt > b.CreatedAt
	})
	d.RecentInvoices = truncate(d.RecentInvoices, recentLimit)

	counts := map[string]int{}
	for _, p := range state.Products {
		counts[p.Category]++
	}
	d.ProductsByCategory = make([]CategoryCount, 0, len(counts))
	for category, n := range counts {
		d.ProductsByCategory = append(d.ProductsByCategory, CategoryCount{Category: category, Products: n})
	}
	sort.Slice(d.ProductsByCategory, func(i, j int) bool {
		a, b := d.ProductsByCategory[i], d.ProductsByCategory[j]
		if a.Products != b.Products {
			return a.Products > b.Products
		}
		return a.Category < b.Category
	})
	return d
}

// BuildSalesReport computes the sales report for r at now.
func BuildSalesReport(state store.State, r Range, now time.Time) SalesReport {
	start := r.Start(now)
	report := SalesReport{
		Range:       r,
		From:        start.Format(store.DateLayout),
		GeneratedAt: now.UTC(),
		Monthly:     monthlySeries(state.Invoices, now, reportMonths),
	}

	products := map[store.ID]*ProductSales{}
	clients := map[store.ID]*ClientSales{}
	categories := map[string]float64{}
	for _, inv := range state.Invoices {
		if inv.IssuedOn().Before(start) {
			continue
		}
		report.TotalInvoices++
		report.TotalRevenue += inv.Total
		switch inv.Status {
		case store.InvoicePaid:
			report.PaidInvoices++
		case store.InvoicePending:
			report.PendingRevenue += inv.Total
		}

		c, ok := clients[inv.Client.ID]
		if !ok {
			c = &ClientSales{ClientID: inv.Client.ID, Name: inv.Client.Name}
			clients[inv.Client.ID] = c
		}
		c.Total += inv.Total
		c.Invoices++

		for _, line := range inv.Items {
			p, ok := products[line.ProductID]
			if !ok {
				p = &ProductSales{ProductID: line.ProductID, Name: line.Name}
				products[line.ProductID] = p
			}
			p.Quantity += line.Quantity
			p.Revenue += line.Amount()
			categories[line.Category] += line.Amount()
		}
	}
	if report.TotalInvoices > 0 {
		report.AverageInvoiceValue = report.TotalRevenue / float64(report.TotalInvoices)
	}

	report.TopProducts = make([]ProductSales, 0, len(products))
	for _, p := range products {
		report.TopProducts = append(report.TopProducts, *p)
	}
	sort.Slice(report.TopProducts, func(i, j int) bool {
		a, b := report.TopProducts[i], report.TopProducts[j]
		if a.Revenue != b.Revenue {
			return a.Revenue > b.Revenue
		}
		return a.Name < b.Name
	})
	report.TopProducts = truncate(report.TopProducts, topLimit)

	report.TopClients = make([]ClientSales, 0, len(clients))
	for _, c := range clients {
		report.TopClients = append(report.TopClients, *c)
	}
	sort.Slice(report.TopClients, func(i, j int) bool {
		a, b := report.TopClients[i], report.TopClients[j]
		if a.Total != b.Total {
			return a.Total > b.Total
		}
		return a.Name < b.Name
	})
	report.TopClients = truncate(report.TopClients, topLimit)

	report.SalesByCategory = make([]CategorySales, 0, len(categories))
	for category, revenue := range categories {
		report.SalesByCategory = append(report.SalesByCategory, CategorySales{Category: category, Revenue: revenue})
	}
	sort.Slice(report.SalesByCategory, func(i, j int) bool {
		return report.SalesByCategory[i].Category < report.SalesByCategory[j].Category
	})

	for _, p := range state.Products {
		report.InventoryValue += p.Price * float64(p.Stock)
	}
	return report
}

// monthlySeries returns n months ending with the month of now, oldest first.
func monthlySeries(invoices []store.Invoice, now time.Time, n int) []MonthPoint {
	first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	points := make([]MonthPoint, n)
	index := make(map[string]int, n)
	for i := 0; i < n; i++ {
		key := first.AddDate(0, i-n+1, 0).Format("2006-01")
		points[i].Month = key
		index[key] = i
	}
	for _, inv := range invoices {
		if len(inv.Date) < 7 {
			continue
		}
		if i, ok := index[inv.Date[:7]]; ok {
			points[i].Revenue += inv.Total
			points[i].Invoices++
		}
	}
	return points
}

func truncate[T any](items []T, n int) []T {
	if len(items) > n {
		return items[:n]
	}
	return items
}
