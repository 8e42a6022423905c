package reports

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"

	"github.com/odyssey-erp/boutique/internal/store"
)

var reportNow = time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)

func reportState() store.State {
	state := store.Seed()
	state.Products = []store.Product{
		{ID: "p1", Name: "Abaya Moderne Noire", Category: "Abayas", Price: 25000, Stock: 10, MinStock: 5},
		{ID: "p2", Name: "Voile Soie Premium", Category: "Voiles & Hijabs", Price: 8500, Stock: 3, MinStock: 5},
		{ID: "p3", Name: "Abaya Brodée", Category: "Abayas", Price: 12000, Stock: 0, MinStock: 2},
	}
	aminata := store.ClientSnapshot{ID: "c1", Name: "Aminata Koné"}
	fatou := store.ClientSnapshot{ID: "c2", Name: "Fatou Diabaté"}
	abaya := func(qty int) []store.InvoiceLine {
		return []store.InvoiceLine{{ProductID: "p1", Name: "Abaya Moderne Noire", Category: "Abayas", Price: 25000, Quantity: qty}}
	}
	state.Invoices = []store.Invoice{
		{ID: "i1", Number: "ALM-000002", Date: "2024-03-14", Client: aminata, Items: abaya(4), Total: 100000, Status: store.InvoicePaid},
		{ID: "i2", Number: "ALM-000003", Date: "2024-03-10", Client: fatou, Total: 17000, Status: store.InvoicePending,
			Items: []store.InvoiceLine{{ProductID: "p2", Name: "Voile Soie Premium", Category: "Voiles & Hijabs", Price: 8500, Quantity: 2}}},
		{ID: "i3", Number: "ALM-000004", Date: "2024-01-20", Client: aminata, Items: abaya(2), Total: 50000, Status: store.InvoicePaid},
		{ID: "i4", Number: "ALM-000005", Date: "2023-01-05", Client: fatou, Total: 5000, Status: store.InvoiceDraft},
	}
	return state
}

func TestParseRange(t *testing.T) {
	r, err := ParseRange("")
	require.NoError(t, err)
	require.Equal(t, RangeLast30Days, r)

	r, err = ParseRange(" LastYear ")
	require.NoError(t, err)
	require.Equal(t, RangeLastYear, r)

	_, err = ParseRange("forever")
	require.ErrorIs(t, err, ErrInvalidRange)

	require.Equal(t, "2024-03-15", RangeToday.Start(reportNow).Format(store.DateLayout))
	require.Equal(t, "2023-12-15", RangeLast3Months.Start(reportNow).Format(store.DateLayout))
	require.Equal(t, "2023-03-15", RangeLastYear.Start(reportNow).Format(store.DateLayout))
}

func TestBuildDashboard(t *testing.T) {
	d := BuildDashboard(reportState(), reportNow)

	require.Equal(t, 3, d.TotalProducts)
	require.Equal(t, 4, d.TotalInvoices)
	require.Equal(t, 172000.0, d.TotalRevenue)
	require.Len(t, d.LowStock, 2)
	require.Equal(t, store.ID("p3"), d.LowStock[0].ID)
	require.Len(t, d.RecentInvoices, 2)

	require.Len(t, d.MonthlyRevenue, 6)
	require.Equal(t, "2023-10", d.MonthlyRevenue[0].Month)
	require.Equal(t, MonthPoint{Month: "2024-03", Revenue: 117000, Invoices: 2}, d.MonthlyRevenue[5])
	require.Equal(t, 50000.0, d.MonthlyRevenue[3].Revenue)

	require.Equal(t, []CategoryCount{{Category: "Abayas", Products: 2}, {Category: "Voiles & Hijabs", Products: 1}}, d.ProductsByCategory)
}

func TestBuildSalesReport(t *testing.T) {
	state := reportState()

	r := BuildSalesReport(state, RangeLast30Days, reportNow)
	require.Equal(t, "2024-02-14", r.From)
	require.Equal(t, 2, r.TotalInvoices)
	require.Equal(t, 117000.0, r.TotalRevenue)
	require.Equal(t, 58500.0, r.AverageInvoiceValue)
	require.Equal(t, 1, r.PaidInvoices)
	require.Equal(t, 17000.0, r.PendingRevenue)
	require.Equal(t, ProductSales{ProductID: "p1", Name: "Abaya Moderne Noire", Quantity: 4, Revenue: 100000}, r.TopProducts[0])
	require.Equal(t, "Aminata Koné", r.TopClients[0].Name)
	require.Equal(t, []CategorySales{{Category: "Abayas", Revenue: 100000}, {Category: "Voiles & Hijabs", Revenue: 17000}}, r.SalesByCategory)
	require.Equal(t, 275500.0, r.InventoryValue)

	require.Len(t, r.Monthly, 12)
	require.Equal(t, "2023-04", r.Monthly[0].Month)
	require.Equal(t, 50000.0, r.Monthly[9].Revenue)

	r = BuildSalesReport(state, RangeLast3Months, reportNow)
	require.Equal(t, 3, r.TotalInvoices)
	require.Equal(t, 6, r.TopProducts[0].Quantity)
	require.Equal(t, ClientSales{ClientID: "c1", Name: "Aminata Koné", Total: 150000, Invoices: 2}, r.TopClients[0])

	r = BuildSalesReport(state, RangeToday, reportNow)
	require.Zero(t, r.TotalInvoices)
	require.Zero(t, r.AverageInvoiceValue)
	require.Empty(t, r.TopProducts)
}

type fakeStore struct {
	state store.State
	subs  []func(store.Change)
}

func (f *fakeStore) Snapshot() store.State { return f.state.Clone() }

func (f *fakeStore) Subscribe(fn func(store.Change)) func() {
	f.subs = append(f.subs, fn)
	return func() { f.subs = nil }
}

func (f *fakeStore) emit(action string) {
	for _, fn := range f.subs {
		fn(store.Change{Action: action})
	}
}

func newCachedService(t *testing.T) (*Service, *fakeStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	fake := &fakeStore{state: reportState()}
	svc := NewService(fake, NewCache(client, time.Minute), slog.New(slog.NewTextHandler(io.Discard, nil)), func() time.Time { return reportNow })
	return svc, fake, mr
}

func TestServiceCachesUntilStoreChanges(t *testing.T) {
	ctx := context.Background()
	svc, fake, mr := newCachedService(t)
	stop := svc.InvalidateOnChange()
	defer stop()

	d, err := svc.Dashboard(ctx)
	require.NoError(t, err)
	require.Equal(t, 4, d.TotalInvoices)
	require.True(t, mr.Exists("reports:dashboard:2024-03-15:1"))

	fake.state.Invoices = fake.state.Invoices[:3]
	d, err = svc.Dashboard(ctx)
	require.NoError(t, err)
	require.Equal(t, 4, d.TotalInvoices, "served from cache")

	fake.emit(store.ActionDeleteInvoice)
	d, err = svc.Dashboard(ctx)
	require.NoError(t, err)
	require.Equal(t, 3, d.TotalInvoices)
	require.True(t, mr.Exists("reports:dashboard:2024-03-15:2"))

	r, err := svc.Sales(ctx, RangeLast30Days)
	require.NoError(t, err)
	require.Equal(t, 117000.0, r.TotalRevenue)
	require.True(t, mr.Exists("reports:sales:last30days:2024-03-15:2"))
}

func TestServiceWithoutCache(t *testing.T) {
	fake := &fakeStore{state: reportState()}
	svc := NewService(fake, nil, nil, func() time.Time { return reportNow })
	stop := svc.InvalidateOnChange()
	defer stop()
	fake.emit(store.ActionAddProduct)

	r, err := svc.Sales(context.Background(), RangeLastYear)
	require.NoError(t, err)
	require.Equal(t, 3, r.TotalInvoices)
}

func TestFormatterGroupsThousands(t *testing.T) {
	f := NewFormatter(language.English, "F CFA")
	require.Equal(t, "88,500 F CFA", f.Amount(88500))
	require.Equal(t, "1,250", NewFormatter(language.English, "").Amount(1250))
}

func TestHandler(t *testing.T) {
	svc, _, _ := newCachedService(t)
	r := chi.NewRouter()
	NewHandler(slog.New(slog.NewTextHandler(io.Discard, nil)), svc).MountRoutes(r)

	get := func(path string) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		return rec
	}

	rec := get("/dashboard")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"totalInvoices":4`)

	rec = get("/sales?range=forever")
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = get("/export/products.csv")
	require.Equal(t, http.StatusOK, rec.Code)
	require.True(t, strings.HasPrefix(rec.Header().Get("Content-Type"), "text/csv"))
	lines := strings.Split(strings.TrimSpace(rec.Body.String()), "\n")
	require.Len(t, lines, 4)
	require.True(t, strings.HasPrefix(lines[0], "ID,SKU,Name"))

	rec = get("/export/sales.csv?range=last3months")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Header().Get("Content-Disposition"), "sales-last3months.csv")
	require.Contains(t, rec.Body.String(), "Total Revenue")

	rec = get("/export/suppliers.csv")
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDashboardRecentInvoicesNewestFirst(t *testing.T) {
	state := reportState()
	state.Invoices = nil
	for day := 8; day <= 15; day++ {
		date := time.Date(2024, 3, day, 0, 0, 0, 0, time.UTC).Format(store.DateLayout)
		state.Invoices = append(state.Invoices, store.Invoice{ID: store.ID(date), Date: date, Total: 1000, Status: store.InvoicePaid})
	}

	d := BuildDashboard(state, reportNow)
	require.Len(t, d.RecentInvoices, recentLimit)
	require.Equal(t, "2024-03-15", d.RecentInvoices[0].Date)
	require.Equal(t, "2024-03-11", d.RecentInvoices[recentLimit-1].Date)
}
