package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/boutique/internal/shared"
)

var fixedNow = time.Date(2024, 2, 1, 10, 0, 0, 0, time.UTC)

func testReducer() Reducer {
	n := 0
	return Reducer{
		NewID: func() ID {
			n++
			return ID(fmt.Sprintf("gen-%d", n))
		},
		Now: func() time.Time { return fixedNow },
	}
}

func emptyState() State {
	s := Seed()
	s.Products = []Product{}
	s.Clients = []Client{}
	return s
}

func TestReduceAddAssignsID(t *testing.T) {
	r := testReducer()
	next, err := r.Reduce(emptyState(), AddProduct{Product: Product{Name: "Abaya"}})
	require.NoError(t, err)
	require.Len(t, next.Products, 1)
	require.Equal(t, ID("gen-1"), next.Products[0].ID)

	_, err = r.Reduce(next, AddProduct{Product: Product{ID: "gen-1", Name: "Copy"}})
	require.ErrorIs(t, err, ErrDuplicate)
	require.True(t, errors.Is(err, shared.ErrDuplicate))
}

func TestReduceDoesNotMutateInput(t *testing.T) {
	r := testReducer()
	state := Seed()
	before := state.Clone()

	_, err := r.Reduce(state, UpdateStock{ID: "1", Stock: 0})
	require.NoError(t, err)
	_, err = r.Reduce(state, DeleteProduct{ID: "2"})
	require.NoError(t, err)
	_, err = r.Reduce(state, UpdateProduct{Product: Product{ID: "3", Name: "Changed"}})
	require.NoError(t, err)

	require.Equal(t, before, state)
}

func TestReduceUnknownIDReportsNotFound(t *testing.T) {
	r := testReducer()
	state := Seed()
	cases := []Action{
		UpdateProduct{Product: Product{ID: "missing"}},
		DeleteProduct{ID: "missing"},
		UpdateStock{ID: "missing", Stock: 3},
		UpdateClient{Client: Client{ID: "missing"}},
		DeleteClient{ID: "missing"},
		UpdateInvoice{Invoice: Invoice{ID: "missing"}},
		DeleteInvoice{ID: "missing"},
	}
	for _, action := range cases {
		next, err := r.Reduce(state, action)
		require.ErrorIs(t, err, ErrNotFound, action.Type())
		require.Equal(t, state, next)
	}
}

func TestReduceStock(t *testing.T) {
	r := testReducer()
	next, err := r.Reduce(Seed(), &UpdateStock{ID: "1", Stock: 3})
	require.NoError(t, err)
	p, ok := next.Product("1")
	require.True(t, ok)
	require.Equal(t, 3, p.Stock)
	require.Equal(t, "2024-02-01", p.UpdatedAt)

	_, err = r.Reduce(Seed(), UpdateStock{ID: "1", Stock: -1})
	require.ErrorIs(t, err, ErrInvalidStock)
}

func TestReduceUpdateIsIdempotent(t *testing.T) {
	r := testReducer()
	client := seedClients()[1]
	client.Notes = "VIP"

	once, err := r.Reduce(Seed(), UpdateClient{Client: client})
	require.NoError(t, err)
	twice, err := r.Reduce(once, UpdateClient{Client: client})
	require.NoError(t, err)
	require.Equal(t, once, twice)
}

func TestReduceSequencesKeepIDsUnique(t *testing.T) {
	r := testReducer()
	rng := rand.New(rand.NewSource(7))
	state := Seed()
	initial := len(state.Products)
	creates, deletes := 0, 0

	for i := 0; i < 500; i++ {
		var action Action
		switch op := rng.Intn(4); {
		case op == 0 || len(state.Products) == 0:
			action = AddProduct{Product: Product{Name: fmt.Sprintf("p%d", i)}}
		case op == 1:
			p := state.Products[rng.Intn(len(state.Products))]
			action = DeleteProduct{ID: p.ID}
		case op == 2:
			p := state.Products[rng.Intn(len(state.Products))]
			p.Price++
			action = UpdateProduct{Product: p}
		default:
			// re-adding an existing id must be refused
			p := state.Products[rng.Intn(len(state.Products))]
			action = AddProduct{Product: p}
		}
		next, err := r.Reduce(state, action)
		switch action.(type) {
		case AddProduct:
			if err == nil {
				creates++
			} else {
				require.ErrorIs(t, err, ErrDuplicate)
			}
		case DeleteProduct:
			require.NoError(t, err)
			deletes++
		default:
			require.NoError(t, err)
		}
		state = next

		seen := make(map[ID]bool, len(state.Products))
		for _, p := range state.Products {
			require.False(t, seen[p.ID], "duplicate id %s", p.ID)
			seen[p.ID] = true
		}
		require.Len(t, state.Products, initial+creates-deletes)
	}
}

func saleInvoice(client Client, lines ...InvoiceLine) Invoice {
	var subtotal float64
	for _, l := range lines {
		subtotal += l.Amount()
	}
	tax := subtotal * 0.18
	return Invoice{
		Date:          "2024-02-01",
		Client:        client.Snapshot(),
		Items:         lines,
		PaymentMethod: "wave",
		Subtotal:      subtotal,
		Tax:           tax,
		Total:         subtotal + tax,
		Status:        InvoicePending,
	}
}

func TestReduceRecordSale(t *testing.T) {
	r := testReducer()
	state := Seed()
	abaya, _ := state.Product("1")
	voile, _ := state.Product("2")
	client, _ := state.Client("1")

	inv := saleInvoice(client, LineFromProduct(abaya, 3), LineFromProduct(voile, 2))
	next, err := r.Reduce(state, RecordSale{Invoice: inv})
	require.NoError(t, err)

	require.Len(t, next.Invoices, 1)
	got := next.Invoices[0]
	require.Equal(t, "ALM-000002", got.Number)
	require.Equal(t, 2, next.Settings.InvoiceSettings.StartNumber)
	require.Equal(t, "2024-02-01T10:00:00Z", got.CreatedAt)
	require.NotEmpty(t, got.ID)

	p, _ := next.Product("1")
	require.Equal(t, 22, p.Stock)
	p, _ = next.Product("2")
	require.Equal(t, 38, p.Stock)

	c, _ := next.Client("1")
	require.InDelta(t, 125000+inv.Total, c.TotalPurchases, 0.001)
	require.Equal(t, "2024-02-01", c.LastPurchase)

	next, err = r.Reduce(next, RecordSale{Invoice: saleInvoice(client, LineFromProduct(abaya, 1))})
	require.NoError(t, err)
	require.Equal(t, "ALM-000003", next.Invoices[1].Number)
}

func TestReduceRecordSaleIsAllOrNothing(t *testing.T) {
	r := testReducer()
	state := Seed()
	abaya, _ := state.Product("1")
	voile, _ := state.Product("2")
	client, _ := state.Client("1")

	inv := saleInvoice(client, LineFromProduct(abaya, 2), LineFromProduct(voile, 41))
	next, err := r.Reduce(state, RecordSale{Invoice: inv})
	require.ErrorIs(t, err, ErrInsufficientStock)
	require.True(t, errors.Is(err, shared.ErrConflict))
	require.Equal(t, state, next)

	p, _ := state.Product("1")
	require.Equal(t, 25, p.Stock)
}

func TestReduceDraftSaleLeavesClientAggregate(t *testing.T) {
	r := testReducer()
	state := Seed()
	abaya, _ := state.Product("1")
	client, _ := state.Client("2")

	inv := saleInvoice(client, LineFromProduct(abaya, 1))
	inv.Status = InvoiceDraft
	next, err := r.Reduce(state, RecordSale{Invoice: inv})
	require.NoError(t, err)

	c, _ := next.Client("2")
	require.Equal(t, 89000.0, c.TotalPurchases)
}

func TestReduceDeleteClientKeepsInvoiceSnapshot(t *testing.T) {
	r := testReducer()
	state := Seed()
	abaya, _ := state.Product("1")
	client, _ := state.Client("3")

	next, err := r.Reduce(state, RecordSale{Invoice: saleInvoice(client, LineFromProduct(abaya, 1))})
	require.NoError(t, err)
	snapshot := next.Invoices[0].Client

	next, err = r.Reduce(next, DeleteClient{ID: "3"})
	require.NoError(t, err)
	_, ok := next.Client("3")
	require.False(t, ok)
	require.Equal(t, snapshot, next.Invoices[0].Client)
	require.Equal(t, "Mariam Ouattara", next.Invoices[0].Client.Name)
}

func TestReduceSettingsDeepMerge(t *testing.T) {
	r := testReducer()
	patch := json.RawMessage(`{"invoiceSettings":{"taxRate":20},"businessInfo":{"phone":null}}`)
	next, err := r.Reduce(Seed(), UpdateSettings{Patch: patch})
	require.NoError(t, err)

	defaults := DefaultSettings()
	require.Equal(t, 20.0, next.Settings.InvoiceSettings.TaxRate)
	require.Equal(t, "ALM", next.Settings.InvoiceSettings.Prefix)
	require.True(t, next.Settings.InvoiceSettings.ShowTax)
	require.Equal(t, defaults.BusinessInfo, next.Settings.BusinessInfo)

	_, err = r.Reduce(Seed(), UpdateSettings{Patch: json.RawMessage(`[1,2]`)})
	require.ErrorIs(t, err, ErrInvalidPatch)
	_, err = r.Reduce(Seed(), UpdateSettings{Patch: json.RawMessage(`{"invoiceSettings":{"taxRate":"high"}}`)})
	require.ErrorIs(t, err, ErrInvalidPatch)
}

func TestReduceReplaceData(t *testing.T) {
	r := testReducer()
	settings := DefaultSettings()
	settings.BusinessInfo.Name = "Restored"
	next, err := r.Reduce(Seed(), ReplaceData{
		Products: []Product{{ID: "x", Name: "Only"}},
		Invoices: []Invoice{},
		Settings: &settings,
	})
	require.NoError(t, err)
	require.Len(t, next.Products, 1)
	require.Len(t, next.Clients, 4)
	require.Empty(t, next.Invoices)
	require.Equal(t, "Restored", next.Settings.BusinessInfo.Name)
}

func TestReduceUI(t *testing.T) {
	r := testReducer()
	next, err := r.Reduce(Seed(), ToggleSidebar{})
	require.NoError(t, err)
	require.True(t, next.UI.SidebarCollapsed)
	next, err = r.Reduce(next, SetTheme{Theme: "dark"})
	require.NoError(t, err)
	next, err = r.Reduce(next, SetLanguage{Language: "ar"})
	require.NoError(t, err)
	require.Equal(t, UIState{SidebarCollapsed: true, Theme: "dark", Language: "ar"}, next.UI)
}

type bogusAction struct{}

func (bogusAction) Type() string { return "BOGUS" }

func TestReduceUnknownAction(t *testing.T) {
	_, err := testReducer().Reduce(Seed(), bogusAction{})
	require.ErrorIs(t, err, ErrUnknownAction)
}

func TestReduceReplaceDataRejectsRepeatedIDs(t *testing.T) {
	r := testReducer()
	state := Seed()
	_, err := r.Reduce(state, ReplaceData{Products: []Product{{ID: "x", Name: "A"}, {ID: "x", Name: "B"}}})
	require.ErrorIs(t, err, ErrDuplicate)

	next, err := r.Reduce(state, ReplaceData{Clients: []Client{{Name: "No id"}, {ID: "c1", Name: "Awa"}}})
	require.NoError(t, err)
	require.Equal(t, ID("gen-1"), next.Clients[0].ID)
	require.Equal(t, ID("c1"), next.Clients[1].ID)
}
