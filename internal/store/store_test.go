package store

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/boutique/internal/secrets"
	"github.com/odyssey-erp/boutique/internal/shared"
	"github.com/odyssey-erp/boutique/internal/storage"
)

func newTestStore(t *testing.T, kv storage.KV, opts ...func(*Options)) *Store {
	t.Helper()
	o := Options{
		Storage: kv,
		Now:     func() time.Time { return fixedNow },
	}
	for _, fn := range opts {
		fn(&o)
	}
	s := New(o)
	require.NoError(t, s.Load(context.Background()))
	return s
}

func TestLoadWithoutDataUsesSeed(t *testing.T) {
	s := newTestStore(t, storage.NewMemory())
	require.Equal(t, Seed(), s.Snapshot())
	require.Equal(t, int64(0), s.Revision())
}

func TestStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	kv := storage.NewMemory()
	s := newTestStore(t, kv)

	require.NoError(t, s.Dispatch(ctx, AddProduct{Product: Product{Name: "Abaya", Category: "Abayas", Price: 25000, Stock: 10, MinStock: 2, SKU: "ABY-100"}}))
	require.NoError(t, s.Dispatch(ctx, AddClient{Client: Client{Name: "Awa", Email: "awa@example.ci", ClientType: ClientBusiness}}))
	state := s.Snapshot()
	abaya := state.Products[len(state.Products)-1]
	awa := state.Clients[len(state.Clients)-1]
	require.NoError(t, s.Dispatch(ctx, RecordSale{Invoice: saleInvoice(awa, LineFromProduct(abaya, 3))}))
	require.NoError(t, s.Dispatch(ctx, UpdateSettings{Patch: json.RawMessage(`{"businessInfo":{"name":"Renamed"}}`)}))
	require.NoError(t, s.Dispatch(ctx, DeleteProduct{ID: "8"}))

	reloaded := newTestStore(t, kv)
	want, got := s.Snapshot(), reloaded.Snapshot()
	require.Equal(t, want.Products, got.Products)
	require.Equal(t, want.Clients, got.Clients)
	require.Equal(t, want.Invoices, got.Invoices)
	require.Equal(t, want.Settings, got.Settings)
	require.Equal(t, s.Revision(), reloaded.Revision())
}

func TestLoadCorruptBlobFallsBackToSeed(t *testing.T) {
	ctx := context.Background()
	kv := storage.NewMemory()
	s := newTestStore(t, kv)
	require.NoError(t, s.Dispatch(ctx, DeleteProduct{ID: "1"}))

	rec, err := kv.Get(ctx, DefaultKey)
	require.NoError(t, err)
	_, err = kv.Put(ctx, DefaultKey, rec.Value[:len(rec.Value)/2], storage.AnyRevision)
	require.NoError(t, err)

	reloaded := New(Options{Storage: kv})
	require.NoError(t, reloaded.Load(ctx))
	require.Equal(t, Seed(), reloaded.Snapshot())

	// the next save replaces the corrupt blob
	require.NoError(t, reloaded.Dispatch(ctx, DeleteProduct{ID: "2"}))
	again := newTestStore(t, kv)
	require.Len(t, again.Snapshot().Products, 7)
}

func TestLoadPresentSlicesOverwriteSeed(t *testing.T) {
	ctx := context.Background()
	kv := storage.NewMemory()
	legacy := `{
		"products": [{"id": 1706000000000, "name": "Hijab", "category": "Voiles & Hijabs", "price": 5000, "stock": 4, "minStock": 2, "sku": "H-1"}],
		"settings": {"invoiceSettings": {"prefix": "OLD", "startNumber": 41, "taxRate": 18, "showTax": true}},
		"clients": [{"id": 2, "name": "Awa", "clientType": "Professionnel"}]
	}`
	_, err := kv.Put(ctx, DefaultKey, []byte(legacy), storage.AnyRevision)
	require.NoError(t, err)

	s := newTestStore(t, kv)
	state := s.Snapshot()
	require.Len(t, state.Products, 1)
	require.Equal(t, ID("1706000000000"), state.Products[0].ID)
	require.Equal(t, ClientBusiness, state.Clients[0].ClientType)
	require.Equal(t, "OLD", state.Settings.InvoiceSettings.Prefix)
	require.Equal(t, 41, state.Settings.InvoiceSettings.StartNumber)
	// keys missing from the blob keep their defaults
	require.Equal(t, 30, state.Settings.InvoiceSettings.PaymentTermsDays)
	require.Equal(t, "Al Madinah Boutique", state.Settings.BusinessInfo.Name)
	require.Empty(t, state.Invoices)
	require.Equal(t, DefaultCategories(), state.Categories)
}

func TestDispatchPersistFailureKeepsChange(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, storage.NewMemory(storage.WithQuota(128)))

	err := s.Dispatch(ctx, UpdateStock{ID: "1", Stock: 2})
	require.ErrorIs(t, err, ErrPersist)
	require.ErrorIs(t, err, storage.ErrQuotaExceeded)
	require.True(t, errors.Is(err, shared.ErrStorage))

	p, ok := s.Snapshot().Product("1")
	require.True(t, ok)
	require.Equal(t, 2, p.Stock)
}

func TestDispatchRejectedActionLeavesState(t *testing.T) {
	ctx := context.Background()
	kv := storage.NewMemory()
	s := newTestStore(t, kv)

	err := s.Dispatch(ctx, DeleteClient{ID: "nope"})
	require.ErrorIs(t, err, ErrNotFound)
	require.Equal(t, Seed(), s.Snapshot())

	_, err = kv.Get(ctx, DefaultKey)
	require.ErrorIs(t, err, storage.ErrNotFound)
}

func TestConcurrentWriterIsMerged(t *testing.T) {
	ctx := context.Background()
	kv := storage.NewMemory()
	first := newTestStore(t, kv)
	second := newTestStore(t, kv)

	require.NoError(t, first.Dispatch(ctx, UpdateStock{ID: "1", Stock: 1}))
	require.NoError(t, second.Dispatch(ctx, UpdateStock{ID: "2", Stock: 1}))

	p1, _ := second.Snapshot().Product("1")
	require.Equal(t, 1, p1.Stock)

	final := newTestStore(t, kv)
	p1, _ = final.Snapshot().Product("1")
	p2, _ := final.Snapshot().Product("2")
	require.Equal(t, 1, p1.Stock)
	require.Equal(t, 1, p2.Stock)
}

func TestConflictReappliesAgainstFreshData(t *testing.T) {
	ctx := context.Background()
	kv := storage.NewMemory()
	first := newTestStore(t, kv)
	second := newTestStore(t, kv)

	require.NoError(t, first.Dispatch(ctx, DeleteProduct{ID: "1"}))
	err := second.Dispatch(ctx, UpdateStock{ID: "1", Stock: 3})
	require.ErrorIs(t, err, ErrNotFound)

	_, ok := second.Snapshot().Product("1")
	require.False(t, ok)
}

func TestUIPreferencesPersistSeparately(t *testing.T) {
	ctx := context.Background()
	kv := storage.NewMemory()
	s := newTestStore(t, kv)

	require.NoError(t, s.Dispatch(ctx, ToggleSidebar{}))
	require.NoError(t, s.Dispatch(ctx, SetTheme{Theme: "dark"}))

	_, err := kv.Get(ctx, DefaultKey)
	require.ErrorIs(t, err, storage.ErrNotFound)

	reloaded := newTestStore(t, kv)
	require.Equal(t, UIState{SidebarCollapsed: true, Theme: "dark", Language: "fr"}, reloaded.Snapshot().UI)
}

func TestSubscribe(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, storage.NewMemory())

	var (
		mu      sync.Mutex
		changes []Change
	)
	unsubscribe := s.Subscribe(func(c Change) {
		mu.Lock()
		defer mu.Unlock()
		changes = append(changes, c)
	})

	require.NoError(t, s.Dispatch(ctx, UpdateStock{ID: "1", Stock: 9}))
	require.Error(t, s.Dispatch(ctx, UpdateStock{ID: "1", Stock: -9}))
	unsubscribe()
	require.NoError(t, s.Dispatch(ctx, UpdateStock{ID: "1", Stock: 8}))

	mu.Lock()
	defer mu.Unlock()
	require.Equal(t, []Change{{Action: ActionUpdateStock, Revision: 1}}, changes)
}

func TestCredentialsAreSealedAtRest(t *testing.T) {
	ctx := context.Background()
	kv := storage.NewMemory()
	withSealer := func(o *Options) { o.Sealer = secrets.NewSealer("s3cret") }
	s := newTestStore(t, kv, withSealer)

	patch := json.RawMessage(`{"paymentSettings":{"enabled":true,"privateKey":"test_private_abc","token":"tok_123"}}`)
	require.NoError(t, s.Dispatch(ctx, UpdateSettings{Patch: patch}))

	rec, err := kv.Get(ctx, DefaultKey)
	require.NoError(t, err)
	require.False(t, strings.Contains(string(rec.Value), "test_private_abc"))
	require.False(t, strings.Contains(string(rec.Value), "tok_123"))

	reloaded := newTestStore(t, kv, withSealer)
	ps := reloaded.Snapshot().Settings.PaymentSettings
	require.Equal(t, "test_private_abc", ps.PrivateKey)
	require.Equal(t, "tok_123", ps.Token)

	wrongKey := newTestStore(t, kv, func(o *Options) { o.Sealer = secrets.NewSealer("other") })
	require.Empty(t, wrongKey.Snapshot().Settings.PaymentSettings.Token)
	require.True(t, wrongKey.Snapshot().Settings.PaymentSettings.Enabled)
}

type recordingMetrics struct {
	mu         sync.Mutex
	dispatched []string
	persistErr int
}

func (m *recordingMetrics) ObserveDispatch(action string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err == nil {
		m.dispatched = append(m.dispatched, action)
	}
}

func (m *recordingMetrics) ObservePersist(_ string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err != nil {
		m.persistErr++
	}
}

func TestMetricsObserved(t *testing.T) {
	ctx := context.Background()
	metrics := &recordingMetrics{}
	s := newTestStore(t, storage.NewMemory(storage.WithQuota(128)), func(o *Options) { o.Metrics = metrics })

	_ = s.Dispatch(ctx, SetLanguage{Language: "en"})
	_ = s.Dispatch(ctx, UpdateStock{ID: "1", Stock: 1})

	require.Equal(t, []string{ActionSetLanguage, ActionUpdateStock}, metrics.dispatched)
	require.Equal(t, 1, metrics.persistErr)
}

func TestRefreshPicksUpOtherWriters(t *testing.T) {
	ctx := context.Background()
	kv := storage.NewMemory()
	writer := newTestStore(t, kv)
	reader := newTestStore(t, kv)

	reloaded, err := reader.Refresh(ctx)
	require.NoError(t, err)
	require.False(t, reloaded, "nothing persisted yet")

	require.NoError(t, writer.Dispatch(ctx, UpdateStock{ID: "3", Stock: 1}))

	var changes []Change
	reader.Subscribe(func(c Change) { changes = append(changes, c) })
	reloaded, err = reader.Refresh(ctx)
	require.NoError(t, err)
	require.True(t, reloaded)
	require.Equal(t, []Change{{Action: ChangeReload, Revision: 1}}, changes)
	p, _ := reader.Snapshot().Product("3")
	require.Equal(t, 1, p.Stock)

	// the reader can write again once it caught up
	require.NoError(t, reader.Dispatch(ctx, UpdateStock{ID: "3", Stock: 2}))

	reloaded, err = reader.Refresh(ctx)
	require.NoError(t, err)
	require.False(t, reloaded)
}

func TestFileBackendTruncatedBlobFallsBackToSeed(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	kv, err := storage.NewFile(dir)
	require.NoError(t, err)
	s := newTestStore(t, kv)
	require.NoError(t, s.Dispatch(ctx, DeleteProduct{ID: "1"}))

	path := filepath.Join(dir, DefaultKey+".json")
	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, raw[:len(raw)/2], 0o600))

	reloaded := New(Options{Storage: kv})
	require.NoError(t, reloaded.Load(ctx))
	require.Equal(t, Seed(), reloaded.Snapshot())

	require.NoError(t, reloaded.Dispatch(ctx, DeleteProduct{ID: "2"}))
	again := newTestStore(t, kv)
	require.Len(t, again.Snapshot().Products, 7)
	_, ok := again.Snapshot().Product("1")
	require.True(t, ok)
}

func TestUIConflictIsMerged(t *testing.T) {
	ctx := context.Background()
	kv := storage.NewMemory()
	a := newTestStore(t, kv)
	b := newTestStore(t, kv)

	require.NoError(t, a.Dispatch(ctx, SetLanguage{Language: "en"}))
	require.NoError(t, b.Dispatch(ctx, SetTheme{Theme: "dark"}))
	require.NoError(t, a.Dispatch(ctx, ToggleSidebar{}))
	require.NoError(t, a.Dispatch(ctx, ToggleSidebar{}))

	require.Equal(t, UIState{SidebarCollapsed: false, Theme: "dark", Language: "en"}, a.Snapshot().UI)
	require.Equal(t, a.Snapshot().UI, newTestStore(t, kv).Snapshot().UI)
}

func TestRefreshFollowsUIWrites(t *testing.T) {
	ctx := context.Background()
	kv := storage.NewMemory()
	a := newTestStore(t, kv)
	b := newTestStore(t, kv)

	require.NoError(t, b.Dispatch(ctx, SetTheme{Theme: "dark"}))
	reloaded, err := a.Refresh(ctx)
	require.NoError(t, err)
	require.True(t, reloaded)
	require.Equal(t, "dark", a.Snapshot().UI.Theme)

	require.NoError(t, a.Dispatch(ctx, ToggleSidebar{}))
	require.True(t, newTestStore(t, kv).Snapshot().UI.SidebarCollapsed)
}

func TestRestoredCategoriesSurviveRestart(t *testing.T) {
	ctx := context.Background()
	kv := storage.NewMemory()
	s := newTestStore(t, kv)

	require.NoError(t, s.Dispatch(ctx, ReplaceData{Categories: []string{"Kaftans", "Abayas"}}))

	reloaded := newTestStore(t, kv)
	require.Equal(t, []string{"Kaftans", "Abayas"}, reloaded.Snapshot().Categories)
}
