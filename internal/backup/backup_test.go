package backup

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/boutique/internal/shared"
	"github.com/odyssey-erp/boutique/internal/storage"
	"github.com/odyssey-erp/boutique/internal/store"
)

type clock struct{ t time.Time }

func (c *clock) Now() time.Time { return c.t }

func newTestService(t *testing.T, kv storage.KV, c *clock) (*Service, *store.Store) {
	t.Helper()
	st := store.New(store.Options{Storage: kv, Now: c.Now})
	require.NoError(t, st.Load(context.Background()))
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewService(st, kv, Config{Now: c.Now, Logger: logger}), st
}

func TestExportImportRoundTrip(t *testing.T) {
	ctx := context.Background()
	c := &clock{t: time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)}
	src, srcStore := newTestService(t, storage.NewMemory(), c)
	require.NoError(t, srcStore.Dispatch(ctx, store.AddProduct{Product: store.Product{ID: "p9", Name: "Tunique Lin", Category: "Tuniques", Price: 15000, Stock: 4}}))
	require.NoError(t, srcStore.Dispatch(ctx, store.DeleteClient{ID: "1"}))

	var buf bytes.Buffer
	doc, err := src.Export(&buf)
	require.NoError(t, err)
	require.Equal(t, Version, doc.Version)
	require.Equal(t, 9, doc.Metadata.TotalProducts)
	require.Equal(t, 3, doc.Metadata.TotalClients)
	require.Positive(t, doc.Metadata.BackupSize)
	require.Equal(t, "alamadinah_backup_2024-03-01.json", Filename(doc))

	dst, dstStore := newTestService(t, storage.NewMemory(), c)
	_, err = dst.Import(ctx, &buf)
	require.NoError(t, err)

	got := dstStore.Snapshot()
	want := srcStore.Snapshot()
	require.Equal(t, want.Products, got.Products)
	require.Equal(t, want.Clients, got.Clients)
	require.Equal(t, want.Settings, got.Settings)
	require.Equal(t, want.Categories, got.Categories)
}

func TestValidate(t *testing.T) {
	cases := map[string]string{
		"array":            `[]`,
		"missing version":  `{"timestamp":"2024-01-01T00:00:00Z","data":{"products":[],"clients":[],"invoices":[]}}`,
		"data not object":  `{"version":"1.0.0","timestamp":"2024-01-01T00:00:00Z","data":[]}`,
		"products missing": `{"version":"1.0.0","timestamp":"2024-01-01T00:00:00Z","data":{"clients":[],"invoices":[]}}`,
		"clients object":   `{"version":"1.0.0","timestamp":"2024-01-01T00:00:00Z","data":{"products":[],"clients":{},"invoices":[]}}`,
		"garbage":          `not json`,
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Validate([]byte(raw))
			require.ErrorIs(t, err, ErrInvalidBackup)
			require.ErrorIs(t, err, shared.ErrValidation)
		})
	}
}

func TestValidateAcceptsBrowserBackups(t *testing.T) {
	raw := `{
		"version": "1.0.0",
		"timestamp": "2024-02-10T08:15:30.123Z",
		"appName": "Al Madinah Boutique",
		"data": {
			"products": [{"id": 1707552930123, "name": "Abaya Moderne Noire", "price": 25000, "stock": 3}],
			"clients": [{"id": "2", "name": "Fatou Diabaté", "clientType": "Particulier"}],
			"invoices": [],
			"settings": {"businessInfo": {"name": "Al Madinah"}},
			"suppliers": []
		}
	}`
	doc, err := Validate([]byte(raw))
	require.NoError(t, err)
	require.Equal(t, store.ID("1707552930123"), doc.Data.Products[0].ID)
	require.Equal(t, store.ClientIndividual, doc.Data.Clients[0].ClientType)
	require.Equal(t, "Al Madinah", doc.Data.Settings.BusinessInfo.Name)
	require.Equal(t, "ALM", doc.Data.Settings.InvoiceSettings.Prefix)
	require.Nil(t, doc.Data.Categories)
}

func TestCredentialsStayOutOfBackups(t *testing.T) {
	ctx := context.Background()
	c := &clock{t: time.Now()}
	svc, st := newTestService(t, storage.NewMemory(), c)
	require.NoError(t, st.Dispatch(ctx, store.UpdateSettings{Patch: json.RawMessage(`{"paymentSettings":{"token":"tok_live"}}`)}))

	var buf bytes.Buffer
	_, err := svc.Export(&buf)
	require.NoError(t, err)
	require.NotContains(t, buf.String(), "tok_live")

	_, err = svc.Import(ctx, &buf)
	require.NoError(t, err)
	require.Equal(t, "tok_live", st.Snapshot().Settings.PaymentSettings.Token)
}

func TestAutoSaveAndCleanup(t *testing.T) {
	ctx := context.Background()
	kv := storage.NewMemory()
	c := &clock{t: time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)}
	svc, st := newTestService(t, kv, c)

	_, err := svc.LastInfo(ctx)
	require.ErrorIs(t, err, ErrNoBackup)
	require.ErrorIs(t, err, shared.ErrNotFound)

	old, err := svc.AutoSave(ctx)
	require.NoError(t, err)
	require.Equal(t, "alamadinah_backup_20240101T100000.000Z", old.Key)

	c.t = c.t.AddDate(0, 0, 40)
	recent, err := svc.AutoSave(ctx)
	require.NoError(t, err)
	_, err = kv.Put(ctx, KeyPrefix+"broken", []byte("{"), storage.AnyRevision)
	require.NoError(t, err)

	info, err := svc.LastInfo(ctx)
	require.NoError(t, err)
	require.Equal(t, LatestKey, info.Key)
	require.True(t, info.Timestamp.Equal(recent.Timestamp))
	require.Equal(t, 8, info.Metadata.TotalProducts)

	removed, err := svc.Cleanup(ctx)
	require.NoError(t, err)
	require.ElementsMatch(t, []string{old.Key, KeyPrefix + "broken"}, removed)

	keys, err := kv.Keys(ctx, LatestKey)
	require.NoError(t, err)
	require.ElementsMatch(t, []string{LatestKey, recent.Key}, keys)

	require.NoError(t, st.Dispatch(ctx, store.DeleteProduct{ID: "1"}))
	_, err = svc.RestoreLatest(ctx)
	require.NoError(t, err)
	require.Len(t, st.Snapshot().Products, 8)
}

func TestHandler(t *testing.T) {
	c := &clock{t: time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)}
	svc, _ := newTestService(t, storage.NewMemory(), c)
	r := chi.NewRouter()
	NewHandler(slog.New(slog.NewTextHandler(io.Discard, nil)), svc).MountRoutes(r)

	do := func(method, path, body string) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(method, path, strings.NewReader(body)))
		return rec
	}

	rec := do(http.MethodGet, "/latest", "")
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(http.MethodGet, "/export", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Header().Get("Content-Disposition"), "alamadinah_backup_2024-03-01.json")
	exported := rec.Body.String()

	rec = do(http.MethodPost, "/import", exported)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"totalProducts":8`)

	rec = do(http.MethodPost, "/import", `{"version":"1.0.0"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(http.MethodPost, "/autosave", "")
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = do(http.MethodGet, "/latest", "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(http.MethodPost, "/cleanup", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"removed":[]}`, rec.Body.String())
}

func TestImportRejectsRepeatedIDs(t *testing.T) {
	ctx := context.Background()
	c := &clock{t: time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)}
	svc, st := newTestService(t, storage.NewMemory(), c)
	before := st.Snapshot()

	raw := `{"version":"1.0.0","timestamp":"2024-03-01T09:00:00Z","data":{
		"products":[{"id":"x","name":"Abaya","category":"Abayas","price":1000,"stock":1},
		            {"id":"x","name":"Voile","category":"Abayas","price":500,"stock":2}],
		"clients":[],"invoices":[]}}`
	_, err := svc.Import(ctx, strings.NewReader(raw))
	require.ErrorIs(t, err, ErrInvalidBackup)
	require.ErrorIs(t, err, store.ErrDuplicate)
	require.Equal(t, before.Products, st.Snapshot().Products)
}
