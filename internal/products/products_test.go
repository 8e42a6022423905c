package products

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/boutique/internal/platform/httpx"
	"github.com/odyssey-erp/boutique/internal/shared"
	"github.com/odyssey-erp/boutique/internal/storage"
	"github.com/odyssey-erp/boutique/internal/store"
)

func newTestService(t *testing.T) (*Service, *store.Store) {
	t.Helper()
	st := store.New(store.Options{Storage: storage.NewMemory()})
	require.NoError(t, st.Load(context.Background()))
	return NewService(st), st
}

func validInput() ProductInput {
	return ProductInput{Name: "Abaya", Category: "Abayas", Price: 25000, Stock: 10, MinStock: 2, SKU: "ABY-100"}
}

func TestCreateValidatesBeforeDispatch(t *testing.T) {
	ctx := context.Background()
	svc, st := newTestService(t)

	in := validInput()
	in.Price = 0
	in.Stock = -1
	in.Category = "Chaussures"
	in.SKU = "aby-001"
	_, err := svc.Create(ctx, in)

	var fields shared.FieldErrors
	require.ErrorAs(t, err, &fields)
	require.Equal(t, "must be greater than 0", fields["price"])
	require.Equal(t, "must be at least 0", fields["stock"])
	require.Equal(t, "unknown category", fields["category"])
	require.Contains(t, fields["sku"], "Abaya Moderne Noire")
	require.Len(t, st.Snapshot().Products, 8)
}

func TestCreateUpdateDelete(t *testing.T) {
	ctx := context.Background()
	svc, st := newTestService(t)

	p, err := svc.Create(ctx, validInput())
	require.NoError(t, err)
	require.NotEmpty(t, p.ID)
	require.NotEmpty(t, p.CreatedAt)
	require.Len(t, st.Snapshot().Products, 9)

	in := validInput()
	in.Price = 27000
	updated, err := svc.Update(ctx, p.ID, in)
	require.NoError(t, err)
	require.Equal(t, 27000.0, updated.Price)
	require.Equal(t, p.CreatedAt, updated.CreatedAt)

	_, err = svc.Update(ctx, "missing", in)
	require.ErrorIs(t, err, store.ErrNotFound)

	got, err := svc.SetStock(ctx, p.ID, 1)
	require.NoError(t, err)
	require.Equal(t, 1, got.Stock)
	require.Contains(t, svc.LowStock(), got)

	_, err = svc.SetStock(ctx, p.ID, -4)
	require.ErrorIs(t, err, store.ErrInvalidStock)

	require.NoError(t, svc.Delete(ctx, p.ID))
	require.ErrorIs(t, svc.Delete(ctx, p.ID), store.ErrNotFound)
}

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	svc, _ := newTestService(t)
	h := NewHandler(slog.New(slog.NewTextHandler(io.Discard, nil)), svc)
	r := chi.NewRouter()
	r.Route("/products", h.MountRoutes)
	return r
}

func do(h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHandlerRoutes(t *testing.T) {
	router := newTestRouter(t)

	rec := do(router, http.MethodGet, "/products?category=Robes", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var list []store.Product
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&list))
	require.Len(t, list, 1)

	rec = do(router, http.MethodPost, "/products", `{"name":"","price":-5}`)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	var problem httpx.ProblemDetail
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&problem))
	require.Contains(t, problem.Errors, "name")
	require.Contains(t, problem.Errors, "sku")

	rec = do(router, http.MethodPut, "/products/1/stock", `{"stock":3}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(router, http.MethodPut, "/products/1/stock", `{}`)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = do(router, http.MethodGet, "/products/low-stock", "")
	require.Equal(t, http.StatusOK, rec.Code)
	list = nil
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&list))
	require.Len(t, list, 1)
	require.Equal(t, store.ID("1"), list[0].ID)

	rec = do(router, http.MethodGet, "/products/404", "")
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(router, http.MethodDelete, "/products/2", "")
	require.Equal(t, http.StatusNoContent, rec.Code)
}
