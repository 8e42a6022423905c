package httpx

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/boutique/internal/shared"
)

func TestRespondErrorMapping(t *testing.T) {
	cases := []struct {
		err    error
		status int
	}{
		{fmt.Errorf("product 9: %w", shared.ErrNotFound), http.StatusNotFound},
		{shared.ErrDuplicate, http.StatusConflict},
		{shared.ErrConflict, http.StatusConflict},
		{shared.ErrValidation, http.StatusBadRequest},
		{shared.ErrStorage, http.StatusInsufficientStorage},
		{fmt.Errorf("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		rec := httptest.NewRecorder()
		RespondError(rec, tc.err)
		require.Equal(t, tc.status, rec.Code, tc.err.Error())

		var body ProblemDetail
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
		require.Equal(t, tc.status, body.Status)
	}
}

func TestRespondErrorFieldErrors(t *testing.T) {
	rec := httptest.NewRecorder()
	RespondError(rec, fmt.Errorf("create: %w", shared.FieldErrors{"price": "must be greater than 0"}))
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	var body ProblemDetail
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	require.Equal(t, "must be greater than 0", body.Errors["price"])
}

func TestValidationProblem(t *testing.T) {
	rec := httptest.NewRecorder()
	ValidationProblem(rec, map[string]string{"name": "is required"})
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	require.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))

	var body ProblemDetail
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	require.Equal(t, "is required", body.Errors["name"])
}

func TestJSONList(t *testing.T) {
	items := []string{"a", "b", "c"}

	rec := httptest.NewRecorder()
	JSONList(rec, httptest.NewRequest(http.MethodGet, "/products", nil), items)
	require.JSONEq(t, `["a","b","c"]`, rec.Body.String())
	require.Empty(t, rec.Header().Get("X-Total-Count"))

	rec = httptest.NewRecorder()
	JSONList(rec, httptest.NewRequest(http.MethodGet, "/products?page=2&per_page=2", nil), items)
	require.JSONEq(t, `["c"]`, rec.Body.String())
	require.Equal(t, "3", rec.Header().Get("X-Total-Count"))
	require.Equal(t, "2", rec.Header().Get("X-Total-Pages"))
}
