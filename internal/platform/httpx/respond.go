// Package httpx provides HTTP response utilities following RFC7807 problem details.
package httpx

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/odyssey-erp/boutique/internal/shared"
)

// ProblemDetail represents RFC7807 problem details.
type ProblemDetail struct {
	Type   string            `json:"type,omitempty"`
	Title  string            `json:"title"`
	Status int               `json:"status"`
	Detail string            `json:"detail,omitempty"`
	Errors map[string]string `json:"errors,omitempty"`
}

// JSON sends a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// Problem sends an RFC7807 problem details response.
func Problem(w http.ResponseWriter, status int, title, detail string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(ProblemDetail{
		Title:  title,
		Status: status,
		Detail: detail,
	})
}

// ValidationProblem sends a 422 with one message per invalid field.
func ValidationProblem(w http.ResponseWriter, fields map[string]string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(http.StatusUnprocessableEntity)
	_ = json.NewEncoder(w).Encode(ProblemDetail{
		Title:  "Validation Failed",
		Status: http.StatusUnprocessableEntity,
		Errors: fields,
	})
}

// DecodeJSON decodes JSON request body into the target struct. Malformed
// bodies are reported as validation errors.
func DecodeJSON(r *http.Request, target any) error {
	if err := json.NewDecoder(r.Body).Decode(target); err != nil {
		return fmt.Errorf("invalid JSON body: %v: %w", err, shared.ErrValidation)
	}
	return nil
}

// JSONList sends items, paginated when the request carries page or
// per_page. Totals are reported in the X-Total-Count and X-Total-Pages
// headers.
func JSONList[T any](w http.ResponseWriter, r *http.Request, items []T) {
	q := r.URL.Query()
	p, ok := shared.ParsePagination(q.Get("page"), q.Get("per_page"), len(items))
	if !ok {
		JSON(w, http.StatusOK, items)
		return
	}
	w.Header().Set("X-Total-Count", strconv.Itoa(p.Total))
	w.Header().Set("X-Total-Pages", strconv.Itoa(p.TotalPages))
	JSON(w, http.StatusOK, shared.Paginate(items, p))
}
