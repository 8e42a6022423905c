package shared

import (
	"math"
	"strconv"
)

// MaxPerPage caps page sizes requested by clients.
const MaxPerPage = 100

// Pagination contains metadata for paginated listings.
type Pagination struct {
	Page       int
	PerPage    int
	Total      int
	TotalPages int
}

// NewPagination computes pagination metadata.
func NewPagination(page, perPage, total int) Pagination {
	if perPage <= 0 {
		perPage = 20
	}
	if perPage > MaxPerPage {
		perPage = MaxPerPage
	}
	if page <= 0 {
		page = 1
	}
	totalPages := int(math.Ceil(float64(total) / float64(perPage)))
	return Pagination{Page: page, PerPage: perPage, Total: total, TotalPages: totalPages}
}

// ParsePagination reads page and per-page values. ok is false when no page
// was requested, meaning the caller wants the whole list.
func ParsePagination(page, perPage string, total int) (p Pagination, ok bool) {
	if page == "" && perPage == "" {
		return Pagination{}, false
	}
	n, _ := strconv.Atoi(page)
	size, _ := strconv.Atoi(perPage)
	return NewPagination(n, size, total), true
}

// Paginate returns the slice of items on page p.
func Paginate[T any](items []T, p Pagination) []T {
	start := (p.Page - 1) * p.PerPage
	if start >= len(items) {
		return []T{}
	}
	end := start + p.PerPage
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}
