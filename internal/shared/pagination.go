package shared

import (
	"math"
	"strconv"
)

// DefaultPerPage is used when a listing does not ask for a page size.
const DefaultPerPage = 20

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
		perPage = DefaultPerPage
	}
	if page <= 0 {
		page = 1
	}
	totalPages := int(math.Ceil(float64(total) / float64(perPage)))
	return Pagination{Page: page, PerPage: perPage, Total: total, TotalPages: totalPages}
}

// ParsePage reads a 1-based page number; junk is page 1.
func ParsePage(raw string) int {
	page, err := strconv.Atoi(raw)
	if err != nil || page < 1 {
		return 1
	}
	return page
}

// Offset is the number of rows before the current page.
func (p Pagination) Offset() int {
	return (p.Page - 1) * p.PerPage
}

// HasPrev reports whether a previous page exists.
func (p Pagination) HasPrev() bool { return p.Page > 1 }

// HasNext reports whether a next page exists.
func (p Pagination) HasNext() bool { return p.Page < p.TotalPages }

// Prev is the previous page number.
func (p Pagination) Prev() int { return p.Page - 1 }

// Next is the next page number.
func (p Pagination) Next() int { return p.Page + 1 }
