// Package page provides generic pagination metadata for listing views.
package page

// Page wraps a slice of items with navigation metadata. It is
// presentation-only: callers supply the items and the total row count.
type Page[T any] struct {
	Items   []T  `json:"items"`
	Page    int  `json:"page"`
	PerPage int  `json:"per_page"`
	Total   int  `json:"total"`
	Pages   int  `json:"pages"`
	HasPrev bool `json:"has_prev"`
	HasNext bool `json:"has_next"`
}

// DefaultPerPage is used when the caller supplies no page size.
const DefaultPerPage = 30

// MaxPerPage caps the page size to keep listing queries bounded.
const MaxPerPage = 100

// Clamp normalizes page and perPage to sane bounds.
func Clamp(pageNum, perPage int) (int, int) {
	if pageNum < 1 {
		pageNum = 1
	}
	if perPage < 1 {
		perPage = DefaultPerPage
	}
	if perPage > MaxPerPage {
		perPage = MaxPerPage
	}
	return pageNum, perPage
}

// New builds a Page from items, the total count, and the requested window.
func New[T any](items []T, total, pageNum, perPage int) Page[T] {
	pages := (total + perPage - 1) / perPage
	if pages < 1 {
		pages = 1
	}
	return Page[T]{
		Items:   items,
		Page:    pageNum,
		PerPage: perPage,
		Total:   total,
		Pages:   pages,
		HasPrev: pageNum > 1,
		HasNext: pageNum < pages,
	}
}
