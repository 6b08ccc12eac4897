package domain

import "math"

const (
	DefaultPageSize = 50
	MaxPageSize     = 200
)

// PageRequest is a 1-based page and a page size.
type PageRequest struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
}

// Normalize clamps the request to valid bounds. Page is capped so that the
// offset always fits in an int.
func (p PageRequest) Normalize() PageRequest {
	if p.Limit <= 0 {
		p.Limit = DefaultPageSize
	}
	if p.Limit > MaxPageSize {
		p.Limit = MaxPageSize
	}
	if p.Page < 1 {
		p.Page = 1
	}
	if maxPage := math.MaxInt / p.Limit; p.Page > maxPage {
		p.Page = maxPage
	}
	return p
}

// Offset is the number of items before the page.
func (p PageRequest) Offset() int {
	p = p.Normalize()
	return (p.Page - 1) * p.Limit
}

// Page is one page of a listing.
type Page[T any] struct {
	Items      []T  `json:"-"`
	Total      int  `json:"total"`
	Page       int  `json:"page"`
	Limit      int  `json:"limit"`
	TotalPages int  `json:"totalPages"`
	HasNext    bool `json:"hasNext"`
	HasPrev    bool `json:"hasPrev"`
}

// NewPage builds page metadata around items.
func NewPage[T any](items []T, total int, req PageRequest) Page[T] {
	req = req.Normalize()
	if items == nil {
		items = []T{}
	}
	totalPages := (total + req.Limit - 1) / req.Limit
	return Page[T]{
		Items:      items,
		Total:      total,
		Page:       req.Page,
		Limit:      req.Limit,
		TotalPages: totalPages,
		HasNext:    req.Page < totalPages,
		HasPrev:    req.Page > 1,
	}
}

// Paginate slices an in-memory list.
func Paginate[T any](all []T, req PageRequest) Page[T] {
	req = req.Normalize()
	start := req.Offset()
	if start > len(all) {
		start = len(all)
	}
	end := start + req.Limit
	if end > len(all) {
		end = len(all)
	}
	items := make([]T, end-start)
	copy(items, all[start:end])
	return NewPage(items, len(all), req)
}
