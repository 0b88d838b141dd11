// Package pagination parses page parameters and shapes paginated list responses.
package pagination

import (
	"gorm.io/gorm"
)

const (
	// DefaultPageSize applies when page_size is omitted.
	DefaultPageSize = 20
	// MaxPageSize is the largest accepted page_size.
	MaxPageSize = 100
)

// Request holds pagination parameters bound from the query string.
type Request struct {
	Page     int `form:"page" binding:"omitempty,min=1"`
	PageSize int `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// WithDefaults returns a copy of r with missing values filled in.
func (r Request) WithDefaults() Request {
	if r.Page <= 0 {
		r.Page = 1
	}
	if r.PageSize <= 0 {
		r.PageSize = DefaultPageSize
	}
	if r.PageSize > MaxPageSize {
		r.PageSize = MaxPageSize
	}
	return r
}

// Offset returns the number of rows preceding the requested page.
func (r Request) Offset() int {
	return (r.Page - 1) * r.PageSize
}

// Scope applies OFFSET and LIMIT for r to a gorm query.
func (r Request) Scope() func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Offset(r.Offset()).Limit(r.PageSize)
	}
}

// Page is one page of a list along with its position in the whole.
type Page[T any] struct {
	Items      []T   `json:"items"`
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	TotalItems int64 `json:"total_items"`
	TotalPages int   `json:"total_pages"`
}

// NewPage builds a Page; items is never encoded as null.
func NewPage[T any](items []T, r Request, totalItems int64) Page[T] {
	if items == nil {
		items = []T{}
	}
	totalPages := 0
	if r.PageSize > 0 {
		totalPages = int((totalItems + int64(r.PageSize) - 1) / int64(r.PageSize))
	}
	return Page[T]{
		Items:      items,
		Page:       r.Page,
		PageSize:   r.PageSize,
		TotalItems: totalItems,
		TotalPages: totalPages,
	}
}
