// Package query holds the list-shaping helpers shared by every list endpoint:
// request paging/sort parameters, an in-memory filter pipeline and a SQL clause builder.
package query

import "strings"

const (
	DefaultLimit = 20
	MaxLimit     = 100

	OrderAsc  = "asc"
	OrderDesc = "desc"
)

// ListParams are the common paging, sorting and search parameters of list requests.
// A zero Limit means "no limit" to the stores; handlers call Normalize to apply defaults.
type ListParams struct {
	Search string `form:"search" json:"search,omitempty"`
	Sort   string `form:"sort" json:"sort,omitempty"`
	Order  string `form:"order" json:"order,omitempty"`
	Offset int    `form:"offset" json:"offset"`
	Limit  int    `form:"limit" json:"limit"`
}

// Normalize applies request defaults: limit 20 (max 100), non-negative offset, desc order.
func (p ListParams) Normalize() ListParams {
	p.Search = strings.TrimSpace(p.Search)
	p.Sort = strings.ToLower(strings.TrimSpace(p.Sort))
	if p.Limit <= 0 {
		p.Limit = DefaultLimit
	}
	if p.Limit > MaxLimit {
		p.Limit = MaxLimit
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
	p.Order = strings.ToLower(p.Order)
	if p.Order != OrderAsc {
		p.Order = OrderDesc
	}
	return p
}

// Desc reports whether results are ordered descending.
func (p ListParams) Desc() bool { return p.Order != OrderAsc }

// Page is a page of results plus the total number of matches before paging.
type Page[T any] struct {
	Items  []T `json:"items"`
	Total  int `json:"total"`
	Offset int `json:"offset"`
	Limit  int `json:"limit"`
}

// NewPage builds a Page, never returning a nil Items slice.
func NewPage[T any](items []T, total int, p ListParams) Page[T] {
	if items == nil {
		items = []T{}
	}
	return Page[T]{Items: items, Total: total, Offset: p.Offset, Limit: p.Limit}
}
