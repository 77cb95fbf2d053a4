package models

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}

// CatalogFilter describes query params for listing master data.
type CatalogFilter struct {
	Search     string
	Department string
	Page       int
	PageSize   int
}

// Normalize applies default paging bounds.
func (f CatalogFilter) Normalize() CatalogFilter {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.PageSize <= 0 || f.PageSize > 100 {
		f.PageSize = 20
	}
	return f
}

// Offset returns the row offset for the current page.
func (f CatalogFilter) Offset() int {
	n := f.Normalize()
	return (n.Page - 1) * n.PageSize
}
