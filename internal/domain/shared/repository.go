package shared

const (
	DefaultPage     = 1
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Pagination holds 1-based page parameters
type Pagination struct {
	Page int
	Size int
}

// Normalize clamps page and size into their accepted ranges
func (p Pagination) Normalize() Pagination {
	if p.Page < 1 {
		p.Page = DefaultPage
	}
	if p.Size < 1 {
		p.Size = DefaultPageSize
	}
	if p.Size > MaxPageSize {
		p.Size = MaxPageSize
	}
	return p
}

// Offset returns the row offset of the page
func (p Pagination) Offset() int {
	return (p.Page - 1) * p.Size
}

// Paginated represents one page of results
type Paginated[T any] struct {
	Items    []T
	Page     int
	Size     int
	Total    int64
	NextPage *int
}

// NewPaginated creates a paginated result, computing the next page if any
func NewPaginated[T any](items []T, total int64, p Pagination) Paginated[T] {
	result := Paginated[T]{Items: items, Page: p.Page, Size: p.Size, Total: total}
	if int64(p.Page*p.Size) < total {
		next := p.Page + 1
		result.NextPage = &next
	}
	return result
}

// Sort is a requested ordering. Repositories validate Field against their
// own whitelist and fall back to created_at descending.
type Sort struct {
	Field     string
	Direction string
}
