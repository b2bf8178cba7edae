package resources

// Criteria is one (field, operator, value) filter unit supplied by a caller.
// Key may address a field of a to-one relation as "relation.field".
type Criteria struct {
	Key       string `json:"key"`
	Operation string `json:"operation"`
	Value     any    `json:"value"`
}

// PageRequest selects a page of a sorted result set. Page is zero-based.
type PageRequest struct {
	Page      int    `json:"page"`
	Size      int    `json:"size"`
	SortBy    string `json:"sortBy"`
	Ascending bool   `json:"ascending"`
}

type Page[T any] struct {
	Items         []T   `json:"content"`
	TotalElements int64 `json:"totalElements"`
	TotalPages    int   `json:"totalPages"`
	Page          int   `json:"page"`
	Size          int   `json:"size"`
}

// NewPage computes the page count for total rows at the requested size.
func NewPage[T any](items []T, total int64, req PageRequest) Page[T] {
	if items == nil {
		items = []T{}
	}
	pages := 0
	if req.Size > 0 {
		pages = int((total + int64(req.Size) - 1) / int64(req.Size))
	}
	return Page[T]{
		Items:         items,
		TotalElements: total,
		TotalPages:    pages,
		Page:          req.Page,
		Size:          req.Size,
	}
}

// MapPage converts the items of p with fn, keeping paging metadata.
func MapPage[T, U any](p Page[T], fn func(T) U) Page[U] {
	out := make([]U, 0, len(p.Items))
	for _, item := range p.Items {
		out = append(out, fn(item))
	}
	return Page[U]{
		Items:         out,
		TotalElements: p.TotalElements,
		TotalPages:    p.TotalPages,
		Page:          p.Page,
		Size:          p.Size,
	}
}
