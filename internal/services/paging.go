package services

import "todo-service.com/todo-service/pkg/resources"

// Paging bounds the page size a caller may ask for.
type Paging struct {
	DefaultSize int
	MaxSize     int
}

func DefaultPaging() Paging {
	return Paging{DefaultSize: 20, MaxSize: 100}
}

func (p Paging) normalize(req resources.PageRequest, defaultSort string) resources.PageRequest {
	if req.Page < 0 {
		req.Page = 0
	}
	if req.Size <= 0 {
		req.Size = p.DefaultSize
	}
	if p.MaxSize > 0 && req.Size > p.MaxSize {
		req.Size = p.MaxSize
	}
	if req.SortBy == "" {
		req.SortBy = defaultSort
		req.Ascending = true
	}
	return req
}
