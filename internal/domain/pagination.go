package domain

import "math"

const (
	DefaultLimit = 25
	MaxLimit     = 100

	// MaxPage keeps Offset within int for any clamped limit.
	MaxPage = math.MaxInt/MaxLimit + 1
)

type PaginationParams struct {
	Page  int `json:"page" query:"page"`
	Limit int `json:"limit" query:"limit"`
}

type PaginatedResponse[T any] struct {
	Items      []T   `json:"items"`
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
	HasPrev    bool  `json:"has_prev"`
}

func NewPaginatedResponse[T any](items []T, page, limit int, total int64) PaginatedResponse[T] {
	if items == nil {
		items = []T{}
	}
	totalPages := int((total + int64(limit) - 1) / int64(limit))

	return PaginatedResponse[T]{
		Items:      items,
		Page:       page,
		Limit:      limit,
		Total:      total,
		TotalPages: totalPages,
		HasNext:    page < totalPages,
		HasPrev:    page > 1,
	}
}

func DefaultPagination() PaginationParams {
	return PaginationParams{
		Page:  1,
		Limit: DefaultLimit,
	}
}

// Validate clamps page to [1, MaxPage] and limit to [1, MaxLimit]. A zero limit
// means "not given" and falls back to DefaultLimit.
func (p *PaginationParams) Validate() {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Page > MaxPage {
		p.Page = MaxPage
	}
	if p.Limit == 0 {
		p.Limit = DefaultLimit
	}
	if p.Limit < 1 {
		p.Limit = 1
	}
	if p.Limit > MaxLimit {
		p.Limit = MaxLimit
	}
}

func (p *PaginationParams) Offset() int {
	return (p.Page - 1) * p.Limit
}
