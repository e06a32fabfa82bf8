// Package pagination normalizes limit/offset input and builds [models.Paginated] pages.
//
// Providers disagree on page numbering: saavn and qobuz-style APIs take 1-based
// pages or raw offsets while gaana takes 0-based pages. [Params] carries both.
package pagination

import "github.com/desertthunder/tunex/internal/models"

const (
	DefaultLimit = 10
	MaxLimit     = 100
)

// Params is a normalized page request.
type Params struct {
	Page   int // 1-based
	Limit  int
	Offset int
}

// ZeroPage returns the 0-based page index.
func (p Params) ZeroPage() int { return p.Page - 1 }

// Normalize clamps limit to [1, MaxLimit] and offset to >= 0.
//
// A limit of zero or less means DefaultLimit. The result is a fixed point:
// Normalize(p.Limit, p.Offset) == p.
func Normalize(limit, offset int) Params {
	switch {
	case limit <= 0:
		limit = DefaultLimit
	case limit > MaxLimit:
		limit = MaxLimit
	}
	if offset < 0 {
		offset = 0
	}
	return Params{Page: offset/limit + 1, Limit: limit, Offset: offset}
}

type options struct {
	limit   *int
	hasNext *bool
}

// Option overrides a derived field of [Paginate].
type Option func(*options)

// WithLimit reports limit instead of len(items).
func WithLimit(limit int) Option {
	return func(o *options) { o.limit = &limit }
}

// WithHasNext replaces the arithmetic hasNext with a provider-reported value.
func WithHasNext(hasNext bool) Option {
	return func(o *options) { o.hasNext = &hasNext }
}

// Paginate wraps items into a page.
//
// Without [WithHasNext], HasNext is offset+len(items) < total.
func Paginate[T any](items []T, total, offset int, opts ...Option) models.Paginated[T] {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	if items == nil {
		items = []T{}
	}

	limit := len(items)
	if o.limit != nil {
		limit = *o.limit
	}

	hasNext := offset+len(items) < total
	if o.hasNext != nil {
		hasNext = *o.hasNext
	}

	return models.Paginated[T]{
		Total:   total,
		Offset:  offset,
		Limit:   limit,
		HasNext: hasNext,
		Items:   items,
	}
}
