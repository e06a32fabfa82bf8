package services

import (
	"context"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"
)

// bulkConcurrency bounds the in-flight requests of one [FetchAll].
const bulkConcurrency = 8

// FetchAll resolves every id concurrently and returns the successes in input order.
//
// It is best-effort: a failed id is logged at warn level and left out.
func FetchAll[T any](ctx context.Context, ids []string, logger *log.Logger, fetch func(context.Context, string) (*T, error)) []T {
	results := make([]*T, len(ids))

	var g errgroup.Group
	g.SetLimit(bulkConcurrency)
	for i, id := range ids {
		g.Go(func() error {
			v, err := fetch(ctx, id)
			if err != nil {
				if logger != nil {
					logger.Warn("dropping failed item", "id", id, "err", err)
				}
				return nil
			}
			results[i] = v
			return nil
		})
	}
	_ = g.Wait()

	out := make([]T, 0, len(ids))
	for _, v := range results {
		if v != nil {
			out = append(out, *v)
		}
	}
	return out
}
