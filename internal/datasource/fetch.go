// Package datasource supplies datasets from external services. Live fetches
// run in parallel under one timeout; any failure substitutes static data.
package datasource

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/KaramelBytes/tabula-cli/internal/apperrors"
)

// FetchFunc retrieves one independent piece of data.
type FetchFunc[T any] func(ctx context.Context) (T, error)

// FetchAll runs every fetcher concurrently and waits for all of them.
// It returns results in fetcher order, or an error wrapping
// ErrUpstreamUnavailable if any fetch fails or the timeout elapses first.
// Partial results are never returned.
func FetchAll[T any](ctx context.Context, timeout time.Duration, fetchers ...FetchFunc[T]) ([]T, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	results := make([]T, len(fetchers))
	g, gctx := errgroup.WithContext(ctx)
	for i, fetch := range fetchers {
		g.Go(func() error {
			v, err := fetch(gctx)
			if err != nil {
				return err
			}
			results[i] = v
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("%w: %w", apperrors.ErrUpstreamUnavailable, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", apperrors.ErrUpstreamUnavailable, err)
	}
	return results, nil
}
