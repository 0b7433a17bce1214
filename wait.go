package texcache

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// WaitAll waits for every resource to finish loading. It returns the first
// failure; the remaining waits are canceled.
func WaitAll(ctx context.Context, resources ...*Resource) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, r := range resources {
		g.Go(func() error {
			return r.Wait(ctx)
		})
	}
	return g.Wait()
}
