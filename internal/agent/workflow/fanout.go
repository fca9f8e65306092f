package workflow

import (
	"context"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
)

// fanOut calls fn for every index in [0, n). In parallel mode calls run
// concurrently and never cancel each other; fn must write its result into an
// index-owned slot so output order stays the query order. The returned slice
// holds each call's error by index.
func fanOut(ctx context.Context, n int, parallel bool, fn func(ctx context.Context, i int) error) []error {
	errs := make([]error, n)
	if !parallel || n < 2 {
		for i := 0; i < n; i++ {
			errs[i] = fn(ctx, i)
		}
		return errs
	}

	var g errgroup.Group
	for i := 0; i < n; i++ {
		g.Go(func() error {
			errs[i] = fn(ctx, i)
			return nil
		})
	}
	_ = g.Wait()
	return errs
}

// cleanQuery trims the query and collapses internal whitespace.
func cleanQuery(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// withTimeout bounds one provider call. A zero timeout leaves ctx unchanged.
func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, d)
}
