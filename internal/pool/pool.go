package pool

import (
	"context"
	"fmt"
	"sync"
)

// Result pairs one item's outcome with its error, if any.
type Result[R any] struct {
	Value R
	Err   error
}

// Run processes items with at most limit worker invocations in flight at
// once. Every item is processed exactly once; completion order is
// unspecified but results are indexed by input position. A worker error or
// panic is isolated into that item's Result and does not abort the rest.
func Run[T, R any](ctx context.Context, items []T, limit int, worker func(context.Context, T) (R, error)) []Result[R] {
	results := make([]Result[R], len(items))
	if len(items) == 0 {
		return results
	}

	if limit < 1 {
		limit = 1
	}
	if limit > len(items) {
		limit = len(items)
	}

	indexes := make(chan int)

	var wg sync.WaitGroup
	wg.Add(limit)
	for w := 0; w < limit; w++ {
		go func() {
			defer wg.Done()
			for idx := range indexes {
				results[idx] = runOne(ctx, items[idx], worker)
			}
		}()
	}

	for i := range items {
		indexes <- i
	}
	close(indexes)
	wg.Wait()

	return results
}

// runOne invokes the worker, converting a panic into an error.
func runOne[T, R any](ctx context.Context, item T, worker func(context.Context, T) (R, error)) (res Result[R]) {
	defer func() {
		if r := recover(); r != nil {
			res.Err = fmt.Errorf("worker panic: %v", r)
		}
	}()

	res.Value, res.Err = worker(ctx, item)
	return res
}
