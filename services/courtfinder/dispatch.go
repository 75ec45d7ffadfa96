package courtfinder

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
)

// RunQueue runs `worker` over every item with at most n concurrent workers.
// workers claim the next unclaimed index until none are left, result i
// belongs to item i. n < 1 is treated as 1.
func RunQueue[T, R any](ctx context.Context, n int, items []T, worker func(ctx context.Context, index int, item T) R) []R {
	results := make([]R, len(items))
	if n < 1 {
		n = 1
	}
	if n > len(items) {
		n = len(items)
	}

	var next atomic.Int64
	var wg sync.WaitGroup
	wg.Add(n)
	for w := 0; w < n; w++ {
		go func() {
			defer wg.Done()
			for {
				k := int(next.Add(1) - 1)
				if k >= len(items) {
					return
				}
				results[k] = worker(ctx, k, items[k])
			}
		}()
	}
	wg.Wait()

	return results
}

// Dispatch searches every job with `concurrency` workers. a job that panics
// or fails is reported as a failed result, it never stops the others.
func Dispatch(ctx context.Context, searcher Searcher, jobs []SearchJob, concurrency int) []SlotResult {
	ctx, span := tracer.Start(ctx, "Dispatch")
	defer span.End()

	return RunQueue(ctx, concurrency, jobs, func(ctx context.Context, _ int, job SearchJob) (result SlotResult) {
		defer func() {
			if r := recover(); r != nil {
				result = failedResult(job, fmt.Errorf("search panicked: %v", r))
			}
		}()
		return searcher.Search(ctx, job)
	})
}
