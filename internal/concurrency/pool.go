// Package concurrency provides a small reusable fan-out helper for
// CPU-bound per-row work, used by bulk propagation.
package concurrency

import (
	"context"
	"sync"
)

type WorkerFn func(ctx context.Context, index int)

// ForEach runs fn for every index in [0, tasks) across at most
// concurrency goroutines and waits for all of them. fn must be safe to
// call concurrently for distinct indexes.
func ForEach(ctx context.Context, concurrency, tasks int, fn WorkerFn) {
	if tasks <= 0 {
		return
	}
	if concurrency > tasks {
		concurrency = tasks
	}
	if concurrency <= 0 {
		concurrency = 1
	}

	idx := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < concurrency; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range idx {
				fn(ctx, i)
			}
		}()
	}

	for i := 0; i < tasks; i++ {
		select {
		case idx <- i:
		case <-ctx.Done():
			close(idx)
			wg.Wait()
			return
		}
	}
	close(idx)
	wg.Wait()
}
