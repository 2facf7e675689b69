package concurrency

import (
	"context"
	"sync/atomic"
	"testing"
)

func TestForEachVisitsEveryIndexOnce(t *testing.T) {
	const tasks = 200
	var visits [tasks]int32

	ForEach(context.Background(), 8, tasks, func(_ context.Context, i int) {
		atomic.AddInt32(&visits[i], 1)
	})

	for i, n := range visits {
		if n != 1 {
			t.Fatalf("index %d visited %d times", i, n)
		}
	}
}

func TestForEachZeroTasks(t *testing.T) {
	ForEach(context.Background(), 4, 0, func(context.Context, int) {
		t.Fatal("fn must not run for zero tasks")
	})
}

func TestForEachClampsConcurrency(t *testing.T) {
	var count int32
	ForEach(context.Background(), 0, 3, func(_ context.Context, _ int) {
		atomic.AddInt32(&count, 1)
	})
	if count != 3 {
		t.Fatalf("count = %d, want 3", count)
	}
}

func TestForEachStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	var count int32
	ForEach(ctx, 1, 1000, func(_ context.Context, _ int) {
		if atomic.AddInt32(&count, 1) == 10 {
			cancel()
		}
	})

	if n := atomic.LoadInt32(&count); n >= 1000 {
		t.Fatalf("cancellation did not stop the fan-out, ran %d tasks", n)
	}
}
