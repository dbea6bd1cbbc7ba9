package bootstrap

import (
	"runtime"
	"sync"
)

// Executor runs fn once for every replicate index in [0, n), in parallel or
// serially depending on implementation. fn must be a pure function of its
// index: it must not touch any RNG shared across calls (SPEC_FULL.md §5).
type Executor interface {
	Run(n, chunkHint int, fn func(i int))
}

// SingleThreadExecutor runs every replicate on the calling goroutine. Useful
// for small B, deterministic profiling, or callers that already parallelize
// at a higher level.
type SingleThreadExecutor struct{}

// Run implements Executor.
func (SingleThreadExecutor) Run(n, _ int, fn func(i int)) {
	for i := 0; i < n; i++ {
		fn(i)
	}
}

// WorkerPoolExecutor runs replicate indices across a fixed pool of
// goroutines pulling fixed-size chunks off a shared channel, matching the
// host platform's own concurrency idiom: plain goroutines, a buffered
// channel, and sync.WaitGroup — no golang.org/x/sync/errgroup.
type WorkerPoolExecutor struct {
	// Workers is the number of goroutines in the pool. <=0 uses GOMAXPROCS.
	Workers int
}

type chunk struct{ start, end int }

// Run implements Executor. chunkHint, when >0, overrides the pool's default
// chunk size (ceil(n/workers)).
func (e WorkerPoolExecutor) Run(n, chunkHint int, fn func(i int)) {
	if n <= 0 {
		return
	}

	workers := e.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if workers > n {
		workers = n
	}

	size := chunkHint
	if size <= 0 {
		size = (n + workers - 1) / workers
		if size < 1 {
			size = 1
		}
	}

	jobs := make(chan chunk, workers)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for c := range jobs {
				for i := c.start; i < c.end; i++ {
					fn(i)
				}
			}
		}()
	}

	for start := 0; start < n; start += size {
		end := start + size
		if end > n {
			end = n
		}
		jobs <- chunk{start: start, end: end}
	}
	close(jobs)
	wg.Wait()
}
