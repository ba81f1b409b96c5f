package tensor

import (
	"sync"
	"sync/atomic"
)

// workers controls goroutine parallelism for batched kernels such as
// PairwiseEuclidean. Values <= 1 disable parallel execution.
var workers atomic.Int32

func init() {
	workers.Store(1)
}

// SetWorkers sets the default number of goroutines used by tensor kernels.
// n <= 1 disables kernel parallelism.
func SetWorkers(n int) {
	const maxInt32 = int(^uint32(0) >> 1)

	if n < 1 {
		n = 1
	}

	if n > maxInt32 {
		n = maxInt32
	}

	workers.Store(int32(n))
}

// Workers reports the current default set by SetWorkers.
func Workers() int {
	n := int(workers.Load())
	if n < 1 {
		return 1
	}

	return n
}

// ParallelFor splits [0,n) into at most maxWorkers contiguous chunks and runs
// fn on each chunk in its own goroutine. maxWorkers <= 0 uses Workers().
func ParallelFor(n, maxWorkers int, fn func(lo, hi int)) {
	if n <= 0 {
		return
	}

	if maxWorkers <= 0 {
		maxWorkers = Workers()
	}

	if maxWorkers == 1 || n == 1 {
		fn(0, n)
		return
	}

	if maxWorkers > n {
		maxWorkers = n
	}

	chunk := (n + maxWorkers - 1) / maxWorkers

	var wg sync.WaitGroup

	for lo := 0; lo < n; lo += chunk {
		hi := min(lo+chunk, n)

		wg.Add(1)

		go func(lo, hi int) {
			defer wg.Done()
			fn(lo, hi)
		}(lo, hi)
	}

	wg.Wait()
}
