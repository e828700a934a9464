package worker

import (
	"context"
	"runtime"
	"sync"

	"golang.org/x/sync/semaphore"
)

// Pool limits the number of concurrently executing operations
type Pool struct {
	sem  *semaphore.Weighted
	size int
	wg   sync.WaitGroup
}

// NewPool returns a pool running at most size operations at once. A non
// positive size means GOMAXPROCS.
func NewPool(size int) *Pool {
	if size <= 0 {
		size = runtime.GOMAXPROCS(0)
	}
	return &Pool{
		sem:  semaphore.NewWeighted(int64(size)),
		size: size,
	}
}

func (p *Pool) Size() int { return p.size }

var (
	defaultPool     *Pool
	defaultPoolOnce sync.Once
)

// DefaultPool is shared by every Queue call with a nil pool
func DefaultPool() *Pool {
	defaultPoolOnce.Do(func() {
		defaultPool = NewPool(0)
	})
	return defaultPool
}

func poolOrDefault(p *Pool) *Pool {
	if p == nil {
		return DefaultPool()
	}
	return p
}

func (p *Pool) submit(ctx context.Context, task func(), cancel func(error)) {
	if ctx == nil {
		ctx = context.Background()
	}
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		if err := p.sem.Acquire(ctx, 1); err != nil {
			cancel(err)
			return
		}
		defer p.sem.Release(1)
		task()
	}()
}

// Wait blocks until every submitted operation has finished
func (p *Pool) Wait() {
	p.wg.Wait()
}
