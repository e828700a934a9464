package worker

import (
	"context"
	"errors"
)

var ErrPending = errors.New("worker: result is not ready yet")

// Future holds the outcome of a queued operation
type Future[T any] struct {
	done chan struct{}
	res  T
	err  error
}

func newFuture[T any]() *Future[T] {
	return &Future[T]{done: make(chan struct{})}
}

func (f *Future[T]) complete(res T, err error) {
	f.res, f.err = res, err
	close(f.done)
}

// Done is closed once the result is available
func (f *Future[T]) Done() <-chan struct{} { return f.done }

// Wait blocks until the operation completes or ctx is done. Abandoning the
// wait doesn't stop the operation.
func (f *Future[T]) Wait(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		return f.res, f.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// Result returns the outcome without blocking or ErrPending
func (f *Future[T]) Result() (T, error) {
	select {
	case <-f.done:
		return f.res, f.err
	default:
		var zero T
		return zero, ErrPending
	}
}
