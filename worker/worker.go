// Package worker runs an operation either inline or on a bounded goroutine
// pool, with one error path for both.
//
// Every operation goes through the same phases: Setup validates the inputs
// on the calling goroutine, Execute does the expensive work and Collect
// builds the result. Run executes all three inline. Queue runs Setup inline
// and hands Execute and Collect to a Pool, returning a Future.
package worker

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync/atomic"

	"github.com/signatory-io/bls-core/logger"
)

type State int32

const (
	StateCreated State = iota
	StateSetup
	StateExecute
	StateCollect
	StateCompleted
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateCreated:
		return "created"
	case StateSetup:
		return "setup"
	case StateExecute:
		return "execute"
	case StateCollect:
		return "collect"
	case StateCompleted:
		return "completed"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("State(%d)", int32(s))
	}
}

// Op is a single-use operation. Setup is always called on the goroutine which
// started the worker. Execute and Collect may be called on a pool goroutine
// and must not touch caller owned objects other than what Setup prepared.
type Op[T any] interface {
	Setup() error
	Execute() error
	Collect() (T, error)
}

var ErrReused = errors.New("worker: worker can't be started twice")

// PanicError is returned in place of a panic raised by one of the phases
type PanicError struct {
	Phase State
	Value any
	Stack []byte
}

func (p *PanicError) Error() string {
	return fmt.Sprintf("worker: panic during %v: %v", p.Phase, p.Value)
}

func (p *PanicError) Unwrap() error {
	if err, ok := p.Value.(error); ok {
		return err
	}
	return nil
}

type Worker[T any] struct {
	op    Op[T]
	state atomic.Int32
	log   logger.Logger
}

func New[T any](op Op[T], log logger.Logger) *Worker[T] {
	return &Worker[T]{
		op:  op,
		log: logger.OrNop(log),
	}
}

func (w *Worker[T]) State() State { return State(w.state.Load()) }

func (w *Worker[T]) start() error {
	if !w.state.CompareAndSwap(int32(StateCreated), int32(StateSetup)) {
		return ErrReused
	}
	return nil
}

func (w *Worker[T]) phase(s State, fn func() error) (err error) {
	w.state.Store(int32(s))
	w.log.Tracef("worker: %v", s)
	defer func() {
		if r := recover(); r != nil {
			err = &PanicError{Phase: s, Value: r, Stack: debug.Stack()}
		}
	}()
	return fn()
}

func (w *Worker[T]) fail(err error) error {
	w.log.Tracef("worker: %v: %v", StateFailed, err)
	w.state.Store(int32(StateFailed))
	return err
}

func (w *Worker[T]) setup() error {
	if err := w.start(); err != nil {
		return err
	}
	if err := w.phase(StateSetup, w.op.Setup); err != nil {
		return w.fail(err)
	}
	return nil
}

func (w *Worker[T]) finish() (T, error) {
	var zero T
	if err := w.phase(StateExecute, w.op.Execute); err != nil {
		return zero, w.fail(err)
	}
	var res T
	err := w.phase(StateCollect, func() (err error) {
		res, err = w.op.Collect()
		return
	})
	if err != nil {
		return zero, w.fail(err)
	}
	w.state.Store(int32(StateCompleted))
	w.log.Tracef("worker: %v", StateCompleted)
	return res, nil
}

// Run executes all phases on the calling goroutine
func (w *Worker[T]) Run() (T, error) {
	if err := w.setup(); err != nil {
		var zero T
		return zero, err
	}
	return w.finish()
}

// Queue runs Setup on the calling goroutine and schedules the rest on pool.
// Setup errors are delivered through the returned Future as well. ctx is only
// consulted while waiting for a free pool slot.
func (w *Worker[T]) Queue(ctx context.Context, pool *Pool) *Future[T] {
	f := newFuture[T]()
	if err := w.setup(); err != nil {
		var zero T
		f.complete(zero, err)
		return f
	}
	pool = poolOrDefault(pool)
	pool.submit(ctx, func() {
		f.complete(w.finish())
	}, func(err error) {
		var zero T
		f.complete(zero, w.fail(err))
	})
	return f
}

// Run is a shortcut for New(op, log).Run()
func Run[T any](op Op[T], log logger.Logger) (T, error) {
	return New(op, log).Run()
}

// Queue is a shortcut for New(op, log).Queue(ctx, pool)
func Queue[T any](ctx context.Context, pool *Pool, op Op[T], log logger.Logger) *Future[T] {
	return New(op, log).Queue(ctx, pool)
}
