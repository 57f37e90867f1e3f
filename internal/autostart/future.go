package autostart

import "context"

// Future is the pending result of an autostart operation. It completes
// exactly once.
type Future[T any] struct {
	done chan struct{}
	val  T
	err  error
}

func startFuture[T any](fn func() (T, error)) *Future[T] {
	f := &Future[T]{done: make(chan struct{})}
	go func() {
		defer close(f.done)
		f.val, f.err = fn()
	}()
	return f
}

// Done is closed once the operation has finished.
func (f *Future[T]) Done() <-chan struct{} { return f.done }

// Await blocks until the operation finishes or ctx is done. Giving up on
// ctx does not cancel the operation itself.
func (f *Future[T]) Await(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		return f.val, f.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// Result blocks until the operation finishes.
func (f *Future[T]) Result() (T, error) {
	<-f.done
	return f.val, f.err
}
