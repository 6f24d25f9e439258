package ops

import (
	"sync/atomic"
)

// slot tracks one operation class: Idle -> Running -> terminal result.
// At most one instance is in flight; the terminal result is handed to the
// poller exactly once, returning the slot to Idle. The result channel is
// buffered so an abandoned operation (nobody polls after the shell exits)
// can still finish its goroutine without blocking process exit.
type slot[T any] struct {
	running atomic.Bool
	results chan T
}

func newSlot[T any]() *slot[T] {
	return &slot[T]{results: make(chan T, 1)}
}

// start launches run in a goroutine. Returns false without spawning when an
// instance of this class is still in flight or its result is unclaimed.
func (s *slot[T]) start(run func() T) bool {
	if !s.running.CompareAndSwap(false, true) {
		return false
	}
	go func() {
		s.results <- run()
	}()
	return true
}

// poll never blocks: it returns (zero, false) while Idle or Running, and
// the terminal result exactly once when one is ready.
func (s *slot[T]) poll() (T, bool) {
	select {
	case result := <-s.results:
		s.running.Store(false)
		return result, true
	default:
		var zero T
		return zero, false
	}
}

// busy reports whether an operation of this class is in flight (or finished
// but not yet polled).
func (s *slot[T]) busy() bool {
	return s.running.Load()
}
