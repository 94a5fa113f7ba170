package waitgate

// Advanced: Layering Gated Collections on a Gate
//
// A Gate is deliberately condition-free: it only knows how to block, wake,
// and shut down. Collections that need blocking semantics layer their own
// condition on top with WaitUntil/WaitUntilFor, keeping the shared state in
// fields the predicate can read cheaply.
//
// Design notes:
//   - Keep predicates lock-free. They run under the gate's internal lock,
//     possibly on a notifying goroutine's behalf; read atomics
//     (sync/atomic) rather than taking the collection's own mutex, or the
//     two locks end up ordered against each other.
//   - Notify after every state change a predicate might observe: an insert,
//     a removal, a flag flip. Notify wakes all waiters, so each re-checks
//     its own predicate and the uninterested ones go back to sleep.
//   - A successful predicate wait is a hint, not a reservation. Re-validate
//     under the collection's mutex before mutating, and go back to waiting
//     (with the remaining deadline) if another goroutine won the race.
//   - Use Exit for teardown only. It is one-way: every blocked and future
//     wait fails, which is exactly what a draining shutdown wants and
//     exactly wrong for per-call cancellation; use WaitUntilContext for the
//     latter.
//
// Minimal outline:
//
//	type box[T any] struct {
//	    mu    sync.Mutex
//	    gate  *waitgate.Gate
//	    size  atomic.Int32
//	    items []T
//	}
//
//	func (b *box[T]) put(v T) {
//	    b.mu.Lock()
//	    b.items = append(b.items, v)
//	    b.size.Store(int32(len(b.items)))
//	    b.mu.Unlock()
//	    b.gate.Notify()
//	}
//
//	func (b *box[T]) take(timeout time.Duration) (T, bool) {
//	    var zero T
//	    st := b.gate.WaitUntilFor(func() bool { return b.size.Load() > 0 }, timeout)
//	    if st != waitgate.Success {
//	        return zero, false
//	    }
//	    b.mu.Lock()
//	    defer b.mu.Unlock()
//	    if len(b.items) == 0 { // lost the race; real code loops
//	        return zero, false
//	    }
//	    v := b.items[0]
//	    b.items = b.items[1:]
//	    b.size.Store(int32(len(b.items)))
//	    return v, true
//	}
//
// The gatedqueue sub-package is the full version of this pattern: bounded
// capacity, independent push/pop gates, and discard policies, all blocking
// through a single shared Gate.
