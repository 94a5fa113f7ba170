// Package waitgate provides a reusable blocking/notify primitive for
// cross-goroutine coordination.
//
// A Gate lets any number of goroutines block until they are notified, a
// timeout elapses, or the gate is shut down. Every wait reports one of three
// outcomes: Success, Timeout, or Exited. Waits may optionally carry a
// predicate, re-evaluated on every wake, so callers can express "block until
// this condition holds" without hand-rolling a condition variable loop. Exit
// is sticky: once requested, all current and future waits on the gate return
// Exited, which makes teardown race-free.
//
// Construct a gate with New; the zero value is not ready for use. All methods
// are safe for concurrent use. The gatedqueue sub-package builds a bounded,
// gated FIFO on top of this primitive.
package waitgate
