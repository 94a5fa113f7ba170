// Package gatedqueue provides a bounded, gated, concurrency-safe FIFO queue
// built on the waitgate primitive.
//
// The queue is bounded by an optional capacity, gated by independently
// controllable push/pop gates, and handles overflow according to a discard
// policy: block until space frees up (NoDiscard), evict the oldest element
// (DiscardOldest), or reject the incoming element (DiscardNewest). All
// blocking behavior goes through a single shared waitgate.Gate; every state
// change notifies it so blocked producers and consumers re-check their
// condition.
//
// Construct a queue with New. The zero value is not ready for use, and a
// queue must not be copied after construction. All exported methods except
// SetDiscardedCallback are safe for concurrent use.
package gatedqueue

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/syncware/waitgate"
)

// Status classifies the queue's fill level. It is recomputed after every
// structural mutation: Empty iff the queue holds no elements, Full iff it
// holds at least Capacity elements, Normal otherwise.
type Status int32

const (
	Empty Status = iota
	Normal
	Full
)

// String returns a short lower-case name for the status.
func (s Status) String() string {
	switch s {
	case Empty:
		return "empty"
	case Normal:
		return "normal"
	case Full:
		return "full"
	}
	return "unknown"
}

// DiscardPolicy is the rule applied when pushing into a full queue.
type DiscardPolicy int

const (
	// NoDiscard blocks the push until the queue is no longer full, the push
	// gate closes, or the timeout expires.
	NoDiscard DiscardPolicy = iota
	// DiscardOldest evicts the head element to make room for the new one.
	DiscardOldest
	// DiscardNewest rejects the incoming element; the queue is unchanged.
	DiscardNewest
)

// String returns a short name for the policy.
func (p DiscardPolicy) String() string {
	switch p {
	case NoDiscard:
		return "no-discard"
	case DiscardOldest:
		return "discard-oldest"
	case DiscardNewest:
		return "discard-newest"
	}
	return "unknown"
}

// ControlScope selects which of push and pop are subject to explicit
// open/close gating. A gate outside the scope is permanently open from
// construction and Open/Close calls on it are no-ops; a gate under the
// scope starts closed and must be opened before the operation can proceed.
type ControlScope int

const (
	ControlNone ControlScope = iota
	ControlPush
	ControlPop
	ControlBoth
)

// String returns a short name for the scope.
func (c ControlScope) String() string {
	switch c {
	case ControlNone:
		return "none"
	case ControlPush:
		return "push"
	case ControlPop:
		return "pop"
	case ControlBoth:
		return "both"
	}
	return "unknown"
}

// Forever makes a blocking call wait indefinitely.
const Forever = waitgate.Forever

// Settings configures a queue at construction time.
type Settings struct {
	// Discard is the overflow policy. The zero value is NoDiscard.
	Discard DiscardPolicy
	// Control selects which gates are explicitly controllable. The zero
	// value is ControlNone: both gates are permanently open.
	Control ControlScope
	// Capacity bounds the queue. Zero or negative means unbounded, in which
	// case the queue never reports Full and the discard policy never fires.
	Capacity int
}

// Queue is a bounded, gated FIFO of T.
//
// Elements are appended at the tail and removed from the head. Structural
// state is protected by one mutex per queue; the gate booleans and the fill
// status are kept in atomics so the fast paths and wait predicates can read
// them without the lock.
type Queue[T any] struct {
	settings Settings

	mu    sync.Mutex
	items []T

	status   atomic.Int32
	pushOpen atomic.Bool
	popOpen  atomic.Bool

	gate      *waitgate.Gate
	discarded func(T)
}

// New creates a queue with the given settings.
//
// Gates under the control scope start closed; the others start open and stay
// open for the queue's lifetime. The returned queue must be shared by
// pointer, never copied.
func New[T any](settings Settings) *Queue[T] {
	q := &Queue[T]{
		settings: settings,
		gate:     waitgate.New(),
	}
	if settings.Capacity > 0 {
		q.items = make([]T, 0, settings.Capacity)
	}
	if !q.pushControllable() {
		q.pushOpen.Store(true)
	}
	if !q.popControllable() {
		q.popOpen.Store(true)
	}
	return q
}

// SetDiscardedCallback installs fn, invoked synchronously on the pushing
// goroutine with each element a push discards (the evicted head under
// DiscardOldest, the rejected incoming element under DiscardNewest).
//
// Not guarded against concurrent queue use: install it before producers and
// consumers start.
func (q *Queue[T]) SetDiscardedCallback(fn func(T)) {
	q.discarded = fn
}

func (q *Queue[T]) pushControllable() bool {
	return q.settings.Control == ControlPush || q.settings.Control == ControlBoth
}

func (q *Queue[T]) popControllable() bool {
	return q.settings.Control == ControlPop || q.settings.Control == ControlBoth
}

// OpenPush opens the push gate. No-op unless push is under the control scope.
func (q *Queue[T]) OpenPush() {
	if !q.pushControllable() {
		return
	}
	q.pushOpen.Store(true)
	q.gate.Notify()
}

// ClosePush closes the push gate and wakes blocked pushes so they can fail.
// No-op unless push is under the control scope.
func (q *Queue[T]) ClosePush() {
	if !q.pushControllable() {
		return
	}
	q.pushOpen.Store(false)
	q.gate.Notify()
}

// OpenPop opens the pop gate. No-op unless pop is under the control scope.
func (q *Queue[T]) OpenPop() {
	if !q.popControllable() {
		return
	}
	q.popOpen.Store(true)
	q.gate.Notify()
}

// ClosePop closes the pop gate and wakes blocked pops so they can fail.
// No-op unless pop is under the control scope.
func (q *Queue[T]) ClosePop() {
	if !q.popControllable() {
		return
	}
	q.popOpen.Store(false)
	q.gate.Notify()
}

// Push appends v at the tail, blocking as long as necessary when the queue
// is full under NoDiscard. Returns false if the push gate is or becomes
// closed, or if the element is rejected by DiscardNewest.
func (q *Queue[T]) Push(v T) bool {
	return q.push(v, Forever, nil)
}

// PushFor is Push bounded by timeout. A full NoDiscard queue fails the push
// after roughly timeout; a zero timeout never blocks.
func (q *Queue[T]) PushFor(v T, timeout time.Duration) bool {
	return q.push(v, timeout, nil)
}

// TryPush is Push without blocking.
func (q *Queue[T]) TryPush(v T) bool {
	return q.push(v, 0, nil)
}

// PushContext is Push bounded by ctx; cancellation fails the push.
func (q *Queue[T]) PushContext(ctx context.Context, v T) bool {
	return q.push(v, Forever, ctx)
}

// Pop removes and returns the head element, blocking as long as necessary
// while the queue is empty. ok is false if the pop gate is or becomes
// closed.
func (q *Queue[T]) Pop() (v T, ok bool) {
	return q.pop(Forever, nil)
}

// PopFor is Pop bounded by timeout. An empty queue fails the pop after
// roughly timeout; a zero timeout never blocks.
func (q *Queue[T]) PopFor(timeout time.Duration) (v T, ok bool) {
	return q.pop(timeout, nil)
}

// TryPop is Pop without blocking.
func (q *Queue[T]) TryPop() (v T, ok bool) {
	return q.pop(0, nil)
}

// PopContext is Pop bounded by ctx; cancellation fails the pop.
func (q *Queue[T]) PopContext(ctx context.Context) (v T, ok bool) {
	return q.pop(Forever, ctx)
}

// WaitPushOpen blocks until the push gate is open. Returns false if the gate
// did not open within the timeout, or the queue was shut down.
func (q *Queue[T]) WaitPushOpen(timeout time.Duration) bool {
	return q.gate.WaitUntilFor(func() bool { return q.pushOpen.Load() }, timeout) == waitgate.Success
}

// WaitPopOpen blocks until the pop gate is open. Returns false if the gate
// did not open within the timeout, or the queue was shut down.
func (q *Queue[T]) WaitPopOpen(timeout time.Duration) bool {
	return q.gate.WaitUntilFor(func() bool { return q.popOpen.Load() }, timeout) == waitgate.Success
}

// Shutdown exits the shared gate: every blocked push, pop and open-wait
// fails, as does every future blocking wait. One-way; intended for
// teardown. The gates themselves are not flipped, so operations that need
// no waiting still complete.
func (q *Queue[T]) Shutdown() {
	q.gate.Exit()
}

// Len returns the number of elements currently queued.
func (q *Queue[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Cap returns the configured capacity; zero means unbounded.
func (q *Queue[T]) Cap() int {
	if q.settings.Capacity > 0 {
		return q.settings.Capacity
	}
	return 0
}

// Status returns the current fill classification.
func (q *Queue[T]) Status() Status {
	return q.fill()
}

// IsEmpty reports whether the queue is empty.
func (q *Queue[T]) IsEmpty() bool {
	return q.fill() == Empty
}

// IsPushOpen reports whether the push gate is open.
func (q *Queue[T]) IsPushOpen() bool {
	return q.pushOpen.Load()
}

// IsPopOpen reports whether the pop gate is open.
func (q *Queue[T]) IsPopOpen() bool {
	return q.popOpen.Load()
}

func (q *Queue[T]) fill() Status {
	return Status(q.status.Load())
}

// pushReady is the predicate a blocked push waits on: the gate closed (the
// push must wake to fail) or the queue is no longer full. Reads only
// atomics; see the lock-ordering note on refreshStatus.
func (q *Queue[T]) pushReady() bool {
	return !q.pushOpen.Load() || q.fill() != Full
}

// popReady is the predicate a blocked pop waits on: the gate closed or the
// queue is no longer empty.
func (q *Queue[T]) popReady() bool {
	return !q.popOpen.Load() || q.fill() != Empty
}

func (q *Queue[T]) push(v T, timeout time.Duration, ctx context.Context) bool {
	var deadline time.Time
	timed := timeout >= 0
	if timed {
		deadline = time.Now().Add(timeout)
	}
	for {
		if !q.pushOpen.Load() {
			return false
		}
		if q.fill() == Full && q.settings.Discard == NoDiscard {
			if !q.await(q.pushReady, timed, deadline, ctx) {
				return false
			}
			if !q.pushOpen.Load() {
				return false
			}
		}
		ok, decided := q.insert(v)
		if decided {
			return ok
		}
		// Lost the insert race to another producer; wait again with
		// whatever deadline remains.
		if timed && !time.Now().Before(deadline) {
			return false
		}
		if ctx != nil && ctx.Err() != nil {
			return false
		}
	}
}

// insert performs check-full, evict-if-oldest-policy and append as one
// critical section, so two producers can never both observe Full and both
// evict. decided is false only when the queue is full under NoDiscard, in
// which case the caller goes back to waiting.
func (q *Queue[T]) insert(v T) (ok, decided bool) {
	q.mu.Lock()
	if q.settings.Capacity > 0 && len(q.items) >= q.settings.Capacity {
		switch q.settings.Discard {
		case DiscardNewest:
			q.mu.Unlock()
			q.onDiscarded(v)
			return false, true
		case DiscardOldest:
			evicted := q.items[0]
			q.items = q.items[1:]
			q.items = append(q.items, v)
			q.refreshStatus()
			q.mu.Unlock()
			q.onDiscarded(evicted)
			q.gate.Notify()
			return true, true
		default: // NoDiscard
			q.mu.Unlock()
			return false, false
		}
	}
	q.items = append(q.items, v)
	q.refreshStatus()
	q.mu.Unlock()
	q.gate.Notify()
	return true, true
}

func (q *Queue[T]) pop(timeout time.Duration, ctx context.Context) (T, bool) {
	var zero T
	var deadline time.Time
	timed := timeout >= 0
	if timed {
		deadline = time.Now().Add(timeout)
	}
	for {
		if !q.popOpen.Load() {
			return zero, false
		}
		if q.fill() == Empty {
			if !q.await(q.popReady, timed, deadline, ctx) {
				return zero, false
			}
			if !q.popOpen.Load() {
				return zero, false
			}
		}
		q.mu.Lock()
		if len(q.items) > 0 {
			v := q.items[0]
			// Reslice rather than shift; GC reclaims the older head.
			q.items = q.items[1:]
			q.refreshStatus()
			q.mu.Unlock()
			q.gate.Notify()
			return v, true
		}
		q.mu.Unlock()
		// Lost the remove race to another consumer.
		if timed && !time.Now().Before(deadline) {
			return zero, false
		}
		if ctx != nil && ctx.Err() != nil {
			return zero, false
		}
	}
}

// await blocks on the shared gate until pred holds, reporting false on
// timeout, cancellation or shutdown.
func (q *Queue[T]) await(pred func() bool, timed bool, deadline time.Time, ctx context.Context) bool {
	var st waitgate.Status
	switch {
	case ctx != nil:
		st = q.gate.WaitUntilContext(ctx, pred)
	case timed:
		remaining := time.Until(deadline)
		if remaining < 0 {
			remaining = 0
		}
		st = q.gate.WaitUntilFor(pred, remaining)
	default:
		st = q.gate.WaitUntil(pred)
	}
	return st == waitgate.Success
}

// refreshStatus recomputes the fill classification; callers hold q.mu.
// Waking waiters is the caller's job once the lock is released: the status
// atomic is the only field the wait predicates read, so there is no
// ordering between the queue mutex and the gate's internal lock.
func (q *Queue[T]) refreshStatus() {
	size := len(q.items)
	switch {
	case size == 0:
		q.status.Store(int32(Empty))
	case q.settings.Capacity > 0 && size >= q.settings.Capacity:
		q.status.Store(int32(Full))
	default:
		q.status.Store(int32(Normal))
	}
}

func (q *Queue[T]) onDiscarded(v T) {
	if q.discarded != nil {
		q.discarded(v)
	}
}
