package waitgate

import (
	"context"
	"sync"
	"time"
)

// Status is the outcome of a wait operation.
type Status int

const (
	// Success means a notification arrived or the predicate became true.
	Success Status = iota
	// Timeout means the wait window elapsed first.
	Timeout
	// Exited means Exit was called on the gate. Exited wins over a
	// simultaneously true predicate or an expiring timer.
	Exited
)

// String returns a short lower-case name for the status.
func (s Status) String() string {
	switch s {
	case Success:
		return "success"
	case Timeout:
		return "timeout"
	case Exited:
		return "exited"
	}
	return "unknown"
}

// Forever makes a timed wait block indefinitely. Any negative timeout is
// treated the same way; a zero timeout polls once and returns.
const Forever time.Duration = -1

// Gate is a blocking/notify coordination point.
//
// Goroutines block in one of the wait variants; Notify wakes all of them at
// once, and Exit wakes them permanently. The zero value is not ready for
// use; construct via New.
type Gate struct {
	mu     sync.Mutex
	exited bool
	// seq is closed and replaced on every Notify, so a waiter that captured
	// it wakes exactly when a notification happens after its wait started.
	// Exit closes seq without replacing it, leaving it closed forever.
	seq chan struct{}
}

// New creates a new gate with no pending notification and exit not requested.
func New() *Gate {
	return &Gate{seq: make(chan struct{})}
}

// Notify wakes every goroutine currently blocked in a wait variant.
// Waiters with a predicate re-evaluate it; waiters without one return
// Success. Non-blocking, callable from any goroutine, any number of times.
// After Exit it is a no-op.
func (g *Gate) Notify() {
	g.mu.Lock()
	if !g.exited {
		close(g.seq)
		g.seq = make(chan struct{})
	}
	g.mu.Unlock()
}

// Exit requests a permanent shutdown of the gate and wakes every waiter.
// Every wait in progress and every wait started afterwards returns Exited.
// Idempotent; there is no way to undo an Exit.
func (g *Gate) Exit() {
	g.mu.Lock()
	if !g.exited {
		g.exited = true
		close(g.seq)
	}
	g.mu.Unlock()
}

// Exited reports whether Exit has been called.
func (g *Gate) Exited() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.exited
}

// Wait blocks until Notify is called after Wait started, or until Exit.
// Returns Success or Exited.
func (g *Gate) Wait() Status {
	return g.wait(nil, Forever, nil)
}

// WaitFor is Wait bounded by timeout. Returns Timeout if neither a
// notification nor an exit arrived within the window.
func (g *Gate) WaitFor(timeout time.Duration) Status {
	return g.wait(nil, timeout, nil)
}

// WaitUntil blocks until pred returns true or Exit is requested.
//
// pred is evaluated under the gate's internal lock every time the gate is
// signaled, possibly on behalf of a notifying goroutine; it must be cheap
// and free of side effects. Returns Success or Exited.
func (g *Gate) WaitUntil(pred func() bool) Status {
	return g.wait(pred, Forever, nil)
}

// WaitUntilFor is WaitUntil bounded by timeout. Returns Timeout if pred
// never became true and no exit arrived within the window; a predicate
// observed true at expiry still counts as Success.
func (g *Gate) WaitUntilFor(pred func() bool, timeout time.Duration) Status {
	return g.wait(pred, timeout, nil)
}

// WaitContext is Wait bounded by ctx. Cancellation or deadline expiry
// surfaces as Timeout.
func (g *Gate) WaitContext(ctx context.Context) Status {
	return g.wait(nil, Forever, ctx.Done())
}

// WaitUntilContext is WaitUntil bounded by ctx. Cancellation or deadline
// expiry surfaces as Timeout.
func (g *Gate) WaitUntilContext(ctx context.Context, pred func() bool) Status {
	return g.wait(pred, Forever, ctx.Done())
}

// wait is the single blocking loop behind all wait variants. A nil pred
// means "one notification suffices". done, when non-nil, bounds the wait
// like a timeout does.
func (g *Gate) wait(pred func() bool, timeout time.Duration, done <-chan struct{}) Status {
	var deadline time.Time
	timed := timeout >= 0
	if timed {
		deadline = time.Now().Add(timeout)
	}
	for {
		g.mu.Lock()
		if g.exited {
			g.mu.Unlock()
			return Exited
		}
		if pred != nil && pred() {
			g.mu.Unlock()
			return Success
		}
		seq := g.seq
		g.mu.Unlock()

		var timer *time.Timer
		var expiry <-chan time.Time
		if timed {
			remaining := time.Until(deadline)
			if remaining <= 0 {
				return g.expire(pred)
			}
			timer = time.NewTimer(remaining)
			expiry = timer.C
		}

		select {
		case <-seq:
			if timer != nil {
				timer.Stop()
			}
			if pred == nil {
				g.mu.Lock()
				exited := g.exited
				g.mu.Unlock()
				if exited {
					return Exited
				}
				return Success
			}
			// Predicate waiters loop and re-check.
		case <-expiry:
			return g.expire(pred)
		case <-done:
			if timer != nil {
				timer.Stop()
			}
			return g.expire(pred)
		}
	}
}

// expire makes the final check once the wait window has closed: exit beats
// a true predicate, a true predicate beats the timeout.
func (g *Gate) expire(pred func() bool) Status {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.exited {
		return Exited
	}
	if pred != nil && pred() {
		return Success
	}
	return Timeout
}
