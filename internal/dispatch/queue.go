// Package dispatch provides the completion context that SDK callbacks run on.
//
// A Queue owns a single goroutine that drains posted functions in FIFO
// order, so callbacks never run concurrently with one another no matter how
// many requests complete at once.
package dispatch

import "sync"

var mainQueue = sync.OnceValue(NewQueue)

// Main returns the process-wide serial queue. It is started on first use
// and is never closed, so Post on it always succeeds.
func Main() Dispatcher {
	return mainQueue()
}

// Dispatcher accepts work to run on a designated context.
// Post reports whether fn was accepted.
type Dispatcher interface {
	Post(fn func()) bool
}

var _ Dispatcher = (*Queue)(nil)

// Queue is a serial executor backed by one goroutine.
type Queue struct {
	mu     sync.Mutex
	cond   *sync.Cond
	items  []func()
	closed bool
	done   chan struct{}
}

// NewQueue starts a queue. Call Close to stop it.
func NewQueue() *Queue {
	q := &Queue{done: make(chan struct{})}
	q.cond = sync.NewCond(&q.mu)
	go q.run()
	return q
}

// Post enqueues fn. Posting to a closed queue drops fn and returns false.
func (q *Queue) Post(fn func()) bool {
	if fn == nil {
		return false
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return false
	}
	q.items = append(q.items, fn)
	q.cond.Signal()
	return true
}

// Flush blocks until every function posted before the call has run.
func (q *Queue) Flush() {
	ch := make(chan struct{})
	if !q.Post(func() { close(ch) }) {
		<-q.done
		return
	}
	<-ch
}

// Close stops accepting work, runs what is already queued and waits for the
// dispatcher goroutine to exit. Close is safe to call more than once.
func (q *Queue) Close() {
	q.mu.Lock()
	q.closed = true
	q.cond.Signal()
	q.mu.Unlock()
	<-q.done
}

func (q *Queue) run() {
	defer close(q.done)
	for {
		q.mu.Lock()
		for len(q.items) == 0 && !q.closed {
			q.cond.Wait()
		}
		if len(q.items) == 0 && q.closed {
			q.mu.Unlock()
			return
		}
		fn := q.items[0]
		q.items[0] = nil
		q.items = q.items[1:]
		q.mu.Unlock()

		fn()
	}
}

// Inline runs posted functions immediately on the caller's goroutine.
// Callbacks posted from different goroutines may then run concurrently.
type Inline struct{}

// Post runs fn.
func (Inline) Post(fn func()) bool {
	if fn == nil {
		return false
	}
	fn()
	return true
}
