package schedule

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
)

// ErrLoopClosed is returned by [Loop.Do] once the loop has been closed.
var ErrLoopClosed = errors.New("event loop closed")

// Discard is a loop that never runs anything. A scheduler posting to it
// stays Pending until Flush.
type Discard struct{}

// Post drops fn.
func (Discard) Post(func()) {}

// Manual is an event loop that only advances when told to. The zero value is
// ready to use.
type Manual struct {
	queue []func()
}

// Post queues fn for the next turn.
func (m *Manual) Post(fn func()) { m.queue = append(m.queue, fn) }

// Turn runs the tasks that were queued before the turn started and returns
// how many ran. Tasks posted while the turn runs wait for the next turn.
func (m *Manual) Turn() int {
	batch := m.queue
	m.queue = nil
	for _, fn := range batch {
		fn()
	}
	return len(batch)
}

// Drain runs turns until the queue is empty or max turns have run, and
// returns the number of turns taken.
func (m *Manual) Drain(max int) int {
	turns := 0
	for len(m.queue) > 0 && turns < max {
		m.Turn()
		turns++
	}
	return turns
}

// Len returns the number of queued tasks.
func (m *Manual) Len() int { return len(m.queue) }

// Loop runs posted tasks on a single goroutine, one batch per turn. Post is
// safe to call from any goroutine, including from a task on the loop itself.
type Loop struct {
	mu     sync.Mutex
	queue  []func()
	closed bool
	wake   chan struct{}
	done   chan struct{}
}

// NewLoop starts a loop goroutine. Call Close to stop it.
func NewLoop() *Loop {
	l := &Loop{
		wake: make(chan struct{}, 1),
		done: make(chan struct{}),
	}
	go l.run()
	return l
}

// Post queues fn for the next turn. Tasks posted after Close are dropped.
func (l *Loop) Post(fn func()) {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return
	}
	l.queue = append(l.queue, fn)
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}
}

func (l *Loop) run() {
	defer close(l.done)
	for range l.wake {
		l.mu.Lock()
		batch := l.queue
		l.queue = nil
		closed := l.closed
		l.mu.Unlock()

		for _, fn := range batch {
			fn()
		}
		if closed {
			return
		}
	}
}

// Do runs fn on the loop goroutine and returns its error. If ctx ends first,
// Do returns ctx.Err() and fn is skipped if it has not started yet.
func (l *Loop) Do(ctx context.Context, fn func() error) error {
	l.mu.Lock()
	closed := l.closed
	l.mu.Unlock()
	if closed {
		return ErrLoopClosed
	}

	var cancelled atomic.Bool
	result := make(chan error, 1)
	l.Post(func() {
		if cancelled.Load() {
			return
		}
		result <- fn()
	})

	select {
	case err := <-result:
		return err
	case <-ctx.Done():
		cancelled.Store(true)
		// fn may have finished between the two cases.
		select {
		case err := <-result:
			return err
		default:
		}
		return ctx.Err()
	case <-l.done:
		return ErrLoopClosed
	}
}

// Close runs the tasks already queued, stops the loop goroutine and waits for
// it to exit. Close is idempotent.
func (l *Loop) Close() {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		<-l.done
		return
	}
	l.closed = true
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}
	<-l.done
}
