package schedule

import (
	"slices"
	"time"
)

// Poster queues a task for a later turn of an event loop. Post must not run
// fn synchronously.
type Poster interface {
	Post(fn func())
}

// State is the scheduler's coalescing state.
type State int

const (
	Idle State = iota
	Pending
)

func (s State) String() string {
	if s == Pending {
		return "pending"
	}
	return "idle"
}

// PassFunc synchronizes the given dirty ids. The slice is owned by the callee.
type PassFunc func(ids []string) error

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithErrorHandler sets the function that receives errors returned by passes
// the loop runs. Errors from [Scheduler.Flush] are returned to its caller
// instead.
func WithErrorHandler(fn func(error)) Option {
	return func(s *Scheduler) { s.onError = fn }
}

// WithClock overrides the clock used for pass timings.
func WithClock(now func() time.Time) Option {
	return func(s *Scheduler) { s.now = now }
}

// Stats describes the passes a scheduler has run.
type Stats struct {
	Passes   int           // total passes, scheduled and flushed
	Flushed  int           // passes run by Flush
	Last     int           // ids handled by the most recent pass
	LastTook time.Duration // duration of the most recent pass
}

// Scheduler is the Idle/Pending coalescer. It is not safe for concurrent use;
// it must be driven from the same goroutine as the loop it posts to.
type Scheduler struct {
	loop    Poster
	pass    PassFunc
	onError func(error)
	now     func() time.Time

	state State
	dirty map[string]struct{}
	order []string
	gen   uint64
	stats Stats
}

// New creates an idle scheduler that posts to loop and runs pass.
func New(loop Poster, pass PassFunc, opts ...Option) *Scheduler {
	s := &Scheduler{
		loop:    loop,
		pass:    pass,
		onError: func(error) {},
		now:     time.Now,
		dirty:   make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// MarkDirty adds ids to the dirty set. The first mark after Idle posts the
// coalescing callback; later marks never post again until the pass has run.
func (s *Scheduler) MarkDirty(ids ...string) {
	for _, id := range ids {
		if _, ok := s.dirty[id]; ok {
			continue
		}
		s.dirty[id] = struct{}{}
		s.order = append(s.order, id)
	}
	if s.state == Pending || len(s.order) == 0 {
		return
	}
	s.state = Pending
	gen := s.gen
	s.loop.Post(func() { s.fire(gen) })
}

func (s *Scheduler) fire(gen uint64) {
	if gen != s.gen || s.state != Pending {
		return
	}
	if err := s.run(); err != nil {
		s.onError(err)
	}
}

// Flush runs a pass immediately over the current dirty set, even when it is
// empty, and cancels any queued callback. The scheduler is Idle afterwards.
func (s *Scheduler) Flush() error {
	s.stats.Flushed++
	return s.run()
}

func (s *Scheduler) run() error {
	ids := s.order
	s.gen++
	s.state = Idle
	s.dirty = make(map[string]struct{})
	s.order = nil

	start := s.now()
	err := s.pass(ids)
	s.stats.Passes++
	s.stats.Last = len(ids)
	s.stats.LastTook = s.now().Sub(start)
	return err
}

// Reset drops the dirty set and any queued callback without running a pass.
func (s *Scheduler) Reset() {
	s.gen++
	s.state = Idle
	s.dirty = make(map[string]struct{})
	s.order = nil
}

// State returns the current state.
func (s *Scheduler) State() State { return s.state }

// Dirty returns the dirty ids in the order they were first marked.
func (s *Scheduler) Dirty() []string { return slices.Clone(s.order) }

// IsDirty reports whether id is waiting for the next pass.
func (s *Scheduler) IsDirty(id string) bool {
	_, ok := s.dirty[id]
	return ok
}

// Stats returns pass counters.
func (s *Scheduler) Stats() Stats { return s.stats }
