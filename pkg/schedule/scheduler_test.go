package schedule

import (
	"context"
	"errors"
	"slices"
	"sync/atomic"
	"testing"
	"time"
)

type recorder struct {
	passes [][]string
	err    error
}

func (r *recorder) pass(ids []string) error {
	r.passes = append(r.passes, ids)
	return r.err
}

func TestSchedulerCoalesces(t *testing.T) {
	var loop Manual
	var rec recorder
	s := New(&loop, rec.pass)

	s.MarkDirty("a")
	s.MarkDirty("b", "a")
	s.MarkDirty("c")

	if s.State() != Pending {
		t.Fatalf("State = %v, want pending", s.State())
	}
	if loop.Len() != 1 {
		t.Fatalf("posted %d callbacks, want 1", loop.Len())
	}
	if len(rec.passes) != 0 {
		t.Fatal("pass ran before the loop turned")
	}

	loop.Turn()

	if len(rec.passes) != 1 {
		t.Fatalf("passes = %d, want 1", len(rec.passes))
	}
	if want := []string{"a", "b", "c"}; !slices.Equal(rec.passes[0], want) {
		t.Errorf("pass ids = %v, want %v", rec.passes[0], want)
	}
	if s.State() != Idle || len(s.Dirty()) != 0 {
		t.Errorf("after pass: state=%v dirty=%v", s.State(), s.Dirty())
	}
}

func TestSchedulerFlushConsumesQueuedPass(t *testing.T) {
	var loop Manual
	var rec recorder
	s := New(&loop, rec.pass)

	s.MarkDirty("e1")
	if err := s.Flush(); err != nil {
		t.Fatal(err)
	}
	if len(rec.passes) != 1 || s.State() != Idle {
		t.Fatalf("Flush: passes=%d state=%v", len(rec.passes), s.State())
	}

	// The stale callback is still queued but must do nothing.
	loop.Turn()
	if len(rec.passes) != 1 {
		t.Errorf("stale callback ran a pass: %v", rec.passes)
	}

	st := s.Stats()
	if st.Passes != 1 || st.Flushed != 1 || st.Last != 1 {
		t.Errorf("Stats = %+v", st)
	}
}

func TestSchedulerFlushWithEmptySet(t *testing.T) {
	var rec recorder
	s := New(&Manual{}, rec.pass)
	if err := s.Flush(); err != nil {
		t.Fatal(err)
	}
	if len(rec.passes) != 1 || len(rec.passes[0]) != 0 {
		t.Errorf("passes = %v, want one empty pass", rec.passes)
	}
}

func TestSchedulerMarkAfterFlushPostsAgain(t *testing.T) {
	var loop Manual
	var rec recorder
	s := New(&loop, rec.pass)

	s.MarkDirty("a")
	_ = s.Flush()
	s.MarkDirty("b")

	loop.Turn() // runs the stale callback and the fresh one
	if len(rec.passes) != 2 {
		t.Fatalf("passes = %d, want 2", len(rec.passes))
	}
	if !slices.Equal(rec.passes[1], []string{"b"}) {
		t.Errorf("second pass = %v, want [b]", rec.passes[1])
	}
}

func TestSchedulerReset(t *testing.T) {
	var loop Manual
	var rec recorder
	s := New(&loop, rec.pass)

	s.MarkDirty("a")
	s.Reset()
	loop.Turn()

	if len(rec.passes) != 0 {
		t.Errorf("pass ran after Reset: %v", rec.passes)
	}
	if s.IsDirty("a") {
		t.Error("Reset kept dirty ids")
	}
}

func TestSchedulerErrorHandler(t *testing.T) {
	var loop Manual
	boom := errors.New("boom")
	rec := recorder{err: boom}

	var got error
	s := New(&loop, rec.pass, WithErrorHandler(func(err error) { got = err }))

	s.MarkDirty("a")
	loop.Turn()
	if !errors.Is(got, boom) {
		t.Errorf("handler got %v, want boom", got)
	}

	s.MarkDirty("b")
	if err := s.Flush(); !errors.Is(err, boom) {
		t.Errorf("Flush err = %v, want boom", err)
	}
}

func TestSchedulerTimings(t *testing.T) {
	var rec recorder
	ticks := []time.Time{time.Unix(0, 0), time.Unix(0, int64(3*time.Millisecond))}
	i := 0
	clock := func() time.Time {
		now := ticks[i%len(ticks)]
		i++
		return now
	}
	s := New(&Manual{}, rec.pass, WithClock(clock))
	_ = s.Flush()
	if got := s.Stats().LastTook; got != 3*time.Millisecond {
		t.Errorf("LastTook = %v, want 3ms", got)
	}
}

func TestManualTurnDefersNestedPosts(t *testing.T) {
	var loop Manual
	var order []int
	loop.Post(func() {
		order = append(order, 1)
		loop.Post(func() { order = append(order, 2) })
	})

	if n := loop.Turn(); n != 1 {
		t.Errorf("first turn ran %d tasks, want 1", n)
	}
	if !slices.Equal(order, []int{1}) {
		t.Errorf("order after one turn = %v", order)
	}
	if turns := loop.Drain(10); turns != 1 {
		t.Errorf("Drain took %d turns, want 1", turns)
	}
	if !slices.Equal(order, []int{1, 2}) {
		t.Errorf("order = %v", order)
	}
}

func TestLoopDo(t *testing.T) {
	l := NewLoop()
	defer l.Close()

	var rec recorder
	var s *Scheduler
	err := l.Do(context.Background(), func() error {
		s = New(l, rec.pass)
		s.MarkDirty("a", "b")
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}

	// The scheduled pass was posted from inside the task; the next Do is
	// queued behind it.
	var passes int
	_ = l.Do(context.Background(), func() error {
		passes = len(rec.passes)
		return nil
	})
	if passes != 1 {
		t.Errorf("passes = %d, want 1", passes)
	}
}

func TestLoopDoReturnsError(t *testing.T) {
	l := NewLoop()
	defer l.Close()

	boom := errors.New("boom")
	if err := l.Do(context.Background(), func() error { return boom }); !errors.Is(err, boom) {
		t.Errorf("err = %v, want boom", err)
	}
}

func TestLoopDoCancelled(t *testing.T) {
	l := NewLoop()
	defer l.Close()

	block := make(chan struct{})
	l.Post(func() { <-block })

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var ran atomic.Bool
	err := l.Do(ctx, func() error {
		ran.Store(true)
		return nil
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
	close(block)

	// Flush the loop so the skipped task has had its chance to run.
	_ = l.Do(context.Background(), func() error { return nil })
	if ran.Load() {
		t.Error("cancelled task ran")
	}
}

func TestLoopClosed(t *testing.T) {
	l := NewLoop()
	l.Close()
	l.Close()

	if err := l.Do(context.Background(), func() error { return nil }); !errors.Is(err, ErrLoopClosed) {
		t.Errorf("err = %v, want ErrLoopClosed", err)
	}
}

func TestSchedulerWithDiscardLoop(t *testing.T) {
	var rec recorder
	s := New(Discard{}, rec.pass)

	for i := range 3 {
		s.MarkDirty("a")
		if s.State() != Pending {
			t.Fatalf("round %d: State = %v, want pending", i, s.State())
		}
		if err := s.Flush(); err != nil {
			t.Fatalf("Flush: %v", err)
		}
		if s.State() != Idle {
			t.Fatalf("round %d: State = %v after Flush, want idle", i, s.State())
		}
	}
	if len(rec.passes) != 3 || s.Stats().Flushed != 3 {
		t.Errorf("passes = %d, flushed = %d, want 3 each", len(rec.passes), s.Stats().Flushed)
	}
}
