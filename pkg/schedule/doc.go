// Package schedule coalesces redraw requests into batched synchronization
// passes on a cooperative event loop.
//
// # Model
//
// A [Scheduler] has two states. In [Idle], the first [Scheduler.MarkDirty]
// posts exactly one callback to the event loop and moves to [Pending]. Further
// marks only grow the dirty set. When the loop runs the callback, the pass
// function sees every dirty id once, the set is cleared and the scheduler
// returns to Idle.
//
// [Scheduler.Flush] is the synchronous escape hatch: it runs the pass right
// away and invalidates any callback already queued, so a flushed batch is
// never synchronized twice.
//
// # Loops
//
// The event loop is anything with a Post method ([Poster]). Three are provided:
//
//   - [Discard]: drops every task, so only Flush runs passes. Graphs created
//     without a loop use it.
//   - [Manual]: tasks run only when the owner calls [Manual.Turn]. Tests use
//     it to control exactly when a turn happens.
//   - [Loop]: a goroutine drains posted tasks batch by batch. [Loop.Do] runs a
//     function on that goroutine and waits for it, which is how the HTTP server
//     serializes requests against a diagram.
package schedule
