// Counting semaphore with a strict FIFO wait queue, spec.md §4.5.
//
// Both operations run under the Runtime's own mutex rather than a private
// one: spec.md requires both to run with the preemption signal masked, for
// exactly the same reason schedule() does (atomic mutation of value, queue
// and a task's state field). Since this module's mask stand-in is the
// Runtime's mutex (scheduler.go), reusing it here keeps the semaphore's
// mutation and the scheduler's state transitions inside one critical
// section, the same way a single masked signal protects both in the
// original.

package gthreads_internal

import "time"

// Semaphore is a counting semaphore: non-negative value means slots
// available; negative magnitude is the number of blocked waiters, held in
// queue in FIFO order. spec.md describes queue as a ring buffer bounded by
// table size; a plain slice is used here since Go's slice append/reslice
// already gives FIFO push/pop without a fixed backing array, and capacity
// is bounded in practice by the same thread-table size (a task can only
// ever be waiting on one semaphore at a time).
type Semaphore struct {
	label string
	value int
	queue []*Task
}

// SemInit creates a semaphore with the given initial value.
func SemInit(label string, initial int) *Semaphore {
	return &Semaphore{label: label, value: initial}
}

// Value returns the current semaphore value. Intended for diagnostics and
// tests; it reads under the Runtime's mutex, so it never sees a half-done
// SemWait/SemPost, but the value may have changed by the time the caller
// uses it.
func (sem *Semaphore) Value(rt *Runtime) int {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	return sem.value
}

// SemWait decrements the semaphore and blocks the caller if it goes
// negative, enqueueing it at the tail of the FIFO wait queue. Returns once
// a matching SemPost has woken this task and the scheduler has resumed it.
func (sem *Semaphore) SemWait(rt *Runtime, self *Task) {
	rt.mu.Lock()
	sem.value--
	block := sem.value < 0
	if block {
		sem.queue = append(sem.queue, self)
		self.mu.Lock()
		self.state = Blocked
		self.blockedOn = sem.label
		self.mu.Unlock()
	}
	rt.mu.Unlock()

	if block {
		NewTaskLogger("semaphore", self.id, self.label).WithField("sem", sem.label).Debug("task blocked")
		rt.schedule(self)
	}
}

// SemPost increments the semaphore and, if a waiter is queued, dequeues and
// readies the head of the FIFO. It does not yield: the woken task runs
// whenever the scheduler next selects it.
func (sem *Semaphore) SemPost(rt *Runtime) {
	rt.mu.Lock()
	sem.value++
	var woken *Task
	if sem.value <= 0 && len(sem.queue) > 0 {
		woken = sem.queue[0]
		sem.queue = sem.queue[1:]
		now := time.Now()
		woken.mu.Lock()
		woken.state = Ready
		woken.blockedOn = ""
		woken.metrics.lastReadyStart = now
		woken.mu.Unlock()
	}
	rt.mu.Unlock()

	if woken != nil {
		NewTaskLogger("semaphore", woken.id, woken.label).WithField("sem", sem.label).Debug("task woken")
	}
}
