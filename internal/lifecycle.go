// Task lifecycle: spawn() and task_exit() of spec.md §4.2.

package gthreads_internal

import (
	"fmt"
	"runtime"
	"time"
)

var lifecycleLog = NewCompLogger("lifecycle")

// TaskConfig is the configuration bundle spec.md §4.2 passes to spawn:
// priority, tickets and an opaque label for diagnostics. Id is assigned by
// the table (the slot index) and is not settable here.
type TaskConfig struct {
	Priority int
	Tickets  int
	Label    string
}

// EntryFunc is a spawned task's body. self is the task's own handle, used
// for Yield/Checkpoint/SemWait/TaskExit exactly as the handle Init
// returns for the initial task.
type EntryFunc func(self *Task)

// Spawn finds an Unused slot, seeds a fresh goroutine for it and marks it
// Ready. It returns an error, not a panic, on a full table — spec.md §7
// classifies this as "capacity exhausted", a value-returned failure rather
// than a fatal condition.
//
// The stack-seeding trick of spec.md §4.2 (writing entry_fn's and
// task_exit's addresses above the initial stack pointer so the first
// context switch's `ret` lands in entry_fn and falling out of it lands in
// task_exit) has no analog over a goroutine: there is no stack to seed.
// The equivalent contract — "first resumed into entry_fn, falls through to
// task_exit if entry_fn returns" — is reproduced directly in the goroutine
// wrapper below instead.
func Spawn(rt *Runtime, cfg *TaskConfig, entry EntryFunc) (*Task, error) {
	if cfg == nil {
		cfg = &TaskConfig{}
	}

	rt.mu.Lock()
	t := rt.table.findUnusedLocked()
	if t == nil {
		rt.mu.Unlock()
		return nil, fmt.Errorf("gthreads: spawn: thread table full")
	}

	now := time.Now()
	t.mu.Lock()
	t.label = cfg.Label
	t.priority = clampPriority(cfg.Priority)
	t.originalPriority = t.priority
	t.tickets = clampTickets(cfg.Tickets)
	t.starvationCount = 0
	t.metrics = newTaskMetrics(now)
	t.handle = newTaskHandle()
	t.state = Ready
	t.mu.Unlock()
	rt.mu.Unlock()

	NewTaskLogger("lifecycle", t.id, t.label).WithFields(map[string]any{
		"priority": t.priority, "tickets": t.tickets,
	}).Debug("task spawned")

	go func() {
		t.handle.park()
		entry(t)
		TaskExit(rt, t, 0)
	}()

	return t, nil
}

// TaskExit implements spec.md §4.2's task_exit. For a non-initial task it
// frees the slot, switches away and then ends the calling goroutine with
// runtime.Goexit, so it never returns to the task's code, whether it was
// called from the Spawn wrapper above or directly from an entry function.
//
// For the initial task (id 0), the original terminates the whole process
// once no Ready or Blocked work remains. Doing that from inside an
// embeddable library would tear down a host application's own process out
// from under it (spec.md's own scope note mentions embedding this runtime
// in a larger host such as a FAT16 reader or a TLS server), so this
// deviates deliberately: it drains remaining work the same way, then stops
// the preemption ticker and returns control to the caller instead of
// exiting. A host that wants process-exit semantics can call os.Exit(code)
// itself once TaskExit returns for the initial task.
func TaskExit(rt *Runtime, t *Task, code int) {
	if t.id == 0 {
		for rt.schedule(t) {
		}
		lifecycleLog.WithField("code", code).Info("initial task drained, stopping scheduler")
		Shutdown()
		return
	}

	rt.mu.Lock()
	t.setState(Unused)
	rt.mu.Unlock()

	NewTaskLogger("lifecycle", t.id, t.label).WithField("code", code).Debug("task exited")

	// Hand off to the next task exactly as schedule() would for any other
	// outgoing task, but without parking the caller afterward: t is Unused
	// now and will never be selected again, so there is nothing to wake it
	// back up. Passing nil here is the same "never blocks" path the
	// preemption ticker uses, which is exactly the behaviour a terminating
	// task needs — its goroutine then ends here.
	rt.schedule(nil)
	runtime.Goexit()
}
