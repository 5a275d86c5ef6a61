// Context switch substitute.
//
// spec.md §4.1 calls for a hand-written assembly routine that swaps the
// stack pointer and callee-saved registers between two saved-context
// records. Go exposes no such primitive to user code and never will (the
// runtime owns goroutine stacks and moves them at will), so this module
// follows spec.md §9's own escape hatch: substitute the platform's native
// concurrent-task primitive, provided the substitute still (a) looks like a
// normal call into the entry function, (b) falls through to task_exit if
// the entry function returns, and (c) can be interrupted at a boundary
// outside the task's own control.
//
// The substitute here is a goroutine per task plus a per-task baton channel.
// "Switching into" a task means sending on its baton; the task's goroutine
// is parked receiving on that same channel whenever it is not the one
// logically executing. A task-initiated switch (Yield, a blocking SemWait,
// the initial task's exit drain) blocks the caller on its own baton until
// it is chosen again,
// mirroring gt_switch's synchronous "returns only once switched back to"
// contract. The preemption ticker (scheduler.go) does not block: it
// reassigns the current task and returns immediately, because nothing in Go
// lets it forcibly suspend the outgoing goroutine's user code. The outgoing
// goroutine keeps running until it reaches a checkpoint and discovers it
// is no longer current, at which point it parks itself — an explicit,
// cooperative stand-in for "preemption at an arbitrary instruction
// boundary", which is unreachable in portable Go.
package gthreads_internal

// taskHandle is the baton a task's goroutine waits on.
type taskHandle struct {
	resume chan struct{}
}

func newTaskHandle() *taskHandle {
	return &taskHandle{resume: make(chan struct{}, 1)}
}

// wake delivers a pending resume signal, coalescing if one is already
// pending (a task never needs to be told twice to run).
func (h *taskHandle) wake() {
	select {
	case h.resume <- struct{}{}:
	default:
	}
}

// park blocks the calling goroutine until woken.
func (h *taskHandle) park() {
	<-h.resume
}

// Checkpoint is a cooperative suspension point: if the ticker has already
// reassigned "current" away from t since t last ran, t parks here until
// chosen again. Yield and a blocking SemWait are themselves suspension
// points (they call into schedule() directly); Sleep deliberately is not
// one (spec.md requires its full duration to elapse regardless of the
// preemption tick) and SemPost never yields by contract, so neither checks
// for preemption on its own. Task bodies that run long stretches without
// calling Yield or a blocking SemWait should call Checkpoint directly to
// remain responsive to the ticker.
func (rt *Runtime) Checkpoint(t *Task) {
	for {
		rt.mu.Lock()
		isCurrent := rt.current == t
		rt.mu.Unlock()
		if isCurrent {
			return
		}
		t.handle.park()
	}
}
