// Thread control table: task descriptors, states and the fixed-size
// registry the scheduler operates on.

package gthreads_internal

import (
	"sync"
	"time"
)

const (
	// MAX_TASKS (spec default 5): fixed capacity of the thread table. Slot 0
	// is reserved for the task that calls Init (the "initial task") and is
	// never freed.
	MaxTasks = 5

	// STACK_BYTES (spec default 4 MiB): Go goroutine stacks are managed by
	// the runtime and grow on demand, so this budget has no allocation to
	// back. It is kept as the cap on the diagnostic stack-dump buffer used
	// by PrintStats (stats.go), so the tunable still does something.
	StackBytes = 4 << 20

	// TICK_US (spec default 500µs): interval of the preemption ticker.
	TickInterval = 500 * time.Microsecond

	// PRIORITY_LEVELS = 11, range [0,10].
	MinPriority    = 0
	MaxPriority    = 10
	PriorityLevels = MaxPriority - MinPriority + 1

	// MAX_TICKETS = 100.
	MinTickets = 1
	MaxTickets = 100

	// STARVATION_FORCE_THRESHOLD = 10.
	StarvationForceThreshold = 10
)

// TaskState mirrors spec.md §3: Unused, Ready, Running, Blocked.
type TaskState int32

const (
	Unused TaskState = iota
	Ready
	Running
	Blocked
)

var taskStateNames = map[TaskState]string{
	Unused:  "Unused",
	Ready:   "Ready",
	Running: "Running",
	Blocked: "Blocked",
}

func (s TaskState) String() string {
	if name, ok := taskStateNames[s]; ok {
		return name
	}
	return "Unknown"
}

// Task is one slot of the thread control table.
type Task struct {
	// Slot index, stable for the lifetime of the process (diagnostics only).
	id int
	// Opaque label supplied at Spawn time, diagnostics only.
	label string

	mu    sync.Mutex
	state TaskState

	priority         int
	originalPriority int
	starvationCount  int
	tickets          int

	metrics TaskMetrics

	// Context-switch baton; see context.go.
	handle *taskHandle

	// Set by SemWait/SemPost while the task sits in a semaphore's FIFO
	// queue; empty otherwise. Used only for diagnostics.
	blockedOn string
}

func (t *Task) Id() int       { return t.id }
func (t *Task) Label() string { return t.label }

func (t *Task) State() TaskState {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

func (t *Task) setState(s TaskState) {
	t.mu.Lock()
	t.state = s
	t.mu.Unlock()
}

// ThreadTable is the process-wide, fixed-size registry of task descriptors.
// Its size is a compile-time upper bound (MaxTasks) that a RuntimeConfig may
// shrink but never exceed. The table, the current-task pointer and the
// active policy are process-wide singletons reached through the package's
// runtime accessor (scheduler.go), because the preemption ticker must be
// able to locate them without a handle threaded through user code, exactly
// as the C original's globals are reached from the SIGALRM handler.
type ThreadTable struct {
	tasks []*Task
}

func newThreadTable(size int) *ThreadTable {
	if size <= 0 || size > MaxTasks {
		size = MaxTasks
	}
	tt := &ThreadTable{tasks: make([]*Task, size)}
	for i := range tt.tasks {
		tt.tasks[i] = &Task{id: i, state: Unused}
	}
	return tt
}

// findUnusedLocked performs the linear scan spec.md §4.2 describes for
// Spawn. Caller must hold the runtime's scheduling mutex.
func (tt *ThreadTable) findUnusedLocked() *Task {
	for _, t := range tt.tasks {
		if t.State() == Unused {
			return t
		}
	}
	return nil
}

func (tt *ThreadTable) all() []*Task {
	return tt.tasks[:]
}

func clampPriority(p int) int {
	if p < MinPriority {
		return MinPriority
	}
	if p > MaxPriority {
		return MaxPriority
	}
	return p
}

func clampTickets(n int) int {
	if n < MinTickets {
		return MinTickets
	}
	if n > MaxTickets {
		return MaxTickets
	}
	return n
}
