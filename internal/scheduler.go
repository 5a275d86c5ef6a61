// Scheduler core: the schedule() algorithm of spec.md §4.3, its ticking
// lifecycle, and the process-wide Runtime singleton that holds the thread
// table, the active policy and the current-task pointer.
//
// The original divides mutual exclusion from preemption by masking SIGALRM
// for the duration of schedule(), spawn(), task_exit() and both semaphore
// operations — there being only one OS thread, that mask is the sole
// mutual-exclusion mechanism. This module has no signal to mask, so a
// single mutex on the Runtime stands in for it, held for the same
// operations and released at exactly the points the original re-arms the
// alarm.

package gthreads_internal

import (
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

var schedulerLog = NewCompLogger("scheduler")

// Runtime is the process-wide scheduling state: the thread table, the
// active policy, and a pointer to whichever task is logically Running.
type Runtime struct {
	mu      sync.Mutex
	table   *ThreadTable
	policy  Policy
	current *Task
	cfg     *SchedulerConfig
	log     *logrus.Entry

	tickStop chan struct{}
	tickDone chan struct{}

	sigStop chan struct{}
	sigDone chan struct{}
}

var (
	runtimeMu  sync.Mutex
	theRuntime *Runtime
)

// Init initializes the process-wide runtime: the logger, the thread table,
// the scheduling policy, and marks the calling goroutine as task 0,
// Running. It must be called exactly once, before any Spawn. The returned
// *Task is the caller's own handle, used for Yield/Checkpoint/SemWait/TaskExit
// exactly like the handle passed into a spawned task's entry function.
func Init(cfg *RuntimeConfig) (*Task, error) {
	if cfg == nil {
		cfg = DefaultRuntimeConfig()
	}
	if cfg.LoggerConfig != nil {
		if err := SetLogger(cfg.LoggerConfig); err != nil {
			return nil, err
		}
	}

	runtimeMu.Lock()
	defer runtimeMu.Unlock()
	if theRuntime != nil {
		return nil, fmt.Errorf("gthreads: runtime already initialized")
	}

	ttCfg := cfg.ThreadTableConfig
	if ttCfg == nil {
		ttCfg = DefaultThreadTableConfig()
	}
	schedCfg := cfg.SchedulerConfig
	if schedCfg == nil {
		schedCfg = DefaultSchedulerConfig()
	}

	table := newThreadTable(ttCfg.MaxTasks)
	rt := &Runtime{
		table:    table,
		policy:   NewPolicy(schedCfg.Policy),
		cfg:      schedCfg,
		log:      schedulerLog,
		tickStop: make(chan struct{}),
		tickDone: make(chan struct{}),
		sigStop:  make(chan struct{}),
		sigDone:  make(chan struct{}),
	}

	now := time.Now()
	initial := table.tasks[0]
	initial.mu.Lock()
	initial.label = "initial"
	initial.state = Running
	initial.priority = MinPriority
	initial.originalPriority = MinPriority
	initial.tickets = MaxTickets
	initial.metrics = newTaskMetrics(now)
	initial.metrics.lastRunStart = now
	initial.handle = newTaskHandle()
	initial.mu.Unlock()

	rt.current = initial
	theRuntime = rt

	go rt.tickLoop()
	go rt.signalLoop()

	rt.log.WithField("policy", rt.policy.Name()).Info("runtime initialized")
	return initial, nil
}

// SetScheduler swaps the active policy. Per spec.md §6 this is only
// well-defined at start-of-day, before any task other than the initial one
// has run; it is not guarded against later calls because the original
// offers no such guard either, only the convention.
func SetScheduler(kind string) error {
	rt, err := currentRuntime()
	if err != nil {
		return err
	}
	rt.mu.Lock()
	defer rt.mu.Unlock()
	rt.policy = NewPolicy(kind)
	return nil
}

func currentRuntime() (*Runtime, error) {
	runtimeMu.Lock()
	defer runtimeMu.Unlock()
	if theRuntime == nil {
		return nil, fmt.Errorf("gthreads: runtime not initialized")
	}
	return theRuntime, nil
}

// CurrentRuntime returns the process-wide Runtime created by Init, or an
// error if Init has not been called yet.
func CurrentRuntime() (*Runtime, error) {
	return currentRuntime()
}

// Shutdown stops the preemption ticker and the SIGINT stats handler. It
// does not terminate any task.
func Shutdown() {
	runtimeMu.Lock()
	rt := theRuntime
	theRuntime = nil
	runtimeMu.Unlock()
	if rt == nil {
		return
	}
	close(rt.tickStop)
	<-rt.tickDone
	close(rt.sigStop)
	<-rt.sigDone
}

// tickLoop is the preemption substitute for SIGALRM: a goroutine pinned to
// its own OS thread, ticking at the configured interval and invoking
// schedule() on every tick. Pinning it with LockOSThread keeps its
// scheduling cadence independent of how many task goroutines the Go
// runtime is juggling on other OS threads, the same independence the
// original gets from a real hardware timer interrupt.
func (rt *Runtime) tickLoop() {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	defer close(rt.tickDone)

	interval := rt.cfg.TickInterval
	if interval <= 0 {
		interval = TickInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-rt.tickStop:
			return
		case <-ticker.C:
			rt.schedule(nil)
		}
	}
}

// signalLoop installs the SIGINT-driven stats dump spec.md §6's
// runtime_init contract requires ("Install alarm and stats signal
// handlers"), the direct analog of the original's
// `signal(SIGINT, gt_print_stats)`. Running it as a goroutine selecting on
// a channel rather than a raw signal handler keeps it subject to the same
// goroutine-lifecycle discipline as tickLoop, so Shutdown can stop it
// deterministically instead of leaving a process-wide signal handler
// registered after the runtime it reports on is gone.
func (rt *Runtime) signalLoop() {
	defer close(rt.sigDone)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt)
	defer signal.Stop(sigCh)

	for {
		select {
		case <-rt.sigStop:
			return
		case <-sigCh:
			PrintStats(rt)
		}
	}
}

// Yield gives up the CPU voluntarily. It is schedule() called with the
// caller's state left untouched (still Running); schedule's own outgoing-
// task transition (step 7) demotes it to Ready. Returns true if another
// task was selected, false if the caller was the only runnable task.
func (rt *Runtime) Yield(self *Task) bool {
	return rt.schedule(self)
}

// schedule implements spec.md §4.3. callerTask is nil when invoked from the
// preemption ticker (which never blocks waiting for a switch back) and from
// a non-initial task's TaskExit; it is the calling task's own handle when
// invoked cooperatively (Yield, a blocking SemWait, the initial task's exit
// drain loop), in which case this call parks the caller until it is chosen
// again.
func (rt *Runtime) schedule(callerTask *Task) bool {
	rt.mu.Lock()
	now := time.Now()
	running := rt.current

	if running != nil && running.State() == Running {
		running.mu.Lock()
		running.metrics.recordExec(running.metrics.lastRunStart, now)
		running.mu.Unlock()
	}

	// Aging pass (step 4).
	if running != nil && running.State() == Running {
		running.mu.Lock()
		running.starvationCount = 0
		running.priority = running.originalPriority
		running.mu.Unlock()
	}
	isAging := rt.policy.Name() == PolicyPriority
	for _, t := range rt.table.all() {
		if t == running {
			continue
		}
		t.mu.Lock()
		if t.state == Ready {
			t.starvationCount++
			if isAging {
				t.priority = t.originalPriority - t.starvationCount
				if t.priority < MinPriority {
					t.priority = MinPriority
				}
				if t.starvationCount > StarvationForceThreshold {
					t.priority = MinPriority - 1
				}
			}
		}
		t.mu.Unlock()
	}

	next := rt.policy.Select(rt.table.all())
	if next == nil {
		rt.mu.Unlock()
		return false
	}

	next.mu.Lock()
	next.metrics.recordWait(next.metrics.lastReadyStart, now)
	next.mu.Unlock()

	if running != nil && running.State() == Running {
		running.setState(Ready)
		running.mu.Lock()
		running.metrics.lastReadyStart = now
		running.mu.Unlock()
	}

	next.setState(Running)
	next.mu.Lock()
	next.metrics.lastRunStart = now
	next.mu.Unlock()
	rt.current = next

	rt.mu.Unlock()

	next.handle.wake()
	if callerTask != nil && next != callerTask {
		callerTask.handle.park()
	}
	return true
}
