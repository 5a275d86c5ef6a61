// Package gthreads is a cooperative-preemptive user-space task runtime: a
// fixed-size thread table, three interchangeable scheduling disciplines
// (round-robin, priority with anti-starvation aging, lottery) and a FIFO
// counting semaphore, all driven by a lightweight preemption tick instead
// of a hardware timer interrupt.
//
// This is a thin facade over the internal package, re-exporting the pieces
// a host application needs without requiring it to import internal/.
package gthreads

import (
	"time"

	"github.com/sirupsen/logrus"

	gthreads_internal "github.com/sli0124/gthreads/internal"
)

// Task is a live task's handle, returned by Init (for the calling
// goroutine) and by Spawn (for a new one). It is passed into a spawned
// task's entry function and is required by every per-task operation
// (Yield, Checkpoint, SemWait, TaskExit).
type Task = gthreads_internal.Task

// Runtime is the process-wide scheduling state returned by Init.
type Runtime = gthreads_internal.Runtime

// Semaphore is a FIFO counting semaphore; see SemInit.
type Semaphore = gthreads_internal.Semaphore

// RuntimeConfig, LoggerConfig, SchedulerConfig and ThreadTableConfig mirror
// the internal configuration types so callers can build or load one
// without importing internal/ directly.
type RuntimeConfig = gthreads_internal.RuntimeConfig
type LoggerConfig = gthreads_internal.LoggerConfig
type SchedulerConfig = gthreads_internal.SchedulerConfig
type ThreadTableConfig = gthreads_internal.ThreadTableConfig

// TaskConfig bundles the priority/tickets/label a task is spawned with; the
// task's id is its table slot, assigned by Spawn.
type TaskConfig = gthreads_internal.TaskConfig

// EntryFunc is a spawned task's body, receiving its own handle.
type EntryFunc = gthreads_internal.EntryFunc

const (
	PolicyRoundRobin = gthreads_internal.PolicyRoundRobin
	PolicyPriority   = gthreads_internal.PolicyPriority
	PolicyLottery    = gthreads_internal.PolicyLottery
)

// DefaultRuntimeConfig returns the default configuration: round-robin
// scheduling, a 500µs preemption tick, and the compile-time thread-table
// capacity.
func DefaultRuntimeConfig() *RuntimeConfig {
	return gthreads_internal.DefaultRuntimeConfig()
}

// LoadConfig loads a RuntimeConfig from a YAML file (or, for testing, a
// pre-read buffer).
func LoadConfig(cfgFile string, buf []byte) (*RuntimeConfig, error) {
	return gthreads_internal.LoadConfig(cfgFile, buf)
}

// Init initializes the runtime: the thread table, the scheduling policy,
// the preemption ticker, and marks the calling goroutine as task 0,
// Running. Must be called exactly once, before any Spawn.
func Init(cfg *RuntimeConfig) (*Task, *Runtime, error) {
	task, err := gthreads_internal.Init(cfg)
	if err != nil {
		return nil, nil, err
	}
	rt, err := gthreads_internal.CurrentRuntime()
	if err != nil {
		return nil, nil, err
	}
	return task, rt, nil
}

// Shutdown stops the preemption ticker. It does not terminate any task.
func Shutdown() {
	gthreads_internal.Shutdown()
}

// SetScheduler swaps the active scheduling policy. Safe at start-of-day
// only, per the contract in spec's external-interfaces table.
func SetScheduler(kind string) error {
	return gthreads_internal.SetScheduler(kind)
}

// Spawn finds an Unused table slot and starts a new task in it, Ready to
// run. Returns an error if the table is full.
func Spawn(rt *Runtime, cfg *TaskConfig, entry EntryFunc) (*Task, error) {
	return gthreads_internal.Spawn(rt, cfg, entry)
}

// Yield voluntarily gives up the CPU, returning true if another task was
// selected to run, false if self was the only runnable task.
func Yield(rt *Runtime, self *Task) bool {
	return rt.Yield(self)
}

// Checkpoint is a cooperative suspension point: if the preemption ticker
// has already reassigned the current task away from self, this call parks
// until self is chosen again. Yield and a blocking SemWait also switch
// tasks; Sleep and SemPost do not check for preemption. Long task bodies
// that don't otherwise call Yield or a blocking SemWait should call this
// periodically to stay responsive to preemption.
func Checkpoint(rt *Runtime, self *Task) {
	rt.Checkpoint(self)
}

// TaskExit terminates the calling task. For a non-initial task it frees the
// slot and never returns any further control to the caller (the spawned
// goroutine simply ends). For the initial task it drains remaining Ready
// and Blocked work, then stops the preemption ticker; see the longer
// explanation in internal/lifecycle.go for why this does not call
// os.Exit as the original does.
func TaskExit(rt *Runtime, self *Task, code int) {
	gthreads_internal.TaskExit(rt, self, code)
}

// SemInit creates a FIFO counting semaphore with the given initial value.
func SemInit(label string, initial int) *Semaphore {
	return gthreads_internal.SemInit(label, initial)
}

// SemWait decrements sem and blocks the caller, FIFO, if it goes negative.
func SemWait(rt *Runtime, sem *Semaphore, self *Task) {
	sem.SemWait(rt, self)
}

// SemPost increments sem and, if a waiter is queued, readies the head of
// its FIFO queue. Does not yield.
func SemPost(rt *Runtime, sem *Semaphore) {
	sem.SemPost(rt)
}

// Sleep blocks the calling goroutine for the full duration d regardless of
// preemption-tick interruption.
func Sleep(d time.Duration) error {
	return gthreads_internal.Sleep(d)
}

// PrintStats writes the per-task summary table and detail dump. Init
// already wires this to SIGINT (mirroring the original's
// `signal(SIGINT, gt_print_stats)`); this export exists for a host that
// wants to trigger the same dump from somewhere other than an interrupt,
// e.g. its own admin endpoint.
func PrintStats(rt *Runtime) {
	gthreads_internal.PrintStats(rt)
}

// NewCompLogger returns a component sub-logger, for host applications that
// want to log through the same structured logger this runtime uses.
func NewCompLogger(compName string) *logrus.Entry {
	return gthreads_internal.NewCompLogger(compName)
}

// GetRootLogger exposes the root logger, needed for testing.
func GetRootLogger() *gthreads_internal.CollectableLogger {
	return gthreads_internal.GetRootLogger()
}

// SetLogger reconfigures the root logger from the given config.
func SetLogger(logCfg *LoggerConfig) error {
	return gthreads_internal.SetLogger(logCfg)
}
