// Tests for scheduler.go: the schedule() algorithm, policy dispatch, and
// the cooperative-plus-ticking preemption model.

package gthreads_internal

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func newTestRuntime(t *testing.T, policy string) (*Runtime, *Task) {
	t.Helper()
	cfg := DefaultRuntimeConfig()
	cfg.SchedulerConfig.Policy = policy
	cfg.SchedulerConfig.TickInterval = time.Millisecond
	initial, err := Init(cfg)
	if err != nil {
		t.Fatalf("Init: %v", err)
	}
	t.Cleanup(Shutdown)
	rt, err := currentRuntime()
	if err != nil {
		t.Fatalf("currentRuntime: %v", err)
	}
	return rt, initial
}

// TestRoundRobinFairness spawns three CPU-bound tasks and checks each gets
// a turn before any one of them gets a second (S1 in spec.md §8).
func TestRoundRobinFairness(t *testing.T) {
	rt, initial := newTestRuntime(t, PolicyRoundRobin)

	const numTasks = 3
	var mu sync.Mutex
	var order []int
	done := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(numTasks)

	for i := 0; i < numTasks; i++ {
		id := i
		_, err := Spawn(rt, &TaskConfig{Label: "rr"}, func(self *Task) {
			defer wg.Done()
			for iter := 0; iter < 5; iter++ {
				mu.Lock()
				order = append(order, id)
				mu.Unlock()
				rt.Checkpoint(self)
				rt.Yield(self)
			}
		})
		if err != nil {
			t.Fatalf("Spawn: %v", err)
		}
	}

	go func() { wg.Wait(); close(done) }()
	rt.Yield(initial)

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("tasks did not complete in time")
	}

	mu.Lock()
	defer mu.Unlock()
	seen := map[int]bool{}
	for i, id := range order {
		if i >= numTasks {
			break
		}
		seen[id] = true
	}
	if len(seen) != numTasks {
		t.Fatalf("expected all %d tasks to run within the first %d turns, got %v", numTasks, numTasks, order)
	}
}

// TestPriorityForcesOverride checks that a starving Ready task is forced
// into selection once its starvation_count passes the threshold (S6).
func TestPriorityForcesOverride(t *testing.T) {
	rt, initial := newTestRuntime(t, PolicyPriority)

	var lowRuns int64
	hiDone := make(chan struct{})
	hiRan := make(chan struct{}, 1)

	_, err := Spawn(rt, &TaskConfig{Label: "hog", Priority: 0}, func(self *Task) {
		for {
			atomic.AddInt64(&lowRuns, 1)
			select {
			case <-hiDone:
				return
			default:
			}
			rt.Checkpoint(self)
			rt.Yield(self)
		}
	})
	if err != nil {
		t.Fatalf("Spawn: %v", err)
	}

	_, err = Spawn(rt, &TaskConfig{Label: "starved", Priority: 10}, func(self *Task) {
		select {
		case hiRan <- struct{}{}:
		default:
		}
		close(hiDone)
	})
	if err != nil {
		t.Fatalf("Spawn: %v", err)
	}

	rt.Yield(initial)

	select {
	case <-hiRan:
	case <-time.After(5 * time.Second):
		t.Fatal("starved task never ran despite starvation-force override")
	}
}

// TestLotteryZeroTickets checks that a lottery draw over an empty Ready set
// returns no task (boundary behaviour in spec.md §8).
func TestLotteryZeroTickets(t *testing.T) {
	p := &LotteryPolicy{}
	if got := p.Select(nil); got != nil {
		t.Fatalf("Select(nil): want nil, got %v", got)
	}
}

// TestSafetyAtMostOneRunning samples the table state repeatedly while
// several tasks compete and checks at most one is ever Running (property 5
// in spec.md §8).
func TestSafetyAtMostOneRunning(t *testing.T) {
	rt, initial := newTestRuntime(t, PolicyRoundRobin)

	stop := make(chan struct{})
	var wg sync.WaitGroup
	for i := 0; i < 3; i++ {
		wg.Add(1)
		_, err := Spawn(rt, &TaskConfig{Label: "spin"}, func(self *Task) {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
				}
				rt.Checkpoint(self)
				rt.Yield(self)
			}
		})
		if err != nil {
			t.Fatalf("Spawn: %v", err)
		}
	}

	for i := 0; i < 200; i++ {
		running := 0
		rt.mu.Lock()
		for _, tk := range rt.table.all() {
			if tk.State() == Running {
				running++
			}
		}
		rt.mu.Unlock()
		if running > 1 {
			t.Fatalf("observed %d tasks Running simultaneously", running)
		}
		time.Sleep(200 * time.Microsecond)
	}

	close(stop)
	rt.Yield(initial)
	wg.Wait()
}
