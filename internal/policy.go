// Scheduling policies: pure functions over the thread table that pick the
// next Ready task. Each is stateful only in the narrow sense spec.md §4.4
// allows (round-robin's cursor).

package gthreads_internal

import "math/rand/v2"

// Policy selects the next Ready task to run. Selection must not mutate task
// state or metrics; the caller (schedule(), scheduler.go) performs all
// state transitions once a choice is made.
type Policy interface {
	Name() string
	Select(tasks []*Task) *Task
}

const (
	PolicyRoundRobin = "round_robin"
	PolicyPriority   = "priority"
	PolicyLottery    = "lottery"
)

// NewPolicy constructs the named policy, defaulting to round-robin for an
// unrecognized name.
func NewPolicy(name string) Policy {
	switch name {
	case PolicyPriority:
		return &PriorityAgingPolicy{}
	case PolicyLottery:
		return &LotteryPolicy{}
	default:
		return &RoundRobinPolicy{}
	}
}

// RoundRobinPolicy scans the table starting just past its cursor and
// returns the first Ready task found, advancing the cursor to that task's
// index. Deterministic modulo the cursor's initial value of 0.
type RoundRobinPolicy struct {
	cursor int
}

func (p *RoundRobinPolicy) Name() string { return PolicyRoundRobin }

func (p *RoundRobinPolicy) Select(tasks []*Task) *Task {
	n := len(tasks)
	if n == 0 {
		return nil
	}
	for i := 1; i <= n; i++ {
		idx := (p.cursor + i) % n
		if tasks[idx].State() == Ready {
			p.cursor = idx
			return tasks[idx]
		}
	}
	return nil
}

// PriorityAgingPolicy implements spec.md §4.4's priority-with-aging
// discipline. The depression of `priority` by `starvationCount` happens in
// the scheduler's aging pass (scheduler.go step 4), not here; this policy
// only reads the already-depressed priority and the raw starvation count
// for the force-override check.
type PriorityAgingPolicy struct {
	cursor int
}

func (p *PriorityAgingPolicy) Name() string { return PolicyPriority }

func (p *PriorityAgingPolicy) Select(tasks []*Task) *Task {
	n := len(tasks)
	if n == 0 {
		return nil
	}

	// Hard override: any Ready task past the starvation force threshold
	// wins outright, ties broken by table order, highest count first.
	var forced *Task
	for _, t := range tasks {
		t.mu.Lock()
		if t.state == Ready && t.starvationCount > StarvationForceThreshold {
			if forced == nil || t.starvationCount > forced.starvationCount {
				forced = t
			}
		}
		t.mu.Unlock()
	}
	if forced != nil {
		return forced
	}

	for level := MinPriority; level <= MaxPriority; level++ {
		for i := 1; i <= n; i++ {
			idx := (p.cursor + i) % n
			t := tasks[idx]
			t.mu.Lock()
			match := t.state == Ready && t.priority == level
			t.mu.Unlock()
			if match {
				p.cursor = idx
				return t
			}
		}
	}
	return nil
}

// LotteryPolicy draws a ticket-weighted winner among Ready tasks.
type LotteryPolicy struct{}

func (p *LotteryPolicy) Name() string { return PolicyLottery }

func (p *LotteryPolicy) Select(tasks []*Task) *Task {
	total := 0
	for _, t := range tasks {
		if t.State() == Ready {
			total += t.tickets
		}
	}
	if total <= 0 {
		return nil
	}
	draw := rand.IntN(total)
	acc := 0
	for _, t := range tasks {
		t.mu.Lock()
		ready, tickets := t.state == Ready, t.tickets
		t.mu.Unlock()
		if !ready {
			continue
		}
		acc += tickets
		if draw < acc {
			return t
		}
	}
	return nil
}
