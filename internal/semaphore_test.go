// Tests for semaphore.go: mutual exclusion and FIFO wake order.

package gthreads_internal

import (
	"sync"
	"testing"
	"time"
)

// TestSemaphoreMutualExclusion spawns several tasks contending for a single
// slot and checks that no two are ever inside the critical section at once
// (S4 in spec.md §8).
func TestSemaphoreMutualExclusion(t *testing.T) {
	rt, initial := newTestRuntime(t, PolicyRoundRobin)
	sem := SemInit("mutex", 1)

	var mu sync.Mutex
	inCritical := 0
	maxObserved := 0
	var wg sync.WaitGroup

	const numTasks = 4
	for i := 0; i < numTasks; i++ {
		wg.Add(1)
		_, err := Spawn(rt, &TaskConfig{Label: "worker"}, func(self *Task) {
			defer wg.Done()
			for iter := 0; iter < 3; iter++ {
				sem.SemWait(rt, self)

				mu.Lock()
				inCritical++
				if inCritical > maxObserved {
					maxObserved = inCritical
				}
				mu.Unlock()

				rt.Checkpoint(self)
				rt.Yield(self)

				mu.Lock()
				inCritical--
				mu.Unlock()

				sem.SemPost(rt)
				rt.Checkpoint(self)
				rt.Yield(self)
			}
		})
		if err != nil {
			t.Fatalf("Spawn: %v", err)
		}
	}

	done := make(chan struct{})
	go func() { wg.Wait(); close(done) }()
	rt.Yield(initial)

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("tasks did not complete in time")
	}

	mu.Lock()
	defer mu.Unlock()
	if maxObserved > 1 {
		t.Fatalf("observed %d tasks in the critical section at once, want <= 1", maxObserved)
	}
}

// TestSemaphoreFIFOWakeOrder checks that the first task to block is the
// first to wake (S5 / property 3 in spec.md §8).
func TestSemaphoreFIFOWakeOrder(t *testing.T) {
	rt, initial := newTestRuntime(t, PolicyRoundRobin)
	sem := SemInit("gate", 0)

	const numWaiters = 4
	var mu sync.Mutex
	var wakeOrder []int
	blockedCh := make(chan struct{}, numWaiters)
	done := make(chan struct{})
	var wg sync.WaitGroup

	for i := 0; i < numWaiters; i++ {
		id := i
		wg.Add(1)
		_, err := Spawn(rt, &TaskConfig{Label: "waiter"}, func(self *Task) {
			defer wg.Done()
			blockedCh <- struct{}{}
			sem.SemWait(rt, self)
			mu.Lock()
			wakeOrder = append(wakeOrder, id)
			mu.Unlock()
		})
		if err != nil {
			t.Fatalf("Spawn: %v", err)
		}
		// Let each waiter actually reach SemWait (and block on it, since
		// the gate starts at 0) before spawning the next one, so that
		// blocking order matches spawn order deterministically.
		rt.Yield(initial)
		<-blockedCh
		// Give the waiter's goroutine a moment to execute past the send
		// on blockedCh and into SemWait before moving on.
		time.Sleep(2 * time.Millisecond)
	}

	go func() { wg.Wait(); close(done) }()

	for i := 0; i < numWaiters; i++ {
		sem.SemPost(rt)
		rt.Yield(initial)
	}

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("waiters did not complete in time")
	}

	mu.Lock()
	defer mu.Unlock()
	for i, id := range wakeOrder {
		if id != i {
			t.Fatalf("wake order mismatch: want %v, got %v", []int{0, 1, 2, 3}, wakeOrder)
		}
	}
}

// TestSemaphoreWaitOnPositiveValueDoesNotBlock covers the boundary case in
// spec.md §8: sem_wait on value > 0 does not block and does not enqueue.
func TestSemaphoreWaitOnPositiveValueDoesNotBlock(t *testing.T) {
	rt, initial := newTestRuntime(t, PolicyRoundRobin)
	sem := SemInit("slots", 2)

	sem.SemWait(rt, initial)
	if got := sem.Value(rt); got != 1 {
		t.Fatalf("Value after one wait on initial=2: want 1, got %d", got)
	}
	rt.mu.Lock()
	qlen := len(sem.queue)
	rt.mu.Unlock()
	if qlen != 0 {
		t.Fatalf("queue length after non-blocking wait: want 0, got %d", qlen)
	}
}
